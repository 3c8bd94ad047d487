package config

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// CookieSettings holds the token cookie attributes read from COOKIE_SETTINGS,
// e.g. {"path":"/","domain":"example.com","secure":true,"sameSite":"strict"}.
// HttpOnly is always set and is not configurable.
type CookieSettings struct {
	Path     string `json:"path"`
	Domain   string `json:"domain"`
	Secure   bool   `json:"secure"`
	SameSite string `json:"sameSite"`
}

// Decode implements envconfig.Decoder.
func (s *CookieSettings) Decode(value string) error {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(value), s); err != nil {
		return fmt.Errorf("invalid cookie settings: %w", err)
	}
	return nil
}

func (s CookieSettings) sameSite() (http.SameSite, error) {
	switch strings.ToLower(s.SameSite) {
	case "":
		return http.SameSiteDefaultMode, nil
	case "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("invalid cookie sameSite %q", s.SameSite)
	}
}

// Cookie returns an httpOnly cookie carrying value for maxAge seconds.
// A negative maxAge expires the cookie.
func (s CookieSettings) Cookie(name, value string, maxAge int) *http.Cookie {
	sameSite, err := s.sameSite()
	if err != nil {
		sameSite = http.SameSiteLaxMode
	}
	path := s.Path
	if path == "" {
		path = "/"
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Domain:   s.Domain,
		MaxAge:   maxAge,
		Secure:   s.Secure,
		HttpOnly: true,
		SameSite: sameSite,
	}
}
