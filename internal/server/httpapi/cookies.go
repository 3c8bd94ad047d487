package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/folio/internal/common"
)

const (
	accessTokenCookie  = common.AccessTokenCookieName
	refreshTokenCookie = common.RefreshTokenCookieName
)

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

func (s *Server) setTokenCookies(w http.ResponseWriter, access, refresh string) {
	if access != "" {
		http.SetCookie(w, s.config.Cookie.Cookie(accessTokenCookie, access, int(s.config.AccessTokenValidityDuration.Seconds())))
	}
	if refresh != "" {
		http.SetCookie(w, s.config.Cookie.Cookie(refreshTokenCookie, refresh, int(s.config.RefreshTokenValidityDuration.Seconds())))
	}
}

// clearTokenCookies expires both cookies with the same attributes they
// were set with, otherwise browsers keep them.
func (s *Server) clearTokenCookies(w http.ResponseWriter) {
	http.SetCookie(w, s.config.Cookie.Cookie(accessTokenCookie, "", -1))
	http.SetCookie(w, s.config.Cookie.Cookie(refreshTokenCookie, "", -1))
}
