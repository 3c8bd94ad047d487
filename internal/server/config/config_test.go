package config

import (
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":3000", c.Addr)
	assert.Equal(t, "secretKey", c.SecretKey)
	assert.Equal(t, "refreshSecretKey", c.RefreshSecretKey)
	assert.Equal(t, 15*time.Minute, c.AccessTokenValidityDuration)
	assert.Equal(t, 7*24*time.Hour, c.RefreshTokenValidityDuration)
	assert.Equal(t, "mongo", c.StoreDriver)
	assert.Equal(t, "mongodb://127.0.0.1:27017", c.MongoURL)
	assert.Equal(t, "PortfolioDB", c.MongoDBName)
	assert.Equal(t, CookieSettings{Path: "/", SameSite: "lax"}, c.Cookie)
	assert.Equal(t, 587, c.SMTPPort)
	assert.Empty(t, c.S3Bucket)
	assert.Equal(t, 30*time.Second, c.RequestTimeout)
	assert.NoError(t, c.Validate())
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}

	c := LoadConfig()
	require.NotNil(t, c, "LoadConfig must not return nil")

	assert.Equal(t, "PortfolioDB", c.MongoDBName)
	assert.Equal(t, 15*time.Minute, c.AccessTokenValidityDuration)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "missing secret", mutate: func(c *Config) { c.SecretKey = "" }, wantErr: "secret keys must be provided"},
		{name: "same secrets", mutate: func(c *Config) { c.RefreshSecretKey = c.SecretKey }, wantErr: "must differ"},
		{name: "zero lifetime", mutate: func(c *Config) { c.AccessTokenValidityDuration = 0 }, wantErr: "positive"},
		{name: "bad driver", mutate: func(c *Config) { c.StoreDriver = "sqlite" }, wantErr: "unknown store driver"},
		{name: "default secret in production", mutate: func(c *Config) { c.AppEnv = "production" }, wantErr: "production"},
		{name: "bad sameSite", mutate: func(c *Config) { c.Cookie.SameSite = "sometimes" }, wantErr: "sameSite"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			c.LoadDefaults()
			tt.mutate(&c)

			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestCookieSettings(t *testing.T) {
	s := CookieSettings{}
	require.NoError(t, s.Decode(`{"path":"/api","domain":"example.com","secure":true,"sameSite":"Strict"}`))
	assert.Equal(t, CookieSettings{Path: "/api", Domain: "example.com", Secure: true, SameSite: "Strict"}, s)

	c := s.Cookie("authToken", "v", 900)
	assert.Equal(t, "authToken", c.Name)
	assert.Equal(t, "/api", c.Path)
	assert.Equal(t, "example.com", c.Domain)
	assert.Equal(t, 900, c.MaxAge)
	assert.True(t, c.Secure)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)

	blank := CookieSettings{}
	require.NoError(t, blank.Decode(""))
	c = blank.Cookie("refreshToken", "", -1)
	assert.Equal(t, "/", c.Path)
	assert.True(t, c.HttpOnly, "httpOnly cannot be switched off")
	assert.Equal(t, -1, c.MaxAge)

	assert.Error(t, blank.Decode("{"))
}
