package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/folio/internal/logging"
	"github.com/dmitrijs2005/folio/internal/server/auth"
	"github.com/dmitrijs2005/folio/internal/server/config"
	"github.com/dmitrijs2005/folio/internal/server/docstore"
	"github.com/dmitrijs2005/folio/internal/server/mail"
	"github.com/dmitrijs2005/folio/internal/server/models"
	"github.com/dmitrijs2005/folio/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/folio/internal/server/services"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminName     = "admin"
	adminPassword = "Admin#Pass1"
)

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type captureDispatcher struct {
	sent []mail.Message
}

func (d *captureDispatcher) Dispatch(_ context.Context, msg mail.Message) error {
	d.sent = append(d.sent, msg)
	return nil
}

type fakeMedia struct {
	key, url string
	err      error
	gotKey   string
}

func (f *fakeMedia) PresignUpload(context.Context) (string, string, error) {
	return f.key, f.url, f.err
}

func (f *fakeMedia) PresignDownload(_ context.Context, key string) (string, error) {
	f.gotKey = key
	return f.url, f.err
}

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("no reachable servers") }

type testEnv struct {
	server   *Server
	handler  http.Handler
	accounts *services.AccountService
	mailer   *captureDispatcher
}

// newTestEnv wires the real services over the memory store and seeds an
// admin account.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.AccessTokenValidityDuration = time.Minute
	cfg.RefreshTokenValidityDuration = time.Hour
	cfg.SecretKey = "access-secret"
	cfg.RefreshSecretKey = "refresh-secret"

	logger := discardLogger()
	m := repomanager.NewRepositoryManager(docstore.NewMemoryStore())
	require.NoError(t, m.EnsureIndexes(ctx))

	tokens := auth.NewTokenService(cfg.SecretKey, cfg.RefreshSecretKey, cfg.AccessTokenValidityDuration, cfg.RefreshTokenValidityDuration)
	accounts := services.NewAccountService(m, tokens, auth.NewBcryptHasher(bcrypt.MinCost), logger)
	require.NoError(t, accounts.Signup(ctx, adminName, adminPassword, models.RoleAdmin))

	mailer := &captureDispatcher{}
	srv := NewServer(cfg, logger, Services{
		Accounts:   accounts,
		Posts:      services.NewPostService(m, nil, logger),
		AccessLogs: services.NewAccessLogService(m),
		Contact:    services.NewContactService(mailer, "owner@example.com", logger),
		Media:      services.NewMediaService(cfg),
		Store:      m,
	})

	return &testEnv{server: srv, handler: srv.Handler(), accounts: accounts, mailer: mailer}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	if rdr != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) login(t *testing.T, username, password string) map[string]*http.Cookie {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/auth/login", credentialsRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return cookiesByName(rec)
}

func cookiesByName(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env.Error
}
