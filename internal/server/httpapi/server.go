// Package httpapi exposes folio over HTTP: authentication, the blog,
// access logs, contact mail and media uploads.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/folio/internal/logging"
	"github.com/dmitrijs2005/folio/internal/server/auth"
	"github.com/dmitrijs2005/folio/internal/server/config"
	"github.com/dmitrijs2005/folio/internal/server/models"
	"github.com/dmitrijs2005/folio/internal/server/services"
)

const shutdownTimeout = 10 * time.Second

type AccountManager interface {
	Signup(ctx context.Context, username, password string, role models.Role) error
	Login(ctx context.Context, username, password string) (*auth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, refreshToken string) error
	IsAdmin(ctx context.Context, accessToken string) (bool, error)
	RequireAdmin(ctx context.Context, accessToken string) (string, error)
	Delete(ctx context.Context, username string) error
	List(ctx context.Context) ([]services.AccountSummary, error)
}

type PostManager interface {
	Create(ctx context.Context, in services.PostInput) (string, error)
	Update(ctx context.Context, id string, in services.PostInput) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (models.Post, error)
	List(ctx context.Context) ([]models.Post, error)
	Overviews(ctx context.Context) ([]models.Post, error)
}

type AccessLogManager interface {
	Record(ctx context.Context, ip, method, url string) error
	Query(ctx context.Context, start, end string) ([]models.AccessLogEntry, error)
}

type ContactManager interface {
	Submit(ctx context.Context, msg models.ContactMessage) error
}

type MediaManager interface {
	PresignUpload(ctx context.Context) (string, string, error)
	PresignDownload(ctx context.Context, key string) (string, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services groups everything the handlers call into.
type Services struct {
	Accounts   AccountManager
	Posts      PostManager
	AccessLogs AccessLogManager
	Contact    ContactManager
	Media      MediaManager
	Store      Pinger
}

type Server struct {
	address     string
	logger      logging.Logger
	config      *config.Config
	services    Services
	metrics     *Metrics
	loginRate   RateLimit
	contactRate RateLimit
}

// RateLimit is a request budget per client IP.
type RateLimit struct {
	Requests int
	Window   time.Duration
}

var (
	defaultLoginRate   = RateLimit{Requests: 10, Window: time.Minute}
	defaultContactRate = RateLimit{Requests: 5, Window: time.Minute}
)

func NewServer(cfg *config.Config, l logging.Logger, svc Services) *Server {
	return &Server{
		address:     cfg.Addr,
		logger:      l.With("module", "http_server"),
		config:      cfg,
		services:    svc,
		metrics:     NewMetrics(),
		loginRate:   defaultLoginRate,
		contactRate: defaultContactRate,
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
