// Package server wires configuration, storage, mail and the HTTP API
// together and runs them until the process is signalled to stop.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/folio/internal/logging"
	"github.com/dmitrijs2005/folio/internal/server/auth"
	"github.com/dmitrijs2005/folio/internal/server/cache"
	"github.com/dmitrijs2005/folio/internal/server/config"
	"github.com/dmitrijs2005/folio/internal/server/httpapi"
	"github.com/dmitrijs2005/folio/internal/server/mail"
	"github.com/dmitrijs2005/folio/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/folio/internal/server/services"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

const (
	cachePrefix = "folio"
	cacheTTL    = 5 * time.Minute
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	manager  *repomanager.StoreRepositoryManager
	accounts *services.AccountService
	server   *httpapi.Server
	worker   *mail.Worker
	redis    *redis.Client
	queue    *asynq.Client
}

func storeConfig(c *config.Config) repomanager.StoreConfig {
	return repomanager.StoreConfig{
		Driver:      c.StoreDriver,
		MongoURL:    c.MongoURL,
		MongoDBName: c.MongoDBName,
		DatabaseDSN: c.DatabaseDSN,
	}
}

func newSender(c *config.Config, logger logging.Logger) mail.Sender {
	if c.MailSenderAddress == "" {
		return mail.NewLogSender(logger)
	}
	return mail.NewSMTPSender(c.SMTPHost, c.SMTPPort, c.MailSenderAddress, c.MailSenderPassword)
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logger := logging.New(os.Stdout, c.LogBackend, c.LogFormat, c.LogLevel)

	m, err := repomanager.Open(ctx, storeConfig(c))
	if err != nil {
		return nil, err
	}

	app := &App{config: c, logger: logger, manager: m}

	sender := newSender(c, logger.With("module", "mail"))
	var dispatcher mail.Dispatcher = mail.NewDirectDispatcher(sender)
	var overviews *cache.Cache

	if c.RedisAddr != "" {
		app.redis, err = cache.Connect(ctx, c.RedisAddr)
		if err != nil {
			app.close(ctx)
			return nil, err
		}
		overviews = cache.New(app.redis, cachePrefix, cacheTTL)

		redisOpts := asynq.RedisClientOpt{Addr: c.RedisAddr}
		app.queue = asynq.NewClient(redisOpts)
		dispatcher = mail.NewQueueDispatcher(app.queue)
		app.worker = mail.NewWorker(redisOpts, sender, logger.With("module", "mail_worker"))
	}

	tokens := auth.NewTokenService(c.SecretKey, c.RefreshSecretKey, c.AccessTokenValidityDuration, c.RefreshTokenValidityDuration)
	app.accounts = services.NewAccountService(m, tokens, auth.NewBcryptHasher(0), logger.With("module", "accounts"))

	app.server = httpapi.NewServer(c, logger, httpapi.Services{
		Accounts:   app.accounts,
		Posts:      services.NewPostService(m, overviews, logger.With("module", "posts")),
		AccessLogs: services.NewAccessLogService(m),
		Contact:    services.NewContactService(dispatcher, c.ContactRecipient, logger.With("module", "contact")),
		Media:      services.NewMediaService(c),
		Store:      m,
	})

	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// close releases connections in reverse order of acquisition.
func (app *App) close(ctx context.Context) {
	if app.queue != nil {
		if err := app.queue.Close(); err != nil {
			app.logger.Error(ctx, "queue client close failed", "error", err)
		}
	}
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error(ctx, "redis close failed", "error", err)
		}
	}
	if app.manager != nil {
		if err := app.manager.Close(ctx); err != nil {
			app.logger.Error(ctx, "store close failed", "error", err)
		}
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "store", app.config.StoreDriver)

	if err := app.accounts.EnsureAdmin(ctx, app.config.AdminUserName, app.config.AdminPassword); err != nil {
		app.logger.Error(ctx, "bootstrap admin not created", "error", err)
	}

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.server.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	if app.worker != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := app.worker.Run(ctx); err != nil {
				app.logger.Error(ctx, err.Error())
				cancelFunc()
			}
		}()
	}

	wg.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	app.close(shutdownCtx)
	app.logger.Info(shutdownCtx, "App stopped")
}
