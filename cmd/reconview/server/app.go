package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"reconview/api/routes"
	"reconview/internal/catalog"
	"reconview/internal/config"
	"reconview/internal/dao"
	"reconview/internal/database"
	"reconview/internal/metrics"
	"reconview/internal/notification"
	"reconview/internal/services"
	"reconview/pkg/backend"
	"reconview/pkg/lifecycle"
	"reconview/pkg/logger"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	catalogDebounce = 500 * time.Millisecond
	sweepInterval   = 10 * time.Minute
	shutdownTimeout = 10 * time.Second
)

// App is the dashboard server with everything it owns.
type App struct {
	cfg      *config.Config
	logger   *logger.Logger
	catalog  *catalog.Catalog
	db       *gorm.DB
	notifier notification.Notifier
	sessions services.SessionServiceMethods
	router   *gin.Engine
}

// NewApp wires the dashboard. Pollers started by any session stop when ctx
// is done. History and notifications are optional: failing to set them up
// is logged and the dashboard runs without them.
func NewApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	app := &App{cfg: cfg, logger: log}

	client := backend.NewClient(backend.Options{
		BaseURL:   cfg.Backend.URL,
		Timeout:   cfg.Backend.Timeout,
		UserAgent: "reconview",
		Logger:    log,
	})

	cat, err := catalog.Load(cfg.Catalog.Path, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load tool catalog: %w", err)
	}
	app.catalog = cat

	m := metrics.New()

	var jobDao dao.JobDAO
	if cfg.Database.Enabled {
		db, err := database.Open(cfg.Database)
		if err != nil {
			log.WithError(err).Warn("Database unavailable - scan history disabled")
		} else {
			app.db = db
			jobDao = dao.NewJobDAO(db)
			log.Info("Scan history enabled")
		}
	}
	history := services.NewHistoryService(jobDao)

	if cfg.Discord.Enabled() {
		n, err := notification.NewDiscordNotifier(cfg.Discord)
		if err != nil {
			log.WithError(err).Warn("Failed to initialize Discord client")
		} else {
			app.notifier = n
			log.Info("Discord notifications enabled")
		}
	} else {
		log.Info("Discord not configured - notifications disabled")
	}

	factory := func(sessionID string) *lifecycle.Controller {
		opts := []lifecycle.Option{
			lifecycle.WithInterval(cfg.Poll.Interval),
			lifecycle.WithLogger(log),
			lifecycle.WithBaseContext(ctx),
			lifecycle.WithPollObserver(m.ObservePoll),
			lifecycle.WithHook(history.Hook(sessionID)),
			lifecycle.WithHook(m.TransitionHook()),
		}
		if app.notifier != nil {
			opts = append(opts, lifecycle.WithHook(notification.TransitionHook(app.notifier, func(err error) {
				log.WithError(err).Warn("Failed to send scan notification")
			})))
		}
		return lifecycle.NewController(client, opts...)
	}

	app.sessions = services.NewSessionService(factory, services.WithSessionCountObserver(m.SetActiveSessions))
	tools := services.NewToolService(cat)

	app.router = routes.InitRouter(routes.Dependencies{
		Scans:       services.NewScanService(app.sessions, tools, m.ObserveSubmission),
		Results:     services.NewResultService(client, services.WithLoadObserver(m.ObserveResultLoad)),
		Tools:       tools,
		History:     history,
		Metrics:     m,
		Logger:      log,
		PollSeconds: int(cfg.Poll.Interval / time.Second),
	})

	return app, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

// Run serves until ctx is done, then shuts the server down gracefully.
func (a *App) Run(ctx context.Context) error {
	if err := a.catalog.Watch(ctx, catalogDebounce); err != nil {
		a.logger.WithError(err).Warn("Tool catalog will not be reloaded")
	}
	go a.sweep(ctx)

	srv := &http.Server{
		Addr:              a.cfg.ListenAddr(),
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		a.logger.WithFields(logger.Fields{"addr": srv.Addr, "backend": a.cfg.Backend.URL}).Info("Dashboard listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

func (a *App) sweep(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := a.sessions.Sweep(); n > 0 {
				a.logger.WithField("sessions", n).Debug("Dropped idle sessions")
			}
		case <-ctx.Done():
			return
		}
	}
}

// Close stops every poller and releases the database and Discord session.
func (a *App) Close() error {
	a.sessions.Close()

	var errs []error
	if a.notifier != nil {
		if err := a.notifier.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close discord: %w", err))
		}
	}
	if a.db != nil {
		if err := database.Close(a.db); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}
