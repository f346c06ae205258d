package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blognest/app/media"
	"blognest/app/repositories"
	"blognest/app/routes"
	"blognest/app/search"
	"blognest/app/services"
	"blognest/app/session"

	"github.com/rs/zerolog"
)

// PingFunc adapts a function to routes.Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// App holds the running server's dependencies.
type App struct {
	Handler http.Handler

	closers []func()
}

// Close releases everything buildApp opened, in reverse order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// buildApp opens the store and optional backends and assembles the router.
// Redis is required. Meilisearch and MinIO are skipped when unconfigured.
func buildApp(ctx context.Context, log zerolog.Logger) (*App, error) {
	cfg := settings
	app := &App{}

	store, err := repositories.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	app.closers = append(app.closers, func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("close store")
		}
	})

	sessions, err := session.NewRedisStore(cfg.RedisURL, cfg.SessionTTL)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	app.closers = append(app.closers, func() { _ = sessions.Close() })

	postRepo := repositories.NewBadgerPostRepository(store)
	commentRepo := repositories.NewBadgerCommentRepository(store)
	posts := services.NewPostService(postRepo, commentRepo).WithLogger(log)
	comments := services.NewCommentService(commentRepo, postRepo)
	users := services.NewUserService(repositories.NewBadgerUserRepository(store), cfg.BcryptCost)

	health := map[string]routes.Pinger{
		"store": store,
		"redis": sessions,
	}

	if cfg.MeiliURL != "" {
		index := search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey, log)
		app.closers = append(app.closers, index.Close)
		posts.WithIndex(index)
		health["search"] = PingFunc(func(context.Context) error {
			if !index.Healthy() {
				return search.ErrUnhealthy
			}
			return nil
		})
		if index.Healthy() {
			all, _, err := postRepo.Find(ctx, repositories.PostQuery{})
			if err == nil {
				err = index.Reindex(all)
			}
			if err != nil {
				log.Warn().Err(err).Msg("initial reindex failed")
			}
		}
	} else {
		log.Info().Msg("MEILI_URL not set, search uses the store")
	}

	var uploads media.Store
	if cfg.MinioEndpoint != "" {
		minioStore, err := media.NewMinioStore(ctx, media.MinioOptions{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			PublicURL: cfg.MediaPublicURL,
		}, log)
		if err != nil {
			log.Warn().Err(err).Msg("media storage unavailable, uploads disabled")
		} else {
			uploads = minioStore
		}
	} else {
		log.Info().Msg("MINIO_ENDPOINT not set, uploads disabled")
	}

	app.Handler = routes.SetupRoutes(routes.Deps{
		Posts:         posts,
		Comments:      comments,
		Users:         users,
		Sessions:      sessions,
		SessionTTL:    cfg.SessionTTL,
		SecureCookies: cfg.SecureCookies,
		Media:         uploads,
		Health:        health,
		Log:           log,
	})
	return app, nil
}

func newServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// serveUntil runs srv until ctx is cancelled and then shuts it down,
// giving in-flight requests up to timeout to finish.
func serveUntil(ctx context.Context, srv *http.Server, timeout time.Duration, log zerolog.Logger) error {
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// RunAppServer starts the blog API and blocks until SIGINT or SIGTERM.
func RunAppServer() int {
	log := newLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := buildApp(ctx, log)
	if err != nil {
		log.Error().Err(err).Msg("startup failed")
		return 1
	}
	defer app.Close()

	srv := newServer(settings.Addr, app.Handler)
	if err := serveUntil(ctx, srv, settings.ShutdownTimeout, log); err != nil {
		log.Error().Err(err).Msg("server stopped")
		return 1
	}
	log.Info().Msg("server stopped")
	return 0
}
