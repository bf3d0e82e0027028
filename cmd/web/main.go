package main

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"spinlab/internal/config"
	"spinlab/internal/consent"
	"spinlab/internal/game"
	"spinlab/internal/handlers"
	"spinlab/internal/lead"
	"spinlab/internal/lead/pgrepo"
	"spinlab/internal/wheel"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		// Logger is not built yet.
		_, _ = os.Stderr.WriteString("load .env: " + err.Error() + "\n")
	}
	cfg := config.FromEnv()
	logger, err := cfg.NewLogger()
	if err != nil {
		panic("failed to build logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	_ = mime.AddExtensionType(".js", "application/javascript")
	_ = mime.AddExtensionType(".css", "text/css")

	settings, err := wheel.LoadSettings(cfg.CatalogPath)
	if err != nil {
		logger.Warn("catalog fallback to defaults", zap.String("path", cfg.CatalogPath), zap.Error(err))
	}
	logger.Info("catalog loaded", zap.Strings("prizes", settings.Catalog.Labels()), zap.Bool("weighted", settings.Catalog.Weighted()))

	newRNG := func() wheel.RNG { return wheel.NewRNG(0) }
	if cfg.Seed != 0 {
		newRNG = func() wheel.RNG { return wheel.NewRNG(cfg.Seed) }
	}
	store := game.NewStore(settings.Catalog, newRNG)
	go store.RunSweeper(ctx, time.Minute, func(removed, live int) {
		logger.Info("sessions swept", zap.Int("removed", removed), zap.Int("live", live))
	})

	repo, closeRepo, err := openLeadRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	consentStore, closeConsent := openConsentStore(ctx, cfg, logger)
	defer closeConsent()

	deps := handlers.Deps{
		Store:   store,
		Leads:   lead.NewService(repo, settings.RewardCode),
		Consent: consentStore,
		Brand:   cfg.Brand,
		Layout:  wheel.DefaultLayout(cfg.Mark),
		BaseURL: cfg.BaseURL,
		Log:     logger,
	}

	staticFS, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	gameHandler := handlers.NewGameHandler(deps)
	gameHandler.RegisterStream(r)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(15 * time.Second))
		r.Mount("/static", http.StripPrefix("/static", http.FileServer(http.FS(staticFS))))
		handlers.NewHomeHandler(deps).RegisterRoutes(r)
		gameHandler.RegisterRoutes(r)
		r.Route("/api", func(r chi.Router) {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins:   cfg.CORSOrigins,
				AllowedMethods:   []string{"GET", "OPTIONS"},
				AllowedHeaders:   []string{"Accept", "Content-Type"},
				AllowCredentials: false,
				MaxAge:           60 * 15,
			}))
			handlers.NewAPIHandler(deps).RegisterRoutes(r)
		})
	})

	// No WriteTimeout: /stream holds the connection open.
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr), zap.String("brand", cfg.Brand))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return server.Shutdown(shutdownCtx)
}

func openLeadRepository(ctx context.Context, cfg config.Config, logger *zap.Logger) (lead.Repository, func(), error) {
	if cfg.PGDSN == "" {
		logger.Info("lead storage: memory")
		return lead.NewMemoryRepository(), func() {}, nil
	}
	pool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	if err := pgrepo.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	txManager, err := manager.New(trmpgx.NewDefaultFactory(pool))
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	logger.Info("lead storage: postgres")
	return pgrepo.New(pool, txManager), pool.Close, nil
}

// openConsentStore falls back to memory when redis is not configured or not
// reachable; consent is also kept in the browser cookie.
func openConsentStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (consent.Store, func()) {
	if cfg.RedisAddr == "" {
		return consent.NewMemoryStore(), func() {}
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, consent kept in memory", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		_ = rdb.Close()
		return consent.NewMemoryStore(), func() {}
	}
	logger.Info("consent storage: redis", zap.String("addr", cfg.RedisAddr))
	return consent.NewRedisStore(rdb, cfg.Brand), func() { _ = rdb.Close() }
}

//go:embed static/*
var embeddedStatic embed.FS
