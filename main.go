package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	"weddingplanner/auth"
	"weddingplanner/config"
	"weddingplanner/db"
	"weddingplanner/logging"
	"weddingplanner/middleware"
	"weddingplanner/ratelim"
	"weddingplanner/routes"
	"weddingplanner/session"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	started := time.Now()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("invalid configuration")
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	log := logging.For("main")
	log.Info().Str("version", version).Str("host", cfg.Host).Msg("starting wedding planner")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect(ctx, cfg.DB.URI())
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Sessions live in Redis when an address is configured.
	var (
		store session.Store
		rdb   *redis.Client
	)
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logging.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("failed to connect to redis")
		}
		store = session.NewRedisStore(rdb)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("sessions stored in redis")
	} else {
		mem := session.NewMemoryStore()
		go sweep(ctx, mem.Sweep)
		store = mem
		log.Warn().Msg("no redis configured, sessions kept in memory")
	}
	sessions := session.NewManager(store, cfg.Session.Name, cfg.Session.Secret, cfg.Session.MaxAge, true)

	allow := auth.NewAllowList()
	allow.AddHost(ctx, net.DefaultResolver, cfg.Host)

	var verifier auth.CredentialVerifier
	if cfg.OAuth.Enabled() {
		verifier = auth.NewGoogleVerifier(&http.Client{Timeout: 10 * time.Second}, cfg.OAuth.ClientID)
	}

	router, err := routes.New(routes.Deps{
		Config:    cfg,
		DB:        database,
		Sessions:  sessions,
		AllowList: allow,
		Verifier:  verifier,
		Gallery:   os.DirFS(cfg.Gallery.Dir),
		Version:   version,
		Started:   started,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to register routes")
	}

	limiter := ratelim.NewRateLimiter(cfg.RateLimit.PerMinute)
	go limiter.Run(ctx)

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.BaseURL()},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type", middleware.TokenHeader},
		AllowCredentials: true,
	})

	handler := middleware.Chain(router,
		middleware.Logging,
		middleware.SecurityHeaders,
		corsMiddleware.Handler,
		middleware.HostGuard(cfg.Host, "/status"),
		middleware.Context(sessions, cfg.Server.TrustProxy),
		middleware.Admin(database.Tokens),
		limiter.Limit,
	)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	if err := database.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to close database")
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close redis")
		}
	}
	log.Info().Msg("server stopped")
}

// sweep runs fn every minute until ctx is done.
func sweep(ctx context.Context, fn func()) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
