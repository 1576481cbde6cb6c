package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/profiles/internal/handler"
	"github.com/jmerrifield20/profiles/internal/health"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tokens, err := tokenIssuer()
	if err != nil {
		return fmt.Errorf("configure auth: %w", err)
	}

	s, err := openStores(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	d := s.denormalizer()
	if s.cached != nil {
		go s.cached.StartEvictor(ctx, time.Minute)
	}
	d.SetDegradedHook(handler.RecordDegradedEnrichment)

	// ── Health ───────────────────────────────────────────────────────────────
	probes := []health.Probe{
		health.NewProbe("postgres", s.db.Ping),
		health.NewProbe("mongodb", func(ctx context.Context) error {
			return s.mongo.Ping(ctx, readpref.Primary())
		}),
	}
	if s.redis != nil {
		probes = append(probes, health.NewProbe("redis", func(ctx context.Context) error {
			return s.redis.Ping(ctx).Err()
		}))
	}
	checker := health.New(probes, health.Config{
		CheckInterval: viper.GetDuration("health.check_interval"),
		FailThreshold: viper.GetInt("health.fail_threshold"),
	}, logger)
	checker.SetMetricsRecord(handler.RecordHealthCheck)
	go checker.Start(ctx)

	// ── HTTP Router ──────────────────────────────────────────────────────────
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	corsOrigins := viper.GetStringSlice("server.cors_origins")
	router.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length", "X-Items-Count"},
		AllowCredentials: !handler.ContainsWildcard(corsOrigins),
		MaxAge:           12 * time.Hour,
	}))
	router.Use(handler.SecurityHeaders())
	router.Use(handler.BodyLimit(1 << 20))

	if rps := viper.GetInt("server.rate_limit_rps"); rps > 0 {
		router.Use(handler.RateLimiter(ctx, rps, rps*2))
	}
	router.Use(handler.RequestLogger(logger))
	router.Use(handler.PrometheusMiddleware())

	handler.NewHealthHandler(checker).Register(router)
	router.GET("/metrics", handler.MetricsHandler())

	userHandler := handler.NewUserHandler(s.users, d, tokens, logger)
	userHandler.SetPlatformAdmins(s.admins)
	userHandler.SetModuleConfigs(s.config)
	userHandler.Register(router.Group("/api"))

	port := viper.GetInt("server.port")
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("profiles HTTP listening", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http listen: %w", err)
	}
	logger.Info("shutting down profiles...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", zap.Error(err))
	}

	logger.Info("profiles stopped")
	return nil
}
