package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"apexcarousel/internal/auth"
	"apexcarousel/internal/carousel"
	"apexcarousel/internal/fetch"
	"apexcarousel/internal/generations"
	"apexcarousel/internal/llm"
	"apexcarousel/internal/storage"
	synchub "apexcarousel/internal/sync"
	"apexcarousel/internal/users"
	"apexcarousel/pkg/database"
	"apexcarousel/pkg/logging"
	"apexcarousel/pkg/utils"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default: XDG config dir)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "api-server:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := utils.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	if cfg.UsesDevSecret() {
		log.Warn("using the built-in development JWT secret; set APEX_JWT_SECRET")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db := database.MustOpen(database.Config{Path: cfg.DBPath}, log)
	defer db.Close()

	store, err := storage.NewLocal(cfg.StorageDir)
	if err != nil {
		return err
	}

	gen, err := llm.New(ctx, llm.Settings{
		Provider: cfg.AI.Provider,
		Model:    cfg.AI.Model,
		APIKey:   cfg.AI.APIKey,
		BaseURL:  cfg.AI.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("init ai provider: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(logging.GinMiddleware(log), logging.Recovery(log))
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	hub := synchub.NewHub(log.Named("ws"))
	defer hub.Close()

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/ready", func(c *gin.Context) {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		stats := hub.Stats()
		if err := db.PingContext(pingCtx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "db_error": err.Error(), "ws": stats})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "db": "ok", "ws": stats})
	})

	// Carousel core (public)
	fetcher := fetch.NewFetcher(fetch.DefaultTimeout, fetch.DefaultMaxBody)
	fetcher.Log = log.Named("fetch")
	svc := carousel.NewService(fetcher, gen, log.Named("carousel"))
	carousel.NewHandler(svc).RegisterRoutes(router.Group("/api"))

	// Auth
	tokenSvc := auth.TokenService{
		Secret:   []byte(cfg.Auth.JWTSecret),
		Issuer:   cfg.Auth.JWTIssuer,
		Duration: cfg.Auth.JWTDuration,
	}
	authRepo := auth.NewRepo(db)
	auth.NewHandler(authRepo, tokenSvc).RegisterRoutes(router.Group("/auth"))

	router.GET("/ws", synchub.WSHandler(hub, tokenSvc, authRepo))

	// Protected routes
	protected := router.Group("/users", auth.AuthMiddleware(tokenSvc, authRepo))
	userRepo := users.NewRepo(db)
	users.NewHandler(userRepo, store, cfg.FreeLimit, log.Named("users")).RegisterRoutes(protected)
	generations.NewHandler(generations.NewRepo(db), store, userRepo, cfg.FreeLimit, hub, log.Named("generations")).
		RegisterRoutes(protected)

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("HTTP API server listening", zap.String("addr", cfg.HTTPAddr), zap.String("db", cfg.DBPath))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		hub.Close()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
