package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"macrotrack/internal/auth"
	"macrotrack/internal/browser"
	"macrotrack/internal/config"
	"macrotrack/internal/feed"
	"macrotrack/internal/fetchproxy"
	"macrotrack/internal/logging"
	"macrotrack/internal/nutrition"
	"macrotrack/internal/products"
	"macrotrack/internal/recipe"
	"macrotrack/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to yaml config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		zap.S().Fatalf("config load failed: %v", err)
	}

	logger := logging.Setup(cfg.Logger)
	defer logger.Sync()

	st, err := store.New(cfg.DataDir)
	if err != nil {
		zap.S().Fatalf("store init failed: %v", err)
	}

	if cfg.Logger.Mode != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	// Start the event feed first so binding errors show up early.
	hub := feed.NewHub()
	router.GET("/ws", feed.WSHandler(hub))
	tcpSrv := feed.NewServer(cfg.FeedAddr, hub)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "data_dir": cfg.DataDir})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := hub.Stats()
		c.JSON(http.StatusOK, gin.H{
			"status":      "ready",
			"urls":        len(st.ProductURLs()),
			"products":    len(st.Products()),
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		})
	})

	// Auth
	tokenSvc := auth.TokenService{
		Secret:   []byte(cfg.Auth.JWTSecret),
		Issuer:   cfg.Auth.JWTIssuer,
		Duration: cfg.Auth.JWTDuration,
	}
	authHandler := auth.NewHandler(cfg.Auth, tokenSvc)
	authHandler.RegisterRoutes(router.Group("/auth"))

	// Product API (protected)
	nutritionClient := nutrition.NewClient(fetchproxy.New(cfg.Proxy.BaseURL, cfg.Proxy.APIKey))
	sessions := func(ctx context.Context) (browser.Session, error) {
		return browser.NewChrome(browser.Options{Headless: cfg.Chrome.Headless})
	}
	handler := products.NewHandler(st, nutritionClient, sessions, hub,
		recipe.NewGenerator(cfg.Recipe.Endpoint, cfg.Recipe.APIKey))

	protected := router.Group("/api")
	protected.Use(auth.AuthMiddleware(tokenSvc))
	handler.RegisterRoutes(protected)

	// Optional scheduled refresh.
	var sched *cron.Cron
	if cfg.Refresh.Cron != "" {
		sched = cron.New()
		_, err := sched.AddFunc(cfg.Refresh.Cron, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
			defer cancel()
			report, err := handler.RunRefresh(ctx)
			if err != nil {
				zap.S().Errorw("scheduled refresh failed", "err", err)
				return
			}
			zap.S().Infow("scheduled refresh finished",
				"run_id", report.RunID, "resolved", report.Resolved, "failed", report.Failed)
		})
		if err != nil {
			zap.S().Fatalf("invalid refresh cron expression %q: %v", cfg.Refresh.Cron, err)
		}
		sched.Start()
		zap.S().Infow("scheduled refresh enabled", "cron", cfg.Refresh.Cron)
	}

	httpSrv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := tcpSrv.Run(); err != nil {
			errCh <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		zap.S().Infow("HTTP API server listening", "addr", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		zap.S().Infow("shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		zap.S().Errorw("server error", "err", err)
	}

	zap.S().Info("shutting down servers")
	if sched != nil {
		<-sched.Stop().Done()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		zap.S().Errorw("http shutdown error", "err", err)
	}
	if err := tcpSrv.Close(); err != nil {
		zap.S().Errorw("tcp shutdown error", "err", err)
	}

	wg.Wait()
	zap.S().Info("servers stopped")
}
