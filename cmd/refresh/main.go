// One-shot batch refresh: resolve every registered URL and merge the
// results into the JSON store. Useful from cron outside the API server
// or for a first population after registering URLs by hand.
package main

import (
	"context"
	"flag"
	"time"

	"go.uber.org/zap"

	"macrotrack/internal/browser"
	"macrotrack/internal/config"
	"macrotrack/internal/fetchproxy"
	"macrotrack/internal/logging"
	"macrotrack/internal/nutrition"
	"macrotrack/internal/resolver"
	"macrotrack/internal/store"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to yaml config file")
		timeout    = flag.Duration("timeout", 30*time.Minute, "overall batch timeout")
	)
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

	urls := st.ProductURLs()
	if len(urls) == 0 {
		zap.S().Info("no registered URLs, nothing to refresh")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	session, err := browser.NewChrome(browser.Options{Headless: cfg.Chrome.Headless})
	if err != nil {
		zap.S().Fatalf("browser session failed: %v", err)
	}
	defer session.Close()

	nut := nutrition.NewClient(fetchproxy.New(cfg.Proxy.BaseURL, cfg.Proxy.APIKey))

	resolved, report := resolver.New(session, nut).ResolveAll(ctx, urls, nil)
	if err := st.UpdateProducts(resolved); err != nil {
		zap.S().Fatalf("store update failed: %v", err)
	}

	zap.S().Infow("refresh complete",
		"run_id", report.RunID,
		"total", report.Total,
		"resolved", report.Resolved,
		"failed", report.Failed,
		"took", report.Finished.Sub(report.Started).Round(time.Second).String())
}
