package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/tonecapon3/stock-ticker-v2-sub001/cmd/watcher/internal/poller"
	"github.com/tonecapon3/stock-ticker-v2-sub001/pkg/config"
	"github.com/tonecapon3/stock-ticker-v2-sub001/pkg/models"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := poller.New(
		cfg.Watcher.ServerURL,
		cfg.Watcher.UserID,
		cfg.Watcher.InstanceID,
		time.Duration(cfg.Watcher.PollIntervalSec)*time.Second,
		time.Duration(cfg.Watcher.TimeoutSec)*time.Second,
		logger,
	)

	p.OnChange = func(stocks []models.Instrument, controls models.Controls) {
		for _, s := range stocks {
			logger.Info("Quote",
				zap.String("symbol", s.Symbol),
				zap.Float64("price", s.CurrentPrice),
				zap.Float64("changePct", s.PercentageChange),
				zap.String("currency", controls.SelectedCurrency),
			)
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		logger.Info("Watcher Started",
			zap.String("server", cfg.Watcher.ServerURL),
			zap.Int("interval_sec", cfg.Watcher.PollIntervalSec))
		p.Run(ctx)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("Shutdown signal received")

	cancel()
	<-done
	logger.Info("Shutdown Complete")
}
