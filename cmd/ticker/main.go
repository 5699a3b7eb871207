package main

import (
	"context"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tonecapon3/stock-ticker-v2-sub001/cmd/ticker/internal/api"
	"github.com/tonecapon3/stock-ticker-v2-sub001/cmd/ticker/internal/feed"
	"github.com/tonecapon3/stock-ticker-v2-sub001/cmd/ticker/internal/repository"
	"github.com/tonecapon3/stock-ticker-v2-sub001/cmd/ticker/internal/session"
	"github.com/tonecapon3/stock-ticker-v2-sub001/cmd/ticker/internal/simulate"
	"github.com/tonecapon3/stock-ticker-v2-sub001/pkg/config"
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

	// Optional session archive (Redis). Sessions idle past the TTL are
	// evicted from the archive; in-memory sessions live for the process.
	var archiver repository.SessionArchiver
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		archiver = repository.NewRedisArchiver(rdb, time.Duration(cfg.Redis.TTLMinutes)*time.Minute)
		logger.Info("Session archive enabled", zap.String("addr", cfg.Redis.Addr))
	}

	// Optional tick feed (Kafka).
	var sink simulate.TickSink
	var publisher *feed.Publisher
	if cfg.Kafka.Enabled {
		publisher = feed.NewPublisher(feed.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic), logger)
		sink = publisher
		logger.Info("Tick feed enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	stepper := simulate.RandomWalk{
		Volatility: cfg.Sim.Volatility,
		Rand:       simulate.RealRand{Rand: rand.New(rand.NewSource(time.Now().UnixNano()))},
	}
	scheduler := simulate.NewScheduler(ctx, stepper, simulate.RealClock{}, sink, logger)

	store := session.NewStore(session.Defaults{
		Controls:    session.DefaultControls(cfg.Sim.UpdateIntervalMs, cfg.Sim.Currency),
		Instruments: session.DefaultInstruments(),
	}, archiver, scheduler.Attach, logger)

	// Mirror simulated progress into the archive as ticks land.
	scheduler.OnTick = func(s *session.Session) {
		store.Archive(ctx, s)
	}

	handler := api.NewHandler(store, api.HeaderResolver{}, logger)
	mux := http.NewServeMux()
	handler.Register(mux)

	srv := &http.Server{Addr: cfg.App.Port, Handler: mux}

	go func() {
		logger.Info("Server Started", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal("HTTP Error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("Shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)

	cancel()
	scheduler.Wait()

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("Error closing Kafka writer", zap.Error(err))
		}
	}
	if archiver != nil {
		if err := archiver.Close(); err != nil {
			logger.Error("Error closing Redis", zap.Error(err))
		}
	}
	logger.Info("Shutdown Complete")
}
