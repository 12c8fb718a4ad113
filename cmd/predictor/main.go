// cmd/predictor/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sketch-predictor/internal/common/config"
	"sketch-predictor/internal/common/database"
	"sketch-predictor/internal/common/httpclient"
	"sketch-predictor/internal/common/logger"
	"sketch-predictor/internal/common/observability"
	"sketch-predictor/internal/prediction/availability"
	"sketch-predictor/internal/prediction/events"
	"sketch-predictor/internal/prediction/orchestrator"
)

var (
	configFile string
	logLevel   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "predictor",
		Short: "Sketch prediction service for the drawing game",
		Long: `predictor turns canvas drawings into ranked label guesses using a remote
sketch classifier, with a fallback backend and a local substitute when
neither is reachable.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to config file (default: configs/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(predictCmd())
	rootCmd.AddCommand(probeCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app holds everything the subcommands share.
type app struct {
	cfg    *config.Config
	zapLog *zap.Logger
	log    logger.Logger
	obs    *observability.Observability
	redis  *database.RedisClient
	http   *httpclient.Client

	observer     events.Observer
	orchestrator *orchestrator.Orchestrator
}

func loadConfig() (*config.Config, error) {
	if configFile != "" {
		return config.LoadFromFile(configFile)
	}
	return config.Load()
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	zapLog := logger.New(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	log := logger.NewZapAdapter(zapLog)

	a := &app{
		cfg:    cfg,
		zapLog: zapLog,
		log:    log,
		obs:    observability.New(cfg.Observability.ServiceName, cfg.Observability.JaegerEndpoint),
		http:   httpclient.NewClient(),
	}
	a.observer = events.Multi(events.NewLogObserver(log), events.MetricsObserver{}, events.TraceObserver{})

	store, err := a.availabilityStore(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	a.orchestrator = orchestrator.NewFromConfig(cfg, a.http, store, a.observer, a.obs)
	return a, nil
}

func (a *app) availabilityStore(ctx context.Context) (availability.Store, error) {
	ttl := config.GetDuration(a.cfg.Availability.TTL)
	if a.cfg.Availability.Backend != "redis" {
		return availability.NewMemoryStore(ttl), nil
	}

	a.redis = database.NewRedis(a.cfg.Database.Redis)
	err := retryWithBackoff(func() error {
		return a.redis.Ping(ctx)
	}, 5, time.Second, a.log, "Redis connection")
	if err != nil {
		return nil, err
	}
	a.log.Info("Redis connected successfully", map[string]interface{}{"address": a.cfg.Database.Redis.Address})
	return availability.NewRedisStore(a.redis.Client, a.cfg.Availability.Key, ttl), nil
}

func (a *app) close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	a.obs.Shutdown()
	_ = a.zapLog.Sync()
}

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err,
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}
