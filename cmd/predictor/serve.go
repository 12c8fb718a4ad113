// cmd/predictor/serve.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"sketch-predictor/internal/api"
	"sketch-predictor/internal/common/camunda"
	"sketch-predictor/internal/common/config"
	"sketch-predictor/internal/learning/progression"
	classifydrawing "sketch-predictor/internal/workers/classify-drawing"
)

func serveCmd() *cobra.Command {
	var level int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (and the Camunda worker when enabled)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			return a.serve(ctx, level)
		},
	}

	cmd.Flags().IntVar(&level, "level", 1, "class level of the learner session")
	return cmd
}

func (a *app) serve(ctx context.Context, level int) error {
	curriculum, err := progression.FromConfig(a.cfg.Progression)
	if err != nil {
		return err
	}
	session, err := progression.NewSession(curriculum, level)
	if err != nil {
		return err
	}

	// Pre-set the advisory flag the way the UI does on first load.
	go func() {
		available := a.orchestrator.CheckAvailability(ctx)
		if !available {
			a.log.Warn("Prediction backend not reachable, substitute predictions will be served", nil)
		}
	}()

	var worker *camunda.CamundaWorker
	if a.cfg.Camunda.Enabled {
		worker, err = a.startWorker()
		if err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(a.cfg.Server.ShutdownTimeout))
			defer cancel()
			worker.Stop(stopCtx)
		}()
	}

	handler := api.NewHandler(a.orchestrator, session, api.Options{
		ImageSize:      a.cfg.Prediction.ImageSize,
		MaxUploadBytes: a.cfg.Server.MaxUploadBytes,
	}, a.log)

	srv := &http.Server{
		Addr:              a.cfg.Server.Address,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("HTTP server listening", map[string]interface{}{
			"address": a.cfg.Server.Address,
			"level":   level,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			a.log.Error("HTTP server failed", map[string]interface{}{"error": err})
			return err
		}
	case <-ctx.Done():
	}

	a.log.Info("Shutdown signal received, stopping server...", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(a.cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("Error during HTTP shutdown", map[string]interface{}{"error": err})
		return err
	}
	a.log.Info("Predictor stopped gracefully", nil)
	return nil
}

func (a *app) startWorker() (*camunda.CamundaWorker, error) {
	var client *camunda.Client
	err := retryWithBackoff(func() error {
		var err error
		client, err = camunda.NewClient(a.cfg.Camunda.BrokerAddress)
		return err
	}, 5, 2*time.Second, a.log, "Zeebe client initialization")
	if err != nil {
		return nil, err
	}
	a.log.Info("Zeebe client connected successfully", map[string]interface{}{"broker": a.cfg.Camunda.BrokerAddress})

	wcfg := classifydrawing.LoadConfig(a.cfg)
	handler := classifydrawing.NewHandler(wcfg, a.orchestrator, a.log)
	w := camunda.NewWorker(client.GetClient(), wcfg.Worker(), handler, a.log)
	w.Start()
	return w, nil
}
