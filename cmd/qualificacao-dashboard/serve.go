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

	"github.com/iwvelando/qualificacao-dashboard/internal/dashboard"
	"github.com/iwvelando/qualificacao-dashboard/internal/observability"
	"github.com/iwvelando/qualificacao-dashboard/internal/server"
	"github.com/iwvelando/qualificacao-dashboard/internal/session"
	"github.com/iwvelando/qualificacao-dashboard/pkg/constants"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the map page and its API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&a.serverConfigPath, "server-config", constants.DefaultServerConfigFile, "path to server configuration file")
	return cmd
}

// runtime is everything serve starts, kept together so it can be built
// without listening.
type runtime struct {
	httpServer *http.Server
	dashboard  *dashboard.Service
	stopSweep  func()
}

func (a *app) buildRuntime(scfg *server.Config, logger *zap.Logger) (*runtime, error) {
	var metrics *observability.Metrics
	if scfg.MetricsEnabled {
		metrics = observability.NewMetrics()
	}

	svc, err := dashboard.New(a.conf.DashboardOptions(), logger, metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard data: %w", err)
	}

	sessions := session.NewStore(scfg.SessionTTLDuration(), a.conf.DefaultLayer(), nil, logger)
	stopSweep, err := sessions.StartSweeper(scfg.SweepSchedule, metrics.SetSessions)
	if err != nil {
		return nil, err
	}

	handler := server.NewHandler(logger, server.Options{
		Dashboard: svc,
		Sessions:  sessions,
		Metrics:   metrics,
		Map: server.MapSettings{
			CenterLat:    a.conf.Map.CenterLat,
			CenterLng:    a.conf.Map.CenterLng,
			Zoom:         a.conf.Map.Zoom,
			Tiles:        a.conf.Map.Tiles,
			DefaultLayer: a.conf.DefaultLayer(),
		},
		Version: version,
	})

	return &runtime{
		httpServer: &http.Server{
			Addr:              scfg.Address,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		dashboard: svc,
		stopSweep: stopSweep,
	}, nil
}

func (a *app) serve(ctx context.Context) error {
	scfg, err := server.LoadConfig(a.serverConfigPath)
	if err != nil {
		return err
	}

	logger, err := initializeLogger(mergeLogging(a.conf.Logging, scfg.Logging), a.logLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	rt, err := a.buildRuntime(scfg, logger)
	if err != nil {
		logger.Error("failed to start",
			zap.String("op", "main.serve"),
			zap.Error(err),
		)
		return err
	}
	defer rt.stopSweep()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.conf.Data.Watch {
		go func() {
			if err := rt.dashboard.Watch(ctx); err != nil {
				logger.Error("data watcher stopped",
					zap.String("op", "main.serve"),
					zap.Error(err),
				)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting",
			zap.String("op", "main.serve"),
			zap.String("address", scfg.Address),
			zap.String("version", version),
		)
		errCh <- rt.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down",
		zap.String("op", "main.serve"),
	)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return rt.httpServer.Shutdown(shutdownCtx)
}
