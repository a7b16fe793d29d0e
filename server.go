package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	apihttp "equip-manager/internal/api/http"
	"equip-manager/internal/audit"
	cataloghttp "equip-manager/internal/catalog/interfaces/http"
	certificateshttp "equip-manager/internal/certificates/interfaces/http"
	dashboardhttp "equip-manager/internal/dashboard/interfaces/http"
	equipmenthttp "equip-manager/internal/equipment/interfaces/http"
	"equip-manager/internal/observability/metrics"
	pointshttp "equip-manager/internal/points/interfaces/http"
	transferhttp "equip-manager/internal/transfer/interfaces/http"
)

func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Migrate, seed and serve the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	logger := a.logger

	if _, err := a.seed(ctx); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	metrics.Init(a.dashboard, logger)

	handler, err := a.routes()
	if err != nil {
		return err
	}
	server := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           apihttp.Chain(handler, apihttp.RequestID(), apihttp.RequestLogger(logger), apihttp.Recover(logger)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       a.cfg.Server.ReadTimeout,
		WriteTimeout:      a.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func (a *app) routes() (http.Handler, error) {
	logger := a.logger
	recorder := audit.NewRecorder(a.audit, logger)

	catalogHandler, err := cataloghttp.NewHandler(a.catalog, recorder, logger)
	if err != nil {
		return nil, err
	}
	equipmentHandler, err := equipmenthttp.NewHandler(a.equipment, recorder, logger)
	if err != nil {
		return nil, err
	}
	pointHandler, err := pointshttp.NewHandler(a.points, recorder, logger)
	if err != nil {
		return nil, err
	}
	certificateHandler, err := certificateshttp.NewHandler(a.certificates, recorder, logger)
	if err != nil {
		return nil, err
	}
	dashboardHandler, err := dashboardhttp.NewHandler(a.dashboard, logger)
	if err != nil {
		return nil, err
	}
	transferHandler, err := transferhttp.NewHandler(a.importer, a.exporter, recorder, logger,
		transferhttp.WithMaxUploadBytes(a.cfg.MaxUploadBytes()))
	if err != nil {
		return nil, err
	}
	auditHandler, err := audit.NewHandler(a.audit, logger)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/api/v1/catalog", catalogHandler)
	mux.Handle("/api/v1/catalog/", catalogHandler)
	mux.Handle("/api/v1/equipment", equipmentHandler)
	mux.Handle("/api/v1/equipment/", equipmentHandler)
	mux.Handle(certificateshttp.ByEquipmentPattern, certificateHandler.ByEquipment())
	mux.Handle("/api/v1/points", pointHandler)
	mux.Handle("/api/v1/points/", pointHandler)
	mux.Handle(dashboardhttp.AlertsPath, dashboardHandler.Alerts())
	mux.Handle("/api/v1/certificates", certificateHandler)
	mux.Handle("/api/v1/certificates/", certificateHandler)
	mux.Handle("/api/v1/dashboard/", dashboardHandler)
	mux.Handle(transferhttp.ImportPath, transferHandler)
	mux.Handle(transferhttp.ExportPath, transferHandler)
	mux.Handle(transferhttp.TemplatesPath, transferHandler)
	mux.Handle("/api/v1/audit-logs", auditHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.db.PingContext(ctx); err != nil {
			apihttp.ErrorResponse(w, http.StatusServiceUnavailable, "unavailable", "database unreachable")
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux, nil
}
