package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/walletauth/internal/config"
	"github.com/layer-3/walletauth/internal/logger"
	"github.com/layer-3/walletauth/ports"
	transport "github.com/layer-3/walletauth/transport/http"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP authentication service",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		log := logger.New(cfg.Log, "walletauth")

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := buildApp(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		return serve(ctx, a)
	},
}

func serve(ctx context.Context, a *app) error {
	if a.log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := transport.SetupRouter(transport.RouterConfig{
		AuthService: a.service,
		Log:         a.log.WithField("component", "http"),
		Limiter:     a.limiter,
		Gatherer:    a.registry,
	})

	srv := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           transport.WithCORS(router, a.cfg.HTTP.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if sweeper, ok := a.nonces.(ports.NonceSweeper); ok && a.cfg.Nonce.SweepInterval > 0 {
		go runSweeper(ctx, sweeper, a.clock, a.cfg.Nonce.SweepInterval, a.log.WithField("component", "sweeper"))
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.WithField("addr", srv.Addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// runSweeper periodically deletes expired nonces until ctx is done
func runSweeper(ctx context.Context, sweeper ports.NonceSweeper, clk ports.Clock, interval time.Duration, log logrus.FieldLogger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := sweeper.Sweep(ctx, clk.Now())
			if err != nil {
				log.WithError(err).Warn("nonce sweep failed")
				continue
			}
			if removed > 0 {
				log.WithField("removed", removed).Debug("nonce sweep finished")
			}
		}
	}
}
