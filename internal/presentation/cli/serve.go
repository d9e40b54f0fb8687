package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httppresentation "github.com/Zhima-Mochi/merchant-dashboard/internal/presentation/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, appOptions{metrics: true, writePath: true})
	if err != nil {
		return err
	}
	defer a.close()
	zap.ReplaceGlobals(a.zap)

	a.start(context.Background())

	opts := httppresentation.Options{Metrics: promhttp.Handler()}
	if cfg.AuthEnabled() {
		opts.Auth = &httppresentation.BasicAuth{
			User:         cfg.DashboardUser,
			PasswordHash: cfg.DashboardPasswordHash,
		}
	}
	handler := httppresentation.NewHandler(a.dashboard, a.checkout, a.tel, opts)

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler.Router(),
	}

	go func() {
		a.system.Info("http_server_start",
			zap.String("addr", server.Addr),
			zap.String("cache_backend", cfg.CacheBackend),
			zap.String("checkout_store", cfg.CheckoutStore),
			zap.Bool("auth", cfg.AuthEnabled()),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.system.Error("http_server_error",
				zap.Error(err),
			)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		a.system.Error("http_server_shutdown_error",
			zap.Error(err),
		)
	} else {
		a.system.Info("http_server_stopped")
	}
	a.stop(shutdownCtx)
	return nil
}
