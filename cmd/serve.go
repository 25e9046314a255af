package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kamusis/nlcmd/internal/app"
	"github.com/kamusis/nlcmd/internal/logging"
	"github.com/kamusis/nlcmd/internal/server"
)

const (
	shutdownTimeout = 10 * time.Second
	// retireDelay keeps a replaced App open for requests still using it.
	retireDelay = 30 * time.Second
)

var flagServeAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API (/suggest, /run, /healthz)",
	Long: `Start the HTTP front end.

SIGHUP reloads nlcmd.yaml and the index without dropping connections.
SIGINT or SIGTERM stop accepting requests and drain in-flight ones.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagServeAddr, "addr", "", "Listen address (default: server.addr from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	if flagServeAddr != "" {
		cfg.Server.Addr = flagServeAddr
	}

	a, err := app.Load(cfg, log)
	if err != nil {
		return err
	}
	live := app.NewLive(a)

	if logging.ParseLevel(cfg.Log.Level) > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	defer func() { _ = live.Current().Close() }()

	srv := server.New(live, server.Options{
		AllowOrigins:      cfg.Server.AllowOrigins,
		MaxConcurrentRuns: cfg.Server.MaxConcurrentRuns,
	}, log)
	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("http server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		select {
		case err, ok := <-errCh:
			if ok {
				return fmt.Errorf("http server failed: %w", err)
			}
			return nil
		case <-hup:
			reload(live, log)
		case <-ctx.Done():
			log.Info().Msg("shutting down")
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := httpSrv.Shutdown(sctx); err != nil {
				return fmt.Errorf("graceful shutdown failed: %w", err)
			}
			return nil
		}
	}
}

// reload builds a fresh App from disk and publishes it. On failure the
// current App keeps serving.
func reload(live *app.Live, log zerolog.Logger) {
	cfg, _, err := loadConfig()
	if err != nil {
		log.Error().Err(err).Msg("reload failed: config")
		return
	}
	next, err := app.Load(cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("reload failed: keeping current index")
		return
	}
	prev := live.Swap(next)
	log.Info().Str("model", next.Manifest.ModelID).Msg("reloaded")
	time.AfterFunc(retireDelay, func() { _ = prev.Close() })
}
