package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/cityequip/cityequip/internal/api"
	"github.com/cityequip/cityequip/internal/ingest"
	"github.com/cityequip/cityequip/internal/store"
)

var (
	servePort   int
	serveNoSeed bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API",
	Long: "Connects to the store, applies migrations, seeds an empty store from the source " +
		"file and serves the equipment API until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveNoSeed {
			cfg.Seed.OnStartup = false
		}
		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		loader := ingest.NewLoader(st, cfg.Source.IngestSource())
		if cfg.Seed.OnStartup {
			// A failed seed leaves the API up with whatever the store holds.
			if out, err := loader.Seed(ctx); err != nil {
				zap.L().Error("startup seed failed", zap.Error(err))
			} else {
				zap.L().Info("startup seed finished", zap.String("outcome", out.String()))
			}
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           newHandler(st, loader),
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			zap.L().Info("starting server", zap.Int("port", cfg.Server.Port))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), 15*time.Second)
			defer cancel()
			return eris.Wrap(srv.Shutdown(shutdownCtx), "server shutdown")
		})
		return g.Wait()
	},
}

// newHandler builds the REST handler from the loaded server config.
func newHandler(st store.Store, loader *ingest.Loader) http.Handler {
	return api.NewServer(st, loader, api.Options{
		APIKeys:      cfg.Server.APIKeys,
		CORSOrigins:  cfg.Server.CORSOrigins,
		RateLimit:    rate.Limit(cfg.Server.RateLimit),
		RateBurst:    cfg.Server.RateBurst,
		ResetTimeout: time.Duration(cfg.Server.ResetTimeoutSecs) * time.Second,
	}).Handler()
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().BoolVar(&serveNoSeed, "no-seed", false, "skip seeding an empty store at startup")
	rootCmd.AddCommand(serveCmd)
}
