// Command server runs the git command bridge for a host environment.
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

	"github.com/spf13/cobra"

	"github.com/tsubomi-dev/gitbridge/internal/config"
	"github.com/tsubomi-dev/gitbridge/internal/hostfs"
	"github.com/tsubomi-dev/gitbridge/internal/logging"
	"github.com/tsubomi-dev/gitbridge/internal/server"
	"github.com/tsubomi-dev/gitbridge/internal/session"
)

const version = "0.1.0"

func main() {
	root := &cobra.Command{
		Use:   "gitbridge",
		Short: "Host-embedded git command bridge",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("gitbridge %s\n", version)
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
	})

	sessions := session.NewManager()
	filesystems := hostfs.NewRegistry()

	if cfg.DefaultRemote != "" {
		log.Info().Str("url", cfg.DefaultRemote).Msg("ingesting default remote")
		if err := sessions.IngestRemote(ctx, "origin", cfg.DefaultRemote); err != nil {
			log.Warn().Err(err).Msg("default remote ingest failed; clones will need a live URL or a later ingest")
		}
	}

	srv := server.New(server.Config{EnableCORS: cfg.EnableCORS}, sessions, filesystems, log)
	httpSrv := &http.Server{
		Addr:        cfg.Addr,
		Handler:     srv,
		ReadTimeout: 30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("bridge listening")
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	}
}
