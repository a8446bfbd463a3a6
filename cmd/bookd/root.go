package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dreamware/bookd/internal/config"
	"github.com/dreamware/bookd/internal/export"
	"github.com/dreamware/bookd/internal/ingest"
	"github.com/dreamware/bookd/internal/library"
	"github.com/dreamware/bookd/internal/logger"
	"github.com/dreamware/bookd/internal/metrics"
	"github.com/dreamware/bookd/internal/scanner"
	"github.com/dreamware/bookd/internal/server"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bookd -l <port> -p <search_term>",
		Short: "Collect books over TCP and scan them for a search term",
		Long: `bookd accepts TCP connections. The first line on a connection is a book
title, every following line is appended to that book. When a connection
closes, the lines it sent are written to book_NN.txt. Every scan interval
the number of lines containing the search term is reported per book.
`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			// Past this point errors are runtime failures, not usage mistakes
			cmd.SilenceUsage = true

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}

	config.RegisterFlags(rootCmd.Flags())
	rootCmd.AddCommand(versionCmd())
	return rootCmd
}

// run wires the components together and serves until ctx ends or a
// component fails.
func run(ctx context.Context, cfg config.Config) error {
	if err := logger.Init(cfg.Log); err != nil {
		return err
	}
	log := logger.GetLogger("main")

	sink, err := export.NewFileSink(cfg.ExportDir)
	if err != nil {
		return err
	}

	store := library.NewStore()
	sc := scanner.New(store, cfg.SearchTerm, cfg.ScanInterval)
	srv := server.New(cfg.ListenAddr(), ingest.NewHandler(store, sink), sc)

	if err := srv.Listen(); err != nil {
		return err
	}
	log.Infof("Exporting books to %s, scanning for %q every %v", sink.Dir(), cfg.SearchTerm, cfg.ScanInterval)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(gctx)
	})

	if cfg.MetricsAddr != "" {
		httpSrv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           metrics.NewMux(store),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			log.Infof("Metrics listening on %s", cfg.MetricsAddr)
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return errors.Wrap(err, "metrics server")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return httpSrv.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	srv.Shutdown()
	if err != nil {
		log.WithError(err).Error("Stopped with error")
		return err
	}
	log.Info("bookd stopped")
	return nil
}
