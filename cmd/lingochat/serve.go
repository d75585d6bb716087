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
	"golang.org/x/sync/errgroup"

	"github.com/szaher/lingochat/internal/llm"
	"github.com/szaher/lingochat/internal/runtime"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var (
		addr string
		mock bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat HTTP server",
		Long:  "Serve the chat API until interrupted, then drain in-flight requests and exit.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := runtime.LoadConfig(configFile)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			logger := newLogger(cfg, os.Stderr)

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			opts := runtime.Options{Logger: logger}
			if mock {
				logger.Warn("serving with the offline echo provider (--mock)")
				opts.LLMClient = llm.EchoClient{}
				opts.Provider = "echo"
			}

			rt, err := runtime.New(ctx, cfg, opts)
			if err != nil {
				return err
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				if err := rt.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
				defer done()
				return rt.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config and PORT)")
	cmd.Flags().BoolVar(&mock, "mock", false, "Answer with the offline echo provider instead of a real model")

	return cmd
}
