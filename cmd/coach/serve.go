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
	"go.uber.org/zap"

	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/api"
)

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the coaching HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			env, err := prepareRuntimeEnv(ctx)
			if err != nil {
				return err
			}
			defer env.Close()

			if port == "" {
				port = env.Config.Port
			}
			h := api.NewHandler(env.Coach, env.Evaluator, env.Config.CriteriaPath, env.Logger)
			srv := &http.Server{
				Addr:         ":" + port,
				Handler:      api.NewRouter(h, env.Metrics.Handler()),
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 6 * time.Minute,
				IdleTimeout:  120 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				env.Logger.Info("[API] server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return err
				}
			case <-ctx.Done():
			}

			env.Logger.Info("[API] shutting down gracefully")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "Port to listen on (default: PORT)")
	return cmd
}
