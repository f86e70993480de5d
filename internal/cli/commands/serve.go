package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/conduit-lang/vardump/internal/demo"
	"github.com/conduit-lang/vardump/internal/server"
	"github.com/conduit-lang/vardump/internal/settings"
	"github.com/conduit-lang/vardump/pkg/vardump"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// shutdownTimeout bounds in-flight requests after SIGINT or SIGTERM.
const shutdownTimeout = 10 * time.Second

func newServeCommand(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the demo graph over HTTP",
		Long: `Serve the demo graph. Settings changed in the browser are stored in the
vardump-settings cookie and apply to that browser only.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := flags.logger()
			defer logger.Sync()

			vd, err := flags.inspector(vardump.WithOverrides(map[string]any{
				settings.DebugMethods: demo.DebugMethods,
			}))
			if err != nil {
				return err
			}

			cfg := server.DefaultConfig(vd, func() any { return demo.Graph() })
			cfg.Address = addr
			cfg.Logger = logger
			srv, err := server.New(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			color.New(color.FgCyan).Fprintf(cmd.ErrOrStderr(), "Serving vardump demo on %s\n", addr)

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
				logger.Error("shutdown failed", zap.Error(err))
				return err
			}
			return <-errCh
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	return cmd
}
