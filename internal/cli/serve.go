package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/veridoc/veridoc/internal/logging"
	"github.com/veridoc/veridoc/internal/pipeline"
	"github.com/veridoc/veridoc/internal/server"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP validation API",
	Long: `Serve exposes the evaluation pipeline over HTTP for the intake
application.

Endpoints:
  POST /api/v1/validate   multipart form, one file field per document type
  GET  /healthz           similarity index reachability

Example:
  veridoc serve
  veridoc serve --addr :9090`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if err := applyLLMEnv(cfg); err != nil {
		return err
	}

	p, cleanup, err := pipeline.NewFromConfig(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	defer logging.Sync()

	srv := server.New(cfg.Server, p, p)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
