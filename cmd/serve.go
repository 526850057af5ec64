package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/textvault/textvault/internal/config"
	"github.com/textvault/textvault/internal/di"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Start the composer server",
	Long: `Start the composer server: the composer page at /, its session channel
at /ws and the JSON API under /api.

Without a vault URL, submitted payloads are logged instead of stored.

Examples:
  textvault serve
  textvault serve --port 3000 --theme dark
  textvault serve --vault-url https://vault.example.com --validate`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", config.DefaultPort, "Port to serve on")
	serveCmd.Flags().String("host", config.DefaultHost, "Host to bind to")
	serveCmd.Flags().String("vault-url", "", "TextVault backend base URL")
	serveCmd.Flags().String("theme", config.DefaultTheme, "Initial theme (light, dark)")
	serveCmd.Flags().Duration("settle-delay", config.DefaultSettleDelay, "Delay before the editor is shown")
	serveCmd.Flags().Bool("ready-signal", false, "Show the editor as soon as it reports ready")
	serveCmd.Flags().Bool("validate", false, "Refuse empty or oversized pastes before submitting")

	bindFlags(serveCmd, map[string]string{
		"port":         "server.port",
		"host":         "server.host",
		"vault-url":    "vault.base_url",
		"theme":        "editor.theme",
		"settle-delay": "editor.settle_delay",
		"ready-signal": "editor.ready_signal",
		"validate":     "submit.validate",
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	container := di.NewServiceContainer(cfg)
	container.SetLogOutput(cmd.ErrOrStderr())
	if err := container.Initialize(); err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := container.Shutdown(ctx); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error during shutdown: %v\n", err)
		}
	}()

	srv, err := container.Server()
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Starting TextVault composer at http://%s\n", cfg.Server.Addr())
	if cfg.Vault.BaseURL == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "No vault URL configured: submitted pastes are logged")
	}

	return srv.Start(ctx)
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
