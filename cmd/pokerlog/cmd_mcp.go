package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/pokerlog/internal/mcp"
	"github.com/spf13/cobra"
)

func (c *cli) mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the pokerlog tools over MCP on stdio",
		Long: `Serve the pokerlog tools to an MCP client on stdin/stdout.

Tools act as the logged in user against the configured daemon. Logs go to
stderr so they never corrupt the protocol stream.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.connect()
			if err != nil {
				return err
			}
			if s.client.Token() == "" {
				slog.Warn("no stored login, tools will fail until 'pokerlog login' is run")
			}

			srv := mcp.NewServer(mcp.Config{
				Identity: s.client,
				Store:    s.client,
				Version:  Version,
				Location: c.loc,
				Logger:   slog.Default(),
			})

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.ServeStdio(ctx); err != nil && ctx.Err() == nil {
				return fmt.Errorf("mcp server: %w", err)
			}
			return nil
		},
	}
}

// commandContext returns cmd's context, falling back to Background outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
