package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/aretw0/souvenir"
	"github.com/aretw0/souvenir/internal/demo"
	"github.com/aretw0/souvenir/pkg/adapters/mcp"
	"github.com/aretw0/souvenir/pkg/adapters/memory"
	"github.com/aretw0/souvenir/pkg/domain"
	"github.com/aretw0/souvenir/pkg/runner"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts a simulated bomb and exposes the quiz as MCP tools, so an agent can
read the current question and answer it.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8081, "Port to listen on (only for SSE)")
	mcpCmd.Flags().IntP("modules", "n", 6, "Number of modules on the bomb")
	mcpCmd.Flags().Duration("pace", demo.DefaultPace, "Time between two simulated solves")
}

func runMCP(cmd *cobra.Command, _ []string) error {
	transport, _ := cmd.Flags().GetString("transport")
	if transport != "stdio" && transport != "sse" {
		return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
	}
	port, _ := cmd.Flags().GetInt("port")
	n, _ := cmd.Flags().GetInt("modules")
	pace, _ := cmd.Flags().GetDuration("pace")

	// Logs go to stderr so they never corrupt JSON-RPC on stdout.
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	cat, err := a.catalog()
	if err != nil {
		return err
	}

	mods := demo.Generate(a.rand, n)
	bomb := memory.NewBomb(demo.Names(mods)...)
	engine, err := souvenir.New(append(a.options(cat),
		souvenir.WithBombState(bomb),
		souvenir.WithExclusions(memory.NewExclusions(a.cfg.Excluded...)),
		souvenir.WithLifecycleHooks(strikeHooks(bomb, a.logger)),
		souvenir.WithTask("defuser", demo.Defuser(mods, pace, a.rand, func(m domain.Module) {
			bomb.Solve(m.DisplayName)
		})),
	)...)
	if err != nil {
		return err
	}

	sm := runner.NewSignalManager(cmd.Context())
	defer sm.Stop()
	g, ctx := errgroup.WithContext(sm.Context())
	srv := mcp.NewServer(engine, a.logger)

	g.Go(func() error {
		report, err := engine.Run(ctx, mods)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		a.logger.Info("Session summary", "presented", report.Presented, "correct", report.Correct, "strikes", report.Strikes)
		return nil
	})
	g.Go(func() error {
		if transport == "stdio" {
			a.logger.Info("Starting Souvenir MCP Server (Stdio)...")
			if err := srv.ServeStdio(); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("MCP Server execution failed: %w", err)
			}
			// The client went away: end the run with it.
			return context.Canceled
		}
		a.logger.Info("Starting Souvenir MCP Server (SSE)", "port", port)
		if err := srv.ServeSSE(ctx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("MCP Server execution failed: %w", err)
		}
		a.logger.Info("MCP Server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
