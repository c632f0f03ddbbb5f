package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/kvault/internal/api"
)

const (
	maxHTTPConns    = 64
	shutdownTimeout = 5 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the vault to MCP clients (stdio) and local tools (HTTP)",
	Long: `Serve the vault. The MCP server speaks JSON-RPC on stdin/stdout and
stops when the client closes stdin. The HTTP API listens on 127.0.0.1 at
server.port unless http.enabled is false. Logs go to stderr.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		noMCP, _ := cmd.Flags().GetBool("no-mcp")
		return runServer(commandContext(cmd), noMCP)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show kvault server and store status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus(commandContext(cmd))
	},
}

func init() {
	serveCmd.Flags().Bool("no-mcp", false, "serve only the HTTP API")
}

func runServer(parent context.Context, noMCP bool) error {
	fmt.Fprintf(os.Stderr, "kvault version %s\n", version)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// stdout carries the MCP stream, so logs stay on stderr.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()})))

	if noMCP && !cfg.HTTP.Enabled {
		return fmt.Errorf("nothing to serve: --no-mcp is set and http.enabled is false")
	}

	a, err := openApp(cfg, slog.Default())
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Warn("closing storage", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	if cfg.HTTP.Enabled {
		addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listening on %s: %w", addr, err)
		}
		srv := &http.Server{
			Handler: api.NewAppHandler(api.AppDeps{
				Store:     a.store,
				Search:    a.search,
				Suggester: a.suggester,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g.Go(func() error {
			slog.Info("HTTP API listening", "addr", addr)
			if err := srv.Serve(netutil.LimitListener(ln, maxHTTPConns)); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("HTTP server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if !noMCP {
		mcpSrv := api.NewMCPServer(api.MCPDeps{
			Store:     a.store,
			Search:    a.search,
			Suggester: a.suggester,
			Version:   version,
		})
		g.Go(func() error {
			// The client closing stdin ends the process.
			defer cancel()
			stdioSrv := server.NewStdioServer(mcpSrv)
			if err := stdioSrv.Listen(gctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("MCP stdio server: %w", err)
			}
			return nil
		})
		slog.Info("MCP server started (stdio transport)", "data_file", a.store.Path())
	}

	err = g.Wait()
	slog.Info("shutting down")
	return err
}

func showStatus(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		// Still show partial status even if config fails.
		printError("config error: %v", err)
		return nil
	}

	if cfg.HTTP.Enabled {
		printStatus("HTTP API", "%s", probeHealth(ctx, cfg.Server.Port))
	} else {
		printStatus("HTTP API", "disabled")
	}

	keywords := "built-in"
	if cfg.Tagging.KeywordsFile != "" {
		keywords = cfg.Tagging.KeywordsFile
	}
	printStatus("Keyword table", "%s", keywords)

	return withApp(func(a *app) error {
		stats, err := a.store.Stats(ctx)
		if err != nil {
			return err
		}
		printStatus("Records", "%d", stats.TotalRecords)
		printStatus("Tags", "%d", stats.TotalTags)
		printStatus("Data file", "%s", stats.DataLocation)
		return nil
	})
}

func probeHealth(ctx context.Context, port int) string {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	url := fmt.Sprintf("http://127.0.0.1:%d/health", port)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "unknown"
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "stopped"
	}
	resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		return fmt.Sprintf("running on port %d", port)
	}
	return fmt.Sprintf("error (HTTP %d)", resp.StatusCode)
}
