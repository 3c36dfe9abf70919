package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type serveOptions struct {
	http   bool
	mcp    bool
	attach bool
}

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP stdio server and the HTTP API",
		Long: `Run the gateway. With neither --http nor --mcp both transports are started.
The MCP transport reads JSON-RPC from stdin and writes to stdout; closing stdin
stops the gateway.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), root, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.http, "http", false, "serve the HTTP API")
	cmd.Flags().BoolVar(&opts.mcp, "mcp", false, "serve MCP over stdin/stdout")
	cmd.Flags().BoolVar(&opts.attach, "attach", false, "attach to the CAD host at startup instead of on the first call")
	return cmd
}

func runServe(ctx context.Context, root *rootOptions, opts *serveOptions) error {
	if !opts.http && !opts.mcp {
		opts.http, opts.mcp = true, true
	}

	info := GetBuildInfo()
	log.Printf("🚀 Starting CAD gateway | Version: %s | Commit: %s", info.Version, info.GitCommit)

	// 1. LOAD CONFIGURATION
	cfg, err := LoadConfig(root.configPath)
	if err != nil {
		return fmt.Errorf("❌ FATAL: Configuration Error: %w", err)
	}
	log.Printf("✅ Configuration loaded (cad type %s, output %s).", cfg.CAD.Type, cfg.Output.Directory)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. INITIALIZE SERVICES
	a, err := newApp(ctx, cfg)
	if err != nil {
		return fmt.Errorf("❌ FATAL: %w", err)
	}
	defer a.Close()
	log.Println("✅ All services initialized.")

	// 3. ATTACH TO THE CAD HOST
	if opts.attach {
		if err := a.driver.Attach(ctx); err != nil {
			log.Printf("WARNING: %s not reachable yet, will retry on the first drawing call: %v", a.driver.Profile().DisplayName, err)
		} else {
			log.Printf("✅ Attached to %s.", a.driver.Profile().DisplayName)
		}
	}

	// 4. RUN THE TRANSPORTS
	g, gctx := errgroup.WithContext(ctx)
	if opts.http {
		srv := &http.Server{Addr: cfg.Server.HTTPAddr, Handler: a.httpEngine()}
		g.Go(func() error { return runHTTP(gctx, srv) })
	}
	if opts.mcp {
		server := a.mcpServer()
		g.Go(func() error {
			log.Println("👂 MCP server listening on stdio")
			err := server.Serve(gctx, os.Stdin, os.Stdout)
			if err == nil && gctx.Err() == nil {
				log.Println("🛑 MCP client closed stdin.")
				// Returning an error stops the HTTP transport too.
				return errClientGone
			}
			return err
		})
	}

	err = g.Wait()
	if errors.Is(err, errClientGone) {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("❌ %w", err)
	}
	log.Println("👋 Server exited gracefully.")
	return nil
}

var errClientGone = errors.New("mcp client disconnected")

// runHTTP serves srv until ctx ends, then shuts it down gracefully.
func runHTTP(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("👂 HTTP API listening on http://localhost%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listen error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("🛑 Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
