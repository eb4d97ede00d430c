package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/stockmcp/internal/app"
	"github.com/bobmcallan/stockmcp/internal/common"
	"github.com/bobmcallan/stockmcp/internal/server"
)

func main() {
	a, err := app.NewApp("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize app: %v\n", err)
		os.Exit(1)
	}

	// stdout may carry MCP traffic; everything human-readable goes to stderr
	common.PrintBanner(os.Stderr, a.Config, a.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.Config.Server.Transport == common.TransportHTTP {
		err = serveHTTP(ctx, a)
	} else {
		err = serveStdio(ctx, a, os.Stdin, os.Stdout)
	}

	common.PrintShutdownBanner(os.Stderr, a.Logger)
	a.Close()

	if err != nil {
		a.Logger.Error().Err(err).Msg("Server stopped with error")
		os.Exit(1)
	}
	a.Logger.Info().Msg("Server stopped")
}

// serveStdio runs MCP over the given reader/writer until EOF or ctx is cancelled.
func serveStdio(ctx context.Context, a *app.App, in io.Reader, out io.Writer) error {
	a.Logger.Info().Msg("Serving MCP over stdio")

	stdio := mcpserver.NewStdioServer(a.MCPServer)
	err := stdio.Listen(ctx, in, out)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// serveHTTP runs the HTTP server until ctx is cancelled, then shuts it down gracefully.
func serveHTTP(ctx context.Context, a *app.App) error {
	srv := server.NewServer(a)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	a.Logger.Info().
		Str("url", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)).
		Str("mcp", fmt.Sprintf("http://localhost:%d/mcp", a.Config.Server.Port)).
		Msg("Server ready")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		a.Logger.Info().Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}
	return <-errCh
}
