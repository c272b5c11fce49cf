package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/HarshdeepGupta/diabe-ai-buddy/internal/api"
	"github.com/HarshdeepGupta/diabe-ai-buddy/internal/chunker"
	"github.com/HarshdeepGupta/diabe-ai-buddy/internal/config"
	"github.com/HarshdeepGupta/diabe-ai-buddy/internal/gemini"
	"github.com/HarshdeepGupta/diabe-ai-buddy/internal/loader"
	"github.com/HarshdeepGupta/diabe-ai-buddy/internal/pipeline"
	"github.com/HarshdeepGupta/diabe-ai-buddy/internal/registry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Build the knowledge base and start the HTTP server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func setupLogging(level string) {
	logLevel := slog.LevelInfo
	switch {
	case strings.EqualFold(level, "debug"):
		logLevel = slog.LevelDebug
	case strings.EqualFold(level, "warn"):
		logLevel = slog.LevelWarn
	case strings.EqualFold(level, "error"):
		logLevel = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
}

// buildAgent wires the full stack from config: Gemini client, loader,
// chunker, per-topic registry, and the question pipeline on top.
func buildAgent(cfg config.Config) (*pipeline.Agent, *registry.Registry) {
	client := gemini.New(gemini.Options{
		BaseURL:         cfg.Gemini.BaseURL,
		APIKey:          cfg.Gemini.APIKey,
		ChatModel:       cfg.Gemini.ChatModel,
		EmbedModel:      cfg.Gemini.EmbedModel,
		MaxOutputTokens: cfg.Gemini.MaxOutputTokens,
	})

	reg := registry.New(
		loader.New(nil),
		chunker.New(cfg.Chunking.MaxChunkSize, cfg.Chunking.Overlap),
		client,
		loader.DefaultSources(cfg.Storage.DataDir),
	)

	return pipeline.NewAgent(client, reg, cfg.Retrieval.TopK), reg
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "diabuddy version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	agent, reg := buildAgent(cfg)

	// Build all topic indices before accepting traffic. A topic whose
	// sources fail stays reachable with an empty index.
	printStep("Building topic indices...")
	buildStart := time.Now()
	reg.BuildAll(ctx)
	printSuccess("Indices ready in %s", time.Since(buildStart).Round(time.Millisecond))

	handler := api.NewHandler(api.Deps{
		Agent:          agent,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		StartedAt:      time.Now(),
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	mcpSrv := api.NewMCPServer(api.MCPDeps{
		Agent:    agent,
		Searcher: reg,
		TopK:     cfg.Retrieval.TopK,
	})
	stdioSrv := server.NewStdioServer(mcpSrv)
	go func() {
		if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("MCP stdio server error", "error", err)
		}
	}()
	slog.Info("MCP server started (stdio transport)")

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "diabuddy listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
