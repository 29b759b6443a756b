// Package mcp exposes the index over the Model Context Protocol: the
// reindex, find_definition, find_usages, and dependency_tree tools.
package mcp

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ktxref/ktxref/internal/gradle"
	"github.com/ktxref/ktxref/internal/indexer"
	"github.com/ktxref/ktxref/internal/source"
)

// Server manages the MCP server lifecycle around one engine.
type Server struct {
	engine *indexer.Engine
	runner *gradle.Runner
	reader *source.Reader
	mcp    *server.MCPServer
	watch  bool
}

// NewServer creates the MCP server and registers the tools. The initial
// index build happens in Serve, before the transport starts.
func NewServer(engine *indexer.Engine, runner *gradle.Runner, reader *source.Reader, watch bool) *Server {
	mcpServer := server.NewMCPServer(
		"ktxref",
		Version,
		server.WithToolCapabilities(true),
	)

	s := &Server{
		engine: engine,
		runner: runner,
		reader: reader,
		mcp:    mcpServer,
		watch:  watch,
	}

	AddFindDefinitionTool(mcpServer, engine, reader)
	AddFindUsagesTool(mcpServer, engine, reader)
	AddReindexTool(mcpServer, engine, runner)
	if runner != nil {
		AddDependencyTreeTool(mcpServer, runner)
	}

	return s
}

// Serve builds the initial index, then serves MCP on stdio until shutdown.
// stdout belongs to the transport; all logging goes to stderr.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stats, err := s.engine.Reindex(ctx)
	if err != nil {
		return fmt.Errorf("initial index failed: %w", err)
	}
	log.Printf("ready: %s", stats)

	if s.watch {
		go func() {
			if err := s.engine.Watch(ctx); err != nil && ctx.Err() == nil {
				log.Printf("watcher stopped: %v", err)
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting MCP server on stdio...")
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("MCP server error: %w", err)
		}
	}()

	select {
	case <-sigCh:
		log.Printf("Received shutdown signal, stopping gracefully...")
		cancel()
		return nil
	case err := <-errCh:
		cancel()
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
