package cli

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server for LLM agents",
	Long: `Runs the pipeline as an MCP (Model Context Protocol) server over stdio,
exposing the ingest_text and query tools.`,
	Example: `  # Configure in an MCP client:
  # {
  #   "mcpServers": {
  #     "minirag": {"command": "minirag", "args": ["mcp"]}
  #   }
  # }`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// stdout carries the protocol.
	log.SetOutput(os.Stderr)

	pipeline, vs, err := buildPipeline(ctx, GetConfig(), GetRootDir())
	if err != nil {
		return err
	}
	defer vs.Close()

	server := mcp.NewServer(pipeline, versionInfo.Version)
	log.Println("[MCP] Server starting on stdio...")

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		log.Println("[MCP] Shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}
	return nil
}
