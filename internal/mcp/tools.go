package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/domain"
)

// Service is the pipeline surface exposed as MCP tools.
type Service interface {
	Ingest(ctx context.Context, doc domain.Document) (domain.IngestResult, error)
	Query(ctx context.Context, q string) (domain.Answer, error)
}

// NewServer builds an MCP server with the ingest_text and query tools.
func NewServer(svc Service, version string) *mcpserver.MCPServer {
	server := mcpserver.NewMCPServer("minirag", version)
	RegisterTools(server, svc)
	return server
}

// RegisterTools registers the RAG tools with server.
func RegisterTools(server *mcpserver.MCPServer, svc Service) *Handlers {
	handlers := &Handlers{svc: svc}

	server.AddTool(mcp.Tool{
		Name:        "ingest_text",
		Description: "Chunk, embed and index a piece of text so later queries can cite it.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Text to index",
				},
				"source": map[string]interface{}{
					"type":        "string",
					"description": "Name of the document the text came from (default: Manual Input)",
				},
			},
			Required: []string{"text"},
		},
	}, handlers.IngestText)

	server.AddTool(mcp.Tool{
		Name:        "query",
		Description: "Answer a question from indexed text. Returns the answer and the numbered source chunks it cites.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Question to answer",
				},
			},
			Required: []string{"query"},
		},
	}, handlers.Query)

	return handlers
}
