// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Ansuz content tools for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ansuz/internal/docservice"
	"github.com/starford/ansuz/internal/media"
	"github.com/starford/ansuz/internal/schema"
	"github.com/starford/ansuz/internal/storage"
)

// Server wraps the MCP server with Ansuz tools.
type Server struct {
	mcp      *server.MCPServer
	svc      *docservice.Service
	registry *schema.Registry
	media    storage.Provider
	inv      *media.Inventory
}

// New creates a new MCP server with all Ansuz tools registered.
func New(svc *docservice.Service, registry *schema.Registry, mediaFS storage.Provider, inv *media.Inventory) *Server {
	s := &Server{svc: svc, registry: registry, media: mediaFS, inv: inv}

	s.mcp = server.NewMCPServer(
		"Ansuz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_collections",
		mcp.WithDescription("List the collection declarations: names, strictness, and field definitions."),
	), s.listCollections)

	s.mcp.AddTool(mcp.NewTool("find_documents",
		mcp.WithDescription("Find documents in a collection matching an optional JSON filter expression. "+
			"The filter supports field equality, dotted paths, and the $exists/$ne/$in/$gt/$gte/$lt/$lte operators."),
		mcp.WithString("collection", mcp.Required(), mcp.Description("Collection name")),
		mcp.WithString("query", mcp.Description("Optional JSON filter expression (empty matches everything)")),
	), s.findDocuments)

	s.mcp.AddTool(mcp.NewTool("get_document",
		mcp.WithDescription("Get a single document by its identifier."),
		mcp.WithString("collection", mcp.Required(), mcp.Description("Collection name")),
		mcp.WithString("id", mcp.Required(), mcp.Description("Document identifier")),
	), s.getDocument)

	s.mcp.AddTool(mcp.NewTool("insert_document",
		mcp.WithDescription("Insert a new document into a collection. fields is a JSON object whose keys "+
			"are field titles; read the collection format first via the get_collection_contract tool or "+
			"the ansuz://collection-format resource."),
		mcp.WithString("collection", mcp.Required(), mcp.Description("Collection name")),
		mcp.WithString("fields", mcp.Required(), mcp.Description("JSON object of field values keyed by field title")),
	), s.insertDocument)

	s.mcp.AddTool(mcp.NewTool("get_collection_contract",
		mcp.WithDescription("Returns the canonical Ansuz collection and document format contract. "+
			"Call this before inserting documents to ensure correct structure."),
	), s.getCollectionContract)

	s.mcp.AddTool(mcp.NewTool("import_asset",
		mcp.WithDescription("Import an asset into the media library from an http(s) URL or a base64 data URI. "+
			"Returns the saved media path."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Source URL (http, https, or data URI)")),
		mcp.WithString("filename", mcp.Description("Optional filename override")),
	), s.importAsset)

	// Resource: collection format contract.
	s.mcp.AddResource(
		mcp.NewResource("ansuz://collection-format", "Collection Format Contract",
			mcp.WithResourceDescription("Canonical collection declaration and document format."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readCollectionFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listCollections(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, _ := json.MarshalIndent(s.registry.All(), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) findDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	collection, err := req.RequireString("collection")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	filter := map[string]any{}
	if raw, qErr := req.RequireString("query"); qErr == nil && raw != "" {
		if err := json.Unmarshal([]byte(raw), &filter); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid query expression: %v", err)), nil
		}
	}
	docs, err := s.svc.Find(ctx, collection, filter)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(docs, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	collection, err := req.RequireString("collection")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.svc.Get(ctx, collection, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s/%s", collection, id)), nil
	}
	out, _ := json.MarshalIndent(doc, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) insertDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	collection, err := req.RequireString("collection")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("fields")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("fields must be a JSON object: %v", err)), nil
	}
	doc, err := s.svc.Insert(ctx, collection, fields, nil)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s/%s", collection, doc.ID)), nil
}

func (s *Server) getCollectionContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(CollectionFormatContract), nil
}

func (s *Server) readCollectionFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "ansuz://collection-format",
			MIMEType: "text/markdown",
			Text:     CollectionFormatContract,
		},
	}, nil
}
