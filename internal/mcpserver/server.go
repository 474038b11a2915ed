// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes note graph tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/RealSpaceofAce/framelord-sub002/internal/models"
	"github.com/RealSpaceofAce/framelord-sub002/internal/parser"
)

// ContractURI is the resource URI of the note format contract.
const ContractURI = "notegraph://note-format"

// searchLimit bounds search_notes results.
const searchLimit = 20

// NoteStore is the subset of the note repository the tools use.
type NoteStore interface {
	Create(p models.CreateParams) (models.Note, error)
	Get(id string) (models.Note, bool)
	FindByTitle(title string) (models.Note, bool)
	Search(query string) []models.Note
	ForwardLinks(id string) []models.Note
	BacklinksWithContext(id string) []models.BacklinkContext
	Topics() []models.Topic
}

// Server wraps the MCP server with note graph tools.
type Server struct {
	mcp   *server.MCPServer
	store NoteStore
}

// New creates a new MCP server with all tools registered.
func New(store NoteStore) *Server {
	s := &Server{store: store}

	s.mcp = server.NewMCPServer(
		"Note Graph",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Case-insensitive substring search through live note titles and content."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read a note by id. Returns the full note as JSON."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("find_note_by_title",
		mcp.WithDescription("Resolve a title to a note the same way [[Title]] references resolve."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Note title, compared case-insensitively")),
	), s.findNoteByTitle)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a note. Content is stored verbatim; [[Title]] references and "+
			"#hashtags in it become links and topics, and referenced titles that do not exist "+
			"yet are created empty. Read the contract first via the get_note_contract tool or the "+
			ContractURI+" resource."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Note body following the note format contract")),
		mcp.WithString("title", mcp.Description("Optional title; derived from the first content line when empty")),
		mcp.WithString("contact_id", mcp.Description("Optional contact the note is about")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the note format contract. "+
			"Call this before creating notes to ensure correct reference syntax."),
	), s.getNoteContract)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all live notes that reference the specified note, with a snippet around each reference."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Id of the note to find backlinks for")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("get_forward_links",
		mcp.WithDescription("List the live notes the specified note references."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Id of the source note")),
	), s.getForwardLinks)

	s.mcp.AddTool(mcp.NewTool("list_topics",
		mcp.WithDescription("List every hashtag topic with its notes and contacts."),
	), s.listTopics)

	// Resource: note format contract.
	s.mcp.AddResource(
		mcp.NewResource(ContractURI, "Note Format Contract",
			mcp.WithResourceDescription("Reference and hashtag syntax understood by the note graph."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
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

// noteSummary is the compact form returned by list-style tools.
type noteSummary struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Preview string `json:"preview,omitempty"`
}

func summaries(ns []models.Note) []noteSummary {
	out := make([]noteSummary, 0, len(ns))
	for _, n := range ns {
		out = append(out, noteSummary{ID: n.ID, Title: n.DisplayTitle(), Preview: parser.Preview(n.Content, 80)})
	}
	return out
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results := s.store.Search(query)
	if len(results) > searchLimit {
		results = results[:searchLimit]
	}
	return jsonResult(summaries(results)), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, ok := s.store.Get(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	return jsonResult(n), nil
}

func (s *Server) findNoteByTitle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, ok := s.store.FindByTitle(title)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("no note titled %q", title)), nil
	}
	return jsonResult(n), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p := models.CreateParams{
		Title:   req.GetString("title", ""),
		Content: content,
	}
	if c := strings.TrimSpace(req.GetString("contact_id", "")); c != "" {
		p.TargetContactIDs = []string{c}
	}
	n, err := s.store.Create(p)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s (%s)", n.ID, n.DisplayTitle())), nil
}

func (s *Server) getNoteContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ContractURI,
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, ok := s.store.Get(id); !ok {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	bl := s.store.BacklinksWithContext(id)
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	return jsonResult(bl), nil
}

func (s *Server) getForwardLinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, ok := s.store.Get(id); !ok {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	return jsonResult(summaries(s.store.ForwardLinks(id))), nil
}

func (s *Server) listTopics(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.store.Topics()), nil
}
