// Package mcp exposes the roster pipeline as MCP tools so agents can map a
// CSV and read the manager/location hierarchy without the HTTP API.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"orgmap/pkg/app"
	"orgmap/pkg/engine"
	"orgmap/pkg/parser"
	"orgmap/pkg/schema"
	"orgmap/pkg/suggest"
)

const (
	ToolHeaders = "orgmap_headers"
	ToolTreemap = "orgmap_treemap"

	defaultFileName = "roster.csv"
)

// Options configures a Server.
type Options struct {
	// Suggester fills in the mapping when a call does not supply one.
	// Defaults to the heuristic suggester.
	Suggester suggest.Suggester
	Required  []schema.Field
	Version   string
	Logger    *zap.Logger
}

// Server wraps the MCP server with the orgmap tools.
type Server struct {
	mcpServer *server.MCPServer
	suggester suggest.Suggester
	required  []schema.Field
	logger    *zap.Logger
}

func New(opts Options) *Server {
	if opts.Suggester == nil {
		opts.Suggester = suggest.NewHeuristic()
	}
	if opts.Required == nil {
		opts.Required = schema.DefaultRequired
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	s := &Server{
		mcpServer: server.NewMCPServer("orgmap", opts.Version, server.WithToolCapabilities(false)),
		suggester: opts.Suggester,
		required:  opts.Required,
		logger:    opts.Logger.Named("mcp"),
	}
	s.registerHeadersTool()
	s.registerTreemapTool()
	return s
}

// ServeStdio serves the tools over stdin/stdout until the client hangs up.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerHeadersTool() {
	tool := mcp.NewTool(ToolHeaders,
		mcp.WithDescription("Parse a roster CSV and return its headers, row count, skipped lines and a suggested column mapping."),
		mcp.WithString("csv", mcp.Required(), mcp.Description("Full CSV text including the header line")),
		mcp.WithString("fileName", mcp.Description("Original file name (default: roster.csv). Names ending in _mapped.csv skip the suggestion")),
	)
	s.mcpServer.AddTool(tool, s.handleHeaders)
}

func (s *Server) registerTreemapTool() {
	tool := mcp.NewTool(ToolTreemap,
		mcp.WithDescription("Build the manager to location employee-count hierarchy of a roster CSV, optionally filtered and drilled down."),
		mcp.WithString("csv", mcp.Required(), mcp.Description("Full CSV text including the header line")),
		mcp.WithString("mapping", mcp.Description(`JSON object of field to column, e.g. {"manager":"Manager"}. Suggested when omitted`)),
		mcp.WithArray("levels", mcp.Description("Keep only these levels"), mcp.Items(map[string]any{"type": "string"})),
		mcp.WithArray("employeeTypes", mcp.Description("Keep only these employee types"), mcp.Items(map[string]any{"type": "string"})),
		mcp.WithArray("teamProjects", mcp.Description("Keep only these teams/projects"), mcp.Items(map[string]any{"type": "string"})),
		mcp.WithBoolean("differentCampus", mcp.Description("Keep only employees located away from their manager")),
		mcp.WithString("manager", mcp.Description("Drill down to this manager")),
		mcp.WithString("location", mcp.Description("Drill down to this location of the manager")),
	)
	s.mcpServer.AddTool(tool, s.handleTreemap)
}

// HeadersResult is the orgmap_headers payload.
type HeadersResult struct {
	Headers    []string              `json:"headers"`
	RowCount   int                   `json:"rowCount"`
	Encoding   string                `json:"encoding"`
	Warnings   []parser.ParseWarning `json:"warnings"`
	Mapping    schema.ColumnMapping  `json:"mapping"`
	Mapped     int                   `json:"mapped"`
	Suggestion string                `json:"suggestion"`
}

// TreemapResult is the orgmap_treemap payload.
type TreemapResult struct {
	Caption       string               `json:"caption"`
	Mapping       schema.ColumnMapping `json:"mapping"`
	EmployeeCount int                  `json:"employeeCount"`
	FilteredCount int                  `json:"filteredCount"`
	Filters       engine.FilterState   `json:"filters"`
	Hierarchy     engine.Hierarchy     `json:"hierarchy"`
}

func (s *Server) handleHeaders(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	st, err := s.load(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	st = s.suggest(ctx, st)

	out := HeadersResult{
		Headers:    st.Headers,
		RowCount:   len(st.Rows),
		Encoding:   st.Encoding,
		Warnings:   st.Warnings,
		Mapping:    st.Mapping,
		Mapped:     st.SuggestedCount,
		Suggestion: string(st.Suggestion),
	}
	if out.Warnings == nil {
		out.Warnings = []parser.ParseWarning{}
	}
	return jsonResult(out)
}

func (s *Server) handleTreemap(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	st, err := s.load(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if raw, _ := args["mapping"].(string); raw != "" {
		var m schema.ColumnMapping
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid mapping: %v", err)), nil
		}
		st = app.Reduce(st, app.MappingReplaced{Mapping: m.Reconcile(st.Headers)})
	} else {
		st = s.suggest(ctx, st)
	}

	st = app.Reduce(st, app.MappingsApplied{})
	if st.Err != nil {
		return mcp.NewToolResultError(st.Err.Error()), nil
	}

	for _, f := range []schema.Field{schema.FieldLevel, schema.FieldEmployeeType, schema.FieldTeamProject} {
		if values, ok := stringList(args[facetArg(f)]); ok {
			st = app.Reduce(st, app.FacetChanged{Field: f, Values: values})
		}
	}
	if on, ok := args["differentCampus"].(bool); ok {
		st = app.Reduce(st, app.CampusToggled{On: on})
	}
	if mgr, _ := args["manager"].(string); mgr != "" {
		if _, ok := st.Hierarchy.Find(mgr); !ok {
			return mcp.NewToolResultError(fmt.Sprintf("manager %q is not in the filtered hierarchy", mgr)), nil
		}
		loc, _ := args["location"].(string)
		st = app.Reduce(st, app.NodeClicked{Click: engine.Click{Manager: mgr, Location: loc}})
	}
	if st.Err != nil {
		return mcp.NewToolResultError(st.Err.Error()), nil
	}

	return jsonResult(TreemapResult{
		Caption:       app.Caption(st),
		Mapping:       st.Mapping,
		EmployeeCount: len(st.Employees),
		FilteredCount: len(st.Filtered),
		Filters:       st.Filters,
		Hierarchy:     st.Hierarchy,
	})
}

// load parses the csv argument into a fresh state.
func (s *Server) load(args map[string]any) (app.State, error) {
	text, _ := args["csv"].(string)
	if text == "" {
		return app.State{}, fmt.Errorf("csv parameter is required")
	}
	fileName, _ := args["fileName"].(string)
	if fileName == "" {
		fileName = defaultFileName
	}
	res, err := app.Ingest(fileName, []byte(text))
	if err != nil {
		return app.State{}, err
	}
	return app.Reduce(app.New(s.required), app.Uploaded{FileName: fileName, Token: "mcp", Result: res}), nil
}

// suggest runs the suggester inline unless the file opted out.
func (s *Server) suggest(ctx context.Context, st app.State) app.State {
	if st.Suggestion == app.SuggestionSkipped {
		return st
	}
	st = app.Reduce(st, app.SuggestionStarted{Token: st.Token})
	res, err := suggest.Run(ctx, s.suggester, st.Headers)
	if err != nil {
		s.logger.Warn("mapping suggestion failed", zap.String("provider", s.suggester.Name()), zap.Error(err))
	}
	return app.Reduce(st, app.SuggestionReceived{Token: st.Token, Mapping: res.Mapping, Err: err})
}

func facetArg(f schema.Field) string {
	switch f {
	case schema.FieldLevel:
		return "levels"
	case schema.FieldEmployeeType:
		return "employeeTypes"
	default:
		return "teamProjects"
	}
}

// stringList accepts a JSON array of strings as decoded by the transport.
func stringList(v any) ([]string, bool) {
	switch list := v.(type) {
	case []string:
		return list, true
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out, true
	default:
		return nil, false
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
