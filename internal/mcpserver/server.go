// Package mcpserver exposes the dbchat service as Model Context Protocol
// tools over stdio, so agents can query a configured database in natural
// language.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/koustreak/dbchat/internal/assistant"
	"github.com/koustreak/dbchat/internal/database"
	"github.com/koustreak/dbchat/internal/logger"
	"github.com/koustreak/dbchat/internal/service"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server is the MCP server for dbchat.
type Server struct {
	mcp *server.MCPServer
	svc *service.Service
	log *logger.Logger

	// defaultConnection is used when a tool call names none.
	defaultConnection string
}

// New registers the tools over svc. defaultConnection names the stored
// connection tools use when the caller does not pick one.
func New(svc *service.Service, defaultConnection, version string, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{svc: svc, log: log, defaultConnection: defaultConnection}
	s.mcp = server.NewMCPServer(
		"dbchat",
		version,
		server.WithToolCapabilities(true),
	)
	s.registerTools()
	return s
}

// ServeStdio serves on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	s.log.Info("starting MCP stdio server")
	return server.ServeStdio(s.mcp,
		server.WithStdioContextFunc(func(ctx context.Context) context.Context {
			return s.log.WithContext(ctx)
		}),
	)
}

const (
	promptDesc     = "The prompt from the user to convert to SQL."
	modelDesc      = "The AI model name or Azure OpenAI model deployment name to use to convert the user prompt to SQL. (Examples: gpt-4o, gpt-4.1)"
	platformDesc   = "The AI platform to use. (Must be AzureOpenAI, OpenAI, Ollama, GitHubModels, or AWSBedrock)"
	connectionDesc = "Name of the stored connection to use (optional, defaults to the configured database)"
)

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("get_sql_data_for_user_prompt",
		mcp.WithDescription("Translates the user prompt into a SQL query, runs the query and returns the results."),
		mcp.WithString("prompt", mcp.Description(promptDesc), mcp.Required()),
		mcp.WithString("aiModel", mcp.Description(modelDesc), mcp.Required()),
		mcp.WithString("aiPlatform", mcp.Description(platformDesc), mcp.Required()),
		mcp.WithString("connection", mcp.Description(connectionDesc)),
	), s.handleSQLDataForPrompt)

	s.mcp.AddTool(mcp.NewTool("get_database_schema",
		mcp.WithDescription("Gets the schema of the configured database."),
		mcp.WithString("connection", mcp.Description(connectionDesc)),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleDatabaseSchema)

	s.mcp.AddTool(mcp.NewTool("get_ai_generated_sql_query",
		mcp.WithDescription("Gets an AI generated SQL query based on the user's prompt and configured database schema."),
		mcp.WithString("prompt", mcp.Description(promptDesc), mcp.Required()),
		mcp.WithString("aiModel", mcp.Description(modelDesc), mcp.Required()),
		mcp.WithString("aiPlatform", mcp.Description(platformDesc), mcp.Required()),
		mcp.WithString("connection", mcp.Description(connectionDesc)),
	), s.handleAIGeneratedSQLQuery)
}

// aiArgs are the arguments shared by the prompt-driven tools.
type aiArgs struct {
	prompt, model, platform string
}

func readAIArgs(args map[string]any) (aiArgs, error) {
	a := aiArgs{}
	a.prompt, _ = args["prompt"].(string)
	a.model, _ = args["aiModel"].(string)
	a.platform, _ = args["aiPlatform"].(string)
	switch {
	case strings.TrimSpace(a.model) == "":
		return a, fmt.Errorf("aiModel is required")
	case strings.TrimSpace(a.platform) == "":
		return a, fmt.Errorf("aiPlatform is required")
	case strings.TrimSpace(a.prompt) == "":
		return a, fmt.Errorf("prompt is required")
	}
	return a, nil
}

func (s *Server) resolveConnection(ctx context.Context, args map[string]any) (database.Connection, error) {
	name, _ := args["connection"].(string)
	if name == "" {
		name = s.defaultConnection
	}
	if name == "" {
		return database.Connection{}, fmt.Errorf("no connection configured: set DATABASETYPE and DATABASECONNECTIONSTRING")
	}
	return s.svc.Connection(ctx, name)
}

func (s *Server) handleSQLDataForPrompt(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	a, err := readAIArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	conn, err := s.resolveConnection(ctx, args)
	if err != nil {
		return toolError(err), nil
	}

	res, err := s.svc.Run(ctx, conn, a.model, a.platform, a.prompt)
	if err != nil {
		if res != nil {
			return mcp.NewToolResultError(fmt.Sprintf("%v\nSummary: %s\nQuery: %s", err, res.Summary, res.Query)), nil
		}
		return toolError(err), nil
	}
	return jsonResult(res.Grid)
}

func (s *Server) handleDatabaseSchema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	conn, err := s.resolveConnection(ctx, req.GetArguments())
	if err != nil {
		return toolError(err), nil
	}
	sch, err := s.svc.GenerateSchema(ctx, conn)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(sch)
}

func (s *Server) handleAIGeneratedSQLQuery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	a, err := readAIArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	conn, err := s.resolveConnection(ctx, args)
	if err != nil {
		return toolError(err), nil
	}

	sch, err := s.svc.GenerateSchema(ctx, conn)
	if err != nil {
		return toolError(err), nil
	}
	q, err := s.svc.GetAISQLQuery(ctx, a.model, a.platform, a.prompt, sch, s.svc.Dialect(conn.Engine))
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(q.Query), nil
}

// toolError reports err to the agent, with the model's raw reply when the
// failure came from it.
func toolError(err error) *mcp.CallToolResult {
	msg := err.Error()
	if raw, ok := assistant.RawResponse(err); ok && !strings.Contains(msg, raw) {
		msg += "\nAI response: " + raw
	}
	return mcp.NewToolResultError(msg)
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func boolPtr(b bool) *bool { return &b }
