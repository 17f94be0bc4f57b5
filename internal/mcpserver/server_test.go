package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/koustreak/dbchat/internal/chat"
	"github.com/koustreak/dbchat/internal/chat/chattest"
	"github.com/koustreak/dbchat/internal/connection"
	"github.com/koustreak/dbchat/internal/database"
	"github.com/koustreak/dbchat/internal/database/dbtest"
	"github.com/koustreak/dbchat/internal/errs"
	"github.com/koustreak/dbchat/internal/schema"
	"github.com/koustreak/dbchat/internal/service"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configured = database.Connection{Name: "default", Engine: database.EngineMSSQL, ConnectionString: "sqlserver://sa:pw@localhost?database=shop"}

func newServer(t *testing.T, reply string) (*Server, *dbtest.Backend, *chattest.Source) {
	t.Helper()
	backend := &dbtest.Backend{
		Schema: schema.New([]schema.TableSchema{{TableName: "dbo.users", Columns: []schema.ColumnInfo{{Name: "id", DataType: "int"}}}}),
		Grid:   database.Grid{{"id"}, {"1"}, {"2"}},
	}
	src := &chattest.Source{Fixed: &chattest.Client{Reply: reply}}
	svc := service.New(backend, src,
		service.WithConnections(connection.NewStatic([]database.Connection{configured})),
		service.WithDialects(map[string]string{"MSSQL": "Microsoft SQL Server"}),
	)
	return New(svc, "default", "test", nil), backend, src
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return tc.Text
}

const reply = `{"summary":"Lists users.","query":"SELECT TOP 100 id FROM dbo.users"}`

var aiArgsOK = map[string]any{"prompt": "list users", "aiModel": "gpt-4o", "aiPlatform": "AzureOpenAI"}

func TestGetSQLDataForUserPrompt(t *testing.T) {
	s, backend, src := newServer(t, reply)

	res, err := s.handleSQLDataForPrompt(context.Background(), call(aiArgsOK))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))

	var grid [][]string
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &grid))
	assert.Equal(t, [][]string{{"id"}, {"1"}, {"2"}}, grid)
	assert.Equal(t, []string{"SELECT TOP 100 id FROM dbo.users"}, backend.Queries())
	assert.Equal(t, chat.ProviderAzureOpenAI, src.Provider)
	assert.Equal(t, "gpt-4o", src.Model)
}

func TestGetDatabaseSchema(t *testing.T) {
	s, _, _ := newServer(t, reply)

	res, err := s.handleDatabaseSchema(context.Background(), call(nil))
	require.NoError(t, err)
	require.False(t, res.IsError)

	var sch schema.DatabaseSchema
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &sch))
	assert.Equal(t, []string{"- dbo.users (id (int) )"}, sch.Raw)
}

func TestGetAIGeneratedSQLQuery(t *testing.T) {
	s, backend, _ := newServer(t, reply)

	res, err := s.handleAIGeneratedSQLQuery(context.Background(), call(aiArgsOK))
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Equal(t, "SELECT TOP 100 id FROM dbo.users", text(t, res))
	assert.Empty(t, backend.Queries(), "the query is returned, not run")
}

func TestToolArgumentValidation(t *testing.T) {
	s, _, _ := newServer(t, reply)

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"no model", map[string]any{"prompt": "p", "aiPlatform": "OpenAI"}, "aiModel is required"},
		{"no platform", map[string]any{"prompt": "p", "aiModel": "m"}, "aiPlatform is required"},
		{"no prompt", map[string]any{"aiModel": "m", "aiPlatform": "OpenAI"}, "prompt is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.handleSQLDataForPrompt(context.Background(), call(tt.args))
			require.NoError(t, err)
			assert.True(t, res.IsError)
			assert.Equal(t, tt.want, text(t, res))
		})
	}
}

func TestToolErrors(t *testing.T) {
	t.Run("unknown connection", func(t *testing.T) {
		s, _, _ := newServer(t, reply)
		res, err := s.handleDatabaseSchema(context.Background(), call(map[string]any{"connection": "nope"}))
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, text(t, res), "not_found")
	})

	t.Run("no default connection", func(t *testing.T) {
		s, _, _ := newServer(t, reply)
		s.defaultConnection = ""
		res, err := s.handleDatabaseSchema(context.Background(), call(nil))
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, text(t, res), "DATABASECONNECTIONSTRING")
	})

	t.Run("unparseable reply", func(t *testing.T) {
		s, _, _ := newServer(t, "Here you go: SELECT 1")
		res, err := s.handleAIGeneratedSQLQuery(context.Background(), call(aiArgsOK))
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, text(t, res), "Here you go: SELECT 1")
	})

	t.Run("query fails to run", func(t *testing.T) {
		s, backend, _ := newServer(t, reply)
		backend.ExecErr = errs.Wrap(errs.ErrKindQueryFailed, "query failed", assert.AnError)
		res, err := s.handleSQLDataForPrompt(context.Background(), call(aiArgsOK))
		require.NoError(t, err)
		assert.True(t, res.IsError)
		msg := text(t, res)
		assert.Contains(t, msg, "query_failed")
		assert.Contains(t, msg, "Query: SELECT TOP 100 id FROM dbo.users")
		assert.Contains(t, msg, "Summary: Lists users.")
	})

	t.Run("unsupported platform", func(t *testing.T) {
		s, _, _ := newServer(t, reply)
		args := map[string]any{"prompt": "p", "aiModel": "m", "aiPlatform": "Watson"}
		res, err := s.handleAIGeneratedSQLQuery(context.Background(), call(args))
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, text(t, res), errs.ErrKindUnsupported.String())
	})
}
