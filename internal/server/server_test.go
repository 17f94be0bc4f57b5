package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/koustreak/dbchat/internal/chat"
	"github.com/koustreak/dbchat/internal/chat/chattest"
	"github.com/koustreak/dbchat/internal/connection"
	"github.com/koustreak/dbchat/internal/database"
	"github.com/koustreak/dbchat/internal/database/dbtest"
	"github.com/koustreak/dbchat/internal/errs"
	"github.com/koustreak/dbchat/internal/history"
	"github.com/koustreak/dbchat/internal/schema"
	"github.com/koustreak/dbchat/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var shop = database.Connection{Name: "shop", Engine: database.EngineMySQL, ConnectionString: "u:p@tcp(localhost)/shop"}

type fixture struct {
	handler http.Handler
	backend *dbtest.Backend
	client  *chattest.Client
	conns   *connection.MemoryStore
	hist    *history.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		backend: &dbtest.Backend{
			Schema: schema.New([]schema.TableSchema{{TableName: "users", Columns: []schema.ColumnInfo{{Name: "id", DataType: "int"}}}}),
			Grid:   database.Grid{{"id"}, {"1"}},
		},
		client: &chattest.Client{Reply: `{"summary":"All users.","query":"SELECT id FROM users LIMIT 100"}`},
		conns:  connection.NewMemoryStore(shop),
		hist:   history.NewMemoryStore(),
	}
	svc := service.New(f.backend, &chattest.Source{Fixed: f.client},
		service.WithConnections(f.conns),
		service.WithHistory(f.hist),
		service.WithDefaults(chat.ProviderOpenAI, "gpt-4o"),
	)
	f.handler = New(Config{}, svc, nil).Handler()
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, httptest.NewRequest(method, path, &buf))
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func TestHealthz(t *testing.T) {
	rr := newFixture(t).do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestReady(t *testing.T) {
	rr := newFixture(t).do(t, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ready"}`, rr.Body.String())
}

func TestConnections(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodGet, "/api/connections", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"connections":[{"name":"shop","engine":"MYSQL"}]}`, rr.Body.String())
	assert.NotContains(t, rr.Body.String(), "tcp(localhost)", "connection strings are never listed")

	rr = f.do(t, http.MethodPost, "/api/connections", map[string]string{
		"name": "wh", "engine": "postgresql", "connectionString": "postgres://localhost/wh",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = f.do(t, http.MethodPost, "/api/connections", map[string]string{"name": "bad", "engine": "DB2", "connectionString": "x"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "unsupported", decodeBody(t, rr)["error"])

	rr = f.do(t, http.MethodDelete, "/api/connections/wh", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = f.do(t, http.MethodDelete, "/api/connections/wh", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSchema(t *testing.T) {
	rr := newFixture(t).do(t, http.MethodGet, "/api/connections/shop/schema", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{
		"schemaStructured": [{"tableName":"users","columns":[{"name":"id","dataType":"int"}]}],
		"schemaRaw": ["- users (id (int) )"]
	}`, rr.Body.String())
}

func TestSchema_UnknownConnection(t *testing.T) {
	rr := newFixture(t).do(t, http.MethodGet, "/api/connections/nope/schema", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "not_found", decodeBody(t, rr)["error"])
}

func TestQuery(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodPost, "/api/connections/shop/query", map[string]string{"query": "SELECT id FROM users"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"rows":[["id"],["1"]]}`, rr.Body.String())
	assert.Equal(t, []string{"SELECT id FROM users"}, f.backend.Queries())
}

func TestQuery_Errors(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/api/connections/shop/query", map[string]string{"sql": "SELECT 1"})
	assert.Equal(t, http.StatusBadRequest, rr.Code, "unknown fields are rejected")

	f.backend.ExecErr = errs.Wrap(errs.ErrKindQueryFailed, "query failed", assert.AnError)
	rr = f.do(t, http.MethodPost, "/api/connections/shop/query", map[string]string{"query": "SELEC 1"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "query_failed", body["error"])
	assert.Equal(t, assert.AnError.Error(), body["detail"])
}

func TestAsk(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/api/connections/shop/ask", map[string]any{"prompt": "all users"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := decodeBody(t, rr)
	assert.Equal(t, "All users.", body["summary"])
	assert.Equal(t, "SELECT id FROM users LIMIT 100", body["query"])
	assert.Equal(t, []any{[]any{"id"}, []any{"1"}}, body["rows"])

	items, err := f.hist.List(t.Context(), "shop", history.TypeHistory)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestAsk_WithoutExecute(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/api/connections/shop/ask", map[string]any{"prompt": "all users", "execute": false})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"summary":"All users.","query":"SELECT id FROM users LIMIT 100"}`, rr.Body.String())
	assert.Empty(t, f.backend.Queries())
}

func TestAsk_ContractViolationReturnsRaw(t *testing.T) {
	f := newFixture(t)
	f.client.Reply = "Sorry, I only talk about databases."

	rr := f.do(t, http.MethodPost, "/api/connections/shop/ask", map[string]any{"prompt": "weather?"})
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "contract_violation", body["error"])
	assert.Equal(t, "Sorry, I only talk about databases.", body["raw"])
}

func TestAsk_ExecutionFailureKeepsQuery(t *testing.T) {
	f := newFixture(t)
	f.backend.ExecErr = errs.Wrap(errs.ErrKindQueryFailed, "query failed", assert.AnError)

	rr := f.do(t, http.MethodPost, "/api/connections/shop/ask", map[string]any{"prompt": "all users"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "query_failed", body["error"])
	assert.Equal(t, "SELECT id FROM users LIMIT 100", body["query"])
	assert.Equal(t, "All users.", body["summary"])
	assert.NotContains(t, body, "rows")
}

func TestPreview(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodGet, "/api/connections/shop/tables/users/preview?limit=5", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"SELECT * FROM `users` LIMIT 5"}, f.backend.Queries())

	rr = f.do(t, http.MethodGet, "/api/connections/shop/tables/users/preview?limit=many", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestChat(t *testing.T) {
	f := newFixture(t)
	f.client.Reply = "Add an index."

	rr := f.do(t, http.MethodPost, "/api/chat", map[string]any{
		"messages": []chat.Message{chat.User("slow query?")},
	})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":{"role":"assistant","content":"Add an index."}}`, rr.Body.String())

	rr = f.do(t, http.MethodPost, "/api/chat", map[string]any{"messages": []chat.Message{}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHistory(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/api/history", map[string]any{
		"query": "SELECT * FROM orders", "name": "orders", "connectionName": "shop", "type": "favorite",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.NotEmpty(t, decodeBody(t, rr)["id"])

	rr = f.do(t, http.MethodGet, "/api/history?type=favorite&connection=shop", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	items := decodeBody(t, rr)["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "orders", items[0].(map[string]any)["name"])

	id := items[0].(map[string]any)["id"].(string)
	rr = f.do(t, http.MethodDelete, "/api/history/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = f.do(t, http.MethodDelete, "/api/history/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = f.do(t, http.MethodGet, "/api/history?type=pinned", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodGet, "/healthz", nil)

	rr := f.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "dbchat_http_requests_total")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusGatewayTimeout, statusFor(errs.New(errs.ErrKindTimeout, "slow")))
	assert.Equal(t, http.StatusForbidden, statusFor(errs.New(errs.ErrKindPermissionDenied, "no")))
	assert.Equal(t, http.StatusBadGateway, statusFor(errs.New(errs.ErrKindConnectionFailed, "down")))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}
