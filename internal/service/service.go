// Package service is the facade the CLI, HTTP and MCP surfaces call: it
// ties engine backends, chat clients and the assistant together and
// records metrics and history around them.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/koustreak/dbchat/internal/assistant"
	"github.com/koustreak/dbchat/internal/chat"
	"github.com/koustreak/dbchat/internal/connection"
	"github.com/koustreak/dbchat/internal/database"
	"github.com/koustreak/dbchat/internal/errs"
	"github.com/koustreak/dbchat/internal/history"
	"github.com/koustreak/dbchat/internal/logger"
	"github.com/koustreak/dbchat/internal/observability"
	"github.com/koustreak/dbchat/internal/schema"
)

// ClientSource hands out chat clients. *providers.Factory implements it.
type ClientSource interface {
	Client(ctx context.Context, p chat.Provider, model string) (chat.Client, error)
}

// Service is safe for concurrent use; it holds no per-request state.
type Service struct {
	backend     database.Backend
	clients     ClientSource
	connections connection.Store
	history     history.Store

	maxRows         int
	dialects        map[string]string
	defaultProvider chat.Provider
	defaultModel    string
}

// Option configures a Service.
type Option func(*Service)

// WithConnections sets the store named connections are resolved from.
func WithConnections(s connection.Store) Option {
	return func(svc *Service) { svc.connections = s }
}

// WithHistory records every successful Run in s.
func WithHistory(s history.Store) Option {
	return func(svc *Service) { svc.history = s }
}

// WithMaxRows sets the row cap the model is told to apply.
func WithMaxRows(n int) Option {
	return func(svc *Service) {
		if n > 0 {
			svc.maxRows = n
		}
	}
}

// WithDialects maps engine names to the dialect names shown to the model.
func WithDialects(m map[string]string) Option {
	return func(svc *Service) { svc.dialects = m }
}

// WithDefaults sets the provider and model used when a request names none.
func WithDefaults(p chat.Provider, model string) Option {
	return func(svc *Service) {
		svc.defaultProvider = p
		svc.defaultModel = model
	}
}

// DefaultMaxRows is used when no row cap is configured.
const DefaultMaxRows = 100

// New returns a Service over backend and clients.
func New(backend database.Backend, clients ClientSource, opts ...Option) *Service {
	s := &Service{
		backend:     backend,
		clients:     clients,
		connections: connection.NewMemoryStore(),
		history:     history.NewMemoryStore(),
		maxRows:     DefaultMaxRows,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Connections() connection.Store { return s.connections }
func (s *Service) History() history.Store         { return s.history }

// Connection resolves a stored connection by name.
func (s *Service) Connection(ctx context.Context, name string) (database.Connection, error) {
	return s.connections.Get(ctx, name)
}

// Dialect returns the dialect name the model is told to write for engine.
func (s *Service) Dialect(engine database.Engine) string {
	if name, ok := s.dialects[strings.ToUpper(string(engine))]; ok && name != "" {
		return name
	}
	return string(engine)
}

// GenerateSchema introspects conn.
func (s *Service) GenerateSchema(ctx context.Context, conn database.Connection) (*schema.DatabaseSchema, error) {
	sch, err := s.backend.GenerateSchema(ctx, conn)
	observability.ObserveSchemaFetch(string(conn.Engine), err)

	log := logger.FromContext(ctx)
	if err != nil {
		log.ErrorWith("schema introspection failed", err, map[string]interface{}{
			"connection": conn.Name,
			"engine":     string(conn.Engine),
		})
		return nil, err
	}
	log.InfoWith("schema generated", map[string]interface{}{
		"connection": conn.Name,
		"engine":     string(conn.Engine),
		"tables":     sch.Len(),
	})
	return sch, nil
}

// GetDataTable runs sqlText against conn.
func (s *Service) GetDataTable(ctx context.Context, conn database.Connection, sqlText string) (database.Grid, error) {
	return s.execute(ctx, conn, sqlText)
}

func (s *Service) execute(ctx context.Context, conn database.Connection, sqlText string, args ...any) (database.Grid, error) {
	start := time.Now()
	grid, err := s.backend.Execute(ctx, conn, sqlText, args...)
	elapsed := time.Since(start)
	observability.ObserveQuery(string(conn.Engine), len(grid.DataRows()), elapsed, err)

	log := logger.FromContext(ctx)
	if err != nil {
		log.ErrorWith("query failed", err, map[string]interface{}{
			"connection": conn.Name,
			"engine":     string(conn.Engine),
		})
		return nil, err
	}
	log.InfoWith("query executed", map[string]interface{}{
		"connection": conn.Name,
		"engine":     string(conn.Engine),
		"rows":       len(grid.DataRows()),
		"elapsed_ms": elapsed.Milliseconds(),
	})
	return grid, nil
}

// resolveClient picks the requested backend, falling back to the defaults.
func (s *Service) resolveClient(ctx context.Context, model, provider string) (chat.Client, chat.Provider, error) {
	p := s.defaultProvider
	if strings.TrimSpace(provider) != "" {
		parsed, err := chat.ParseProvider(provider)
		if err != nil {
			return nil, parsed, err
		}
		p = parsed
	}
	if p == "" {
		return nil, p, errs.New(errs.ErrKindInvalidInput, "AI provider is required")
	}
	if strings.TrimSpace(model) == "" {
		model = s.defaultModel
	}
	if model == "" {
		return nil, p, errs.New(errs.ErrKindInvalidInput, "AI model is required")
	}
	c, err := s.clients.Client(ctx, p, model)
	return c, p, err
}

// GetAISQLQuery asks the model for a query answering userPrompt against
// sch, written in dialect.
func (s *Service) GetAISQLQuery(ctx context.Context, model, provider, userPrompt string, sch *schema.DatabaseSchema, dialect string) (assistant.Query, error) {
	client, p, err := s.resolveClient(ctx, model, provider)
	if err != nil {
		return assistant.Query{}, err
	}

	start := time.Now()
	q, err := assistant.Ask(ctx, assistant.AskRequest{
		Prompt:  userPrompt,
		Schema:  sch,
		Dialect: dialect,
		MaxRows: s.maxRows,
	}, client)
	observability.ObserveAIRequest(string(p), time.Since(start), err)

	if err != nil {
		fields := map[string]interface{}{"provider": string(p)}
		if raw, ok := assistant.RawResponse(err); ok {
			fields["raw"] = raw
		}
		logger.FromContext(ctx).ErrorWith("AI query generation failed", err, fields)
		return assistant.Query{}, err
	}
	return q, nil
}

// ChatPrompt continues a free-form conversation and returns the reply.
//
// A failing backend is always an error, never an assistant message. This
// includes AWS Bedrock, which used to answer with an in-band
// "ERROR: Can't invoke ..." message; that text now travels on the
// provider_failed error and is available through chat.AsProviderError and
// ProviderError.AssistantText.
func (s *Service) ChatPrompt(ctx context.Context, msgs []chat.Message, model, provider string) (chat.Message, error) {
	if len(msgs) == 0 {
		return chat.Message{}, errs.New(errs.ErrKindInvalidInput, "chat history is empty")
	}
	client, p, err := s.resolveClient(ctx, model, provider)
	if err != nil {
		return chat.Message{}, err
	}

	start := time.Now()
	resp, err := client.Chat(ctx, msgs)
	observability.ObserveAIRequest(string(p), time.Since(start), err)
	if err != nil {
		logger.FromContext(ctx).ErrorWith("chat failed", err, map[string]interface{}{"provider": string(p)})
		return chat.Message{}, err
	}
	return resp.Message, nil
}
