package database

import (
	"context"
	"sort"
	"strings"

	"github.com/koustreak/dbchat/internal/errs"
	"github.com/koustreak/dbchat/internal/schema"
)

// Registry dispatches each call to the Backend registered for the
// connection's engine. It is itself a Backend. Register every engine before
// the registry is shared; lookups are read-only afterwards.
type Registry struct {
	backends map[Engine]Backend
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{backends: make(map[Engine]Backend)}
}

// Register binds b to engine, replacing any previous binding.
func (r *Registry) Register(engine Engine, b Backend) *Registry {
	r.backends[normalize(engine)] = b
	return r
}

// Lookup returns the backend for engine, or an unsupported error.
func (r *Registry) Lookup(engine Engine) (Backend, error) {
	b, ok := r.backends[normalize(engine)]
	if !ok {
		return nil, errs.Newf(errs.ErrKindUnsupported, "unsupported engine %q", string(engine))
	}
	return b, nil
}

// Engines lists the registered engines sorted by name.
func (r *Registry) Engines() []Engine {
	out := make([]Engine, 0, len(r.backends))
	for e := range r.backends {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (r *Registry) GenerateSchema(ctx context.Context, conn Connection) (*schema.DatabaseSchema, error) {
	b, err := r.Lookup(conn.Engine)
	if err != nil {
		return nil, err
	}
	return b.GenerateSchema(ctx, conn)
}

func (r *Registry) Execute(ctx context.Context, conn Connection, sqlText string, args ...any) (Grid, error) {
	b, err := r.Lookup(conn.Engine)
	if err != nil {
		return nil, err
	}
	return b.Execute(ctx, conn, sqlText, args...)
}

func normalize(e Engine) Engine {
	return Engine(strings.ToUpper(strings.TrimSpace(string(e))))
}
