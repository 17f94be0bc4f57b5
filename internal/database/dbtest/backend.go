package dbtest

import (
	"context"
	"sync"

	"github.com/koustreak/dbchat/internal/database"
	"github.com/koustreak/dbchat/internal/schema"
)

// Backend is a scripted database.Backend for tests of the layers above
// the engines. It records every statement it is asked to run.
type Backend struct {
	Schema    *schema.DatabaseSchema
	SchemaErr error
	Grid      database.Grid
	ExecErr   error

	mu      sync.Mutex
	queries []string
	args    [][]any
}

func (b *Backend) GenerateSchema(ctx context.Context, _ database.Connection) (*schema.DatabaseSchema, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return b.Schema, b.SchemaErr
}

func (b *Backend) Execute(_ context.Context, _ database.Connection, sqlText string, args ...any) (database.Grid, error) {
	b.mu.Lock()
	b.queries = append(b.queries, sqlText)
	b.args = append(b.args, args)
	b.mu.Unlock()
	if b.ExecErr != nil {
		return nil, b.ExecErr
	}
	return b.Grid, nil
}

// Queries returns the statements executed so far.
func (b *Backend) Queries() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.queries...)
}

// Args returns the bound arguments of each executed statement.
func (b *Backend) Args() [][]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][]any(nil), b.args...)
}
