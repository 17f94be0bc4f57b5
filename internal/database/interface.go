package database

import (
	"context"

	"github.com/koustreak/dbchat/internal/schema"
)

// Grid is a normalized result set. Row 0 holds the column names whenever
// at least one data row exists; every cell is text.
type Grid [][]string

// Header returns the header row, or nil for an empty grid.
func (g Grid) Header() []string {
	if len(g) == 0 {
		return nil
	}
	return g[0]
}

// DataRows returns the rows after the header.
func (g Grid) DataRows() [][]string {
	if len(g) < 2 {
		return nil
	}
	return g[1:]
}

// Backend is the contract every engine fulfils.
// Layers above this package talk only to this interface and never import
// the engine packages directly.
type Backend interface {
	// GenerateSchema introspects every user table visible to the connection.
	GenerateSchema(ctx context.Context, conn Connection) (*schema.DatabaseSchema, error)

	// Execute runs sqlText and returns the normalized grid. args are bound
	// as statement parameters; model-generated queries carry none.
	Execute(ctx context.Context, conn Connection, sqlText string, args ...any) (Grid, error)
}

// Rows is the subset of *sql.Rows the normalizer needs.
type Rows interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...any) error
	Err() error
}
