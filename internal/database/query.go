package database

import (
	"fmt"
	"strings"
)

// validOps is the allowlist of comparison operators for WHERE clauses.
// Any operator not in this list is rejected to prevent SQL injection
// through the operator position (which cannot be parameterized).
var validOps = map[string]bool{
	"=":    true,
	"!=":   true,
	"<>":   true,
	"<":    true,
	">":    true,
	"<=":   true,
	">=":   true,
	"LIKE": true,
}

// SelectBuilder constructs a parameterized SELECT in the syntax of one
// engine: identifier quoting, placeholder style and row limiting all follow
// the engine. Values are never interpolated into the SQL string.
//
// Usage (MSSQL):
//
//	sql, args, err := Select(EngineMSSQL, "dbo.Orders").
//	    Columns("OrderId", "Total").
//	    Where("Status", "=", "open").
//	    OrderBy("CreatedAt", Desc).
//	    Limit(20).
//	    Build()
//	// SELECT TOP 20 [OrderId], [Total] FROM [dbo].[Orders] WHERE [Status] = @p1 ORDER BY [CreatedAt] DESC
type SelectBuilder struct {
	engine  Engine
	table   string
	columns []string
	where   []whereClause
	orderBy []orderClause
	limit   int
	offset  int
}

// SortDirection controls the ORDER BY direction.
type SortDirection bool

const (
	Asc  SortDirection = false
	Desc SortDirection = true
)

type whereClause struct {
	column string
	op     string
	value  any
}

type orderClause struct {
	column string
	dir    SortDirection
}

// Select starts a new SelectBuilder for table, which may be schema-qualified.
func Select(engine Engine, table string) *SelectBuilder {
	return &SelectBuilder{engine: normalize(engine), table: table}
}

// Columns restricts the SELECT to the specified columns.
// If not called, SELECT * is used.
func (b *SelectBuilder) Columns(cols ...string) *SelectBuilder {
	b.columns = cols
	return b
}

// Where adds a WHERE condition; multiple calls are combined with AND.
func (b *SelectBuilder) Where(column, op string, value any) *SelectBuilder {
	b.where = append(b.where, whereClause{column, op, value})
	return b
}

// OrderBy appends an ORDER BY clause for the given column and direction.
func (b *SelectBuilder) OrderBy(column string, dir SortDirection) *SelectBuilder {
	b.orderBy = append(b.orderBy, orderClause{column, dir})
	return b
}

// Limit sets the maximum number of rows to return. Zero means no limit.
func (b *SelectBuilder) Limit(n int) *SelectBuilder {
	b.limit = n
	return b
}

// Offset sets the number of rows to skip.
func (b *SelectBuilder) Offset(n int) *SelectBuilder {
	b.offset = n
	return b
}

// Build produces the final SQL string and argument slice.
func (b *SelectBuilder) Build() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, errInvalidInput("table name is required")
	}
	if b.limit < 0 || b.offset < 0 {
		return "", nil, errInvalidInput("limit and offset must not be negative")
	}
	if _, ok := placeholderStyles[b.engine]; !ok {
		return "", nil, errInvalidInput(fmt.Sprintf("unsupported engine %q", string(b.engine)))
	}

	// --- column list ---
	cols := "*"
	if len(b.columns) > 0 {
		quoted := make([]string, len(b.columns))
		for i, c := range b.columns {
			quoted[i] = b.quote(c)
		}
		cols = strings.Join(quoted, ", ")
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	if b.engine == EngineMSSQL && b.limit > 0 && b.offset == 0 {
		fmt.Fprintf(&sb, "TOP %d ", b.limit)
	}
	sb.WriteString(cols)
	sb.WriteString(" FROM ")
	sb.WriteString(b.quoteQualified(b.table))

	var args []any

	// --- WHERE ---
	if len(b.where) > 0 {
		parts := make([]string, 0, len(b.where))
		for _, w := range b.where {
			op := strings.ToUpper(w.op)
			if !validOps[op] {
				return "", nil, errInvalidInput(fmt.Sprintf("unsupported WHERE operator: %q", w.op))
			}
			args = append(args, w.value)
			parts = append(parts, fmt.Sprintf("%s %s %s", b.quote(w.column), op, b.placeholder(len(args))))
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(parts, " AND "))
	}

	// --- ORDER BY ---
	if len(b.orderBy) > 0 {
		parts := make([]string, len(b.orderBy))
		for i, o := range b.orderBy {
			dir := "ASC"
			if o.dir == Desc {
				dir = "DESC"
			}
			parts[i] = fmt.Sprintf("%s %s", b.quote(o.column), dir)
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(parts, ", "))
	} else if b.engine == EngineMSSQL && b.offset > 0 {
		// OFFSET requires an ORDER BY on SQL Server.
		sb.WriteString(" ORDER BY (SELECT NULL)")
	}

	// --- row limiting ---
	switch b.engine {
	case EngineMSSQL, EngineOracle:
		if b.offset > 0 {
			fmt.Fprintf(&sb, " OFFSET %d ROWS", b.offset)
			if b.limit > 0 {
				fmt.Fprintf(&sb, " FETCH NEXT %d ROWS ONLY", b.limit)
			}
		} else if b.limit > 0 && b.engine == EngineOracle {
			fmt.Fprintf(&sb, " FETCH FIRST %d ROWS ONLY", b.limit)
		}
	default:
		if b.limit > 0 {
			fmt.Fprintf(&sb, " LIMIT %d", b.limit)
		}
		if b.offset > 0 {
			fmt.Fprintf(&sb, " OFFSET %d", b.offset)
		}
	}

	return sb.String(), args, nil
}

var placeholderStyles = map[Engine]func(int) string{
	EngineMSSQL:      func(i int) string { return fmt.Sprintf("@p%d", i) },
	EngineMySQL:      func(int) string { return "?" },
	EnginePostgreSQL: func(i int) string { return fmt.Sprintf("$%d", i) },
	EngineOracle:     func(i int) string { return fmt.Sprintf(":%d", i) },
	EngineSnowflake:  func(int) string { return "?" },
}

// placeholder returns the engine's parameter placeholder for the idx-th arg.
func (b *SelectBuilder) placeholder(idx int) string {
	return placeholderStyles[b.engine](idx)
}

// quote wraps one identifier in the engine's quoting characters.
func (b *SelectBuilder) quote(name string) string {
	switch b.engine {
	case EngineMySQL:
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	case EngineMSSQL:
		return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
	default:
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
}

// quoteQualified quotes each dot-separated part of a table name.
func (b *SelectBuilder) quoteQualified(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = b.quote(p)
	}
	return strings.Join(parts, ".")
}
