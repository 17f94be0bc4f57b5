// Package schema holds the engine-neutral description of a database that
// every engine produces and the prompt builder consumes.
package schema

import "strings"

// ColumnInfo describes a single column in a table
type ColumnInfo struct {
	Name     string `json:"name"`
	DataType string `json:"dataType"` // dialect-formatted, e.g. varchar(50); may be empty
}

// DisplayName is Name alone when the type is unknown, otherwise "Name (DataType)".
func (c ColumnInfo) DisplayName() string {
	if c.DataType == "" {
		return c.Name
	}
	return c.Name + " (" + c.DataType + ")"
}

// TableSchema describes a table and its columns in engine ordinal order.
type TableSchema struct {
	TableName string       `json:"tableName"`
	Columns   []ColumnInfo `json:"columns"`
}

// ColumnNames returns the display names of the table's columns.
func (t TableSchema) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.DisplayName()
	}
	return names
}

// RenderLine renders the table as one prompt line:
//
//	- users (id (int), name (varchar(50)) )
func (t TableSchema) RenderLine() string {
	var sb strings.Builder
	sb.WriteString("- ")
	sb.WriteString(t.TableName)
	sb.WriteString(" (")
	for _, c := range t.Columns {
		sb.WriteString(c.DisplayName())
		sb.WriteString(", ")
	}
	sb.WriteString(")")
	return strings.Replace(sb.String(), ", )", " )", 1)
}

// DatabaseSchema is the full introspected schema. Raw[i] is always
// Structured[i].RenderLine(); build values with New or FromTuples.
type DatabaseSchema struct {
	Structured []TableSchema `json:"schemaStructured"`
	Raw        []string      `json:"schemaRaw"`
}

// Len returns the number of tables.
func (s *DatabaseSchema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Structured)
}
