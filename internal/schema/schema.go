package schema

// Tuple is one row of an engine catalog query.
type Tuple struct {
	Table    string
	Column   string
	DataType string
}

// New builds a DatabaseSchema from tables, rendering Raw in the same order.
func New(tables []TableSchema) *DatabaseSchema {
	s := &DatabaseSchema{
		Structured: make([]TableSchema, 0, len(tables)),
		Raw:        make([]string, 0, len(tables)),
	}
	for _, t := range tables {
		s.Structured = append(s.Structured, t)
		s.Raw = append(s.Raw, t.RenderLine())
	}
	return s
}

// FromTuples groups catalog rows by table, keeping the order in which each
// table is first seen and the row order of its columns.
func FromTuples(tuples []Tuple) *DatabaseSchema {
	var tables []TableSchema
	index := make(map[string]int)

	for _, tp := range tuples {
		i, ok := index[tp.Table]
		if !ok {
			i = len(tables)
			index[tp.Table] = i
			tables = append(tables, TableSchema{TableName: tp.Table})
		}
		tables[i].Columns = append(tables[i].Columns, ColumnInfo{
			Name:     tp.Column,
			DataType: tp.DataType,
		})
	}
	return New(tables)
}
