package database

import (
	"encoding/hex"
	"fmt"
	"reflect"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/koustreak/dbchat/internal/errs"
)

// ConversionError replaces a cell whose value cannot be rendered as text.
const ConversionError = "DataTypeConversionError"

// ScanGrid reads every row from the result set into a Grid. The header row
// is emitted together with the first data row, so a result with no rows
// yields an empty, non-nil Grid.
//
// A cell that fails to render becomes ConversionError; the rest of the row
// is unaffected. ScanGrid does not close rows; the caller owns them.
func ScanGrid(rows Rows) (Grid, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, errQuery("failed to read column names", err)
	}

	grid := Grid{}

	for rows.Next() {
		// Scan through holders that accept any driver value.
		cells := make([]cell, len(columns))
		dest := make([]any, len(columns))
		for i := range cells {
			dest[i] = &cells[i]
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, MapCommon(err, "failed to scan row", errs.ErrKindQueryFailed)
		}

		if len(grid) == 0 {
			grid = append(grid, append([]string(nil), columns...))
		}

		row := make([]string, len(columns))
		for i := range cells {
			row[i] = renderCell(cells[i].value)
		}
		grid = append(grid, row)
	}

	if err := rows.Err(); err != nil {
		return nil, MapCommon(err, "error during row iteration", errs.ErrKindQueryFailed)
	}

	return grid, nil
}

// cell is a sql.Scanner that never fails. Byte slices are copied because
// drivers may reuse the buffer on the next Next call.
type cell struct {
	value any
}

func (c *cell) Scan(src any) error {
	if b, ok := src.([]byte); ok {
		c.value = append([]byte(nil), b...)
		return nil
	}
	c.value = src
	return nil
}

// renderCell converts a scanned value to text, isolating failures to the cell.
func renderCell(v any) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = ConversionError
		}
	}()

	s, err := formatValue(v)
	if err != nil {
		return ConversionError
	}
	return s
}

func formatValue(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case []byte:
		if utf8.Valid(val) {
			return string(val), nil
		}
		return "0x" + hex.EncodeToString(val), nil
	case time.Time:
		return val.Format(time.RFC3339Nano), nil
	case bool:
		return strconv.FormatBool(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case int32:
		return strconv.FormatInt(int64(val), 10), nil
	case int16:
		return strconv.FormatInt(int64(val), 10), nil
	case int8:
		return strconv.FormatInt(int64(val), 10), nil
	case int:
		return strconv.Itoa(val), nil
	case uint64:
		return strconv.FormatUint(val, 10), nil
	case uint32:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint:
		return strconv.FormatUint(uint64(val), 10), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), nil
	case fmt.Stringer:
		return val.String(), nil
	}

	switch reflect.ValueOf(v).Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return "", fmt.Errorf("cannot render value of type %T", v)
	}
	return fmt.Sprint(v), nil
}
