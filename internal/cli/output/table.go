package output

import (
	"fmt"
	"io"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"
)

// TableFormatter renders data as aligned columns.
//
// Slices of structs become one row per element, a single struct or a map
// becomes a two-column listing. Anything else falls back to JSON.
type TableFormatter struct {
	Wide      bool
	NoHeaders bool
}

// Format implements Formatter.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	switch t := data.(type) {
	case nil:
		return nil
	case *Table:
		return t.RenderWithOptions(w, f.NoHeaders)
	case Table:
		return t.RenderWithOptions(w, f.NoHeaders)
	}

	table, err := toTable(data, f.Wide)
	if err != nil {
		return (&JSONFormatter{}).Format(w, data)
	}
	return table.RenderWithOptions(w, f.NoHeaders)
}

func toTable(data any, wide bool) (*Table, error) {
	v := reflect.Indirect(reflect.ValueOf(data))

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		return sliceToTable(v, wide)
	case reflect.Map:
		table := &Table{Headers: []string{"KEY", "VALUE"}}
		appendMapRows(table, v)
		return table, nil
	case reflect.Struct:
		return structToTable(v), nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", v.Kind())
	}
}

// column is a struct field shown in a table.
type column struct {
	index int
	name  string
	wide  bool
}

// columnsOf lists the exported fields of t not tagged `table:"-"`.
func columnsOf(t reflect.Type) []column {
	var cols []column
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("table")
		if !field.IsExported() || tag == "-" {
			continue
		}
		cols = append(cols, column{
			index: i,
			name:  fieldName(field),
			wide:  strings.Contains(tag, "wide"),
		})
	}
	return cols
}

// fieldName prefers the json name so headers match the API's field names.
func fieldName(field reflect.StructField) string {
	if name, _, _ := strings.Cut(field.Tag.Get("json"), ","); name != "" && name != "-" {
		return name
	}
	return field.Name
}

func sliceToTable(v reflect.Value, wide bool) (*Table, error) {
	table := &Table{}
	if v.Len() == 0 {
		return table, nil
	}

	first := reflect.Indirect(v.Index(0))
	switch first.Kind() {
	case reflect.Struct:
		var cols []column
		for _, c := range columnsOf(first.Type()) {
			if c.wide && !wide {
				continue
			}
			cols = append(cols, c)
			table.Headers = append(table.Headers, strings.ToUpper(toSnakeCase(c.name)))
		}
		for i := 0; i < v.Len(); i++ {
			elem := reflect.Indirect(v.Index(i))
			if !elem.IsValid() {
				continue
			}
			row := make([]string, len(cols))
			for j, c := range cols {
				row[j] = formatValue(elem.Field(c.index))
			}
			table.AddRow(row...)
		}
	case reflect.Map:
		table.SetHeaders("KEY", "VALUE")
		for i := 0; i < v.Len(); i++ {
			appendMapRows(table, reflect.Indirect(v.Index(i)))
		}
	default:
		table.SetHeaders("VALUE")
		for i := 0; i < v.Len(); i++ {
			table.AddRow(formatValue(v.Index(i)))
		}
	}
	return table, nil
}

// appendMapRows adds one row per entry of m, sorted by key.
func appendMapRows(table *Table, m reflect.Value) {
	if m.Kind() != reflect.Map {
		return
	}
	rows := make([][]string, 0, m.Len())
	iter := m.MapRange()
	for iter.Next() {
		rows = append(rows, []string{formatValue(iter.Key()), formatValue(iter.Value())})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i][0] < rows[j][0] })
	table.Rows = append(table.Rows, rows...)
}

// structToTable lists every column of a single struct, wide ones included.
func structToTable(v reflect.Value) *Table {
	table := &Table{Headers: []string{"FIELD", "VALUE"}}
	for _, c := range columnsOf(v.Type()) {
		table.AddRow(c.name, formatValue(v.Field(c.index)))
	}
	return table
}

var timeType = reflect.TypeOf(time.Time{})

// formatValue renders one cell. Nil renders empty; an empty string, slice
// or map renders "-".
func formatValue(v reflect.Value) string {
	for v.Kind() == reflect.Interface || v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return ""
	}

	if v.Type() == timeType {
		t := v.Interface().(time.Time)
		if t.IsZero() {
			return "-"
		}
		return t.Format("2006-01-02 15:04")
	}

	// Amounts and IDs.
	if v.Kind() != reflect.String && v.CanInterface() {
		if s, ok := v.Interface().(fmt.Stringer); ok {
			return s.String()
		}
	}

	switch v.Kind() {
	case reflect.String:
		if v.Len() == 0 {
			return "-"
		}
		return v.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', 2, 64)
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return "-"
		}
		return fmt.Sprintf("[%d items]", v.Len())
	case reflect.Map:
		if v.Len() == 0 {
			return "-"
		}
		return fmt.Sprintf("{%d keys}", v.Len())
	case reflect.Struct:
		return fmt.Sprintf("{%d fields}", v.NumField())
	default:
		return fmt.Sprint(v.Interface())
	}
}

// toSnakeCase puts an underscore before every inner capital: startDate
// becomes start_Date, which ToUpper turns into a START_DATE header.
func toSnakeCase(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range s {
		if i > 0 && 'A' <= r && r <= 'Z' {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Table is pre-built tabular output.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Render writes the table with headers.
func (t *Table) Render(w io.Writer) error {
	return t.RenderWithOptions(w, false)
}

// RenderWithOptions writes the table, optionally without the header line.
func (t *Table) RenderWithOptions(w io.Writer, noHeaders bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if !noHeaders && len(t.Headers) > 0 {
		fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
	}
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// AddRow appends a row.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// SetHeaders replaces the header line.
func (t *Table) SetHeaders(headers ...string) {
	t.Headers = headers
}
