// Package frame implements a small immutable columnar table. It is the
// in-process stand-in for a distributed engine's table: every operation
// produces a new Frame and leaves its inputs alone, so records flow strictly
// forward through pipeline stages.
package frame

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Type enumerates the column types a Frame can hold.
type Type int

const (
	Int64 Type = iota
	Float64
	String
	Timestamp
)

func (t Type) String() string {
	switch t {
	case Int64:
		return "int64"
	case Float64:
		return "float64"
	case String:
		return "string"
	case Timestamp:
		return "timestamp"
	}
	return fmt.Sprintf("unknown(%d)", int(t))
}

// Field is a column name and type.
type Field struct {
	Name string
	Type Type
}

// Column holds one typed column. Exactly one of the value slices is
// populated according to Type. A nil Valid slice means every value is set.
type Column struct {
	Field
	Ints   []int64
	Floats []float64
	Strs   []string
	Times  []time.Time
	Valid  []bool
}

// NewIntColumn returns an Int64 column. valid may be nil.
func NewIntColumn(name string, vals []int64, valid []bool) *Column {
	return &Column{Field: Field{Name: name, Type: Int64}, Ints: vals, Valid: valid}
}

// NewFloatColumn returns a Float64 column. valid may be nil.
func NewFloatColumn(name string, vals []float64, valid []bool) *Column {
	return &Column{Field: Field{Name: name, Type: Float64}, Floats: vals, Valid: valid}
}

// NewStringColumn returns a String column. valid may be nil.
func NewStringColumn(name string, vals []string, valid []bool) *Column {
	return &Column{Field: Field{Name: name, Type: String}, Strs: vals, Valid: valid}
}

// NewTimeColumn returns a Timestamp column. valid may be nil.
func NewTimeColumn(name string, vals []time.Time, valid []bool) *Column {
	return &Column{Field: Field{Name: name, Type: Timestamp}, Times: vals, Valid: valid}
}

// Len returns the number of values in the column.
func (c *Column) Len() int {
	switch c.Type {
	case Int64:
		return len(c.Ints)
	case Float64:
		return len(c.Floats)
	case String:
		return len(c.Strs)
	case Timestamp:
		return len(c.Times)
	}
	return 0
}

// IsValid reports whether row i holds a value.
func (c *Column) IsValid(i int) bool {
	return c.Valid == nil || c.Valid[i]
}

// gather returns a new column containing the given rows in order.
func (c *Column) gather(idx []int) *Column {
	out := &Column{Field: c.Field}
	if c.Valid != nil {
		out.Valid = make([]bool, len(idx))
		for j, i := range idx {
			out.Valid[j] = c.Valid[i]
		}
	}
	switch c.Type {
	case Int64:
		out.Ints = make([]int64, len(idx))
		for j, i := range idx {
			out.Ints[j] = c.Ints[i]
		}
	case Float64:
		out.Floats = make([]float64, len(idx))
		for j, i := range idx {
			out.Floats[j] = c.Floats[i]
		}
	case String:
		out.Strs = make([]string, len(idx))
		for j, i := range idx {
			out.Strs[j] = c.Strs[i]
		}
	case Timestamp:
		out.Times = make([]time.Time, len(idx))
		for j, i := range idx {
			out.Times[j] = c.Times[i]
		}
	}
	return out
}

func (c *Column) renamed(name string) *Column {
	out := *c
	out.Name = name
	return &out
}

// Frame is an immutable columnar table.
type Frame struct {
	cols   []*Column
	byName map[string]int
	rows   int
}

// New builds a Frame from columns. All columns must have the same length and
// distinct names.
func New(cols ...*Column) (*Frame, error) {
	f := &Frame{byName: make(map[string]int, len(cols))}
	for i, c := range cols {
		if _, dup := f.byName[c.Name]; dup {
			return nil, errors.Errorf("duplicate column %q", c.Name)
		}
		if i == 0 {
			f.rows = c.Len()
		} else if c.Len() != f.rows {
			return nil, errors.Errorf("column %q has %d rows, want %d", c.Name, c.Len(), f.rows)
		}
		f.byName[c.Name] = i
		f.cols = append(f.cols, c)
	}
	return f, nil
}

// NumRows returns the row count.
func (f *Frame) NumRows() int { return f.rows }

// Schema returns the ordered fields of the frame.
func (f *Frame) Schema() []Field {
	fields := make([]Field, len(f.cols))
	for i, c := range f.cols {
		fields[i] = c.Field
	}
	return fields
}

// Column returns the named column, or nil when the frame does not have it.
func (f *Frame) Column(name string) *Column {
	i, ok := f.byName[name]
	if !ok {
		return nil
	}
	return f.cols[i]
}

// Columns returns the frame's columns in order.
func (f *Frame) Columns() []*Column { return f.cols }

// Has reports whether all named columns exist.
func (f *Frame) Has(names ...string) bool {
	for _, n := range names {
		if _, ok := f.byName[n]; !ok {
			return false
		}
	}
	return true
}

// Select returns a new frame with only the named columns, in the given
// order. The column data is shared, not copied.
func (f *Frame) Select(names ...string) (*Frame, error) {
	cols := make([]*Column, 0, len(names))
	for _, n := range names {
		c := f.Column(n)
		if c == nil {
			return nil, errors.Errorf("selecting unknown column %q", n)
		}
		cols = append(cols, c)
	}
	return New(cols...)
}

// withColumn returns a new frame with one more column appended.
func (f *Frame) withColumn(c *Column) (*Frame, error) {
	cols := make([]*Column, len(f.cols), len(f.cols)+1)
	copy(cols, f.cols)
	return New(append(cols, c)...)
}

// gather returns a new frame containing the given rows in order.
func (f *Frame) gather(idx []int) *Frame {
	cols := make([]*Column, len(f.cols))
	for i, c := range f.cols {
		cols[i] = c.gather(idx)
	}
	out, _ := New(cols...)
	return out
}

// Row is a cursor over one row of a frame.
type Row struct {
	f *Frame
	i int
}

// Row returns a cursor for row i.
func (f *Frame) Row(i int) Row { return Row{f: f, i: i} }

// Int returns the int64 value of the named column, and whether it was set.
func (r Row) Int(name string) (int64, bool) {
	c := r.f.Column(name)
	if c == nil || c.Type != Int64 || !c.IsValid(r.i) {
		return 0, false
	}
	return c.Ints[r.i], true
}

// Float returns the named column's value as a float64. Int64 columns are
// widened, so numeric predicates work regardless of how a column was
// inferred.
func (r Row) Float(name string) (float64, bool) {
	c := r.f.Column(name)
	if c == nil || !c.IsValid(r.i) {
		return 0, false
	}
	switch c.Type {
	case Float64:
		return c.Floats[r.i], true
	case Int64:
		return float64(c.Ints[r.i]), true
	}
	return 0, false
}

// Str returns the string value of the named column.
func (r Row) Str(name string) (string, bool) {
	c := r.f.Column(name)
	if c == nil || c.Type != String || !c.IsValid(r.i) {
		return "", false
	}
	return c.Strs[r.i], true
}

// Time returns the timestamp value of the named column.
func (r Row) Time(name string) (time.Time, bool) {
	c := r.f.Column(name)
	if c == nil || c.Type != Timestamp || !c.IsValid(r.i) {
		return time.Time{}, false
	}
	return c.Times[r.i], true
}

// Head renders the first n rows as a tab separated string for inspection.
func (f *Frame) Head(n int) string {
	if n > f.rows {
		n = f.rows
	}
	sb := &strings.Builder{}
	for i, c := range f.cols {
		if i > 0 {
			sb.WriteByte('\t')
		}
		sb.WriteString(c.Name)
	}
	sb.WriteByte('\n')
	for i := 0; i < n; i++ {
		for j, c := range f.cols {
			if j > 0 {
				sb.WriteByte('\t')
			}
			sb.WriteString(cellString(c, i))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func cellString(c *Column, i int) string {
	if !c.IsValid(i) {
		return "null"
	}
	switch c.Type {
	case Int64:
		return fmt.Sprintf("%d", c.Ints[i])
	case Float64:
		return fmt.Sprintf("%g", c.Floats[i])
	case String:
		return c.Strs[i]
	case Timestamp:
		return c.Times[i].Format("2006-01-02 15:04:05")
	}
	return "?"
}

// Concat reassembles frames with identical schemas into one, preserving row
// order across the inputs.
func Concat(frames ...*Frame) (*Frame, error) {
	if len(frames) == 0 {
		return nil, errors.New("concat of zero frames")
	}
	first := frames[0]
	cols := make([]*Column, len(first.cols))
	for ci, c := range first.cols {
		out := &Column{Field: c.Field}
		needValid := false
		for _, f := range frames {
			if ci >= len(f.cols) || f.cols[ci].Field != c.Field {
				return nil, errors.Errorf("schema mismatch concatenating column %d", ci)
			}
			if f.cols[ci].Valid != nil {
				needValid = true
			}
		}
		for _, f := range frames {
			fc := f.cols[ci]
			out.Ints = append(out.Ints, fc.Ints...)
			out.Floats = append(out.Floats, fc.Floats...)
			out.Strs = append(out.Strs, fc.Strs...)
			out.Times = append(out.Times, fc.Times...)
			if needValid {
				if fc.Valid != nil {
					out.Valid = append(out.Valid, fc.Valid...)
				} else {
					for i := 0; i < fc.Len(); i++ {
						out.Valid = append(out.Valid, true)
					}
				}
			}
		}
		cols[ci] = out
	}
	return New(cols...)
}
