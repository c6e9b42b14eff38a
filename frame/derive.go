package frame

import (
	"github.com/pkg/errors"
)

// When is one branch of a Case derivation.
type When struct {
	Pred  Predicate
	Label string
}

// Case appends a string column computed by first-match-wins over the given
// branches. Rows matching no branch get the sentinel label - never a silent
// null - so boundary gaps in the branch ranges are observable.
func Case(f *Frame, name string, whens []When, sentinel string) (*Frame, error) {
	for _, w := range whens {
		if err := checkCols(f, w.Pred); err != nil {
			return nil, errors.Wrapf(err, "case column %q", name)
		}
	}
	out := make([]string, f.rows)
	for i := 0; i < f.rows; i++ {
		r := f.Row(i)
		out[i] = sentinel
		for _, w := range whens {
			if w.Pred.Keep(r) {
				out[i] = w.Label
				break
			}
		}
	}
	return f.withColumn(NewStringColumn(name, out, nil))
}

// Flag appends an int64 column which is 1 where pred holds and 0 elsewhere.
// The column has no nulls.
func Flag(f *Frame, name string, pred Predicate) (*Frame, error) {
	if err := checkCols(f, pred); err != nil {
		return nil, errors.Wrapf(err, "flag column %q", name)
	}
	out := make([]int64, f.rows)
	for i := 0; i < f.rows; i++ {
		if pred.Keep(f.Row(i)) {
			out[i] = 1
		}
	}
	return f.withColumn(NewIntColumn(name, out, nil))
}

// HourOf appends an int64 column holding the hour (0-23) of the named
// timestamp column. Null timestamps produce null hours.
func HourOf(f *Frame, name, tsCol string) (*Frame, error) {
	c := f.Column(tsCol)
	if c == nil {
		return nil, errors.Errorf("deriving %q: no column %q", name, tsCol)
	}
	if c.Type != Timestamp {
		return nil, errors.Errorf("deriving %q: column %q is %s, want timestamp", name, tsCol, c.Type)
	}
	out := make([]int64, f.rows)
	var valid []bool
	if c.Valid != nil {
		valid = make([]bool, f.rows)
		copy(valid, c.Valid)
	}
	for i := 0; i < f.rows; i++ {
		if c.IsValid(i) {
			out[i] = int64(c.Times[i].Hour())
		}
	}
	return f.withColumn(NewIntColumn(name, out, valid))
}

// DeriveString appends a string column computed from each row. cols declares
// the columns fn reads so missing ones fail up front; fn returning ok=false
// yields a null.
func DeriveString(f *Frame, name string, cols []string, fn func(r Row) (string, bool)) (*Frame, error) {
	for _, c := range cols {
		if !f.Has(c) {
			return nil, errors.Errorf("deriving %q: no column %q", name, c)
		}
	}
	out := make([]string, f.rows)
	valid := make([]bool, f.rows)
	for i := 0; i < f.rows; i++ {
		out[i], valid[i] = fn(f.Row(i))
	}
	return f.withColumn(NewStringColumn(name, out, valid))
}
