package frame

import (
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/tripline/tripline"
)

// Predicate is a row test along with the columns it reads. A predicate is
// false on rows where any referenced value is null.
type Predicate struct {
	Desc string
	Cols []string
	Keep func(r Row) bool
}

// All is the conjunction of the given predicates.
func All(preds ...Predicate) Predicate {
	cols := []string{}
	for _, p := range preds {
		cols = append(cols, p.Cols...)
	}
	return Predicate{
		Desc: "all",
		Cols: cols,
		Keep: func(r Row) bool {
			for _, p := range preds {
				if !p.Keep(r) {
					return false
				}
			}
			return true
		},
	}
}

// Any is the disjunction of the given predicates.
func Any(preds ...Predicate) Predicate {
	cols := []string{}
	for _, p := range preds {
		cols = append(cols, p.Cols...)
	}
	return Predicate{
		Desc: "any",
		Cols: cols,
		Keep: func(r Row) bool {
			for _, p := range preds {
				if p.Keep(r) {
					return true
				}
			}
			return false
		},
	}
}

// FloatBetween keeps rows where col is inside (lo, hi), with each bound
// optionally inclusive. Int64 columns are widened.
func FloatBetween(col string, lo, hi float64, inclLo, inclHi bool) Predicate {
	return Predicate{
		Desc: "range " + col,
		Cols: []string{col},
		Keep: func(r Row) bool {
			v, ok := r.Float(col)
			if !ok {
				return false
			}
			if v < lo || (v == lo && !inclLo) {
				return false
			}
			if v > hi || (v == hi && !inclHi) {
				return false
			}
			return true
		},
	}
}

// FloatAbove keeps rows where col > v.
func FloatAbove(col string, v float64) Predicate {
	return Predicate{
		Desc: "above " + col,
		Cols: []string{col},
		Keep: func(r Row) bool {
			x, ok := r.Float(col)
			return ok && x > v
		},
	}
}

// FloatLess keeps rows where col < than, both read as float64.
func FloatLess(col, than string) Predicate {
	return Predicate{
		Desc: col + " < " + than,
		Cols: []string{col, than},
		Keep: func(r Row) bool {
			a, ok := r.Float(col)
			if !ok {
				return false
			}
			b, ok := r.Float(than)
			return ok && a < b
		},
	}
}

// IntBetween keeps rows where col is inside (lo, hi), with each bound
// optionally inclusive.
func IntBetween(col string, lo, hi int64, inclLo, inclHi bool) Predicate {
	return Predicate{
		Desc: "range " + col,
		Cols: []string{col},
		Keep: func(r Row) bool {
			v, ok := r.Int(col)
			if !ok {
				return false
			}
			if v < lo || (v == lo && !inclLo) {
				return false
			}
			if v > hi || (v == hi && !inclHi) {
				return false
			}
			return true
		},
	}
}

// IntAtMost keeps rows where col <= max.
func IntAtMost(col string, max int64) Predicate {
	return Predicate{
		Desc: "atmost " + col,
		Cols: []string{col},
		Keep: func(r Row) bool {
			v, ok := r.Int(col)
			return ok && v <= max
		},
	}
}

// IntAtLeast keeps rows where col >= min.
func IntAtLeast(col string, min int64) Predicate {
	return Predicate{
		Desc: "atleast " + col,
		Cols: []string{col},
		Keep: func(r Row) bool {
			v, ok := r.Int(col)
			return ok && v >= min
		},
	}
}

// StrIn keeps rows where col equals one of vals.
func StrIn(col string, vals ...string) Predicate {
	set := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		set[v] = struct{}{}
	}
	return Predicate{
		Desc: "in " + col,
		Cols: []string{col},
		Keep: func(r Row) bool {
			v, ok := r.Str(col)
			if !ok {
				return false
			}
			_, ok = set[v]
			return ok
		},
	}
}

// checkCols fails with a tripline.FilterError on the first referenced column
// the frame does not have.
func checkCols(f *Frame, pred Predicate) error {
	for _, c := range pred.Cols {
		if !f.Has(c) {
			return &tripline.FilterError{Column: c}
		}
	}
	return nil
}

// Filter returns the rows of f where pred holds, in their original order.
// Row testing is split across parallelism workers; the result is identical
// regardless of how the work is split.
func Filter(f *Frame, pred Predicate, parallelism int) (*Frame, error) {
	if err := checkCols(f, pred); err != nil {
		return nil, errors.Wrap(err, "checking filter columns")
	}
	if parallelism < 1 {
		parallelism = runtime.NumCPU()
	}
	keep := make([]bool, f.rows)
	eg := errgroup.Group{}
	chunk := (f.rows + parallelism - 1) / parallelism
	for lo := 0; lo < f.rows; lo += chunk {
		lo, hi := lo, lo+chunk
		if hi > f.rows {
			hi = f.rows
		}
		eg.Go(func() error {
			for i := lo; i < hi; i++ {
				keep[i] = pred.Keep(f.Row(i))
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	idx := make([]int, 0, f.rows)
	for i, k := range keep {
		if k {
			idx = append(idx, i)
		}
	}
	return f.gather(idx), nil
}
