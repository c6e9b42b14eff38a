package frame_test

import (
	"strings"
	"testing"
	"time"

	"github.com/tripline/tripline/frame"
)

func mustFrame(t *testing.T, cols ...*frame.Column) *frame.Frame {
	t.Helper()
	f, err := frame.New(cols...)
	if err != nil {
		t.Fatalf("building frame: %v", err)
	}
	return f
}

func TestNewRejectsBadColumns(t *testing.T) {
	_, err := frame.New(
		frame.NewIntColumn("a", []int64{1, 2}, nil),
		frame.NewIntColumn("a", []int64{3, 4}, nil),
	)
	if err == nil {
		t.Fatal("expected duplicate column error")
	}

	_, err = frame.New(
		frame.NewIntColumn("a", []int64{1, 2}, nil),
		frame.NewIntColumn("b", []int64{3}, nil),
	)
	if err == nil {
		t.Fatal("expected length mismatch error")
	}
}

func TestSelectSharesData(t *testing.T) {
	f := mustFrame(t,
		frame.NewIntColumn("a", []int64{1, 2}, nil),
		frame.NewStringColumn("b", []string{"x", "y"}, nil),
		frame.NewFloatColumn("c", []float64{0.5, 1.5}, nil),
	)
	sel, err := f.Select("c", "a")
	if err != nil {
		t.Fatalf("selecting: %v", err)
	}
	fields := sel.Schema()
	if len(fields) != 2 || fields[0].Name != "c" || fields[1].Name != "a" {
		t.Fatalf("wrong selected schema: %v", fields)
	}
	if sel.NumRows() != 2 {
		t.Fatalf("wrong row count: %d", sel.NumRows())
	}
	if _, err := f.Select("nope"); err == nil {
		t.Fatal("expected error selecting unknown column")
	}
}

func TestHead(t *testing.T) {
	ts := time.Date(2013, 1, 7, 9, 30, 0, 0, time.UTC)
	f := mustFrame(t,
		frame.NewStringColumn("medallion", []string{"A", "B"}, nil),
		frame.NewTimeColumn("pickup_datetime", []time.Time{ts, ts}, nil),
		frame.NewFloatColumn("fare_amount", []float64{7.5, 12}, []bool{true, false}),
	)
	head := f.Head(1)
	if !strings.Contains(head, "medallion\tpickup_datetime\tfare_amount") {
		t.Fatalf("missing header in head output: %q", head)
	}
	if !strings.Contains(head, "2013-01-07 09:30:00") {
		t.Fatalf("missing formatted timestamp: %q", head)
	}
	full := f.Head(10)
	if !strings.Contains(full, "null") {
		t.Fatalf("expected null cell rendered: %q", full)
	}
}

func TestConcatPreservesOrderAndNulls(t *testing.T) {
	a := mustFrame(t, frame.NewIntColumn("v", []int64{1, 2}, nil))
	b := mustFrame(t, frame.NewIntColumn("v", []int64{3, 4}, []bool{true, false}))
	out, err := frame.Concat(a, b)
	if err != nil {
		t.Fatalf("concatenating: %v", err)
	}
	if out.NumRows() != 4 {
		t.Fatalf("wrong row count: %d", out.NumRows())
	}
	want := []struct {
		v  int64
		ok bool
	}{{1, true}, {2, true}, {3, true}, {0, false}}
	for i, w := range want {
		v, ok := out.Row(i).Int("v")
		if ok != w.ok || v != w.v {
			t.Fatalf("row %d: got (%d,%v) want (%d,%v)", i, v, ok, w.v, w.ok)
		}
	}

	c := mustFrame(t, frame.NewFloatColumn("v", []float64{1}, nil))
	if _, err := frame.Concat(a, c); err == nil {
		t.Fatal("expected schema mismatch error")
	}
}

func TestRowAccessors(t *testing.T) {
	f := mustFrame(t,
		frame.NewIntColumn("i", []int64{7}, nil),
		frame.NewFloatColumn("f", []float64{2.5}, nil),
	)
	r := f.Row(0)
	// Int columns widen to float so numeric predicates work on inferred
	// integer columns.
	v, ok := r.Float("i")
	if !ok || v != 7 {
		t.Fatalf("widening int: got (%g,%v)", v, ok)
	}
	if _, ok := r.Int("f"); ok {
		t.Fatal("float column should not read as int")
	}
	if _, ok := r.Str("missing"); ok {
		t.Fatal("missing column should not read")
	}
}
