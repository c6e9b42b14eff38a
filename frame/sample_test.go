package frame_test

import (
	"sort"
	"testing"

	"github.com/tripline/tripline/frame"
)

func seqFrame(t *testing.T, n int) *frame.Frame {
	vals := make([]int64, n)
	for i := range vals {
		vals[i] = int64(i)
	}
	return mustFrame(t, frame.NewIntColumn("v", vals, nil))
}

func TestSampleDeterministic(t *testing.T) {
	f := seqFrame(t, 2000)
	a, err := frame.Sample(f, 0.1, 123)
	if err != nil {
		t.Fatalf("sampling: %v", err)
	}
	b, err := frame.Sample(f, 0.1, 123)
	if err != nil {
		t.Fatalf("sampling again: %v", err)
	}
	if a.NumRows() != b.NumRows() {
		t.Fatalf("same seed, different counts: %d vs %d", a.NumRows(), b.NumRows())
	}
	for i := 0; i < a.NumRows(); i++ {
		av, _ := a.Row(i).Int("v")
		bv, _ := b.Row(i).Int("v")
		if av != bv {
			t.Fatalf("same seed, different row %d: %d vs %d", i, av, bv)
		}
	}
	// Sanity: the fraction is roughly honored.
	if a.NumRows() < 100 || a.NumRows() > 320 {
		t.Fatalf("0.1 sample of 2000 rows gave %d", a.NumRows())
	}

	c, err := frame.Sample(f, 0.1, 456)
	if err != nil {
		t.Fatalf("sampling with new seed: %v", err)
	}
	same := c.NumRows() == a.NumRows()
	if same {
		for i := 0; i < a.NumRows(); i++ {
			av, _ := a.Row(i).Int("v")
			cv, _ := c.Row(i).Int("v")
			if av != cv {
				same = false
				break
			}
		}
	}
	if same {
		t.Fatal("different seeds produced identical samples")
	}
}

func TestSampleBounds(t *testing.T) {
	f := seqFrame(t, 10)
	if _, err := frame.Sample(f, -0.1, 1); err == nil {
		t.Fatal("expected error for negative fraction")
	}
	if _, err := frame.Sample(f, 1.1, 1); err == nil {
		t.Fatal("expected error for fraction > 1")
	}
	all, err := frame.Sample(f, 1, 1)
	if err != nil {
		t.Fatalf("sampling all: %v", err)
	}
	if all.NumRows() != 10 {
		t.Fatalf("fraction 1 kept %d of 10 rows", all.NumRows())
	}
	none, err := frame.Sample(f, 0, 1)
	if err != nil {
		t.Fatalf("sampling none: %v", err)
	}
	if none.NumRows() != 0 {
		t.Fatalf("fraction 0 kept %d rows", none.NumRows())
	}
}

func TestPartitionsPreserveMultiset(t *testing.T) {
	f := seqFrame(t, 103)
	parts, err := frame.Partitions(f, 10)
	if err != nil {
		t.Fatalf("partitioning: %v", err)
	}
	if len(parts) != 10 {
		t.Fatalf("got %d partitions, want 10", len(parts))
	}
	var all []int64
	total := 0
	for _, p := range parts {
		total += p.NumRows()
		for i := 0; i < p.NumRows(); i++ {
			v, _ := p.Row(i).Int("v")
			all = append(all, v)
		}
	}
	if total != 103 {
		t.Fatalf("partitions hold %d rows, want 103", total)
	}
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
	for i, v := range all {
		if v != int64(i) {
			t.Fatalf("row content changed: position %d holds %d", i, v)
		}
	}
}

func TestPartitionsMoreShardsThanRows(t *testing.T) {
	f := seqFrame(t, 3)
	parts, err := frame.Partitions(f, 10)
	if err != nil {
		t.Fatalf("partitioning: %v", err)
	}
	if len(parts) != 10 {
		t.Fatalf("got %d partitions, want exactly 10", len(parts))
	}
	total := 0
	for _, p := range parts {
		total += p.NumRows()
	}
	if total != 3 {
		t.Fatalf("partitions hold %d rows, want 3", total)
	}

	if _, err := frame.Partitions(f, 0); err == nil {
		t.Fatal("expected error for zero partitions")
	}
}
