package frame_test

import (
	"testing"
	"time"

	"github.com/tripline/tripline/frame"
)

func TestCaseFirstMatchWins(t *testing.T) {
	f := mustFrame(t, frame.NewIntColumn("h", []int64{5, 8}, nil))
	out, err := frame.Case(f, "bucket", []frame.When{
		{Pred: frame.IntAtMost("h", 6), Label: "low"},
		{Pred: frame.IntAtMost("h", 10), Label: "mid"},
	}, "none")
	if err != nil {
		t.Fatalf("deriving: %v", err)
	}
	if b, _ := out.Row(0).Str("bucket"); b != "low" {
		t.Fatalf("row 0 bucket %q, want low (first match wins)", b)
	}
	if b, _ := out.Row(1).Str("bucket"); b != "mid" {
		t.Fatalf("row 1 bucket %q, want mid", b)
	}
}

func TestCaseGapGetsSentinelNotNull(t *testing.T) {
	// A deliberately gappy rule: hour 7 matches nothing.
	f := mustFrame(t, frame.NewIntColumn("h", []int64{7}, nil))
	out, err := frame.Case(f, "bucket", []frame.When{
		{Pred: frame.IntAtMost("h", 6), Label: "low"},
		{Pred: frame.IntAtLeast("h", 8), Label: "high"},
	}, "Unmatched")
	if err != nil {
		t.Fatalf("deriving: %v", err)
	}
	b, ok := out.Row(0).Str("bucket")
	if !ok {
		t.Fatal("gap must produce the sentinel, not null")
	}
	if b != "Unmatched" {
		t.Fatalf("gap label %q, want Unmatched", b)
	}
}

func TestCaseMissingColumn(t *testing.T) {
	f := mustFrame(t, frame.NewIntColumn("h", []int64{1}, nil))
	_, err := frame.Case(f, "bucket", []frame.When{
		{Pred: frame.IntAtMost("nope", 6), Label: "low"},
	}, "none")
	if err == nil {
		t.Fatal("expected error for missing column")
	}
}

func TestFlagHasNoNulls(t *testing.T) {
	f := mustFrame(t,
		frame.NewFloatColumn("tip_amount", []float64{0, 2, 0.01, 5}, []bool{true, true, true, false}),
	)
	out, err := frame.Flag(f, "tipped", frame.FloatAbove("tip_amount", 0))
	if err != nil {
		t.Fatalf("deriving: %v", err)
	}
	want := []int64{0, 1, 1, 0} // null tip counts as not tipped, not null output
	for i, w := range want {
		v, ok := out.Row(i).Int("tipped")
		if !ok {
			t.Fatalf("row %d: tipped must never be null", i)
		}
		if v != w {
			t.Fatalf("row %d: tipped=%d, want %d", i, v, w)
		}
	}
}

func TestHourOf(t *testing.T) {
	times := []time.Time{
		time.Date(2013, 1, 7, 0, 0, 0, 0, time.UTC),
		time.Date(2013, 1, 7, 23, 59, 59, 0, time.UTC),
	}
	f := mustFrame(t, frame.NewTimeColumn("pickup_datetime", times, []bool{true, false}))
	out, err := frame.HourOf(f, "pickup_hour", "pickup_datetime")
	if err != nil {
		t.Fatalf("deriving: %v", err)
	}
	if h, ok := out.Row(0).Int("pickup_hour"); !ok || h != 0 {
		t.Fatalf("row 0 hour (%d,%v), want 0", h, ok)
	}
	if _, ok := out.Row(1).Int("pickup_hour"); ok {
		t.Fatal("null timestamp must give null hour")
	}

	if _, err := frame.HourOf(f, "x", "missing"); err == nil {
		t.Fatal("expected error for missing column")
	}
	intf := mustFrame(t, frame.NewIntColumn("pickup_datetime", []int64{1}, nil))
	if _, err := frame.HourOf(intf, "x", "pickup_datetime"); err == nil {
		t.Fatal("expected error for non-timestamp column")
	}
}

func TestDeriveString(t *testing.T) {
	f := mustFrame(t, frame.NewFloatColumn("lat", []float64{40.7, 0}, []bool{true, false}))
	out, err := frame.DeriveString(f, "zone", []string{"lat"}, func(r frame.Row) (string, bool) {
		v, ok := r.Float("lat")
		if !ok {
			return "", false
		}
		if v > 40 {
			return "city", true
		}
		return "other", true
	})
	if err != nil {
		t.Fatalf("deriving: %v", err)
	}
	if z, _ := out.Row(0).Str("zone"); z != "city" {
		t.Fatalf("row 0 zone %q", z)
	}
	if _, ok := out.Row(1).Str("zone"); ok {
		t.Fatal("fn returning !ok must give null")
	}
}
