package csv_test

import (
	"io"
	"strings"
	"testing"

	"github.com/tripline/tripline"
	"github.com/tripline/tripline/csv"
	"github.com/tripline/tripline/frame"
)

type stringSource struct {
	files []namedString
	idx   int
}

type namedString struct {
	name string
	data string
}

func (s *stringSource) NextReader() (tripline.NamedReadCloser, error) {
	if s.idx >= len(s.files) {
		return nil, io.EOF
	}
	f := s.files[s.idx]
	s.idx++
	return &stringReader{Reader: strings.NewReader(f.data), name: f.name}, nil
}

type stringReader struct {
	*strings.Reader
	name string
}

func (r *stringReader) Close() error { return nil }
func (r *stringReader) Name() string { return r.name }

func source(files ...namedString) *stringSource {
	return &stringSource{files: files}
}

func TestReadFrameInference(t *testing.T) {
	src := source(namedString{"trips.csv", strings.Join([]string{
		"medallion, passenger_count, trip_distance, pickup_datetime",
		"A1, 1, 2.5, 2013-01-07 09:15:00",
		"B2, 3, 0.8, 2013-01-07 22:10:00",
		"C3, , 11.0, 2013-01-07 12:00:00",
	}, "\n")})

	f, err := csv.ReadFrame(src, csv.Options{InferSchema: true})
	if err != nil {
		t.Fatalf("reading: %v", err)
	}
	if f.NumRows() != 3 {
		t.Fatalf("got %d rows", f.NumRows())
	}
	want := map[string]frame.Type{
		"medallion":       frame.String,
		"passenger_count": frame.Int64,
		"trip_distance":   frame.Float64,
		"pickup_datetime": frame.Timestamp,
	}
	for name, typ := range want {
		c := f.Column(name)
		if c == nil {
			t.Fatalf("missing column %s", name)
		}
		if c.Type != typ {
			t.Fatalf("column %s inferred as %s, want %s", name, c.Type, typ)
		}
	}
	c := f.Column("passenger_count")
	if c.IsValid(2) {
		t.Fatal("empty cell should be null")
	}
	if c.Ints[1] != 3 {
		t.Fatalf("passenger_count[1] = %d", c.Ints[1])
	}
	if f.Column("pickup_datetime").Times[1].Hour() != 22 {
		t.Fatalf("hour = %d", f.Column("pickup_datetime").Times[1].Hour())
	}
}

func TestReadFrameExplicitSchema(t *testing.T) {
	src := source(namedString{"fares.csv", "a,b\n1,x\n2,y"})
	f, err := csv.ReadFrame(src, csv.Options{
		Schema: []frame.Field{
			{Name: "a", Type: frame.Float64},
			{Name: "b", Type: frame.String},
		},
	})
	if err != nil {
		t.Fatalf("reading: %v", err)
	}
	if f.Column("a").Type != frame.Float64 {
		t.Fatalf("a has type %s", f.Column("a").Type)
	}
	if f.Column("a").Floats[1] != 2 {
		t.Fatalf("a[1] = %g", f.Column("a").Floats[1])
	}
}

func TestReadFrameSchemaMissingColumn(t *testing.T) {
	src := source(namedString{"fares.csv", "a,b\n1,x"})
	_, err := csv.ReadFrame(src, csv.Options{
		Schema: []frame.Field{{Name: "a", Type: frame.Int64}},
	})
	if !tripline.IsSchema(err) {
		t.Fatalf("expected schema error, got %v", err)
	}
}

func TestReadFrameStrict(t *testing.T) {
	data := "n\n1\nnope\n3"
	schema := []frame.Field{{Name: "n", Type: frame.Int64}}

	_, err := csv.ReadFrame(source(namedString{"x.csv", data}), csv.Options{Schema: schema, Strict: true})
	if !tripline.IsSchema(err) {
		t.Fatalf("expected schema error, got %v", err)
	}

	f, err := csv.ReadFrame(source(namedString{"x.csv", data}), csv.Options{Schema: schema})
	if err != nil {
		t.Fatalf("lenient read: %v", err)
	}
	c := f.Column("n")
	if c.IsValid(1) {
		t.Fatal("bad cell should be null when lenient")
	}
	if !c.IsValid(0) || !c.IsValid(2) {
		t.Fatal("good cells should stay valid")
	}
}

func TestReadFrameMultiFile(t *testing.T) {
	src := source(
		namedString{"part1.csv", "k,v\na,1\nb,2"},
		namedString{"part2.csv", "k,v\nc,3"},
	)
	f, err := csv.ReadFrame(src, csv.Options{InferSchema: true})
	if err != nil {
		t.Fatalf("reading: %v", err)
	}
	if f.NumRows() != 3 {
		t.Fatalf("got %d rows, want 3", f.NumRows())
	}
	if f.Column("k").Strs[2] != "c" {
		t.Fatalf("k[2] = %q", f.Column("k").Strs[2])
	}
}

func TestReadFrameHeaderMismatch(t *testing.T) {
	src := source(
		namedString{"part1.csv", "k,v\na,1"},
		namedString{"part2.csv", "k,w\nc,3"},
	)
	if _, err := csv.ReadFrame(src, csv.Options{InferSchema: true}); err == nil {
		t.Fatal("expected mismatched header error")
	}
}

func TestReadFrameBadHeader(t *testing.T) {
	for _, data := range []string{"k,,v\na,1,2", "k,k\na,1"} {
		if _, err := csv.ReadFrame(source(namedString{"x.csv", data}), csv.Options{InferSchema: true}); err == nil {
			t.Fatalf("expected header error for %q", data)
		}
	}
}

func TestReadFrameRaggedRow(t *testing.T) {
	src := source(namedString{"x.csv", "a,b\n1,2\n3"})
	if _, err := csv.ReadFrame(src, csv.Options{InferSchema: true}); err == nil {
		t.Fatal("expected field count error")
	}
}

func TestReadFrameEmpty(t *testing.T) {
	if _, err := csv.ReadFrame(source(), csv.Options{InferSchema: true}); err == nil {
		t.Fatal("expected error for empty source")
	}
}
