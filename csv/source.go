// Package csv reads delimited text with a header row into frame tables,
// inferring a schema by attempted conversion or taking an explicit one.
package csv

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/tripline/tripline"
	"github.com/tripline/tripline/frame"
)

// TimeLayout is the pickup/dropoff timestamp layout used by the TLC trip
// files.
const TimeLayout = "2006-01-02 15:04:05"

// Options configures ReadFrame.
type Options struct {
	// Comma is the field separator. Defaults to ','.
	Comma rune
	// InferSchema determines column types by attempted conversion over the
	// first SampleRows data rows. When false, Schema must be supplied.
	InferSchema bool
	// Schema gives explicit column types when InferSchema is false. Fields
	// must cover every header column.
	Schema []frame.Field
	// Strict makes unparseable cells fail with a tripline.SchemaError.
	// Otherwise they coerce to null. The choice is always explicit; there
	// is no implicit leniency.
	Strict bool
	// SampleRows bounds the inference sample. Defaults to 100.
	SampleRows int
}

// ReadFrame reads every reader the raw source yields into one frame. Each
// file must begin with the same header row; the first file's header defines
// the column set.
func ReadFrame(rs tripline.RawSource, opts Options) (*frame.Frame, error) {
	if opts.Comma == 0 {
		opts.Comma = ','
	}
	if opts.SampleRows == 0 {
		opts.SampleRows = 100
	}
	var header []string
	var raw [][]string
	sep := string(opts.Comma)

	r, err := rs.NextReader()
	for ; err == nil; r, err = rs.NextReader() {
		scan := bufio.NewScanner(r)
		scan.Buffer(make([]byte, 1024*1024), 1024*1024)
		if !scan.Scan() {
			if serr := scan.Err(); serr != nil {
				r.Close()
				return nil, errors.Wrapf(serr, "reading header of %s", r.Name())
			}
			r.Close()
			continue // empty file
		}
		fileHeader := splitTrim(scan.Text(), sep)
		if err := validateHeader(fileHeader); err != nil {
			r.Close()
			return nil, errors.Wrapf(err, "validating header of %s", r.Name())
		}
		if header == nil {
			header = fileHeader
		} else if !equalHeader(header, fileHeader) {
			r.Close()
			return nil, errors.Errorf("header of %s does not match first file: %v vs %v", r.Name(), fileHeader, header)
		}
		for scan.Scan() {
			txt := scan.Text()
			if strings.TrimSpace(txt) == "" {
				continue // skip empty lines
			}
			row := splitTrim(txt, sep)
			if len(row) != len(header) {
				r.Close()
				return nil, errors.Errorf("%s: row has %d fields, header has %d", r.Name(), len(row), len(header))
			}
			raw = append(raw, row)
		}
		if serr := scan.Err(); serr != nil {
			r.Close()
			return nil, errors.Wrapf(serr, "scanning %s", r.Name())
		}
		r.Close()
	}
	if err != io.EOF {
		return nil, errors.Wrap(err, "getting next reader")
	}
	if header == nil {
		return nil, errors.New("no data: source yielded no headered files")
	}

	schema := opts.Schema
	if opts.InferSchema {
		schema = inferSchema(header, raw, opts.SampleRows)
	}
	if err := checkSchema(header, schema); err != nil {
		return nil, err
	}
	return buildFrame(header, schema, raw, opts.Strict)
}

func splitTrim(line, sep string) []string {
	parts := strings.Split(line, sep)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func validateHeader(header []string) error {
	fields := make(map[string]int)
	for i, h := range header {
		if h == "" {
			return errors.Errorf("header contains empty name at %d: %v", i, header)
		}
		if pos, exists := fields[h]; exists {
			return errors.Errorf("%s appeared at both %d and %d in header", h, pos, i)
		}
		fields[h] = i
	}
	return nil
}

func equalHeader(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func checkSchema(header []string, schema []frame.Field) error {
	byName := make(map[string]frame.Type, len(schema))
	for _, f := range schema {
		byName[f.Name] = f.Type
	}
	for _, h := range header {
		if _, ok := byName[h]; !ok {
			return &tripline.SchemaError{Field: h, Value: "", Err: errors.New("no type for header column")}
		}
	}
	return nil
}

// inferSchema votes per column over a bounded sample: a column is Int64 if
// every non-empty sampled cell parses as an integer, else Float64 if every
// cell parses as a float, else Timestamp, else String.
func inferSchema(header []string, raw [][]string, sample int) []frame.Field {
	if sample > len(raw) {
		sample = len(raw)
	}
	schema := make([]frame.Field, len(header))
	for ci, name := range header {
		isInt, isFloat, isTime, seen := true, true, true, false
		for ri := 0; ri < sample; ri++ {
			cell := raw[ri][ci]
			if cell == "" {
				continue
			}
			seen = true
			if isInt {
				if _, err := strconv.ParseInt(cell, 10, 64); err != nil {
					isInt = false
				}
			}
			if isFloat {
				if _, err := strconv.ParseFloat(cell, 64); err != nil {
					isFloat = false
				}
			}
			if isTime {
				if _, err := time.Parse(TimeLayout, cell); err != nil {
					isTime = false
				}
			}
		}
		typ := frame.String
		switch {
		case !seen:
			typ = frame.String
		case isInt:
			typ = frame.Int64
		case isFloat:
			typ = frame.Float64
		case isTime:
			typ = frame.Timestamp
		}
		schema[ci] = frame.Field{Name: name, Type: typ}
	}
	return schema
}

func buildFrame(header []string, schema []frame.Field, raw [][]string, strict bool) (*frame.Frame, error) {
	typeOf := make(map[string]frame.Type, len(schema))
	for _, f := range schema {
		typeOf[f.Name] = f.Type
	}
	n := len(raw)
	cols := make([]*frame.Column, len(header))
	for ci, name := range header {
		typ := typeOf[name]
		valid := make([]bool, n)
		var (
			ints   []int64
			floats []float64
			strs   []string
			times  []time.Time
		)
		switch typ {
		case frame.Int64:
			ints = make([]int64, n)
		case frame.Float64:
			floats = make([]float64, n)
		case frame.String:
			strs = make([]string, n)
		case frame.Timestamp:
			times = make([]time.Time, n)
		}
		for ri := 0; ri < n; ri++ {
			cell := raw[ri][ci]
			if cell == "" {
				continue
			}
			var err error
			switch typ {
			case frame.Int64:
				ints[ri], err = strconv.ParseInt(cell, 10, 64)
			case frame.Float64:
				floats[ri], err = strconv.ParseFloat(cell, 64)
			case frame.String:
				strs[ri] = cell
			case frame.Timestamp:
				times[ri], err = time.Parse(TimeLayout, cell)
			}
			if err != nil {
				if strict {
					return nil, &tripline.SchemaError{Field: name, Value: cell, Err: err}
				}
				continue // lenient: null
			}
			valid[ri] = true
		}
		switch typ {
		case frame.Int64:
			cols[ci] = frame.NewIntColumn(name, ints, valid)
		case frame.Float64:
			cols[ci] = frame.NewFloatColumn(name, floats, valid)
		case frame.String:
			cols[ci] = frame.NewStringColumn(name, strs, valid)
		case frame.Timestamp:
			cols[ci] = frame.NewTimeColumn(name, times, valid)
		}
	}
	f, err := frame.New(cols...)
	return f, errors.Wrap(err, "building frame")
}
