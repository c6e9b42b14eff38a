package frame

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/pkg/errors"
)

// ArrowSchema maps the frame's schema onto Arrow types. Timestamps carry
// microsecond precision.
func ArrowSchema(f *Frame) *arrow.Schema {
	fields := make([]arrow.Field, len(f.cols))
	for i, c := range f.cols {
		var dt arrow.DataType
		switch c.Type {
		case Int64:
			dt = arrow.PrimitiveTypes.Int64
		case Float64:
			dt = arrow.PrimitiveTypes.Float64
		case String:
			dt = arrow.BinaryTypes.String
		case Timestamp:
			dt = &arrow.TimestampType{Unit: arrow.Microsecond}
		}
		fields[i] = arrow.Field{Name: c.Name, Type: dt, Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

// ToArrow materializes the frame as a single Arrow record. The caller owns
// the record and must Release it.
func ToArrow(f *Frame, mem memory.Allocator) (arrow.Record, error) {
	schema := ArrowSchema(f)
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()
	for ci, c := range f.cols {
		switch c.Type {
		case Int64:
			fb := b.Field(ci).(*array.Int64Builder)
			for i := 0; i < f.rows; i++ {
				if c.IsValid(i) {
					fb.Append(c.Ints[i])
				} else {
					fb.AppendNull()
				}
			}
		case Float64:
			fb := b.Field(ci).(*array.Float64Builder)
			for i := 0; i < f.rows; i++ {
				if c.IsValid(i) {
					fb.Append(c.Floats[i])
				} else {
					fb.AppendNull()
				}
			}
		case String:
			fb := b.Field(ci).(*array.StringBuilder)
			for i := 0; i < f.rows; i++ {
				if c.IsValid(i) {
					fb.Append(c.Strs[i])
				} else {
					fb.AppendNull()
				}
			}
		case Timestamp:
			fb := b.Field(ci).(*array.TimestampBuilder)
			for i := 0; i < f.rows; i++ {
				if c.IsValid(i) {
					fb.Append(arrow.Timestamp(c.Times[i].UnixMicro()))
				} else {
					fb.AppendNull()
				}
			}
		default:
			return nil, errors.Errorf("column %q has unmappable type %s", c.Name, c.Type)
		}
	}
	return b.NewRecord(), nil
}
