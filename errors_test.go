package tripline_test

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/tripline/tripline"
)

func TestErrorPredicates(t *testing.T) {
	conn := &tripline.ConnError{Err: errors.New("no workers")}
	schema := &tripline.SchemaError{Field: "fare_amount", Value: "abc", Err: errors.New("bad syntax")}
	filter := &tripline.FilterError{Column: "tip_amount"}

	if !tripline.IsConn(conn) || tripline.IsConn(schema) {
		t.Fatal("IsConn misclassified")
	}
	if !tripline.IsSchema(schema) || tripline.IsSchema(filter) {
		t.Fatal("IsSchema misclassified")
	}
	if !tripline.IsFilter(filter) || tripline.IsFilter(conn) {
		t.Fatal("IsFilter misclassified")
	}

	// Predicates see through pkg/errors wrapping.
	wrapped := errors.Wrap(errors.Wrap(schema, "reading fares"), "running pipeline")
	if !tripline.IsSchema(wrapped) {
		t.Fatal("wrapping should not hide the cause")
	}
	if tripline.IsConn(nil) || tripline.IsSchema(nil) || tripline.IsFilter(nil) {
		t.Fatal("nil is not an error")
	}
}

func TestErrorMessages(t *testing.T) {
	e := &tripline.SchemaError{Field: "passenger_count", Value: "many", Err: errors.New("invalid syntax")}
	want := `field passenger_count: unparseable value "many": invalid syntax`
	if e.Error() != want {
		t.Fatalf("got %q", e.Error())
	}
}
