package s3_test

import (
	"testing"

	"github.com/tripline/tripline/aws/s3"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		path   string
		bucket string
		prefix string
		err    bool
	}{
		{path: "s3://nyc-tlc/trip+fare", bucket: "nyc-tlc", prefix: "trip+fare"},
		{path: "s3://nyc-tlc/a/b/c", bucket: "nyc-tlc", prefix: "a/b/c"},
		{path: "s3://nyc-tlc", bucket: "nyc-tlc", prefix: ""},
		{path: "s3://nyc-tlc/", bucket: "nyc-tlc", prefix: ""},
		{path: "/local/dir", err: true},
		{path: "s3://", err: true},
	}
	for _, tst := range tests {
		bucket, prefix, err := s3.ParsePath(tst.path)
		if tst.err {
			if err == nil {
				t.Fatalf("%q: expected error", tst.path)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: %v", tst.path, err)
		}
		if bucket != tst.bucket || prefix != tst.prefix {
			t.Fatalf("%q: got (%q, %q), want (%q, %q)", tst.path, bucket, prefix, tst.bucket, tst.prefix)
		}
	}
}
