package tripline

import "io"

// Source is the interface for getting raw data one record at a time.
// Implementations of Source should be thread safe.
type Source interface {
	Record() (interface{}, error)
}

// NamedReadCloser is a reader along with the name of the thing being read,
// usually a file or object name.
type NamedReadCloser interface {
	io.ReadCloser
	Name() string
}

// RawSource hands out a reader per underlying item (file, object, stream)
// and returns io.EOF when there are no more. Implementations should be safe
// for concurrent use.
type RawSource interface {
	NextReader() (NamedReadCloser, error)
}
