// Package file provides a raw source over local files: a path names either
// one delimited file or a directory of them.
package file

import (
	"io"
	"os"
	"path"
	"path/filepath"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/tripline/tripline"
)

// RawSource hands out a reader per file under the configured path.
type RawSource struct {
	files   []string
	fileIdx *uint64
}

// NewRawSource gets a raw source over the file or directory at pathname.
func NewRawSource(pathname string) (*RawSource, error) {
	fileIdx := uint64(0)
	s := &RawSource{
		fileIdx: &fileIdx,
	}
	info, err := os.Stat(pathname)
	if err != nil {
		return nil, errors.Wrap(err, "statting path")
	}
	if info.IsDir() {
		entries, err := os.ReadDir(pathname)
		if err != nil {
			return nil, errors.Wrap(err, "reading directory")
		}
		s.files = make([]string, 0, len(entries))
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			s.files = append(s.files, path.Join(pathname, e.Name()))
		}
	} else {
		s.files = []string{pathname}
	}
	return s, nil
}

type metaFile struct {
	*os.File
}

func (m *metaFile) Name() string {
	return filepath.Base(m.File.Name())
}

// NextReader returns a reader for the next file, or io.EOF when every file
// has been handed out. Safe for concurrent use.
func (s *RawSource) NextReader() (tripline.NamedReadCloser, error) {
	idx := atomic.AddUint64(s.fileIdx, 1) - 1
	if int(idx) >= len(s.files) {
		return nil, io.EOF
	}

	f, err := os.Open(s.files[idx])
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", s.files[idx])
	}
	return &metaFile{f}, nil
}
