// Package parquet writes frames out as a directory of columnar shard files
// and provides the read-back helpers the tests and tooling need.
package parquet

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"
	pfile "github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/tripline/tripline/frame"
)

// Mode controls behavior when the target directory already exists.
type Mode int

const (
	Overwrite Mode = iota
	Append
	ErrorIfExists
)

// ParseMode maps the config strings to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "overwrite":
		return Overwrite, nil
	case "append":
		return Append, nil
	case "error", "errorifexists", "error-if-exists":
		return ErrorIfExists, nil
	}
	return 0, errors.Errorf("unknown write mode %q", s)
}

// Write stores each partition as part-NNNNN.parquet under dir. Overwrite
// removes the target wholesale first; a failed overwrite leaves no resume
// path and must be retried wholesale. Append numbers new shards after the
// existing ones. Partitions write concurrently, bounded by parallelism.
func Write(parts []*frame.Frame, dir string, mode Mode, mem memory.Allocator, parallelism int) error {
	start := 0
	switch mode {
	case Overwrite:
		if err := os.RemoveAll(dir); err != nil {
			return errors.Wrap(err, "removing existing output")
		}
	case ErrorIfExists:
		if _, err := os.Stat(dir); err == nil {
			return errors.Errorf("output path %s already exists", dir)
		} else if !os.IsNotExist(err) {
			return errors.Wrap(err, "statting output path")
		}
	case Append:
		existing, err := shardFiles(dir)
		if err != nil && !os.IsNotExist(errors.Cause(err)) {
			return err
		}
		start = len(existing)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "creating output dir")
	}

	if parallelism < 1 {
		parallelism = 1
	}
	eg := errgroup.Group{}
	eg.SetLimit(parallelism)
	for i, part := range parts {
		i, part := i, part
		eg.Go(func() error {
			path := filepath.Join(dir, fmt.Sprintf("part-%05d.parquet", start+i))
			return writeShard(part, path, mem)
		})
	}
	return eg.Wait()
}

func writeShard(part *frame.Frame, path string, mem memory.Allocator) (err error) {
	rec, err := frame.ToArrow(part, mem)
	if err != nil {
		return errors.Wrap(err, "converting partition")
	}
	defer rec.Release()

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	w, err := pqarrow.NewFileWriter(rec.Schema(), f, nil, pqarrow.NewArrowWriterProperties(pqarrow.WithAllocator(mem)))
	if err != nil {
		f.Close()
		return errors.Wrapf(err, "creating writer for %s", path)
	}
	if err := w.Write(rec); err != nil {
		w.Close()
		return errors.Wrapf(err, "writing %s", path)
	}
	// Close flushes the footer and closes the underlying file.
	return errors.Wrapf(w.Close(), "closing %s", path)
}

func shardFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "reading output dir")
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "part-") && strings.HasSuffix(e.Name(), ".parquet") {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out, nil
}

// Count reports the shard count and total row count under dir.
func Count(dir string) (rows int64, shards int, err error) {
	files, err := shardFiles(dir)
	if err != nil {
		return 0, 0, err
	}
	for _, path := range files {
		r, err := pfile.OpenParquetFile(path, false)
		if err != nil {
			return 0, 0, errors.Wrapf(err, "opening %s", path)
		}
		rows += r.NumRows()
		if cerr := r.Close(); cerr != nil {
			return 0, 0, errors.Wrapf(cerr, "closing %s", path)
		}
	}
	return rows, len(files), nil
}
