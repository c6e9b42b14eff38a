// Package cache is a persist/unpersist store for intermediate tables, so
// repeated downstream reads avoid recomputation. Tables persist either in
// memory or Avro-encoded in a boltdb spill file, one bucket per table with
// big-endian row-index keys.
package cache

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/boltdb/bolt"
	goavro "github.com/linkedin/goavro/v2"
	"github.com/pkg/errors"

	"github.com/tripline/tripline"
	"github.com/tripline/tripline/frame"
)

// Level selects where a persisted table lives.
type Level int

const (
	Memory Level = iota
	Disk
)

type diskEntry struct {
	schema []frame.Field
	rows   int
}

// Store holds persisted tables. The zero value is not usable; get one from
// NewStore.
type Store struct {
	mu     sync.Mutex
	dir    string
	db     *bolt.DB
	mem    map[string]*frame.Frame
	disk   map[string]diskEntry
	closed bool
}

// NewStore returns a store spilling disk-level tables under dir. The bolt
// file is created lazily on the first disk persist.
func NewStore(dir string) *Store {
	return &Store{
		dir:  dir,
		mem:  make(map[string]*frame.Frame),
		disk: make(map[string]diskEntry),
	}
}

func (s *Store) openDB() error {
	if s.db != nil {
		return nil
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return errors.Wrap(err, "creating spill dir")
	}
	db, err := bolt.Open(filepath.Join(s.dir, "spill.bolt"), 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return errors.Wrap(err, "opening spill db")
	}
	s.db = db
	return nil
}

// Persist stores f under name at the given level, replacing any previous
// table of that name.
func (s *Store) Persist(name string, f *frame.Frame, level Level) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return tripline.ErrClosed
	}
	if err := s.dropLocked(name); err != nil {
		return err
	}
	if level == Memory {
		s.mem[name] = f
		return nil
	}
	if err := s.openDB(); err != nil {
		return err
	}
	codec, err := codecFor(f.Schema())
	if err != nil {
		return errors.Wrap(err, "building avro codec")
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		bkt, err := tx.CreateBucket([]byte(name))
		if err != nil {
			return errors.Wrap(err, "creating bucket")
		}
		key := make([]byte, 8)
		for i := 0; i < f.NumRows(); i++ {
			binary.BigEndian.PutUint64(key, uint64(i))
			buf, err := codec.BinaryFromNative(nil, nativeRow(f, i))
			if err != nil {
				return errors.Wrapf(err, "encoding row %d", i)
			}
			if err := bkt.Put(key, buf); err != nil {
				return errors.Wrapf(err, "putting row %d", i)
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "spilling %q", name)
	}
	s.disk[name] = diskEntry{schema: f.Schema(), rows: f.NumRows()}
	return nil
}

// Get returns the persisted table of that name, reloading it from the spill
// file when it lives on disk.
func (s *Store) Get(name string) (*frame.Frame, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, false, tripline.ErrClosed
	}
	if f, ok := s.mem[name]; ok {
		return f, true, nil
	}
	ent, ok := s.disk[name]
	if !ok {
		return nil, false, nil
	}
	codec, err := codecFor(ent.schema)
	if err != nil {
		return nil, false, errors.Wrap(err, "building avro codec")
	}
	builders := newRowBuilders(ent.schema, ent.rows)
	err = s.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(name))
		if bkt == nil {
			return errors.Errorf("spill bucket %q missing", name)
		}
		return bkt.ForEach(func(_, v []byte) error {
			native, _, err := codec.NativeFromBinary(v)
			if err != nil {
				return errors.Wrap(err, "decoding row")
			}
			return builders.appendNative(native)
		})
	})
	if err != nil {
		return nil, false, errors.Wrapf(err, "reloading %q", name)
	}
	f, err := builders.frame()
	if err != nil {
		return nil, false, err
	}
	return f, true, nil
}

// Unpersist releases the named table. Unknown names are a no-op.
func (s *Store) Unpersist(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return tripline.ErrClosed
	}
	return s.dropLocked(name)
}

func (s *Store) dropLocked(name string) error {
	delete(s.mem, name)
	if _, ok := s.disk[name]; !ok {
		return nil
	}
	delete(s.disk, name)
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.DeleteBucket([]byte(name))
	})
	return errors.Wrapf(err, "dropping spill bucket %q", name)
}

// Close releases every cached table and removes the spill file. It is
// idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.mem = nil
	s.disk = nil
	if s.db == nil {
		return nil
	}
	path := s.db.Path()
	if err := s.db.Close(); err != nil {
		return errors.Wrap(err, "closing spill db")
	}
	return errors.Wrap(os.Remove(path), "removing spill file")
}

// codecFor builds an Avro record codec for a frame schema. Every field is a
// union with null; timestamps travel as microsecond longs.
func codecFor(schema []frame.Field) (*goavro.Codec, error) {
	fields := ""
	for i, fld := range schema {
		if i > 0 {
			fields += ","
		}
		fields += fmt.Sprintf(`{"name":%q,"type":["null",%q]}`, fld.Name, avroType(fld.Type))
	}
	return goavro.NewCodec(`{"type":"record","name":"row","fields":[` + fields + `]}`)
}

func avroType(t frame.Type) string {
	switch t {
	case frame.Int64, frame.Timestamp:
		return "long"
	case frame.Float64:
		return "double"
	default:
		return "string"
	}
}

func nativeRow(f *frame.Frame, i int) map[string]interface{} {
	row := f.Row(i)
	out := make(map[string]interface{}, len(f.Schema()))
	for _, fld := range f.Schema() {
		var v interface{}
		ok := false
		switch fld.Type {
		case frame.Int64:
			var n int64
			if n, ok = row.Int(fld.Name); ok {
				v = goavro.Union("long", n)
			}
		case frame.Float64:
			var x float64
			if x, ok = row.Float(fld.Name); ok {
				v = goavro.Union("double", x)
			}
		case frame.String:
			var s string
			if s, ok = row.Str(fld.Name); ok {
				v = goavro.Union("string", s)
			}
		case frame.Timestamp:
			var t time.Time
			if t, ok = row.Time(fld.Name); ok {
				v = goavro.Union("long", t.UnixMicro())
			}
		}
		if !ok {
			v = nil
		}
		out[fld.Name] = v
	}
	return out
}

// rowBuilders accumulates decoded rows back into columns.
type rowBuilders struct {
	schema []frame.Field
	ints   map[string][]int64
	floats map[string][]float64
	strs   map[string][]string
	times  map[string][]time.Time
	valid  map[string][]bool
}

func newRowBuilders(schema []frame.Field, rows int) *rowBuilders {
	b := &rowBuilders{
		schema: schema,
		ints:   make(map[string][]int64),
		floats: make(map[string][]float64),
		strs:   make(map[string][]string),
		times:  make(map[string][]time.Time),
		valid:  make(map[string][]bool),
	}
	return b
}

func (b *rowBuilders) appendNative(native interface{}) error {
	rec, ok := native.(map[string]interface{})
	if !ok {
		return errors.Errorf("decoded row is %T, want map", native)
	}
	for _, fld := range b.schema {
		raw := rec[fld.Name]
		set := false
		var inner interface{}
		if u, ok := raw.(map[string]interface{}); ok {
			for _, v := range u {
				inner = v
				set = true
			}
		}
		b.valid[fld.Name] = append(b.valid[fld.Name], set)
		switch fld.Type {
		case frame.Int64:
			n, _ := inner.(int64)
			b.ints[fld.Name] = append(b.ints[fld.Name], n)
		case frame.Float64:
			x, _ := inner.(float64)
			b.floats[fld.Name] = append(b.floats[fld.Name], x)
		case frame.String:
			s, _ := inner.(string)
			b.strs[fld.Name] = append(b.strs[fld.Name], s)
		case frame.Timestamp:
			n, _ := inner.(int64)
			b.times[fld.Name] = append(b.times[fld.Name], time.UnixMicro(n).UTC())
		}
	}
	return nil
}

func (b *rowBuilders) frame() (*frame.Frame, error) {
	cols := make([]*frame.Column, len(b.schema))
	for i, fld := range b.schema {
		switch fld.Type {
		case frame.Int64:
			cols[i] = frame.NewIntColumn(fld.Name, b.ints[fld.Name], b.valid[fld.Name])
		case frame.Float64:
			cols[i] = frame.NewFloatColumn(fld.Name, b.floats[fld.Name], b.valid[fld.Name])
		case frame.String:
			cols[i] = frame.NewStringColumn(fld.Name, b.strs[fld.Name], b.valid[fld.Name])
		case frame.Timestamp:
			cols[i] = frame.NewTimeColumn(fld.Name, b.times[fld.Name], b.valid[fld.Name])
		}
	}
	return frame.New(cols...)
}
