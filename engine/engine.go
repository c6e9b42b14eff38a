// Package engine manages the compute session behind the pipeline: a scoped
// allocation of workers, memory and the table cache. Open it at the start of
// a run and Close it on every exit path - the session is process-wide shared
// state and nothing else should own one concurrently.
package engine

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/pkg/errors"

	"github.com/tripline/tripline"
	"github.com/tripline/tripline/cache"
)

// Config holds session resources. The zero value gets sensible defaults
// from Open.
type Config struct {
	Workers        int      `help:"Worker count for parallel stages. 0 means one per CPU."`
	WorkerMemoryMB int      `help:"Memory budget per worker in MB. Advisory."`
	Extensions     []string `help:"Optional engine extensions to enable."`
	SpillDir       string   `help:"Directory for disk-level table caching. Empty means a temp dir."`
}

// Session is a live engine connection. All methods other than Close fail
// with tripline.ErrClosed after Close.
type Session struct {
	cfg   Config
	mem   memory.Allocator
	store *cache.Store

	mu     sync.Mutex
	closed bool
}

// Open allocates a session. Failures are tripline.ConnError; the caller
// should abort the run.
func Open(cfg Config) (*Session, error) {
	if cfg.Workers < 0 {
		return nil, &tripline.ConnError{Err: errors.Errorf("worker count %d", cfg.Workers)}
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.WorkerMemoryMB < 0 {
		return nil, &tripline.ConnError{Err: errors.Errorf("worker memory %dMB", cfg.WorkerMemoryMB)}
	}
	if cfg.SpillDir == "" {
		cfg.SpillDir = filepath.Join(os.TempDir(), "tripline-spill")
	} else {
		// Fail at open rather than on first spill if the dir is unusable.
		if err := os.MkdirAll(cfg.SpillDir, 0755); err != nil {
			return nil, &tripline.ConnError{Err: errors.Wrap(err, "creating spill dir")}
		}
	}
	return &Session{
		cfg:   cfg,
		mem:   memory.NewGoAllocator(),
		store: cache.NewStore(cfg.SpillDir),
	}, nil
}

func (s *Session) check() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return tripline.ErrClosed
	}
	return nil
}

// Workers returns the session's worker count for parallel stages.
func (s *Session) Workers() int { return s.cfg.Workers }

// Allocator returns the session's Arrow allocator.
func (s *Session) Allocator() memory.Allocator { return s.mem }

// Cache returns the session's table cache store, or an error after Close.
func (s *Session) Cache() (*cache.Store, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return s.store, nil
}

// Close releases the session and every table it cached. It is idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	return errors.Wrap(s.store.Close(), "closing cache store")
}
