package session

import (
	"fmt"
	"io"
	"strings"

	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/coaching"
)

// Backend names accepted by New.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Options configures New.
type Options struct {
	Backend     string
	DataDir     string // file backend
	SQLitePath  string
	PostgresDSN string
	CacheSize   int // 0 disables the LRU in front of the backend
}

// New builds the store for opts.Backend. The returned closer releases
// database handles and is a no-op for the other backends.
func New(opts Options) (coaching.Store, io.Closer, error) {
	var (
		store  coaching.Store
		closer io.Closer = nopCloser{}
	)

	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case BackendMemory, "in_memory", "":
		store = NewMemoryStore()
	case BackendFile:
		if opts.DataDir == "" {
			return nil, nil, fmt.Errorf("file backend requires a data directory")
		}
		store = NewFileStore(opts.DataDir)
	case BackendSQLite:
		if opts.SQLitePath == "" {
			return nil, nil, fmt.Errorf("sqlite backend requires a database path")
		}
		s, err := NewSQLite(opts.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		store, closer = s, s
	case BackendPostgres:
		s, err := NewPostgres(opts.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		store, closer = s, s
	default:
		return nil, nil, fmt.Errorf("unknown persistence backend: %s", opts.Backend)
	}

	if opts.CacheSize > 0 {
		cached, err := NewCachedStore(store, opts.CacheSize)
		if err != nil {
			closer.Close()
			return nil, nil, err
		}
		store = cached
	}
	return store, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
