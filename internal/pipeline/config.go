package pipeline

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/roach88/nxcore/internal/action"
	"github.com/roach88/nxcore/internal/datastore"
	"github.com/roach88/nxcore/internal/parallel"
)

// DefaultOutOfCoreBytes is the array size at which arrays move to the
// chunked store when a ChunkDir is configured.
const DefaultOutOfCoreBytes = 64 << 20

// Config holds the runtime knobs of a pipeline run.
type Config struct {
	// Parallel runs filter loops on a worker group.
	Parallel bool `mapstructure:"parallel" yaml:"parallel"`
	// Workers bounds the worker group (0 = GOMAXPROCS).
	Workers int `mapstructure:"workers" yaml:"workers"`
	// ProgressInterval throttles progress messages.
	ProgressInterval time.Duration `mapstructure:"progress_interval" yaml:"progress_interval"`
	// ChunkTuples is the tuple count per parallel chunk (0 = derived).
	ChunkTuples uint64 `mapstructure:"chunk_tuples" yaml:"chunk_tuples"`
	// ChunkDir roots the badger database for out-of-core arrays. Empty
	// keeps every array on the heap.
	ChunkDir string `mapstructure:"chunk_dir" yaml:"chunk_dir"`
	// OutOfCoreBytes is the size threshold for chunked placement.
	OutOfCoreBytes uint64 `mapstructure:"out_of_core_bytes" yaml:"out_of_core_bytes"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Parallel:         true,
		ProgressInterval: parallel.DefaultProgressInterval,
		OutOfCoreBytes:   DefaultOutOfCoreBytes,
	}
}

// Algorithm converts the config into the settings filters run with.
func (c Config) Algorithm(logger *slog.Logger) parallel.Algorithm {
	return parallel.Algorithm{
		Parallel:         c.Parallel,
		Workers:          c.Workers,
		ChunkSize:        c.ChunkTuples,
		ProgressInterval: c.ProgressInterval,
		Logger:           logger,
	}
}

// Storage owns the backing resources arrays are allocated from.
type Storage struct {
	db    *badger.DB
	alloc action.Allocator
}

// OpenStorage prepares array storage for cfg. Without a ChunkDir every
// array goes to the heap and Close is a no-op.
func OpenStorage(cfg Config, logger *slog.Logger) (*Storage, error) {
	if cfg.ChunkDir == "" {
		return &Storage{alloc: action.MemoryAllocator{}}, nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	opts := badger.DefaultOptions(cfg.ChunkDir).WithLogger(badgerLogger{logger: logger.With("component", "badger")})
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open chunk store %s: %w", cfg.ChunkDir, err)
	}
	return &Storage{
		db: db,
		alloc: action.ChunkedAllocator{
			Options:        datastore.ChunkedOptions{DB: db},
			ThresholdBytes: cfg.OutOfCoreBytes,
		},
	}, nil
}

// Allocator returns the allocator for execute-mode arrays.
func (s *Storage) Allocator() action.Allocator { return s.alloc }

// Close releases the chunk database. Chunked arrays must not be used after
// Close.
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// badgerLogger forwards badger's printf logging to slog. Badger's info
// output is routine housekeeping, so it is logged at debug.
type badgerLogger struct {
	logger *slog.Logger
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(logf(format, args))
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(logf(format, args))
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(logf(format, args))
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(logf(format, args))
}

func logf(format string, args []any) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}
