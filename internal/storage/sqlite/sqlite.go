// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/NoManNayeem/Terraform-POC/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

const (
	defaultWorkers     = 4
	defaultBusyTimeout = 5 * time.Second
)

// Observer is notified after every store operation.
type Observer func(op string, elapsed time.Duration, err error)

// Options configures a SQLiteStore.
type Options struct {
	// Path is the database file. Parent directories are created as needed.
	Path string
	// Policy selects the connection lifetime. Defaults to PolicyPerWorker.
	Policy Policy
	// Workers is the number of pooled connections for PolicyPerWorker.
	Workers int
	// BusyTimeout bounds how long a statement waits on a locked database.
	BusyTimeout time.Duration
	// Observer, if set, receives timing for every operation.
	Observer Observer
}

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db       *sql.DB
	pool     connPool
	policy   Policy
	observe  Observer
	logger   *slog.Logger
	closeErr error
	once     sync.Once
}

// New opens the database at opts.Path, sets up the connection pool, and
// creates the schema. Any error means the store is unusable.
func New(ctx context.Context, opts Options) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if opts.Path == "" {
		return nil, errors.New("database path is required")
	}
	if opts.Path == ":memory:" || strings.Contains(opts.Path, "mode=memory") {
		return nil, errors.New("in-memory databases are not supported: every connection would see its own database")
	}
	if opts.Policy == "" {
		opts.Policy = PolicyPerWorker
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.BusyTimeout <= 0 {
		opts.BusyTimeout = defaultBusyTimeout
	}

	// Create parent directory if it doesn't exist
	dir := filepath.Dir(opts.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(opts.Path, opts.BusyTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	var pool connPool
	switch opts.Policy {
	case PolicyPerRequest:
		pool = newRequestPool(db)
	case PolicyPerWorker:
		pool, err = newWorkerPool(ctx, db, opts.Workers, logger)
		if err != nil {
			db.Close()
			return nil, err
		}
	default:
		db.Close()
		return nil, fmt.Errorf("unknown connection policy %q", opts.Policy)
	}

	s := &SQLiteStore{
		db:      db,
		pool:    pool,
		policy:  opts.Policy,
		observe: opts.Observer,
		logger:  logger,
	}

	if err := s.Initialize(ctx); err != nil {
		s.Close()
		return nil, err
	}

	logger.Info("SQLite store initialized",
		"path", opts.Path,
		"policy", string(opts.Policy),
		"workers", workerCount(opts),
	)
	return s, nil
}

// Initialize creates the schema if it is missing. It is idempotent.
func (s *SQLiteStore) Initialize(ctx context.Context) error {
	err := s.do(ctx, "initialize", func(ctx context.Context, conn *sql.Conn) error {
		return runMigrations(ctx, conn)
	})
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Ping checks that a connection can reach the database.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.do(ctx, "ping", func(ctx context.Context, conn *sql.Conn) error {
		return conn.PingContext(ctx)
	})
}

// Policy reports the connection policy in use.
func (s *SQLiteStore) Policy() Policy {
	return s.policy
}

// Close tears down the connection pool, then closes the database.
// It is safe to call more than once.
func (s *SQLiteStore) Close() error {
	s.once.Do(func() {
		poolErr := s.pool.close()
		dbErr := s.db.Close()
		s.closeErr = errors.Join(poolErr, dbErr)
		s.logger.Info("SQLite store closed")
	})
	return s.closeErr
}

// do runs one unit of work through the pool and reports it to the observer.
func (s *SQLiteStore) do(ctx context.Context, op string, fn unitFunc) error {
	start := time.Now()
	err := s.pool.run(ctx, fn)
	if s.observe != nil {
		s.observe(op, time.Since(start), err)
	}
	return err
}

// dsn builds a modernc.org/sqlite DSN that applies the pragmas on every
// connection the pool opens.
func dsn(path string, busyTimeout time.Duration) string {
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)",
		path, busyTimeout.Milliseconds())
}

func workerCount(opts Options) int {
	if opts.Policy == PolicyPerWorker {
		return opts.Workers
	}
	return 0
}

// PathFromURL converts a DATABASE_URL value into a file path.
// It accepts "sqlite:///relative.db", "sqlite:////abs/path.db", "sqlite://path",
// "file:path" and bare paths.
func PathFromURL(url string) (string, error) {
	u := strings.TrimSpace(url)
	switch {
	case u == "":
		return "", errors.New("database url is empty")
	case strings.HasPrefix(u, "sqlite:///"):
		u = strings.TrimPrefix(u, "sqlite:///")
	case strings.HasPrefix(u, "sqlite://"):
		u = strings.TrimPrefix(u, "sqlite://")
	case strings.HasPrefix(u, "file:"):
		u = strings.TrimPrefix(u, "file:")
		if i := strings.IndexByte(u, '?'); i >= 0 {
			u = u[:i]
		}
	case strings.Contains(u, "://"):
		return "", fmt.Errorf("unsupported database url scheme in %q", url)
	}
	if u == "" {
		return "", fmt.Errorf("database url %q has no path", url)
	}
	return u, nil
}
