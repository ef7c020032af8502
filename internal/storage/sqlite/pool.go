package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Policy selects how connections are handed to units of work.
type Policy string

const (
	// PolicyPerRequest opens a connection for each unit of work and closes it afterwards.
	PolicyPerRequest Policy = "per-request"
	// PolicyPerWorker gives each of a fixed set of workers one connection for its lifetime.
	PolicyPerWorker Policy = "per-worker"
)

// ErrPoolClosed is returned for work submitted after the pool was torn down.
var ErrPoolClosed = errors.New("connection pool closed")

// ParsePolicy converts a configuration string into a Policy.
// An empty string selects PolicyPerWorker.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyPerWorker:
		return PolicyPerWorker, nil
	case PolicyPerRequest:
		return PolicyPerRequest, nil
	default:
		return "", fmt.Errorf("unknown connection policy %q (want %q or %q)", s, PolicyPerRequest, PolicyPerWorker)
	}
}

// unitFunc is one unit of work run against a reserved connection.
type unitFunc func(ctx context.Context, conn *sql.Conn) error

// connPool hands out connections so that no connection is used by two
// in-flight units at once.
type connPool interface {
	run(ctx context.Context, fn unitFunc) error
	close() error
}

// requestPool implements PolicyPerRequest.
type requestPool struct {
	db *sql.DB

	mu     sync.RWMutex
	closed bool
}

func newRequestPool(db *sql.DB) *requestPool {
	// No idle connections: releasing a connection closes it.
	db.SetMaxIdleConns(0)
	return &requestPool{db: db}
}

func (p *requestPool) run(ctx context.Context, fn unitFunc) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	conn, err := p.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	return runUnit(ctx, conn, fn)
}

func (p *requestPool) close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// job is a unit of work queued for a worker.
type job struct {
	ctx  context.Context
	fn   unitFunc
	done chan error
}

// workerPool implements PolicyPerWorker. Each worker goroutine owns one
// connection and runs one job at a time on it. close is the teardown hook:
// it stops intake, lets workers finish in-flight jobs, then closes every
// worker connection before returning.
type workerPool struct {
	db     *sql.DB
	jobs   chan job
	logger *slog.Logger

	// mu guards closed and the jobs channel against send-after-close.
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func newWorkerPool(ctx context.Context, db *sql.DB, workers int, logger *slog.Logger) (*workerPool, error) {
	if workers <= 0 {
		return nil, fmt.Errorf("worker count must be positive, got %d", workers)
	}
	db.SetMaxOpenConns(workers)

	// Reserve every connection up front so a bad database fails here.
	conns := make([]*sql.Conn, 0, workers)
	for i := 0; i < workers; i++ {
		conn, err := db.Conn(ctx)
		if err != nil {
			for _, c := range conns {
				c.Close()
			}
			return nil, fmt.Errorf("failed to open connection for worker %d: %w", i, err)
		}
		conns = append(conns, conn)
	}

	p := &workerPool{
		db:     db,
		jobs:   make(chan job),
		logger: logger,
	}
	for i, conn := range conns {
		p.wg.Add(1)
		go p.work(i, conn)
	}
	return p, nil
}

func (p *workerPool) work(id int, conn *sql.Conn) {
	defer p.wg.Done()
	defer func() {
		if err := conn.Close(); err != nil {
			p.logger.Warn("Failed to close worker connection", "worker", id, "error", err)
		}
	}()

	for j := range p.jobs {
		err := runUnit(j.ctx, conn, j.fn)
		j.done <- err

		if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
			p.logger.Warn("Replacing broken worker connection", "worker", id, "error", err)
			conn.Close()
			fresh, ferr := p.db.Conn(context.Background())
			if ferr != nil {
				p.logger.Error("Worker could not reconnect, exiting", "worker", id, "error", ferr)
				// Keep draining so submitters are not stranded.
				go p.drain(ferr)
				return
			}
			conn = fresh
		}
	}
}

// drain fails queued jobs after a worker has lost its connection for good.
func (p *workerPool) drain(cause error) {
	for j := range p.jobs {
		j.done <- fmt.Errorf("store worker unavailable: %w", cause)
	}
}

func (p *workerPool) run(ctx context.Context, fn unitFunc) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrPoolClosed
	}

	done := make(chan error, 1)
	select {
	case p.jobs <- job{ctx: ctx, fn: fn, done: done}:
	case <-ctx.Done():
		p.mu.RUnlock()
		return ctx.Err()
	}
	p.mu.RUnlock()

	return <-done
}

func (p *workerPool) close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
	return nil
}

// runUnit runs fn and turns a panic into an error so a worker survives it.
func runUnit(ctx context.Context, conn *sql.Conn, fn unitFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in store operation: %v", r)
		}
	}()
	return fn(ctx, conn)
}
