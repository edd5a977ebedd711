package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"; mysql and sqlite3 register through errors.go imports
	"github.com/rs/zerolog/log"
)

// DB is the process-wide connection pool.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Options configures Open.
type Options struct {
	Retries      int
	RetryDelay   time.Duration
	MaxOpenConns int
}

// Open connects to the database, retrying the ping until it answers or the
// attempts run out.
func Open(ctx context.Context, dialect Dialect, dsn string, opts Options) (*DB, error) {
	if opts.Retries <= 0 {
		opts.Retries = 1
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 3 * time.Second
	}

	db, err := sql.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("database: open %s: %w", dialect.Name, err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}

	for i := 0; i < opts.Retries; i++ {
		if err = db.PingContext(ctx); err == nil {
			log.Info().Str("driver", dialect.Name).Msg("connected to database")
			return &DB{DB: db, Dialect: dialect}, nil
		}
		log.Warn().Err(err).Int("attempt", i+1).Str("driver", dialect.Name).Msg("failed to connect to database")
		if i == opts.Retries-1 {
			break
		}
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, ctx.Err()
		case <-time.After(opts.RetryDelay):
		}
	}
	_ = db.Close()
	return nil, fmt.Errorf("database: failed to connect after %d attempts: %w", opts.Retries, err)
}

// Begin opens a Session for one unit of work.
func (db *DB) Begin(ctx context.Context) (*Session, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("database: begin: %w", err)
	}
	return &Session{tx: tx, dialect: db.Dialect}, nil
}

// Querier is satisfied by *Session; repositories depend on it rather than on a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	Dialect() Dialect
}

// Session is a transaction bound to a single HTTP request. Work is kept only if
// Commit is called; Close rolls back anything else and is safe to call after Commit.
type Session struct {
	tx      *sql.Tx
	dialect Dialect
	done    bool
}

var _ Querier = (*Session)(nil)

func (s *Session) Dialect() Dialect { return s.dialect }

func (s *Session) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := s.tx.ExecContext(ctx, s.dialect.Rebind(query), args...)
	return res, classify(err)
}

func (s *Session) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return s.tx.QueryRowContext(ctx, s.dialect.Rebind(query), args...)
}

// Commit makes the session's work durable. The session cannot be used afterwards.
func (s *Session) Commit() error {
	if s.done {
		return sql.ErrTxDone
	}
	s.done = true
	return classify(s.tx.Commit())
}

// Close releases the session, rolling back uncommitted work.
func (s *Session) Close() error {
	if s.done {
		return nil
	}
	s.done = true
	if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}
