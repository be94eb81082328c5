package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/dtroode/securemail-server/database"
	"github.com/dtroode/securemail-server/internal/model"
)

const uniqueViolation = "23505"

// dbtx is the subset of database/sql shared by *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

var _ model.Transactor = (*Connection)(nil)

// Connection owns the pgx pool and the database/sql handle repositories use.
type Connection struct {
	pool *pgxpool.Pool
	db   *sql.DB
}

// NewConnection opens a pool, applies migrations and returns the connection.
func NewConnection(ctx context.Context, dsn string) (*Connection, error) {
	conf, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection pool: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		pool.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return &Connection{pool: pool, db: db}, nil
}

// NewConnectionFromDB wraps an existing handle. Migrations are not applied.
func NewConnectionFromDB(db *sql.DB) *Connection {
	return &Connection{db: db}
}

func (c *Connection) Close() error {
	var err error
	if c.db != nil {
		err = c.db.Close()
	}
	if c.pool != nil {
		c.pool.Close()
	}
	return err
}

// DB returns the underlying handle.
func (c *Connection) DB() *sql.DB {
	return c.db
}

func (c *Connection) Ping(ctx context.Context) error {
	if c.db == nil {
		return fmt.Errorf("connection is nil")
	}
	return c.db.PingContext(ctx)
}

// InTx runs fn in a transaction. Nested calls join the outer transaction.
func (c *Connection) InTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", cerr)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, tx))
}

func (c *Connection) conn(ctx context.Context) dbtx {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return c.db
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
