// Package sqlxdb holds the sqlx-backed DBAdapter shared by the sqlite, mysql and
// postgres drivers. Drivers supply the dialect and the introspection query.
package sqlxdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/burugo/fluent/schema"
)

const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 5 * time.Minute
	pingTimeout            = 5 * time.Second
)

// ErrClosed is returned by every operation on a closed adapter.
var ErrClosed = errors.New("sqlxdb: adapter is closed")

// IntrospectFunc reads the live definition of a table. It returns nil, nil when the
// table does not exist.
type IntrospectFunc func(ctx context.Context, q sqlx.QueryerContext, tableName string) (*schema.TableInfo, error)

// Adapter implements schema.DBAdapter and schema.Introspector on top of sqlx.
type Adapter struct {
	db         *sqlx.DB
	dialect    schema.Dialect
	introspect IntrospectFunc
	closeMx    sync.Mutex
	closed     bool
}

// Compile-time checks to ensure interfaces are implemented.
var (
	_ schema.DBAdapter    = (*Adapter)(nil)
	_ schema.Introspector = (*Adapter)(nil)
	_ schema.Tx           = (*Tx)(nil)
	_ schema.Introspector = (*Tx)(nil)
)

// Open connects with the given database/sql driver name and verifies the connection.
func Open(driverName, dsn string, dialect schema.Dialect, introspect IntrospectFunc) (*Adapter, error) {
	log.Printf("Initializing %s adapter", dialect.Name())
	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", dialect.Name(), err)
	}

	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", dialect.Name(), err)
	}

	log.Printf("%s adapter initialized successfully.", dialect.Name())
	return New(db, dialect, introspect), nil
}

// New wraps an already opened *sqlx.DB.
func New(db *sqlx.DB, dialect schema.Dialect, introspect IntrospectFunc) *Adapter {
	return &Adapter{db: db, dialect: dialect, introspect: introspect}
}

// Exec executes a statement. "?" placeholders are rebound for the driver.
func (a *Adapter) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if a.isClosed() {
		return nil, ErrClosed
	}
	start := time.Now()
	result, err := a.db.ExecContext(ctx, a.db.Rebind(query), args...)
	duration := time.Since(start)
	if err != nil {
		log.Printf("DB Exec Error: %s [%v] (%s) - %v", query, args, duration, err)
		return nil, fmt.Errorf("%s exec error: %w", a.dialect.Name(), err)
	}
	log.Printf("DB Exec: %s [%v] (%s)", query, args, duration)
	return result, nil
}

// Get scans a single row into dest.
func (a *Adapter) Get(ctx context.Context, dest any, query string, args ...any) error {
	if a.isClosed() {
		return ErrClosed
	}
	if err := a.db.GetContext(ctx, dest, a.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("%s get error: %w", a.dialect.Name(), err)
	}
	return nil
}

// Select scans all rows into the slice pointed to by dest.
func (a *Adapter) Select(ctx context.Context, dest any, query string, args ...any) error {
	if a.isClosed() {
		return ErrClosed
	}
	if err := a.db.SelectContext(ctx, dest, a.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("%s select error: %w", a.dialect.Name(), err)
	}
	return nil
}

// BeginTx starts a transaction.
func (a *Adapter) BeginTx(ctx context.Context, opts *sql.TxOptions) (schema.Tx, error) {
	if a.isClosed() {
		return nil, ErrClosed
	}
	tx, err := a.db.BeginTxx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("%s begin transaction error: %w", a.dialect.Name(), err)
	}
	return &Tx{tx: tx, dialect: a.dialect, introspect: a.introspect}, nil
}

// GetTableInfo introspects a table through the driver-specific query.
func (a *Adapter) GetTableInfo(ctx context.Context, tableName string) (*schema.TableInfo, error) {
	if a.isClosed() {
		return nil, ErrClosed
	}
	return introspectWith(ctx, a.introspect, a.db, a.dialect, tableName)
}

// Close closes the underlying connection pool. Closing twice is a no-op.
func (a *Adapter) Close() error {
	a.closeMx.Lock()
	defer a.closeMx.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	return a.db.Close()
}

// DB returns the underlying *sql.DB.
func (a *Adapter) DB() *sql.DB {
	return a.db.DB
}

// Dialect returns the dialect used to render statements for this database.
func (a *Adapter) Dialect() schema.Dialect {
	return a.dialect
}

func (a *Adapter) isClosed() bool {
	a.closeMx.Lock()
	defer a.closeMx.Unlock()
	return a.closed
}

func introspectWith(ctx context.Context, fn IntrospectFunc, q sqlx.QueryerContext, d schema.Dialect, tableName string) (*schema.TableInfo, error) {
	if fn == nil {
		return nil, fmt.Errorf("%w: introspection on %s", schema.ErrUnsupportedOperation, d.Name())
	}
	return fn(ctx, q, tableName)
}

// Tx implements schema.Tx.
type Tx struct {
	tx         *sqlx.Tx
	dialect    schema.Dialect
	introspect IntrospectFunc
}

// Exec executes a statement within the transaction.
func (t *Tx) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	result, err := t.tx.ExecContext(ctx, t.tx.Rebind(query), args...)
	if err != nil {
		log.Printf("DB Tx Exec Error: %s [%v] (%s) - %v", query, args, time.Since(start), err)
		return nil, fmt.Errorf("%s tx exec error: %w", t.dialect.Name(), err)
	}
	log.Printf("DB Tx Exec: %s [%v] (%s)", query, args, time.Since(start))
	return result, nil
}

// Select scans all rows into dest within the transaction.
func (t *Tx) Select(ctx context.Context, dest any, query string, args ...any) error {
	if err := t.tx.SelectContext(ctx, dest, t.tx.Rebind(query), args...); err != nil {
		return fmt.Errorf("%s tx select error: %w", t.dialect.Name(), err)
	}
	return nil
}

// GetTableInfo introspects a table on the transaction's connection.
func (t *Tx) GetTableInfo(ctx context.Context, tableName string) (*schema.TableInfo, error) {
	return introspectWith(ctx, t.introspect, t.tx, t.dialect, tableName)
}

// Dialect returns the dialect of the database the transaction runs on.
func (t *Tx) Dialect() schema.Dialect {
	return t.dialect
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	return t.tx.Commit()
}

// Rollback aborts the transaction.
func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}
