// interfaces.go
// Contracts between the table handle and the database drivers.

package schema

import (
	"context"
	"database/sql"
)

// Dialect knows how a particular database spells identifiers and column types.
type Dialect interface {
	Name() string                   // "mysql", "postgres" or "sqlite"
	Quote(identifier string) string // Quote a table/column/index name
	// SQLType resolves a column type tag and limit to the dialect's SQL type.
	SQLType(columnType string, limit int64) (SQLType, error)
}

// Execer runs a statement. Both DBAdapter and Tx satisfy it.
type Execer interface {
	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// DBAdapter is a database connection that DDL and migration bookkeeping run on.
type DBAdapter interface {
	Execer
	Get(ctx context.Context, dest any, query string, args ...any) error
	Select(ctx context.Context, dest any, query string, args ...any) error
	BeginTx(ctx context.Context, opts *sql.TxOptions) (Tx, error)
	Close() error
	DB() *sql.DB
	Dialect() Dialect
}

// Tx is an open transaction. Migrations hand it to the Builder so that every
// statement of a run commits or rolls back together.
type Tx interface {
	Execer
	Select(ctx context.Context, dest any, query string, args ...any) error
	Commit() error
	Rollback() error
	Dialect() Dialect
}

// IndexInfo describes an index found on a live table.
type IndexInfo struct {
	Name    string
	Columns []string // in index order
	Unique  bool
}

// ColumnInfo describes a column found on a live table.
type ColumnInfo struct {
	Name       string
	DataType   string // as reported by the database, e.g. VARCHAR(255)
	IsNullable bool
	IsPrimary  bool
	Default    *string // nil when the column has no default
}

// TableInfo is a live table as read back from the database.
type TableInfo struct {
	Name       string
	Columns    []ColumnInfo
	Indexes    []IndexInfo // excludes the primary key
	PrimaryKey string      // single-column primary key, empty otherwise
}

// Introspector reads table definitions back from the database.
type Introspector interface {
	// GetTableInfo returns nil, nil when the table does not exist.
	GetTableInfo(ctx context.Context, tableName string) (*TableInfo, error)
}
