package sqlite

import (
	"github.com/burugo/fluent/internal/ddl"
	"github.com/burugo/fluent/internal/sqlxdb"
	"github.com/burugo/fluent/schema"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Dialector implements schema.Dialect for SQLite.
type Dialector struct{}

func (Dialector) Name() string {
	return "sqlite"
}

func (Dialector) Quote(identifier string) string {
	return `"` + identifier + `"`
}

func (Dialector) SQLType(columnType string, limit int64) (schema.SQLType, error) {
	return ddl.SQLType("sqlite", columnType, limit)
}

// NewSQLiteAdapter opens a SQLite database. The pool is limited to a single
// connection so that ":memory:" databases are shared by every statement.
func NewSQLiteAdapter(dsn string) (*sqlxdb.Adapter, error) {
	adapter, err := sqlxdb.Open("sqlite3", dsn, Dialector{}, introspect)
	if err != nil {
		return nil, err
	}
	adapter.DB().SetMaxOpenConns(1)
	return adapter, nil
}
