// Package db opens a schema.DBAdapter by driver name, for configuration-driven setups.
package db

import (
	"fmt"

	"github.com/burugo/fluent/drivers/db/mysql"
	"github.com/burugo/fluent/drivers/db/postgres"
	"github.com/burugo/fluent/drivers/db/sqlite"
	"github.com/burugo/fluent/internal/sqlxdb"
	"github.com/burugo/fluent/schema"
)

// Open connects to dsn with the driver called name: "sqlite", "mysql" or "postgres".
func Open(name, dsn string) (*sqlxdb.Adapter, error) {
	switch name {
	case "sqlite", "sqlite3":
		return sqlite.NewSQLiteAdapter(dsn)
	case "mysql":
		return mysql.NewMySQLAdapter(dsn)
	case "postgres", "postgresql", "pgx":
		return postgres.NewPostgreSQLAdapter(dsn)
	}
	return nil, fmt.Errorf("%w: %s", schema.ErrUnsupportedDialect, name)
}
