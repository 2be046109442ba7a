package mysql

import (
	"github.com/burugo/fluent/internal/ddl"
	"github.com/burugo/fluent/internal/sqlxdb"
	"github.com/burugo/fluent/schema"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

// Dialector implements schema.Dialect for MySQL.
type Dialector struct{}

func (Dialector) Name() string {
	return "mysql"
}

func (Dialector) Quote(identifier string) string {
	return "`" + identifier + "`"
}

func (Dialector) SQLType(columnType string, limit int64) (schema.SQLType, error) {
	return ddl.SQLType("mysql", columnType, limit)
}

// NewMySQLAdapter opens a MySQL database, e.g. "user:pass@tcp(localhost:3306)/app?parseTime=true".
func NewMySQLAdapter(dsn string) (*sqlxdb.Adapter, error) {
	return sqlxdb.Open("mysql", dsn, Dialector{}, introspect)
}
