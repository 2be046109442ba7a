package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/burugo/fluent/schema"
)

// introspect returns the columns and indexes of a MySQL table, or nil when it does not exist.
func introspect(ctx context.Context, q sqlx.QueryerContext, tableName string) (*schema.TableInfo, error) {
	colRows, err := q.QueryContext(ctx, "SHOW COLUMNS FROM "+Dialector{}.Quote(tableName)) // #nosec G202
	if err != nil {
		// Error 1146 (42S02): Table 'xxx' doesn't exist
		if strings.Contains(err.Error(), "doesn't exist") {
			return nil, nil
		}
		return nil, fmt.Errorf("SHOW COLUMNS failed: %w", err)
	}
	defer colRows.Close()

	var columns []schema.ColumnInfo
	var pkCol string
	for colRows.Next() {
		var field, colType, nullStr, key, extra string
		var def sql.NullString
		if err := colRows.Scan(&field, &colType, &nullStr, &key, &def, &extra); err != nil {
			return nil, fmt.Errorf("scan SHOW COLUMNS: %w", err)
		}
		var defPtr *string
		if def.Valid {
			defPtr = &def.String
		}
		if key == "PRI" && pkCol == "" {
			pkCol = field
		}
		columns = append(columns, schema.ColumnInfo{
			Name:       field,
			DataType:   colType,
			IsNullable: nullStr == "YES",
			IsPrimary:  key == "PRI",
			Default:    defPtr,
		})
	}
	if err := colRows.Err(); err != nil {
		return nil, fmt.Errorf("SHOW COLUMNS rows: %w", err)
	}

	var stats []struct {
		KeyName    string `db:"Key_name"`
		NonUnique  int    `db:"Non_unique"`
		ColumnName string `db:"Column_name"`
	}
	err = sqlx.SelectContext(ctx, q, &stats,
		"SELECT INDEX_NAME AS Key_name, NON_UNIQUE AS Non_unique, COLUMN_NAME AS Column_name "+
			"FROM information_schema.statistics WHERE table_schema = DATABASE() AND table_name = ? "+
			"ORDER BY INDEX_NAME, SEQ_IN_INDEX", tableName)
	if err != nil {
		return nil, fmt.Errorf("information_schema.statistics failed: %w", err)
	}

	var indexes []schema.IndexInfo
	positions := make(map[string]int)
	for _, s := range stats {
		if s.KeyName == "" || s.KeyName == "PRIMARY" {
			continue
		}
		pos, ok := positions[s.KeyName]
		if !ok {
			pos = len(indexes)
			positions[s.KeyName] = pos
			indexes = append(indexes, schema.IndexInfo{Name: s.KeyName, Unique: s.NonUnique == 0})
		}
		indexes[pos].Columns = append(indexes[pos].Columns, s.ColumnName)
	}

	return &schema.TableInfo{
		Name:       tableName,
		Columns:    columns,
		Indexes:    indexes,
		PrimaryKey: pkCol,
	}, nil
}
