package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/burugo/fluent/schema"
)

// introspect returns the columns and indexes of a SQLite table, or nil when it does not exist.
func introspect(ctx context.Context, q sqlx.QueryerContext, tableName string) (*schema.TableInfo, error) {
	colRows, err := q.QueryContext(ctx, "PRAGMA table_info("+Dialector{}.Quote(tableName)+")")
	if err != nil {
		return nil, fmt.Errorf("PRAGMA table_info failed: %w", err)
	}
	defer colRows.Close()

	var columns []schema.ColumnInfo
	var pkCol string
	for colRows.Next() {
		var cid int
		var name, colType string
		var notnull, pk int
		var dfltValue sql.NullString
		if err := colRows.Scan(&cid, &name, &colType, &notnull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("scan table_info: %w", err)
		}
		var defPtr *string
		if dfltValue.Valid {
			defPtr = &dfltValue.String
		}
		if pk > 0 {
			pkCol = name
		}
		columns = append(columns, schema.ColumnInfo{
			Name:       name,
			DataType:   colType,
			IsNullable: notnull == 0,
			IsPrimary:  pk > 0,
			Default:    defPtr,
		})
	}
	if err := colRows.Err(); err != nil {
		return nil, fmt.Errorf("table_info rows: %w", err)
	}
	if len(columns) == 0 {
		return nil, nil
	}

	type indexRow struct {
		Seq     int            `db:"seq"`
		Name    string         `db:"name"`
		Unique  int            `db:"unique"`
		Origin  sql.NullString `db:"origin"`
		Partial sql.NullString `db:"partial"`
	}
	var idxRows []indexRow
	if err := sqlx.SelectContext(ctx, q, &idxRows, "PRAGMA index_list("+Dialector{}.Quote(tableName)+")"); err != nil {
		return nil, fmt.Errorf("PRAGMA index_list failed: %w", err)
	}

	var indexes []schema.IndexInfo
	for _, idx := range idxRows {
		if idx.Origin.String == "pk" {
			continue
		}
		var cols []struct {
			SeqNo int    `db:"seqno"`
			CID   int    `db:"cid"`
			Name  string `db:"name"`
		}
		if err := sqlx.SelectContext(ctx, q, &cols, "PRAGMA index_info("+Dialector{}.Quote(idx.Name)+")"); err != nil {
			return nil, fmt.Errorf("PRAGMA index_info(%s) failed: %w", idx.Name, err)
		}
		info := schema.IndexInfo{Name: idx.Name, Unique: idx.Unique == 1}
		for _, c := range cols {
			info.Columns = append(info.Columns, c.Name)
		}
		indexes = append(indexes, info)
	}

	return &schema.TableInfo{
		Name:       tableName,
		Columns:    columns,
		Indexes:    indexes,
		PrimaryKey: pkCol,
	}, nil
}
