package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/burugo/fluent/schema"
)

// introspect returns the columns and indexes of a PostgreSQL table, or nil when it does not exist.
func introspect(ctx context.Context, q sqlx.QueryerContext, tableName string) (*schema.TableInfo, error) {
	var cols []struct {
		Name       string         `db:"column_name"`
		DataType   string         `db:"data_type"`
		IsNullable string         `db:"is_nullable"`
		Default    sql.NullString `db:"column_default"`
	}
	colQuery := `SELECT column_name, data_type, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
		ORDER BY ordinal_position`
	if err := sqlx.SelectContext(ctx, q, &cols, colQuery, tableName); err != nil {
		return nil, fmt.Errorf("information_schema.columns failed: %w", err)
	}
	if len(cols) == 0 {
		return nil, nil
	}

	var pkCols []string
	pkQuery := `SELECT a.attname
		FROM pg_index i
		JOIN pg_attribute a ON a.attrelid = i.indrelid AND a.attnum = ANY(i.indkey)
		WHERE i.indrelid = $1::regclass AND i.indisprimary`
	if err := sqlx.SelectContext(ctx, q, &pkCols, pkQuery, tableName); err != nil {
		return nil, fmt.Errorf("pg_index primary key: %w", err)
	}
	isPK := make(map[string]bool, len(pkCols))
	for _, c := range pkCols {
		isPK[c] = true
	}

	info := &schema.TableInfo{Name: tableName}
	if len(pkCols) > 0 {
		info.PrimaryKey = pkCols[0]
	}
	for _, c := range cols {
		var defPtr *string
		if c.Default.Valid {
			defPtr = &c.Default.String
		}
		info.Columns = append(info.Columns, schema.ColumnInfo{
			Name:       c.Name,
			DataType:   c.DataType,
			IsNullable: c.IsNullable == "YES",
			IsPrimary:  isPK[c.Name],
			Default:    defPtr,
		})
	}

	var idxRows []struct {
		Name string `db:"indexname"`
		Def  string `db:"indexdef"`
	}
	idxQuery := `SELECT indexname, indexdef FROM pg_indexes WHERE schemaname = current_schema() AND tablename = $1`
	if err := sqlx.SelectContext(ctx, q, &idxRows, idxQuery, tableName); err != nil {
		return nil, fmt.Errorf("pg_indexes: %w", err)
	}
	for _, idx := range idxRows {
		if idx.Name == tableName+"_pkey" {
			continue
		}
		cols := parsePgIndexColumns(idx.Def)
		if len(cols) == 0 {
			continue
		}
		info.Indexes = append(info.Indexes, schema.IndexInfo{
			Name:    idx.Name,
			Columns: cols,
			Unique:  strings.Contains(idx.Def, "UNIQUE INDEX"),
		})
	}
	return info, nil
}

// parsePgIndexColumns extracts the column list from a pg_indexes.indexdef string,
// e.g. CREATE UNIQUE INDEX idx_users_email ON public.users USING btree (email).
func parsePgIndexColumns(def string) []string {
	start := strings.LastIndex(def, "(")
	end := strings.LastIndex(def, ")")
	if start == -1 || end == -1 || end <= start+1 {
		return nil
	}
	cols := strings.Split(def[start+1:end], ",")
	for i := range cols {
		cols[i] = strings.Trim(strings.TrimSpace(cols[i]), `"`)
	}
	return cols
}
