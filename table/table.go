// Package table is the mutable, in-progress representation of one database table.
// Declarations accumulate in memory until Create or Update renders them with the
// connection's dialect and executes the statements.
package table

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/burugo/fluent/internal/ddl"
	"github.com/burugo/fluent/schema"
)

// Conn is what a Table needs from the database: a way to execute statements and
// the dialect to render them with. Both schema.DBAdapter and schema.Tx satisfy it.
type Conn interface {
	schema.Execer
	Dialect() schema.Dialect
}

type txBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (schema.Tx, error)
}

// indexRemoval identifies an index to drop, either by its columns or by its name.
type indexRemoval struct {
	columns []string
	name    string
}

// Table accumulates column, index and foreign key declarations for one table.
type Table struct {
	name        string
	conn        Conn
	options     schema.Options
	columns     []*schema.Column
	indexes     []schema.Index
	removals    []indexRemoval
	foreignKeys []schema.ForeignKey
}

// New returns an empty table handle bound to conn. conn may be nil for tables that
// are only declared, never persisted.
func New(name string, conn Conn) *Table {
	return &Table{name: name, conn: conn, options: schema.Options{}}
}

// Name returns the table name.
func (t *Table) Name() string {
	return t.name
}

// AddColumn appends a column declaration.
func (t *Table) AddColumn(col *schema.Column) {
	t.columns = append(t.columns, col)
}

// AddIndex declares an index on columns.
func (t *Table) AddIndex(columns []string, opts schema.IndexOptions) {
	t.indexes = append(t.indexes, schema.Index{Columns: columns, IndexOptions: opts})
}

// RemoveIndex drops the index covering exactly columns.
func (t *Table) RemoveIndex(columns []string) {
	t.removals = append(t.removals, indexRemoval{columns: columns})
}

// RemoveIndexByName drops the index called name.
func (t *Table) RemoveIndexByName(name string) {
	t.removals = append(t.removals, indexRemoval{name: name})
}

// AddForeignKey declares a foreign key from columns to refColumns on refTable.
func (t *Table) AddForeignKey(columns []string, refTable string, refColumns []string, opts schema.ForeignKeyOptions) {
	t.foreignKeys = append(t.foreignKeys, schema.ForeignKey{
		Columns:           columns,
		ReferencedTable:   refTable,
		ReferencedColumns: refColumns,
		ForeignKeyOptions: opts,
	})
}

// Options returns a copy of the table options.
func (t *Table) Options() schema.Options {
	return t.options.Clone()
}

// SetOptions replaces the table options.
func (t *Table) SetOptions(opts schema.Options) {
	t.options = opts.Clone()
}

// Dialect returns the dialect of the bound connection, or nil when there is none.
func (t *Table) Dialect() schema.Dialect {
	if t.conn == nil {
		return nil
	}
	return t.conn.Dialect()
}

// Columns returns the pending column declarations.
func (t *Table) Columns() []*schema.Column {
	return t.columns
}

// Indexes returns the pending index declarations.
func (t *Table) Indexes() []schema.Index {
	return t.indexes
}

// ForeignKeys returns the pending foreign key declarations.
func (t *Table) ForeignKeys() []schema.ForeignKey {
	return t.foreignKeys
}

// Create renders and executes CREATE TABLE for the pending declarations.
func (t *Table) Create(ctx context.Context) error {
	if t.conn == nil {
		return schema.ErrDatabaseNotSet
	}
	def := ddl.Table{
		Name:        t.name,
		Columns:     t.columnsWithID(),
		Indexes:     t.indexes,
		ForeignKeys: t.foreignKeys,
		Options:     t.options,
	}
	if pk := t.identityName(); pk != "" && len(ddl.PrimaryKeyColumns(def.Options)) == 0 {
		def.Options = t.options.Clone()
		def.Options[schema.OptionPrimaryKey] = pk
	}
	sqls, err := ddl.CreateTable(t.conn.Dialect(), def)
	if err != nil {
		return fmt.Errorf("create table %s: %w", t.name, err)
	}
	if err := t.execute(ctx, sqls); err != nil {
		return err
	}
	t.reset()
	return nil
}

// Update renders and executes the ALTER statements for the pending declarations.
func (t *Table) Update(ctx context.Context) error {
	if t.conn == nil {
		return schema.ErrDatabaseNotSet
	}
	d := t.conn.Dialect()

	var sqls []string
	inlined := make(map[int]bool)
	for _, col := range t.columns {
		var ref *schema.ForeignKey
		if d.Name() == "sqlite" {
			for i, fk := range t.foreignKeys {
				if len(fk.Columns) == 1 && fk.Columns[0] == col.Name {
					ref = &t.foreignKeys[i]
					inlined[i] = true
					break
				}
			}
		}
		stmts, err := ddl.AddColumn(d, t.name, col, ref)
		if err != nil {
			return fmt.Errorf("update table %s: %w", t.name, err)
		}
		sqls = append(sqls, stmts...)
	}

	for _, r := range t.removals {
		name, err := t.resolveIndexName(ctx, r)
		if err != nil {
			return fmt.Errorf("update table %s: %w", t.name, err)
		}
		sqls = append(sqls, ddl.DropIndex(d, t.name, name))
	}
	for _, idx := range t.indexes {
		sqls = append(sqls, ddl.CreateIndex(d, t.name, idx))
	}
	for i, fk := range t.foreignKeys {
		if inlined[i] {
			continue
		}
		stmt, err := ddl.AddForeignKey(d, t.name, fk)
		if err != nil {
			return fmt.Errorf("update table %s: %w", t.name, err)
		}
		sqls = append(sqls, stmt)
	}

	if len(sqls) == 0 {
		log.Printf("Table %s: nothing to update.", t.name)
		return nil
	}
	if err := t.execute(ctx, sqls); err != nil {
		return err
	}
	t.reset()
	return nil
}

// Drop drops the table if it exists.
func (t *Table) Drop(ctx context.Context) error {
	if t.conn == nil {
		return schema.ErrDatabaseNotSet
	}
	return t.execute(ctx, []string{ddl.DropTable(t.conn.Dialect(), t.name)})
}

// Rename renames the table to newName.
func (t *Table) Rename(ctx context.Context, newName string) error {
	if t.conn == nil {
		return schema.ErrDatabaseNotSet
	}
	if err := t.execute(ctx, []string{ddl.RenameTable(t.conn.Dialect(), t.name, newName)}); err != nil {
		return err
	}
	t.name = newName
	return nil
}

// Exists reports whether the table exists. The connection must support introspection.
func (t *Table) Exists(ctx context.Context) (bool, error) {
	in, ok := t.conn.(schema.Introspector)
	if !ok {
		return false, fmt.Errorf("%w: connection cannot introspect tables", schema.ErrUnsupportedOperation)
	}
	info, err := in.GetTableInfo(ctx, t.name)
	if err != nil {
		return false, err
	}
	return info != nil, nil
}

// identityName returns the implicit identity column name from the id option:
// a non-empty string names the column, true means "id".
func (t *Table) identityName() string {
	switch v := t.options[schema.OptionID].(type) {
	case string:
		return v
	case bool:
		if v {
			return "id"
		}
	}
	return ""
}

// columnsWithID prepends the implicit identity column unless one of that name was declared.
func (t *Table) columnsWithID() []*schema.Column {
	name := t.identityName()
	if name == "" {
		return t.columns
	}
	for _, col := range t.columns {
		if col.Name == name {
			return t.columns
		}
	}
	signed, _ := t.options[schema.OptionSigned].(bool)
	_, hasSigned := t.options[schema.OptionSigned]
	id := schema.NewColumn(name, schema.TypeInteger, schema.ColumnOptions{
		Identity: true,
		Unsigned: hasSigned && !signed,
	})
	return append([]*schema.Column{id}, t.columns...)
}

// resolveIndexName finds the name of an index identified by its columns, through
// introspection when the connection supports it, else by the naming rule.
func (t *Table) resolveIndexName(ctx context.Context, r indexRemoval) (string, error) {
	if r.name != "" {
		return r.name, nil
	}
	if in, ok := t.conn.(schema.Introspector); ok {
		info, err := in.GetTableInfo(ctx, t.name)
		switch {
		case errors.Is(err, schema.ErrUnsupportedOperation):
		case err != nil:
			return "", err
		case info != nil:
			if name, ok := ddl.MatchIndex(info.Indexes, r.columns); ok {
				return name, nil
			}
			return "", fmt.Errorf("%w: %s%v", schema.ErrIndexNotFound, t.name, r.columns)
		}
	}
	return ddl.IndexName(t.name, schema.Index{Columns: r.columns}), nil
}

// execute runs sqls in a transaction when the connection can start one.
func (t *Table) execute(ctx context.Context, sqls []string) error {
	var execer schema.Execer = t.conn
	var tx schema.Tx
	if b, ok := t.conn.(txBeginner); ok {
		var err error
		tx, err = b.BeginTx(ctx, nil)
		if err != nil {
			log.Printf("Warning: Could not start transaction for table %s (%v), executing without transaction.", t.name, err)
			tx = nil
		} else {
			execer = tx
		}
	}

	for _, stmt := range sqls {
		if _, err := execer.Exec(ctx, stmt); err != nil {
			if tx != nil {
				if rbErr := tx.Rollback(); rbErr != nil {
					return fmt.Errorf("table %s: %w; additionally, rollback failed: %v\nSQL: %s", t.name, err, rbErr, stmt)
				}
			}
			return fmt.Errorf("table %s: %w\nSQL: %s", t.name, err, stmt)
		}
	}
	if tx != nil {
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("table %s: failed to commit: %w", t.name, err)
		}
	}
	return nil
}

func (t *Table) reset() {
	t.columns = nil
	t.indexes = nil
	t.removals = nil
	t.foreignKeys = nil
}
