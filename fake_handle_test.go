package fluent_test

import (
	"context"
	"fmt"
	"strings"

	"github.com/burugo/fluent"
	"github.com/burugo/fluent/schema"
)

// call is one recorded invocation on the fake handle.
type call struct {
	Method string
	Args   []any
}

// recordingTable is a TableHandle that records every mutator call in order.
type recordingTable struct {
	name    string
	dialect schema.Dialect
	options schema.Options
	calls   []call
}

func newRecordingTable(name string) *recordingTable {
	return &recordingTable{name: name, options: schema.Options{}}
}

func (r *recordingTable) record(method string, args ...any) {
	r.calls = append(r.calls, call{Method: method, Args: args})
}

func (r *recordingTable) Name() string { return r.name }

func (r *recordingTable) AddColumn(col *schema.Column) { r.record("AddColumn", col) }

func (r *recordingTable) AddIndex(columns []string, opts schema.IndexOptions) {
	r.record("AddIndex", columns, opts)
}

func (r *recordingTable) RemoveIndex(columns []string) { r.record("RemoveIndex", columns) }

func (r *recordingTable) RemoveIndexByName(name string) { r.record("RemoveIndexByName", name) }

func (r *recordingTable) AddForeignKey(columns []string, refTable string, refColumns []string, opts schema.ForeignKeyOptions) {
	r.record("AddForeignKey", columns, refTable, refColumns, opts)
}

func (r *recordingTable) Options() schema.Options { return r.options.Clone() }

func (r *recordingTable) SetOptions(opts schema.Options) { r.options = opts.Clone() }

func (r *recordingTable) Dialect() schema.Dialect { return r.dialect }

func (r *recordingTable) Create(ctx context.Context) error {
	r.record("Create")
	return nil
}

func (r *recordingTable) Update(ctx context.Context) error {
	r.record("Update")
	return nil
}

// methods lists the recorded method names in call order.
func (r *recordingTable) methods() []string {
	out := make([]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.Method
	}
	return out
}

// columns returns the column specs passed to AddColumn.
func (r *recordingTable) columns() []*schema.Column {
	var out []*schema.Column
	for _, c := range r.calls {
		if c.Method == "AddColumn" {
			out = append(out, c.Args[0].(*schema.Column))
		}
	}
	return out
}

// onlyColumn returns the single column added so far, panicking otherwise.
func (r *recordingTable) onlyColumn() *schema.Column {
	cols := r.columns()
	if len(cols) != 1 {
		panic(fmt.Sprintf("expected exactly one column, got %d", len(cols)))
	}
	return cols[0]
}

// mysqlLikeDialect resolves a few types the way MySQL reports them.
type mysqlLikeDialect struct{}

func (mysqlLikeDialect) Name() string { return "mysql" }

func (mysqlLikeDialect) Quote(id string) string { return "`" + id + "`" }

func (mysqlLikeDialect) SQLType(columnType string, limit int64) (schema.SQLType, error) {
	switch columnType {
	case schema.TypeInteger:
		return schema.SQLType{Name: "int", Limit: 11}, nil
	case schema.TypeString:
		if limit == 0 {
			limit = 255
		}
		return schema.SQLType{Name: "varchar", Limit: limit}, nil
	case schema.TypeDecimal:
		return schema.SQLType{Name: "decimal"}, nil
	case schema.TypeText:
		return schema.SQLType{Name: "text"}, nil
	}
	return schema.SQLType{}, fmt.Errorf("%w: %s", schema.ErrUnsupportedType, strings.ToLower(columnType))
}

// blueprintFor returns a Blueprint over a fresh recording table.
func blueprintFor(name string) (*fluent.Blueprint, *recordingTable) {
	rt := newRecordingTable(name)
	return fluent.NewBlueprint(rt), rt
}
