package fluent

import "github.com/burugo/fluent/schema"

// Referential actions for OnUpdate and OnDelete.
const (
	Cascade  = "CASCADE"
	Restrict = "RESTRICT"
	SetNull  = "SET NULL"
	NoAction = "NO ACTION"
)

// ForeignKey accumulates a foreign key declaration until it is registered on the
// table handle. Registration happens once, on Register or when the Schema callback
// returns, whichever comes first.
type ForeignKey struct {
	bp         *Blueprint
	columns    []string
	refTable   string
	refColumns []string
	opts       schema.ForeignKeyOptions
	registered bool
}

// References sets the referenced columns.
func (f *ForeignKey) References(cols ...string) *ForeignKey {
	f.refColumns = cols
	return f
}

// On sets the referenced table.
func (f *ForeignKey) On(table string) *ForeignKey {
	f.refTable = table
	return f
}

// OnUpdate sets the ON UPDATE action.
func (f *ForeignKey) OnUpdate(action string) *ForeignKey {
	f.opts.Update = action
	return f
}

// OnDelete sets the ON DELETE action.
func (f *ForeignKey) OnDelete(action string) *ForeignKey {
	f.opts.Delete = action
	return f
}

// Name sets the constraint name.
func (f *ForeignKey) Name(constraint string) *ForeignKey {
	f.opts.Constraint = constraint
	return f
}

// Register adds the foreign key to the table handle. Later calls do nothing, and
// configuration made after the first call is not seen by the handle.
func (f *ForeignKey) Register() {
	if f.registered {
		return
	}
	f.registered = true
	f.bp.table.AddForeignKey(f.columns, f.refTable, f.refColumns, f.opts)
}
