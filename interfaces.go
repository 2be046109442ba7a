// interfaces.go
// Contracts between the fluent builder and the table implementation it drives.
// table.Table implements all of them; tests substitute recording fakes.

package fluent

import (
	"context"

	"github.com/burugo/fluent/schema"
)

// TableHandle is a mutable, in-progress table. The builder only calls its mutators
// and never inspects the declarations it accumulates.
type TableHandle interface {
	Name() string
	AddColumn(col *schema.Column)
	AddIndex(columns []string, opts schema.IndexOptions)
	RemoveIndex(columns []string)
	RemoveIndexByName(name string)
	AddForeignKey(columns []string, refTable string, refColumns []string, opts schema.ForeignKeyOptions)
	Options() schema.Options
	SetOptions(opts schema.Options)
	Dialect() schema.Dialect // nil when the handle is not bound to a database
	Create(ctx context.Context) error
	Update(ctx context.Context) error
}

// TableFactory hands out a fresh TableHandle per table name.
type TableFactory interface {
	Table(name string) TableHandle
}

// TableFactoryFunc adapts a plain function to TableFactory.
type TableFactoryFunc func(name string) TableHandle

// Table calls f(name).
func (f TableFactoryFunc) Table(name string) TableHandle {
	return f(name)
}

// Optional handle capabilities used by Builder.Drop, Builder.Rename and Builder.HasTable.
type (
	Dropper interface {
		Drop(ctx context.Context) error
	}
	Renamer interface {
		Rename(ctx context.Context, newName string) error
	}
	ExistenceChecker interface {
		Exists(ctx context.Context) (bool, error)
	}
)
