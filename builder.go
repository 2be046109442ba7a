package fluent

import (
	"context"
	"fmt"

	"github.com/burugo/fluent/table"
)

// Builder is the entry point for schema changes: it obtains a table handle, lets a
// callback describe the table through a Blueprint, then persists the handle.
type Builder struct {
	factory TableFactory
}

// NewBuilder returns a Builder whose tables execute against conn.
// conn is usually a schema.DBAdapter, or a schema.Tx inside a migration.
func NewBuilder(conn table.Conn) *Builder {
	return NewBuilderWithFactory(TableFactoryFunc(func(name string) TableHandle {
		return table.New(name, conn)
	}))
}

// NewBuilderWithFactory returns a Builder that obtains its handles from f.
func NewBuilderWithFactory(f TableFactory) *Builder {
	return &Builder{factory: f}
}

// Schema runs fn against a new Blueprint for the named table and returns the handle
// without persisting it. Foreign keys declared in fn are registered on the handle
// when fn returns, even if it panics. The first error recorded on the Blueprint
// during fn is returned along with the handle.
func (b *Builder) Schema(name string, fn func(*Blueprint)) (TableHandle, error) {
	handle := b.factory.Table(name)
	bp := NewBlueprint(handle)

	func() {
		defer bp.Release()
		fn(bp)
	}()

	return handle, bp.Err()
}

// Create runs Schema and then creates the table.
func (b *Builder) Create(ctx context.Context, name string, fn func(*Blueprint)) error {
	handle, err := b.Schema(name, fn)
	if err != nil {
		return err
	}
	return handle.Create(ctx)
}

// Update runs Schema and then alters the existing table.
func (b *Builder) Update(ctx context.Context, name string, fn func(*Blueprint)) error {
	handle, err := b.Schema(name, fn)
	if err != nil {
		return err
	}
	return handle.Update(ctx)
}

// Drop drops the named table.
func (b *Builder) Drop(ctx context.Context, name string) error {
	d, ok := b.factory.Table(name).(Dropper)
	if !ok {
		return fmt.Errorf("%w: drop %s", ErrUnsupported, name)
	}
	return d.Drop(ctx)
}

// Rename renames table from to to.
func (b *Builder) Rename(ctx context.Context, from, to string) error {
	r, ok := b.factory.Table(from).(Renamer)
	if !ok {
		return fmt.Errorf("%w: rename %s", ErrUnsupported, from)
	}
	return r.Rename(ctx, to)
}

// HasTable reports whether the named table exists.
func (b *Builder) HasTable(ctx context.Context, name string) (bool, error) {
	c, ok := b.factory.Table(name).(ExistenceChecker)
	if !ok {
		return false, fmt.Errorf("%w: has table %s", ErrUnsupported, name)
	}
	return c.Exists(ctx)
}
