package fluent

import (
	"fmt"
	"strconv"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/burugo/fluent/schema"
)

// Column is the modifier chain for a column just added through a Blueprint.
type Column struct {
	spec *schema.Column
	bp   *Blueprint
}

// Spec returns the underlying column declaration.
func (c *Column) Spec() *schema.Column {
	return c.spec
}

// After places the column after the named column (MySQL).
func (c *Column) After(column string) *Column {
	c.spec.Options.After = column
	return c
}

// First places the column first in the table (MySQL).
func (c *Column) First() *Column {
	c.spec.Options.First = true
	return c
}

// AutoIncrement marks the column as an identity column.
func (c *Column) AutoIncrement() *Column {
	c.spec.Options.Identity = true
	return c
}

// Charset sets the character set of a string column.
func (c *Column) Charset(charset string) *Column {
	c.spec.Options.Encoding = charset
	return c
}

// Collation sets the collation of a string column.
func (c *Column) Collation(collation string) *Column {
	c.spec.Options.Collation = collation
	return c
}

// Comment attaches a comment to the column.
func (c *Column) Comment(comment string) *Column {
	c.spec.Options.Comment = comment
	return c
}

// Default sets the default value.
func (c *Column) Default(value any) *Column {
	c.spec.Options.Default = value
	return c
}

// From sets the starting value of an identity column.
func (c *Column) From(start int64) *Column {
	c.spec.Options.Increment = start
	return c
}

// Nullable allows NULL values. Nullable(false) makes the column NOT NULL again.
func (c *Column) Nullable(flag ...bool) *Column {
	c.spec.Options.Null = first(flag, true)
	return c
}

// Unsigned marks an integer column as unsigned.
func (c *Column) Unsigned() *Column {
	c.spec.Options.Unsigned = true
	return c
}

// UseCurrent defaults the column to CURRENT_TIMESTAMP.
func (c *Column) UseCurrent() *Column {
	c.spec.Options.Default = schema.CurrentTimestamp
	return c
}

// UseCurrentOnUpdate sets the column to CURRENT_TIMESTAMP on every update (MySQL).
func (c *Column) UseCurrentOnUpdate() *Column {
	c.spec.Options.Update = schema.CurrentTimestamp
	return c
}

// VirtualAs turns the column into a virtual generated column computed from expr.
// The column type is replaced by a raw SQL fragment, so modifiers that change the
// type, such as Unsigned, must come before it.
func (c *Column) VirtualAs(expr string) *Column {
	return c.generated(expr, false)
}

// StoredAs turns the column into a stored generated column computed from expr.
func (c *Column) StoredAs(expr string) *Column {
	return c.generated(expr, true)
}

func (c *Column) generated(expr string, stored bool) *Column {
	base, err := c.baseSQLType()
	if err != nil {
		c.bp.fail(fmt.Errorf("column %s: %w", c.spec.Name, err))
		return c
	}
	typ := base + " AS (" + expr + ")"
	if stored {
		typ += " STORED"
	}
	c.spec.Type = typ
	return c
}

// baseSQLType renders the dialect type with its size, e.g. INT(11) or DECIMAL(8,2).
func (c *Column) baseSQLType() (string, error) {
	d := c.bp.table.Dialect()
	if d == nil {
		return "", ErrNoDialect
	}
	st, err := d.SQLType(c.spec.Type, c.spec.Options.Limit)
	if err != nil {
		return "", err
	}

	// Caser is stateful, so one per call.
	name := cases.Upper(language.Und).String(st.Name)
	opts := c.spec.Options
	switch {
	case opts.Precision > 0 && opts.Scale > 0:
		name += "(" + strconv.Itoa(opts.Precision) + "," + strconv.Itoa(opts.Scale) + ")"
	case st.Limit > 0:
		name += "(" + strconv.FormatInt(st.Limit, 10) + ")"
	}
	// ColumnDefinition does not add UNSIGNED to a generated column.
	if opts.Unsigned && d.Name() == "mysql" && isNumericType(c.spec.Type) {
		name += " UNSIGNED"
	}
	return name, nil
}

// Index declares an index on this column.
func (c *Column) Index(name ...string) *Column {
	c.bp.Index(Columns{c.spec.Name}, name...)
	return c
}

// Unique declares a unique index on this column.
func (c *Column) Unique(name ...string) *Column {
	c.bp.Unique(Columns{c.spec.Name}, name...)
	return c
}

// Primary makes this column the table primary key.
func (c *Column) Primary() *Column {
	c.bp.SetPrimaryKey(c.spec.Name)
	return c
}

func isNumericType(columnType string) bool {
	switch columnType {
	case schema.TypeInteger, schema.TypeBigInteger, schema.TypeFloat, schema.TypeDouble, schema.TypeDecimal:
		return true
	}
	return false
}
