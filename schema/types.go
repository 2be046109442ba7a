package schema

import (
	"math"
	"strings"
)

// Column type tags understood by every dialect in this module.
const (
	TypeString     = "string"
	TypeChar       = "char"
	TypeText       = "text"
	TypeInteger    = "integer"
	TypeBigInteger = "biginteger"
	TypeFloat      = "float"
	TypeDouble     = "double"
	TypeDecimal    = "decimal"
	TypeDateTime   = "datetime"
	TypeTimestamp  = "timestamp"
	TypeTime       = "time"
	TypeDate       = "date"
	TypeBinary     = "binary"
	TypeBoolean    = "boolean"
	TypeJSON       = "json"
	TypeJSONB      = "jsonb"
	TypeUUID       = "uuid"
	TypeEnum       = "enum"
	TypeSet        = "set"
	TypeGeometry   = "geometry"
	TypePoint      = "point"
	TypeLineString = "linestring"
	TypePolygon    = "polygon"
	TypeMacAddr    = "macaddr"
)

// Integer size tiers, passed as the column limit.
const (
	IntTiny    int64 = 255
	IntSmall   int64 = 65535
	IntMedium  int64 = 16777215
	IntRegular int64 = 4294967295
	IntBig     int64 = math.MaxInt64
)

// Text size tiers, passed as the column limit.
const (
	TextTiny    int64 = 255
	TextRegular int64 = 65535
	TextMedium  int64 = 16777215
	TextLong    int64 = 4294967295
)

// CurrentTimestamp is the literal default used by timestamp columns.
const CurrentTimestamp = "CURRENT_TIMESTAMP"

// Table option keys.
const (
	OptionID         = "id"
	OptionPrimaryKey = "primary_key"
	OptionComment    = "comment"
	OptionEngine     = "engine"
	OptionCollation  = "collation"
	OptionRowFormat  = "row_format"
	OptionSigned     = "signed"
)

// ColumnOptions holds the per-column settings. Zero values mean "not set".
type ColumnOptions struct {
	Limit     int64    // Length or size tier; datetime precision for datetime columns
	Precision int      // Total digits for decimal/float/double
	Scale     int      // Digits after the decimal point
	Values    []string // Allowed values for enum/set
	Identity  bool     // Auto-incrementing column
	Unsigned  bool     // Integer columns only
	Null      bool
	Default   any
	Update    string // ON UPDATE expression (MySQL)
	Timezone  bool
	Encoding  string
	Collation string
	Comment   string
	Increment int64  // Start value of an identity sequence
	After     string // Position after this column (MySQL)
	First     bool   // Position as first column (MySQL)
}

// Column is a single column declaration before persistence.
type Column struct {
	Name    string
	Type    string
	Options ColumnOptions
}

// NewColumn returns a column with the given name, type and options.
func NewColumn(name, typ string, opts ColumnOptions) *Column {
	return &Column{Name: name, Type: typ, Options: opts}
}

// IsGenerated reports whether Type holds a raw generated-column fragment.
func (c *Column) IsGenerated() bool {
	return strings.Contains(c.Type, " AS (")
}

// IndexOptions configures an index. An empty Name is derived from the columns.
type IndexOptions struct {
	Name   string
	Unique bool
}

// Index is a declared index on a table.
type Index struct {
	Columns []string
	IndexOptions
}

// ForeignKeyOptions holds the referential actions and constraint name.
type ForeignKeyOptions struct {
	Update     string
	Delete     string
	Constraint string
}

// ForeignKey is a declared foreign key constraint.
type ForeignKey struct {
	Columns           []string
	ReferencedTable   string
	ReferencedColumns []string
	ForeignKeyOptions
}

// Options holds table-level options such as engine, comment and primary key.
type Options map[string]any

// Clone returns a shallow copy of o. A nil map clones to an empty one.
func (o Options) Clone() Options {
	out := make(Options, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// SQLType is a dialect-specific SQL type name and its default limit (0 when none).
type SQLType struct {
	Name  string
	Limit int64
}
