package fluent

import (
	"github.com/burugo/fluent/schema"
)

// Default precision and scale of decimal, double and float columns.
const (
	DefaultPrecision = 8
	DefaultScale     = 2
)

// Columns is an ordered set of column names. As an IndexRef it identifies an index
// by the columns it covers.
type Columns []string

// IndexName identifies an index by its name.
type IndexName string

// IndexRef identifies an index for DropIndex: either Columns or IndexName.
type IndexRef interface {
	indexRef()
}

func (Columns) indexRef()   {}
func (IndexName) indexRef() {}

// Blueprint is the fluent declaration surface for one table handle.
// It is only valid inside the callback passed to Builder.Schema, Create or Update.
type Blueprint struct {
	table   TableHandle
	pending []*ForeignKey
	err     error
}

// NewBlueprint wraps handle. Builder.Schema releases the Blueprints it creates;
// callers of NewBlueprint must call Release themselves, or foreign keys that were
// never explicitly registered are lost.
func NewBlueprint(handle TableHandle) *Blueprint {
	return &Blueprint{table: handle}
}

// Table returns the wrapped handle.
func (b *Blueprint) Table() TableHandle {
	return b.table
}

// Err returns the first error recorded while declaring the table.
func (b *Blueprint) Err() error {
	return b.err
}

func (b *Blueprint) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Release registers every foreign key still pending, in declaration order.
// Calling it again is a no-op until new foreign keys are declared.
func (b *Blueprint) Release() {
	pending := b.pending
	b.pending = nil
	for _, fk := range pending {
		fk.Register()
	}
}

// AddColumn adds a column of any type. Every typed shorthand goes through it.
func (b *Blueprint) AddColumn(name, columnType string, opts schema.ColumnOptions) *Column {
	spec := schema.NewColumn(name, columnType, opts)
	b.table.AddColumn(spec)
	return &Column{spec: spec, bp: b}
}

// Increments adds an auto-incrementing unsigned integer column.
func (b *Blueprint) Increments(name string) *Column {
	return b.increments(name, 0)
}

// SmallIncrements adds an auto-incrementing unsigned small integer column.
func (b *Blueprint) SmallIncrements(name string) *Column {
	return b.increments(name, schema.IntSmall)
}

// MediumIncrements adds an auto-incrementing unsigned medium integer column.
func (b *Blueprint) MediumIncrements(name string) *Column {
	return b.increments(name, schema.IntMedium)
}

// BigIncrements adds an auto-incrementing unsigned big integer column.
func (b *Blueprint) BigIncrements(name string) *Column {
	return b.increments(name, schema.IntBig)
}

func (b *Blueprint) increments(name string, limit int64) *Column {
	return b.AddColumn(name, schema.TypeInteger, schema.ColumnOptions{
		Identity: true,
		Limit:    limit,
		Unsigned: true,
	})
}

// Integer adds an integer column.
func (b *Blueprint) Integer(name string) *Column {
	return b.AddColumn(name, schema.TypeInteger, schema.ColumnOptions{})
}

// TinyInteger adds a tiny integer column.
func (b *Blueprint) TinyInteger(name string) *Column {
	return b.AddColumn(name, schema.TypeInteger, schema.ColumnOptions{Limit: schema.IntTiny})
}

// SmallInteger adds a small integer column.
func (b *Blueprint) SmallInteger(name string) *Column {
	return b.AddColumn(name, schema.TypeInteger, schema.ColumnOptions{Limit: schema.IntSmall})
}

// MediumInteger adds a medium integer column.
func (b *Blueprint) MediumInteger(name string) *Column {
	return b.AddColumn(name, schema.TypeInteger, schema.ColumnOptions{Limit: schema.IntMedium})
}

// BigInteger adds a big integer column.
func (b *Blueprint) BigInteger(name string) *Column {
	return b.AddColumn(name, schema.TypeInteger, schema.ColumnOptions{Limit: schema.IntBig})
}

// String adds a varchar column. The default length is left to the dialect.
func (b *Blueprint) String(name string, length ...int) *Column {
	var opts schema.ColumnOptions
	if len(length) > 0 {
		opts.Limit = int64(length[0])
	}
	return b.AddColumn(name, schema.TypeString, opts)
}

// Char adds a fixed-length character column.
func (b *Blueprint) Char(name string, length int) *Column {
	return b.AddColumn(name, schema.TypeChar, schema.ColumnOptions{Limit: int64(length)})
}

// Text adds a text column.
func (b *Blueprint) Text(name string) *Column {
	return b.AddColumn(name, schema.TypeText, schema.ColumnOptions{})
}

// MediumText adds a medium text column.
func (b *Blueprint) MediumText(name string) *Column {
	return b.AddColumn(name, schema.TypeText, schema.ColumnOptions{Limit: schema.TextMedium})
}

// LongText adds a long text column.
func (b *Blueprint) LongText(name string) *Column {
	return b.AddColumn(name, schema.TypeText, schema.ColumnOptions{Limit: schema.TextLong})
}

// Boolean adds a boolean column.
func (b *Blueprint) Boolean(name string) *Column {
	return b.AddColumn(name, schema.TypeBoolean, schema.ColumnOptions{})
}

// Date adds a date column.
func (b *Blueprint) Date(name string) *Column {
	return b.AddColumn(name, schema.TypeDate, schema.ColumnOptions{})
}

// DateTime adds a datetime column with an optional fractional seconds precision.
func (b *Blueprint) DateTime(name string, precision ...int) *Column {
	return b.AddColumn(name, schema.TypeDateTime, schema.ColumnOptions{Limit: int64(first(precision, 0))})
}

// DateTimeTz adds a timezone-aware datetime column.
func (b *Blueprint) DateTimeTz(name string, precision ...int) *Column {
	return b.AddColumn(name, schema.TypeDateTime, schema.ColumnOptions{
		Limit:    int64(first(precision, 0)),
		Timezone: true,
	})
}

// Time adds a time column.
func (b *Blueprint) Time(name string) *Column {
	return b.AddColumn(name, schema.TypeTime, schema.ColumnOptions{})
}

// Timestamp adds a timestamp column.
func (b *Blueprint) Timestamp(name string, precision ...int) *Column {
	return b.AddColumn(name, schema.TypeTimestamp, schema.ColumnOptions{Limit: int64(first(precision, 0))})
}

// Timestamps adds nullable created_at and updated_at timestamp columns.
func (b *Blueprint) Timestamps() {
	b.Timestamp("created_at").Nullable()
	b.Timestamp("updated_at").Nullable()
}

// SoftDeletes adds a nullable deleted_at timestamp column.
func (b *Blueprint) SoftDeletes() *Column {
	return b.Timestamp("deleted_at").Nullable()
}

// Decimal adds a fixed-point column. total and places default to 8 and 2.
func (b *Blueprint) Decimal(name string, totalAndPlaces ...int) *Column {
	return b.AddColumn(name, schema.TypeDecimal, precisionOptions(totalAndPlaces))
}

// Double adds a double precision column. total and places default to 8 and 2.
func (b *Blueprint) Double(name string, totalAndPlaces ...int) *Column {
	return b.AddColumn(name, schema.TypeDouble, precisionOptions(totalAndPlaces))
}

// Float adds a floating point column. total and places default to 8 and 2.
func (b *Blueprint) Float(name string, totalAndPlaces ...int) *Column {
	return b.AddColumn(name, schema.TypeFloat, precisionOptions(totalAndPlaces))
}

// Enum adds an enum column limited to values.
func (b *Blueprint) Enum(name string, values ...string) *Column {
	return b.AddColumn(name, schema.TypeEnum, schema.ColumnOptions{Values: values})
}

// Set adds a set column limited to values.
func (b *Blueprint) Set(name string, values ...string) *Column {
	return b.AddColumn(name, schema.TypeSet, schema.ColumnOptions{Values: values})
}

// JSON adds a json column.
func (b *Blueprint) JSON(name string) *Column {
	return b.AddColumn(name, schema.TypeJSON, schema.ColumnOptions{})
}

// JSONB adds a jsonb column.
func (b *Blueprint) JSONB(name string) *Column {
	return b.AddColumn(name, schema.TypeJSONB, schema.ColumnOptions{})
}

// UUID adds a uuid column.
func (b *Blueprint) UUID(name string) *Column {
	return b.AddColumn(name, schema.TypeUUID, schema.ColumnOptions{})
}

// Geometry adds a geometry column.
func (b *Blueprint) Geometry(name string) *Column {
	return b.AddColumn(name, schema.TypeGeometry, schema.ColumnOptions{})
}

// Point adds a point column.
func (b *Blueprint) Point(name string) *Column {
	return b.AddColumn(name, schema.TypePoint, schema.ColumnOptions{})
}

// Polygon adds a polygon column.
func (b *Blueprint) Polygon(name string) *Column {
	return b.AddColumn(name, schema.TypePolygon, schema.ColumnOptions{})
}

// LineString adds a linestring column.
func (b *Blueprint) LineString(name string) *Column {
	return b.AddColumn(name, schema.TypeLineString, schema.ColumnOptions{})
}

// Binary adds a binary column.
func (b *Blueprint) Binary(name string) *Column {
	return b.AddColumn(name, schema.TypeBinary, schema.ColumnOptions{})
}

// MacAddress adds a MAC address column.
func (b *Blueprint) MacAddress(name string) *Column {
	return b.AddColumn(name, schema.TypeMacAddr, schema.ColumnOptions{})
}

// Index declares a non-unique index on cols. Without a name the handle derives one.
func (b *Blueprint) Index(cols Columns, name ...string) {
	b.table.AddIndex(cols, schema.IndexOptions{Name: first(name, "")})
}

// Unique declares a unique index on cols.
func (b *Blueprint) Unique(cols Columns, name ...string) {
	b.table.AddIndex(cols, schema.IndexOptions{Name: first(name, ""), Unique: true})
}

// DropIndex removes an index, either by the columns it covers or by its name.
func (b *Blueprint) DropIndex(ref IndexRef) {
	switch r := ref.(type) {
	case Columns:
		b.table.RemoveIndex(r)
	case IndexName:
		b.table.RemoveIndexByName(string(r))
	}
}

// DropUnique removes a unique index. It behaves exactly like DropIndex.
func (b *Blueprint) DropUnique(ref IndexRef) {
	b.DropIndex(ref)
}

// Foreign starts a foreign key declaration on cols. It is registered on the handle
// by Register or, at the latest, when the Schema callback returns.
func (b *Blueprint) Foreign(cols Columns, name ...string) *ForeignKey {
	fk := &ForeignKey{bp: b, columns: cols}
	if len(name) > 0 {
		fk.Name(name[0])
	}
	b.pending = append(b.pending, fk)
	return fk
}

// Option returns the table option key, or nil when it was never set.
func (b *Blueprint) Option(key string) any {
	return b.table.Options()[key]
}

// HasOption reports whether the table option key is set to a non-nil value.
func (b *Blueprint) HasOption(key string) bool {
	return b.Option(key) != nil
}

// SetOption merges key into the table options, keeping the other keys.
func (b *Blueprint) SetOption(key string, value any) {
	opts := b.table.Options()
	if opts == nil {
		opts = schema.Options{}
	}
	opts[key] = value
	b.table.SetOptions(opts)
}

// SetPrimaryKey sets the table primary key. A single column is stored as a string.
func (b *Blueprint) SetPrimaryKey(cols ...string) {
	if len(cols) == 1 {
		b.SetOption(schema.OptionPrimaryKey, cols[0])
		return
	}
	b.SetOption(schema.OptionPrimaryKey, cols)
}

// SetComment sets the table comment.
func (b *Blueprint) SetComment(comment string) {
	b.SetOption(schema.OptionComment, comment)
}

// SetEngine sets the MySQL storage engine.
func (b *Blueprint) SetEngine(engine string) {
	b.SetOption(schema.OptionEngine, engine)
}

// SetCollation sets the table collation.
func (b *Blueprint) SetCollation(collation string) {
	b.SetOption(schema.OptionCollation, collation)
}

// SetRowFormat sets the MySQL row format.
func (b *Blueprint) SetRowFormat(format string) {
	b.SetOption(schema.OptionRowFormat, format)
}

// SetSigned controls whether the implicit id column is signed.
func (b *Blueprint) SetSigned(signed bool) {
	b.SetOption(schema.OptionSigned, signed)
}

// SetID names the implicit identity column the handle adds on create.
func (b *Blueprint) SetID(name string) {
	b.SetOption(schema.OptionID, name)
}

// WithoutID disables the implicit identity column.
func (b *Blueprint) WithoutID() {
	b.SetOption(schema.OptionID, false)
}

func precisionOptions(totalAndPlaces []int) schema.ColumnOptions {
	opts := schema.ColumnOptions{Precision: DefaultPrecision, Scale: DefaultScale}
	if len(totalAndPlaces) > 0 {
		opts.Precision = totalAndPlaces[0]
	}
	if len(totalAndPlaces) > 1 {
		opts.Scale = totalAndPlaces[1]
	}
	return opts
}

func first[T any](vals []T, def T) T {
	if len(vals) > 0 {
		return vals[0]
	}
	return def
}
