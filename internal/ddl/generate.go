package ddl

import (
	"fmt"
	"sort"
	"strings"

	"github.com/burugo/fluent/schema"
)

// Table is everything needed to render the statements for one table.
type Table struct {
	Name        string
	Columns     []*schema.Column
	Indexes     []schema.Index
	ForeignKeys []schema.ForeignKey
	Options     schema.Options
}

// CreateTable generates the CREATE TABLE statement followed by the statement seeding
// the identity start value, its CREATE INDEX statements and, for postgres, COMMENT ON.
func CreateTable(d schema.Dialect, t Table) ([]string, error) {
	if len(t.Columns) == 0 {
		return nil, fmt.Errorf("%w: %s", schema.ErrNoColumns, t.Name)
	}

	pk := PrimaryKeyColumns(t.Options)
	if len(pk) == 0 {
		for _, col := range t.Columns {
			if col.Options.Identity {
				pk = append(pk, col.Name)
			}
		}
	}

	var defs []string
	inlined := false
	for _, col := range t.Columns {
		inlinePK := d.Name() == "sqlite" && len(pk) == 1 && col.Name == pk[0] && col.Options.Identity
		def, err := ColumnDefinition(d, col, inlinePK)
		if err != nil {
			return nil, fmt.Errorf("column %s.%s: %w", t.Name, col.Name, err)
		}
		if inlinePK {
			inlined = true
		}
		defs = append(defs, def)
	}
	if len(pk) > 0 && !inlined {
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", quoteList(d, pk)))
	}
	for _, fk := range t.ForeignKeys {
		defs = append(defs, foreignKeyClause(d, t.Name, fk))
	}

	start := identityStart(t.Columns)
	stmt := fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", d.Quote(t.Name), strings.Join(defs, ",\n  "))
	if d.Name() == "mysql" {
		var n int64
		if start != nil {
			n = start.Options.Increment
		}
		stmt += mysqlTableOptions(t.Options, n)
	}
	sqls := []string{stmt + ";"}

	if start != nil && d.Name() != "mysql" {
		if d.Name() == "sqlite" && !inlined {
			return nil, fmt.Errorf("%w: start value for %s.%s needs an AUTOINCREMENT primary key on sqlite",
				schema.ErrUnsupportedOperation, t.Name, start.Name)
		}
		sqls = append(sqls, restartSequence(d, t.Name, start))
	}

	for _, idx := range t.Indexes {
		sqls = append(sqls, CreateIndex(d, t.Name, idx))
	}

	if d.Name() == "postgres" {
		if comment, ok := t.Options[schema.OptionComment].(string); ok && comment != "" {
			sqls = append(sqls, fmt.Sprintf("COMMENT ON TABLE %s IS %s;", d.Quote(t.Name), quoteLiteral(comment)))
		}
		for _, col := range t.Columns {
			if col.Options.Comment != "" {
				sqls = append(sqls, columnComment(d, t.Name, col))
			}
		}
	}
	return sqls, nil
}

// AddColumn generates an ALTER TABLE ... ADD COLUMN statement. ref, when non-nil, is a
// single-column foreign key on the new column that sqlite can only accept inline.
func AddColumn(d schema.Dialect, table string, col *schema.Column, ref *schema.ForeignKey) ([]string, error) {
	def, err := ColumnDefinition(d, col, false)
	if err != nil {
		return nil, fmt.Errorf("column %s.%s: %w", table, col.Name, err)
	}
	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", d.Quote(table), def)
	switch d.Name() {
	case "mysql":
		if col.Options.First {
			stmt += " FIRST"
		} else if col.Options.After != "" {
			stmt += " AFTER " + d.Quote(col.Options.After)
		}
	case "sqlite":
		if ref != nil {
			stmt += " " + referencesClause(d, *ref)
		}
	}
	sqls := []string{stmt + ";"}
	if col.Options.Identity && col.Options.Increment > 0 {
		switch d.Name() {
		case "mysql":
			sqls = append(sqls, fmt.Sprintf("ALTER TABLE %s AUTO_INCREMENT = %d;", d.Quote(table), col.Options.Increment))
		case "postgres":
			sqls = append(sqls, restartSequence(d, table, col))
		default:
			return nil, fmt.Errorf("%w: start value for added column %s.%s on %s",
				schema.ErrUnsupportedOperation, table, col.Name, d.Name())
		}
	}
	if d.Name() == "postgres" && col.Options.Comment != "" {
		sqls = append(sqls, columnComment(d, table, col))
	}
	return sqls, nil
}

// AddForeignKey generates an ALTER TABLE ... ADD CONSTRAINT statement.
func AddForeignKey(d schema.Dialect, table string, fk schema.ForeignKey) (string, error) {
	if d.Name() == "sqlite" {
		return "", fmt.Errorf("%w: adding foreign key %s to existing table %s on sqlite",
			schema.ErrUnsupportedOperation, ForeignKeyName(table, fk), table)
	}
	return fmt.Sprintf("ALTER TABLE %s ADD %s;", d.Quote(table), foreignKeyClause(d, table, fk)), nil
}

// CreateIndex generates the CREATE INDEX statement.
func CreateIndex(d schema.Dialect, table string, idx schema.Index) string {
	stmt := "CREATE"
	if idx.Unique {
		stmt += " UNIQUE"
	}
	stmt += " INDEX"
	if d.Name() == "sqlite" || d.Name() == "postgres" {
		stmt += " IF NOT EXISTS"
	}
	return fmt.Sprintf("%s %s ON %s (%s);", stmt, d.Quote(IndexName(table, idx)), d.Quote(table), quoteList(d, idx.Columns))
}

// DropIndex generates the DROP INDEX statement.
func DropIndex(d schema.Dialect, table, indexName string) string {
	if d.Name() == "mysql" {
		return fmt.Sprintf("DROP INDEX %s ON %s;", d.Quote(indexName), d.Quote(table))
	}
	return fmt.Sprintf("DROP INDEX IF EXISTS %s;", d.Quote(indexName))
}

// DropTable generates the DROP TABLE statement.
func DropTable(d schema.Dialect, table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;", d.Quote(table))
}

// RenameTable generates the statement renaming a table.
func RenameTable(d schema.Dialect, from, to string) string {
	if d.Name() == "mysql" {
		return fmt.Sprintf("RENAME TABLE %s TO %s;", d.Quote(from), d.Quote(to))
	}
	return fmt.Sprintf("ALTER TABLE %s RENAME TO %s;", d.Quote(from), d.Quote(to))
}

// IndexName returns the explicit index name or derives idx_<table>_<cols> / uniq_<table>_<cols>.
func IndexName(table string, idx schema.Index) string {
	if idx.Name != "" {
		return idx.Name
	}
	prefix := "idx"
	if idx.Unique {
		prefix = "uniq"
	}
	return fmt.Sprintf("%s_%s_%s", prefix, table, strings.Join(idx.Columns, "_"))
}

// ForeignKeyName returns the explicit constraint name or derives fk_<table>_<cols>.
func ForeignKeyName(table string, fk schema.ForeignKey) string {
	if fk.Constraint != "" {
		return fk.Constraint
	}
	return fmt.Sprintf("fk_%s_%s", table, strings.Join(fk.Columns, "_"))
}

// PrimaryKeyColumns reads the primary_key table option as a column list.
func PrimaryKeyColumns(opts schema.Options) []string {
	switch v := opts[schema.OptionPrimaryKey].(type) {
	case string:
		if v != "" {
			return []string{v}
		}
	case []string:
		return v
	}
	return nil
}

// ColumnDefinition renders a single column for CREATE TABLE / ADD COLUMN.
func ColumnDefinition(d schema.Dialect, col *schema.Column, inlinePK bool) (string, error) {
	opts := col.Options
	dialect := d.Name()

	var b strings.Builder
	b.WriteString(d.Quote(col.Name))
	b.WriteByte(' ')
	if col.IsGenerated() {
		b.WriteString(col.Type)
	} else {
		typ, err := columnType(d, col)
		if err != nil {
			return "", err
		}
		b.WriteString(typ)
	}

	switch dialect {
	case "mysql":
		if opts.Unsigned && isNumeric(col.Type) {
			b.WriteString(" UNSIGNED")
		}
		if opts.Encoding != "" {
			b.WriteString(" CHARACTER SET " + opts.Encoding)
		}
		if opts.Collation != "" {
			b.WriteString(" COLLATE " + opts.Collation)
		}
	case "postgres":
		if opts.Collation != "" {
			b.WriteString(` COLLATE "` + opts.Collation + `"`)
		}
	case "sqlite":
		if inlinePK {
			b.WriteString(" PRIMARY KEY AUTOINCREMENT")
		}
	}

	if opts.Null {
		b.WriteString(" NULL")
	} else {
		b.WriteString(" NOT NULL")
	}
	if opts.Default != nil && !opts.Identity {
		b.WriteString(" DEFAULT " + renderDefault(dialect, opts.Default))
	}

	if dialect == "mysql" {
		if opts.Identity {
			b.WriteString(" AUTO_INCREMENT")
		}
		if opts.Update != "" {
			b.WriteString(" ON UPDATE " + opts.Update)
		}
		if opts.Comment != "" {
			b.WriteString(" COMMENT " + quoteLiteral(opts.Comment))
		}
	}
	return b.String(), nil
}

// MigrationsTable returns the CREATE TABLE statement for the schema_migrations version table.
func MigrationsTable(dialect string) (string, error) {
	switch dialect {
	case "mysql":
		return `CREATE TABLE IF NOT EXISTS schema_migrations (
  id INT AUTO_INCREMENT PRIMARY KEY,
  version VARCHAR(255) NOT NULL UNIQUE,
  applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
  description VARCHAR(255)
);`, nil
	case "postgres":
		return `CREATE TABLE IF NOT EXISTS schema_migrations (
  id SERIAL PRIMARY KEY,
  version VARCHAR(255) NOT NULL UNIQUE,
  applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
  description VARCHAR(255)
);`, nil
	case "sqlite":
		return `CREATE TABLE IF NOT EXISTS schema_migrations (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  version TEXT NOT NULL UNIQUE,
  applied_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  description TEXT
);`, nil
	default:
		return "", fmt.Errorf("%w: %s", schema.ErrUnsupportedDialect, dialect)
	}
}

// --- Helper Functions ---

var postgresSerials = map[string]string{
	"smallint": "SMALLSERIAL",
	"integer":  "SERIAL",
	"bigint":   "BIGSERIAL",
}

func columnType(d schema.Dialect, col *schema.Column) (string, error) {
	opts := col.Options
	st, err := d.SQLType(col.Type, opts.Limit)
	if err != nil {
		return "", err
	}

	switch d.Name() {
	case "postgres":
		if opts.Identity {
			if serial, ok := postgresSerials[st.Name]; ok {
				return serial, nil
			}
		}
		if (col.Type == schema.TypeDateTime || col.Type == schema.TypeTimestamp) && opts.Timezone {
			if st.Limit > 0 {
				return fmt.Sprintf("TIMESTAMP(%d) WITH TIME ZONE", st.Limit), nil
			}
			return "TIMESTAMP WITH TIME ZONE", nil
		}
		if col.Type == schema.TypeFloat || col.Type == schema.TypeDouble {
			return strings.ToUpper(st.Name), nil
		}
	case "sqlite":
		if opts.Identity {
			return "INTEGER", nil
		}
	}

	name := strings.ToUpper(st.Name)
	switch {
	case (col.Type == schema.TypeEnum || col.Type == schema.TypeSet) && d.Name() == "mysql":
		quoted := make([]string, len(opts.Values))
		for i, v := range opts.Values {
			quoted[i] = quoteLiteral(v)
		}
		return fmt.Sprintf("%s(%s)", name, strings.Join(quoted, ",")), nil
	case isFixedPoint(col.Type) && opts.Precision > 0:
		return fmt.Sprintf("%s(%d,%d)", name, opts.Precision, opts.Scale), nil
	case st.Limit > 0:
		return fmt.Sprintf("%s(%d)", name, st.Limit), nil
	}
	return name, nil
}

// identityStart returns the first identity column with a start value, or nil.
func identityStart(cols []*schema.Column) *schema.Column {
	for _, col := range cols {
		if col.Options.Identity && col.Options.Increment > 0 {
			return col
		}
	}
	return nil
}

// restartSequence makes the next generated value of col equal its start value.
func restartSequence(d schema.Dialect, table string, col *schema.Column) string {
	if d.Name() == "sqlite" {
		return fmt.Sprintf("INSERT INTO sqlite_sequence (name, seq) VALUES (%s, %d);",
			quoteLiteral(table), col.Options.Increment-1)
	}
	return fmt.Sprintf("SELECT setval(pg_get_serial_sequence(%s, %s), %d, false);",
		quoteLiteral(d.Quote(table)), quoteLiteral(col.Name), col.Options.Increment)
}

func foreignKeyClause(d schema.Dialect, table string, fk schema.ForeignKey) string {
	return fmt.Sprintf("CONSTRAINT %s FOREIGN KEY (%s) %s",
		d.Quote(ForeignKeyName(table, fk)), quoteList(d, fk.Columns), referencesClause(d, fk))
}

func referencesClause(d schema.Dialect, fk schema.ForeignKey) string {
	clause := fmt.Sprintf("REFERENCES %s (%s)", d.Quote(fk.ReferencedTable), quoteList(d, fk.ReferencedColumns))
	if fk.Delete != "" {
		clause += " ON DELETE " + fk.Delete
	}
	if fk.Update != "" {
		clause += " ON UPDATE " + fk.Update
	}
	return clause
}

func columnComment(d schema.Dialect, table string, col *schema.Column) string {
	return fmt.Sprintf("COMMENT ON COLUMN %s.%s IS %s;", d.Quote(table), d.Quote(col.Name), quoteLiteral(col.Options.Comment))
}

func mysqlTableOptions(opts schema.Options, autoIncrement int64) string {
	engine := "InnoDB"
	if v, ok := opts[schema.OptionEngine].(string); ok && v != "" {
		engine = v
	}
	out := " ENGINE = " + engine
	if autoIncrement > 0 {
		out += fmt.Sprintf(" AUTO_INCREMENT = %d", autoIncrement)
	}
	if v, ok := opts[schema.OptionCollation].(string); ok && v != "" {
		charset := v
		if i := strings.Index(v, "_"); i > 0 {
			charset = v[:i]
		}
		out += fmt.Sprintf(" CHARACTER SET %s COLLATE %s", charset, v)
	}
	if v, ok := opts[schema.OptionComment].(string); ok && v != "" {
		out += " COMMENT=" + quoteLiteral(v)
	}
	if v, ok := opts[schema.OptionRowFormat].(string); ok && v != "" {
		out += " ROW_FORMAT=" + strings.ToUpper(v)
	}
	return out
}

func renderDefault(dialect string, v any) string {
	switch v := v.(type) {
	case string:
		if strings.EqualFold(v, schema.CurrentTimestamp) {
			return schema.CurrentTimestamp
		}
		return quoteLiteral(v)
	case bool:
		if dialect == "postgres" {
			if v {
				return "TRUE"
			}
			return "FALSE"
		}
		if v {
			return "1"
		}
		return "0"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(v)
	default:
		return quoteLiteral(fmt.Sprint(v))
	}
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func quoteList(d schema.Dialect, names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = d.Quote(n)
	}
	return strings.Join(quoted, ", ")
}

func isNumeric(columnType string) bool {
	switch columnType {
	case schema.TypeInteger, schema.TypeBigInteger, schema.TypeFloat, schema.TypeDouble, schema.TypeDecimal:
		return true
	}
	return false
}

func isFixedPoint(columnType string) bool {
	return columnType == schema.TypeDecimal || columnType == schema.TypeFloat || columnType == schema.TypeDouble
}

// equalStringSlice checks if two string slices contain the same elements, regardless of order.
func equalStringSlice(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sa := append([]string(nil), a...)
	sb := append([]string(nil), b...)
	sort.Strings(sa)
	sort.Strings(sb)
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}

// MatchIndex returns the name of the index in indexes whose columns equal cols.
func MatchIndex(indexes []schema.IndexInfo, cols []string) (string, bool) {
	for _, idx := range indexes {
		if equalStringSlice(idx.Columns, cols) {
			return idx.Name, true
		}
	}
	return "", false
}
