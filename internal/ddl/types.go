package ddl

import (
	"fmt"

	"github.com/burugo/fluent/schema"
)

// TypeMapping maps column type tags to each dialect's base SQL type and default limit.
var TypeMapping = map[string]map[string]schema.SQLType{
	"mysql": {
		schema.TypeString:     {Name: "varchar", Limit: 255},
		schema.TypeChar:       {Name: "char", Limit: 255},
		schema.TypeText:       {Name: "text"},
		schema.TypeInteger:    {Name: "int", Limit: 11},
		schema.TypeBigInteger: {Name: "bigint", Limit: 20},
		schema.TypeFloat:      {Name: "float"},
		schema.TypeDouble:     {Name: "double"},
		schema.TypeDecimal:    {Name: "decimal"},
		schema.TypeDateTime:   {Name: "datetime"},
		schema.TypeTimestamp:  {Name: "timestamp"},
		schema.TypeTime:       {Name: "time"},
		schema.TypeDate:       {Name: "date"},
		schema.TypeBinary:     {Name: "blob"},
		schema.TypeBoolean:    {Name: "tinyint", Limit: 1},
		schema.TypeJSON:       {Name: "json"},
		schema.TypeJSONB:      {Name: "json"},
		schema.TypeUUID:       {Name: "char", Limit: 36},
		schema.TypeEnum:       {Name: "enum"},
		schema.TypeSet:        {Name: "set"},
		schema.TypeGeometry:   {Name: "geometry"},
		schema.TypePoint:      {Name: "point"},
		schema.TypeLineString: {Name: "linestring"},
		schema.TypePolygon:    {Name: "polygon"},
	},
	"postgres": {
		schema.TypeString:     {Name: "varchar", Limit: 255},
		schema.TypeChar:       {Name: "char", Limit: 255},
		schema.TypeText:       {Name: "text"},
		schema.TypeInteger:    {Name: "integer"},
		schema.TypeBigInteger: {Name: "bigint"},
		schema.TypeFloat:      {Name: "real"},
		schema.TypeDouble:     {Name: "double precision"},
		schema.TypeDecimal:    {Name: "decimal"},
		schema.TypeDateTime:   {Name: "timestamp"},
		schema.TypeTimestamp:  {Name: "timestamp"},
		schema.TypeTime:       {Name: "time"},
		schema.TypeDate:       {Name: "date"},
		schema.TypeBinary:     {Name: "bytea"},
		schema.TypeBoolean:    {Name: "boolean"},
		schema.TypeJSON:       {Name: "json"},
		schema.TypeJSONB:      {Name: "jsonb"},
		schema.TypeUUID:       {Name: "uuid"},
		schema.TypeGeometry:   {Name: "geometry"},
		schema.TypePoint:      {Name: "point"},
		schema.TypeLineString: {Name: "path"},
		schema.TypePolygon:    {Name: "polygon"},
		schema.TypeMacAddr:    {Name: "macaddr"},
	},
	"sqlite": {
		schema.TypeString:     {Name: "varchar", Limit: 255},
		schema.TypeChar:       {Name: "char", Limit: 255},
		schema.TypeText:       {Name: "text"},
		schema.TypeInteger:    {Name: "integer"},
		schema.TypeBigInteger: {Name: "integer"},
		schema.TypeFloat:      {Name: "float"},
		schema.TypeDouble:     {Name: "double"},
		schema.TypeDecimal:    {Name: "decimal"},
		schema.TypeDateTime:   {Name: "datetime"},
		schema.TypeTimestamp:  {Name: "datetime"},
		schema.TypeTime:       {Name: "time"},
		schema.TypeDate:       {Name: "date"},
		schema.TypeBinary:     {Name: "blob"},
		schema.TypeBoolean:    {Name: "boolean"},
		schema.TypeJSON:       {Name: "text"},
		schema.TypeJSONB:      {Name: "text"},
		schema.TypeUUID:       {Name: "char", Limit: 36},
		schema.TypeEnum:       {Name: "text"},
		schema.TypeSet:        {Name: "text"},
		schema.TypeGeometry:   {Name: "text"},
		schema.TypePoint:      {Name: "text"},
		schema.TypeLineString: {Name: "text"},
		schema.TypePolygon:    {Name: "text"},
		schema.TypeMacAddr:    {Name: "text"},
	},
}

var mysqlIntegerTiers = map[int64]schema.SQLType{
	schema.IntTiny:   {Name: "tinyint", Limit: 4},
	schema.IntSmall:  {Name: "smallint", Limit: 6},
	schema.IntMedium: {Name: "mediumint", Limit: 8},
	schema.IntBig:    {Name: "bigint", Limit: 20},
}

var mysqlTextTiers = map[int64]string{
	schema.TextTiny:   "tinytext",
	schema.TextMedium: "mediumtext",
	schema.TextLong:   "longtext",
}

// SQLType resolves a column type tag and limit to the dialect's SQL type.
// An explicit limit replaces the default one for sized types.
func SQLType(dialect, columnType string, limit int64) (schema.SQLType, error) {
	typeMap, ok := TypeMapping[dialect]
	if !ok {
		return schema.SQLType{}, fmt.Errorf("%w: %s", schema.ErrUnsupportedDialect, dialect)
	}
	base, ok := typeMap[columnType]
	if !ok {
		return schema.SQLType{}, fmt.Errorf("%w: %s (%s)", schema.ErrUnsupportedType, columnType, dialect)
	}

	switch dialect {
	case "mysql":
		switch columnType {
		case schema.TypeInteger:
			if tier, ok := mysqlIntegerTiers[limit]; ok {
				return tier, nil
			}
			if limit == schema.IntRegular {
				return base, nil
			}
		case schema.TypeText:
			if name, ok := mysqlTextTiers[limit]; ok {
				return schema.SQLType{Name: name}, nil
			}
			return base, nil
		case schema.TypeBinary:
			return base, nil
		}
	case "postgres":
		if columnType == schema.TypeInteger {
			switch limit {
			case schema.IntTiny, schema.IntSmall:
				return schema.SQLType{Name: "smallint"}, nil
			case schema.IntBig:
				return schema.SQLType{Name: "bigint"}, nil
			}
			return base, nil
		}
	case "sqlite":
		if columnType == schema.TypeInteger || columnType == schema.TypeText {
			return base, nil
		}
	}

	if limit > 0 {
		base.Limit = limit
	}
	return base, nil
}
