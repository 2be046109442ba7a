package schema

import "errors"

var (
	ErrUnsupportedDialect = errors.New("schema: unsupported dialect")
	ErrUnsupportedType    = errors.New("schema: unsupported column type")
	ErrNoColumns          = errors.New("schema: table has no columns")
	ErrIndexNotFound      = errors.New("schema: index not found")
	ErrDatabaseNotSet     = errors.New("schema: database adapter not set")

	// ErrUnsupportedOperation is returned when a dialect cannot express a change in place.
	ErrUnsupportedOperation = errors.New("schema: operation not supported by dialect")
)
