package fluent

import "errors"

var (
	// ErrNoDialect is recorded when a generated column is declared on a handle that
	// is not bound to a database.
	ErrNoDialect = errors.New("fluent: table handle has no dialect")
	// ErrUnknownMacro is returned by Blueprint.Call for names nobody registered.
	ErrUnknownMacro = errors.New("fluent: unknown macro")
	// ErrUnsupported is returned when the table handle lacks an optional capability.
	ErrUnsupported = errors.New("fluent: operation not supported by table handle")
)
