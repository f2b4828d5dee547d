package tables

import "fmt"

// SchemaMismatchError reports a row whose arity does not match the declared
// column count. This is a programmer error and always fatal to the call.
type SchemaMismatchError struct {
	Table string
	Want  int
	Got   int
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("table %s: row has %d values, schema declares %d columns", e.Table, e.Got, e.Want)
}

// UnknownColumnError reports a reference to a column outside the declared
// schema, fatal to the call that made it.
type UnknownColumnError struct {
	Table  string
	Column string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("table %s: unknown column %q", e.Table, e.Column)
}

// StorageError wraps a failed read or write with the query shape and
// parameters that were attempted.
type StorageError struct {
	Table string
	Query string
	Args  []any
	Err   error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("table %s: storage operation failed: %v (query: %s, args: %v)", e.Table, e.Err, e.Query, e.Args)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
