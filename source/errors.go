package source

import "errors"

var (
	// ErrUnanchored is returned when a load needs the key of a neighbouring
	// slot but that slot holds no value.
	ErrUnanchored = errors.New("source: anchor slot holds no value")

	// ErrInvalidIdentifier is returned by NewSQL for table or column names
	// that are not plain SQL identifiers.
	ErrInvalidIdentifier = errors.New("source: invalid SQL identifier")

	// ErrInjected is the default error produced by fault injection.
	ErrInjected = errors.New("source: injected fault")
)
