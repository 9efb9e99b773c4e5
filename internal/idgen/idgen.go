package idgen

import "github.com/google/uuid"

// NewFunc produces run and message identifiers; override in tests for
// deterministic IDs.
var NewFunc = func() string { return uuid.New().String() }

// New returns a new globally unique identifier as a string.
func New() string { return NewFunc() }
