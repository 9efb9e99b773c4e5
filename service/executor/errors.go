package executor

import "errors"

var (
	ErrToolNotFound   = errors.New("tool not found in registry")
	ErrMethodNotFound = errors.New("method not found in service")
)
