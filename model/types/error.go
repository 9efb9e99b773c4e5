package types

import "fmt"

// NewMethodNotFoundError reports an unknown method on a tool service.
func NewMethodNotFoundError(name string) error {
	return fmt.Errorf("tool method %v not found", name)
}

// NewInvalidInputError reports an input value of an unexpected type.
func NewInvalidInputError(in interface{}) error {
	return fmt.Errorf("invalid tool input %T", in)
}

// NewInvalidOutputError reports an output value of an unexpected type.
func NewInvalidOutputError(out interface{}) error {
	return fmt.Errorf("invalid tool output %T", out)
}
