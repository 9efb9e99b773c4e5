package dao

// Parameter is an optional List filter, e.g. run state or tool name.
type Parameter struct {
	Name  string
	Value interface{}
}

// NewParameter creates a filter; a single value is stored as a scalar.
func NewParameter(name string, values ...string) *Parameter {
	if len(values) == 1 {
		return &Parameter{Name: name, Value: values[0]}
	}
	return &Parameter{Name: name, Value: values}
}
