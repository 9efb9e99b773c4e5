package types

// Service is a tool service interface - a named bundle of invocable methods
// that an agent can call as tools.
type Service interface {
	Name() string
	Methods() Signatures
	Method(name string) (Executable, error)
}
