// Package extension keeps the registry of tool services available to an
// agent run, together with the go-type registry used when converting raw tool
// arguments into typed method inputs.
package extension
