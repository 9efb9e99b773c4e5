// Package idgen wraps the UUID generator behind a stub point. Callers treat
// run, request and message identifiers as opaque strings.
package idgen
