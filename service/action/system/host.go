// Package system holds shared types for system-level tools.
package system

// Host identifies the machine a system tool operates on.  URL uses
// bash://localhost/ for local execution; anything else is reached over SSH
// with the named credentials.
type Host struct {
	URL         string `json:"url,omitempty" description:"target host url, bash://localhost/ for local execution"`
	Credentials string `json:"credentials,omitempty" description:"secret name holding SSH credentials"`
}
