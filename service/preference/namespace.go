package preference

import "strings"

// Namespace is an ordered tuple of path segments identifying a preference
// profile, e.g. {"email_assistant", "triage_preferences"}.
type Namespace []string

// NS builds a namespace from its segments.
func NS(segments ...string) Namespace {
	return Namespace(segments)
}

// Key returns the canonical string form used as a storage key.
func (n Namespace) Key() string {
	return strings.Join(n, "/")
}

func (n Namespace) String() string {
	return n.Key()
}
