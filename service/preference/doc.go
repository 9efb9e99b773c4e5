// Package preference keeps namespaced user-preference profiles: free-form
// text blobs the assistant consults when drafting actions and that evolve as
// reviewers accept, edit or reject its proposals.  Profiles are only ever
// rewritten through a Synthesizer, which merges feedback into the current
// profile additively.
package preference
