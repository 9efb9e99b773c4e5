package preference

import "context"

// Store is the preference profile store.  There is deliberately no wholesale
// Set operation: profiles change only through Update, which routes the
// feedback through a Synthesizer so that existing content is preserved.
type Store interface {
	// Get returns the profile for the namespace, or defaultValue when none
	// has been synthesized yet.  The default is not persisted.
	Get(ctx context.Context, ns Namespace, defaultValue string) (string, error)

	// Update merges feedback into the namespace profile through the
	// configured Synthesizer.  Updates to the same namespace are
	// serialized; updates to distinct namespaces may run concurrently.
	Update(ctx context.Context, ns Namespace, defaultValue, feedback string) error
}
