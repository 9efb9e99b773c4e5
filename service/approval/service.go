package approval

import (
	"context"
	"encoding/json"

	"github.com/stewardai/steward/service/messaging"
)

// Service defines the approval service interface.
type Service interface {
	// RequestApproval registers a suspended call and publishes a
	// request.created event.  Re-submitting a request with the same ID is
	// an idempotent overwrite.
	RequestApproval(ctx context.Context, r *Request) error

	// ListPending returns all requests without a recorded decision.
	ListPending(ctx context.Context) ([]*Request, error)

	// Decide records a raw decision payload against the request.  The
	// payload is normalized on a best-effort basis; a payload that cannot
	// be interpreted is still recorded (with an empty decision type) so
	// that the suspended run resumes rather than hangs.
	Decide(ctx context.Context, id string, payload json.RawMessage) (*Decision, error)

	// Resolution returns the recorded decision for the request, or nil when
	// the request is still pending.
	Resolution(ctx context.Context, id string) (*Decision, error)

	// Queue exposes the approval event fan-out.
	Queue() messaging.Queue[Event]
}
