package approval

import (
	"context"
	"encoding/json"
	"time"
)

// DecisionFunc builds the decision payload for a pending request.
type DecisionFunc func(r *Request) json.RawMessage

// AutoDecider starts a goroutine that polls ListPending and applies fn to
// every request.  It returns stop() - call it (or cancel ctx) to exit.
func AutoDecider(ctx context.Context,
	svc Service,
	fn DecisionFunc,
	interval time.Duration) (stop func()) {

	if interval <= 0 {
		interval = 20 * time.Millisecond
	}
	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				reqs, _ := svc.ListPending(ctx)
				for _, r := range reqs {
					_, _ = svc.Decide(ctx, r.ID, fn(r))
				}
			}
		}
	}()
	return func() { close(done) }
}

// AutoAccept automatically accepts all pending requests.
func AutoAccept(ctx context.Context, svc Service, interval time.Duration) func() {
	return AutoDecider(ctx, svc,
		func(*Request) json.RawMessage { return AcceptPayload() }, interval)
}

// AutoIgnore automatically ignores all pending requests.
func AutoIgnore(ctx context.Context, svc Service, interval time.Duration) func() {
	return AutoDecider(ctx, svc,
		func(*Request) json.RawMessage { return IgnorePayload() }, interval)
}

// WaitForResolution blocks until the request has a recorded decision, the
// timeout elapses or ctx is cancelled.  A zero timeout waits indefinitely.
func WaitForResolution(ctx context.Context, svc Service, id string,
	interval, timeout time.Duration) (*Decision, error) {

	if interval <= 0 {
		interval = 20 * time.Millisecond
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		decision, err := svc.Resolution(ctx, id)
		if err != nil {
			return nil, err
		}
		if decision != nil {
			return decision, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
