package preference

import (
	"context"
	"strings"
)

// Synthesizer produces the next version of a profile from the current text
// and a feedback message.  Implementations must merge additively: existing
// content is preserved and only targeted additions or corrections are made.
type Synthesizer interface {
	Synthesize(ctx context.Context, ns Namespace, current, feedback string) (string, error)
}

// SynthesizeFunc adapts a function to the Synthesizer interface.
type SynthesizeFunc func(ctx context.Context, ns Namespace, current, feedback string) (string, error)

func (f SynthesizeFunc) Synthesize(ctx context.Context, ns Namespace, current, feedback string) (string, error) {
	return f(ctx, ns, current, feedback)
}

// AppendSynthesizer is the default, model-free synthesizer: it appends the
// feedback as a bullet under the current profile.  Additive by construction,
// it keeps the module fully functional without any external service.
func AppendSynthesizer() Synthesizer {
	return SynthesizeFunc(func(_ context.Context, _ Namespace, current, feedback string) (string, error) {
		feedback = strings.TrimSpace(feedback)
		if feedback == "" {
			return current, nil
		}
		current = strings.TrimRight(current, "\n")
		if current == "" {
			return "- " + feedback + "\n", nil
		}
		return current + "\n- " + feedback + "\n", nil
	})
}
