package approval

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ErrMalformedPayload is returned by Normalize when a decision payload cannot
// be interpreted in any of the supported shapes.  Callers are expected to
// treat this as a soft failure and fall back to executing the original call.
var ErrMalformedPayload = fmt.Errorf("malformed decision payload")

// Normalize converts a raw resume payload into a Decision.  Three shapes are
// accepted:
//
//  1. a JSON array whose first element is a decision in any supported shape
//  2. a decision object: {"type":"edit","args":{...}}
//  3. an object keyed by request ID whose values are decisions
//
// A bare JSON string such as "accept" is treated as a decision with no
// arguments.  Normalize does not validate the decision type - an unknown
// type is passed through so that the caller can fail loudly on it.
func Normalize(payload json.RawMessage, requestID string) (*Decision, error) {
	trimmed := strings.TrimSpace(string(payload))
	if trimmed == "" || trimmed == "null" {
		return nil, fmt.Errorf("%w: empty payload", ErrMalformedPayload)
	}

	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(payload, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		if len(items) == 0 {
			return nil, fmt.Errorf("%w: empty decision list", ErrMalformedPayload)
		}
		return Normalize(items[0], requestID)

	case '{':
		var object map[string]json.RawMessage
		if err := json.Unmarshal(payload, &object); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		if _, ok := object["type"]; ok {
			return decodeDecision(payload, requestID)
		}
		// Object keyed by request ID.
		if nested, ok := object[requestID]; ok {
			return Normalize(nested, requestID)
		}
		if len(object) == 1 {
			for _, nested := range object {
				return Normalize(nested, requestID)
			}
		}
		return nil, fmt.Errorf("%w: no decision for request %v", ErrMalformedPayload, requestID)

	case '"':
		var decisionType string
		if err := json.Unmarshal(payload, &decisionType); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		return &Decision{ID: requestID, Type: decisionType, Raw: payload}, nil
	}
	return nil, fmt.Errorf("%w: unsupported payload shape", ErrMalformedPayload)
}

func decodeDecision(payload json.RawMessage, requestID string) (*Decision, error) {
	var decision Decision
	if err := json.Unmarshal(payload, &decision); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	decision.ID = requestID
	decision.Raw = payload
	return &decision, nil
}
