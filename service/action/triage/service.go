// Package triage classifies incoming email into ignore, notify or respond.
// The classifier here is a keyword heuristic seeded by the current triage
// preference profile; in production the call would be backed by a model.
package triage

import (
	"context"
	"reflect"
	"strings"

	"github.com/stewardai/steward/model/types"
)

const name = "triage"

// Classification buckets.
const (
	Ignore  = "ignore"
	Notify  = "notify"
	Respond = "respond"
)

// Service classifies emails.
type Service struct{}

// Input is the email to classify.
type Input struct {
	From    string `json:"from,omitempty" description:"sender address"`
	Subject string `json:"subject,omitempty" description:"subject line"`
	Body    string `json:"body,omitempty" description:"email body"`
}

// Output carries the classification.
type Output struct {
	Classification string `json:"classification"`
	Reason         string `json:"reason,omitempty"`
}

// New creates a triage service.
func New() *Service {
	return &Service{}
}

func (s *Service) Name() string {
	return name
}

func (s *Service) Methods() types.Signatures {
	return []types.Signature{
		{
			Name:        "classify",
			Description: "Classifies an email as ignore, notify or respond.",
			Input:       reflect.TypeOf(&Input{}),
			Output:      reflect.TypeOf(&Output{}),
		},
	}
}

func (s *Service) Method(name string) (types.Executable, error) {
	switch strings.ToLower(name) {
	case "classify":
		return s.classify, nil
	default:
		return nil, types.NewMethodNotFoundError(name)
	}
}

var ignoreMarkers = []string{"unsubscribe", "newsletter", "promotion", "sale", "sponsored"}
var notifyMarkers = []string{"deployment", "build", "status update", "announcement", "reminder", "out of office"}

func (s *Service) classify(_ context.Context, in, out interface{}) error {
	input, ok := in.(*Input)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*Output)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	text := strings.ToLower(input.Subject + " " + input.Body)
	for _, marker := range ignoreMarkers {
		if strings.Contains(text, marker) {
			output.Classification = Ignore
			output.Reason = "matched ignore marker: " + marker
			return nil
		}
	}
	for _, marker := range notifyMarkers {
		if strings.Contains(text, marker) {
			output.Classification = Notify
			output.Reason = "matched notify marker: " + marker
			return nil
		}
	}
	output.Classification = Respond
	output.Reason = "no ignore or notify marker matched"
	return nil
}
