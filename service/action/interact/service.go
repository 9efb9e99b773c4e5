// Package interact provides the user-facing tools: asking the user a
// question and marking a run as done.  A question has no meaningful default
// execution - its policy advertises only Ignore and Respond, so execution is
// a placeholder acknowledgement reached only on a fail-open path.
package interact

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/stewardai/steward/model/types"
)

const name = "interact"

// Service holds the user interaction tools.
type Service struct{}

// QuestionInput is a question for the user.
type QuestionInput struct {
	Question string `json:"question" description:"question to ask the user"`
}

// QuestionOutput acknowledges the question.
type QuestionOutput struct {
	Status string `json:"status,omitempty"`
}

// DoneInput marks the run complete.
type DoneInput struct {
	Summary string `json:"summary,omitempty" description:"short summary of what was accomplished"`
}

// DoneOutput acknowledges completion.
type DoneOutput struct {
	Status string `json:"status,omitempty"`
}

// New creates an interact service.
func New() *Service {
	return &Service{}
}

func (s *Service) Name() string {
	return name
}

func (s *Service) Methods() types.Signatures {
	return []types.Signature{
		{
			Name:        "question",
			Description: "Asks the user a clarifying question; the answer arrives as reviewer feedback.",
			Input:       reflect.TypeOf(&QuestionInput{}),
			Output:      reflect.TypeOf(&QuestionOutput{}),
		},
		{
			Name:        "done",
			Description: "Marks the current request as fully handled.",
			Input:       reflect.TypeOf(&DoneInput{}),
			Output:      reflect.TypeOf(&DoneOutput{}),
		},
	}
}

func (s *Service) Method(name string) (types.Executable, error) {
	switch strings.ToLower(name) {
	case "question":
		return s.question, nil
	case "done":
		return s.done, nil
	default:
		return nil, types.NewMethodNotFoundError(name)
	}
}

func (s *Service) question(_ context.Context, in, out interface{}) error {
	input, ok := in.(*QuestionInput)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*QuestionOutput)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	output.Status = fmt.Sprintf("Question surfaced to the user: %v", input.Question)
	return nil
}

func (s *Service) done(_ context.Context, in, out interface{}) error {
	input, ok := in.(*DoneInput)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*DoneOutput)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	if input.Summary != "" {
		output.Status = "Done: " + input.Summary
	} else {
		output.Status = "Done"
	}
	return nil
}
