// Package mail provides the email reply tool.  The transport is a
// placeholder: sends are logged and acknowledged, matching the reference
// assistant where delivery happens outside the agent.
package mail

import (
	"context"
	"fmt"
	"log"
	"reflect"
	"strings"

	"github.com/stewardai/steward/internal/idgen"
	"github.com/stewardai/steward/model/types"
)

const name = "mail"

// Service drafts and sends email replies.
type Service struct{}

// Input describes the reply to send.
type Input struct {
	To      string `json:"to" description:"recipient address"`
	Cc      string `json:"cc,omitempty" description:"optional cc addresses"`
	Subject string `json:"subject,omitempty" description:"subject line"`
	Body    string `json:"body" description:"reply body"`
}

// Output reports the send result.
type Output struct {
	MessageID string `json:"messageId,omitempty"`
	Status    string `json:"status,omitempty"`
}

// New creates a mail service.
func New() *Service {
	return &Service{}
}

func (s *Service) Name() string {
	return name
}

func (s *Service) Methods() types.Signatures {
	return []types.Signature{
		{
			Name:        "send",
			Description: "Sends an email reply to the given recipient.",
			Input:       reflect.TypeOf(&Input{}),
			Output:      reflect.TypeOf(&Output{}),
		},
	}
}

func (s *Service) Method(name string) (types.Executable, error) {
	switch strings.ToLower(name) {
	case "send":
		return s.send, nil
	default:
		return nil, types.NewMethodNotFoundError(name)
	}
}

func (s *Service) send(_ context.Context, in, out interface{}) error {
	input, ok := in.(*Input)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*Output)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	if input.To == "" {
		return fmt.Errorf("recipient is required")
	}
	output.MessageID = idgen.New()
	output.Status = fmt.Sprintf("Email sent to %v with subject %q", input.To, input.Subject)
	log.Printf("mail: sent %v to %v", output.MessageID, input.To)
	return nil
}
