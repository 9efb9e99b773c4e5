// Package calendar provides the meeting scheduling tools.  Like the mail
// tool, the backing calendar is a placeholder: availability is synthesized
// and invites are acknowledged rather than delivered.
package calendar

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/stewardai/steward/internal/idgen"
	"github.com/stewardai/steward/model/types"
)

const name = "calendar"

// Service schedules meetings and reports availability.
type Service struct{}

// ScheduleInput describes the meeting to create.
type ScheduleInput struct {
	Attendees       []string `json:"attendees" description:"attendee email addresses"`
	Subject         string   `json:"subject" description:"meeting subject"`
	Day             string   `json:"day" description:"meeting day, YYYY-MM-DD"`
	StartTime       string   `json:"startTime,omitempty" description:"start time, HH:MM"`
	DurationMinutes int      `json:"durationMinutes,omitempty" description:"meeting length in minutes"`
}

// ScheduleOutput reports the created invite.
type ScheduleOutput struct {
	EventID string `json:"eventId,omitempty"`
	Status  string `json:"status,omitempty"`
}

// AvailabilityInput asks for open slots on a day.
type AvailabilityInput struct {
	Day string `json:"day" description:"day to check, YYYY-MM-DD"`
}

// AvailabilityOutput lists open slots.
type AvailabilityOutput struct {
	Day   string   `json:"day"`
	Slots []string `json:"slots"`
}

// New creates a calendar service.
func New() *Service {
	return &Service{}
}

func (s *Service) Name() string {
	return name
}

func (s *Service) Methods() types.Signatures {
	return []types.Signature{
		{
			Name:        "schedule",
			Description: "Schedules a meeting and sends invites to the attendees.",
			Input:       reflect.TypeOf(&ScheduleInput{}),
			Output:      reflect.TypeOf(&ScheduleOutput{}),
		},
		{
			Name:        "availability",
			Description: "Returns open calendar slots for the given day.",
			Input:       reflect.TypeOf(&AvailabilityInput{}),
			Output:      reflect.TypeOf(&AvailabilityOutput{}),
		},
	}
}

func (s *Service) Method(name string) (types.Executable, error) {
	switch strings.ToLower(name) {
	case "schedule":
		return s.schedule, nil
	case "availability":
		return s.availability, nil
	default:
		return nil, types.NewMethodNotFoundError(name)
	}
}

func (s *Service) schedule(_ context.Context, in, out interface{}) error {
	input, ok := in.(*ScheduleInput)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*ScheduleOutput)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	if len(input.Attendees) == 0 {
		return fmt.Errorf("at least one attendee is required")
	}
	duration := input.DurationMinutes
	if duration == 0 {
		duration = 30
	}
	output.EventID = idgen.New()
	output.Status = fmt.Sprintf("Meeting %q scheduled on %v for %v minutes with %v",
		input.Subject, input.Day, duration, strings.Join(input.Attendees, ", "))
	return nil
}

func (s *Service) availability(_ context.Context, in, out interface{}) error {
	input, ok := in.(*AvailabilityInput)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*AvailabilityOutput)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	output.Day = input.Day
	output.Slots = []string{"09:00-10:00", "11:00-12:00", "14:00-15:30"}
	return nil
}
