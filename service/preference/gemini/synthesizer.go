// Package gemini implements the preference Synthesizer on top of the Gemini
// API.  The model is asked for a structured update of the profile and is
// instructed to merge additively: never overwrite, only targeted changes.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/stewardai/steward/service/preference"
)

const defaultModel = "gemini-2.0-flash"

const updateInstructions = `You are a memory profile manager that selectively updates
user preferences based on feedback from human-in-the-loop review of assistant actions.

Instructions:
- NEVER overwrite the entire memory profile
- ONLY make targeted additions of new information
- ONLY update specific facts that are directly contradicted by feedback
- PRESERVE all other existing information in the profile
- Format the profile consistently with the original style
- Generate the profile as a string`

// generator is the subset of the Gemini client the synthesizer needs;
// narrowed for testability.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type modelsClient struct {
	client *genai.Client
}

func (c *modelsClient) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return c.client.Models.GenerateContent(ctx, model, contents, config)
}

// profileUpdate is the structured response schema.
type profileUpdate struct {
	ChainOfThought  string `json:"chainOfThought"`
	UserPreferences string `json:"userPreferences"`
}

// Synthesizer calls Gemini to merge feedback into a preference profile.
type Synthesizer struct {
	generator generator
	model     string
}

// Option customises the synthesizer.
type Option func(*Synthesizer)

// WithModel overrides the model identifier.
func WithModel(model string) Option {
	return func(s *Synthesizer) { s.model = model }
}

// withGenerator swaps the underlying client; used by tests.
func withGenerator(g generator) Option {
	return func(s *Synthesizer) { s.generator = g }
}

// New creates a Gemini-backed synthesizer.
func New(ctx context.Context, apiKey string, options ...Option) (*Synthesizer, error) {
	s := &Synthesizer{model: defaultModel}
	for _, o := range options {
		o(s)
	}
	if s.generator == nil {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
		s.generator = &modelsClient{client: client}
	}
	return s, nil
}

var _ preference.Synthesizer = (*Synthesizer)(nil)

// Synthesize asks the model for an updated profile and returns it.  The
// current profile is returned unchanged when the model produces an empty
// update.
func (s *Synthesizer) Synthesize(ctx context.Context, ns preference.Namespace, current, feedback string) (string, error) {
	prompt := fmt.Sprintf(`%s

Current profile for %s:
<memory_profile>
%s
</memory_profile>

Update the memory profile based on this feedback:
%s`, updateInstructions, ns.Key(), current, feedback)

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{genai.NewPartFromText(prompt)},
		},
	}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"chainOfThought":  {Type: genai.TypeString},
				"userPreferences": {Type: genai.TypeString},
			},
			Required: []string{"userPreferences"},
		},
	}

	response, err := s.generator.GenerateContent(ctx, s.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("failed to generate profile update: %w", err)
	}
	text := responseText(response)
	if text == "" {
		return "", fmt.Errorf("empty profile update response")
	}
	var update profileUpdate
	if err := json.Unmarshal([]byte(text), &update); err != nil {
		return "", fmt.Errorf("failed to decode profile update: %w", err)
	}
	if strings.TrimSpace(update.UserPreferences) == "" {
		return current, nil
	}
	return update.UserPreferences, nil
}

func responseText(response *genai.GenerateContentResponse) string {
	if response == nil || len(response.Candidates) == 0 {
		return ""
	}
	candidate := response.Candidates[0]
	if candidate.Content == nil {
		return ""
	}
	var builder strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			builder.WriteString(part.Text)
		}
	}
	return builder.String()
}
