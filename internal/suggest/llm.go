package suggest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/gemini"
)

// NewGeminiClient creates the Vertex AI Gemini client. It returns nil when
// no project is configured.
func NewGeminiClient(ctx context.Context, projectID, location string) (gollem.LLMClient, error) {
	if projectID == "" {
		return nil, nil
	}
	client, err := gemini.New(ctx, projectID, location)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return client, nil
}

// LLMSuggester asks an LLM for structured resolution steps.
type LLMSuggester struct {
	client gollem.LLMClient
}

// NewLLMSuggester builds a suggester on client.
func NewLLMSuggester(client gollem.LLMClient) *LLMSuggester {
	return &LLMSuggester{client: client}
}

var stepsSchema = &gollem.Parameter{
	Title:       "ResolutionSteps",
	Description: "Ordered steps a helpdesk agent can take to resolve an employee request",
	Type:        gollem.TypeObject,
	Properties: map[string]*gollem.Parameter{
		"steps": {
			Type:        gollem.TypeArray,
			Description: "Short imperative steps, most useful first, plain text without numbering",
			Required:    true,
			Items: &gollem.Parameter{
				Type: gollem.TypeString,
			},
		},
	},
}

type stepsResponse struct {
	Steps []string `json:"steps"`
}

const promptTemplate = `An employee raised the following request with the corporate helpdesk.
Suggest at most %d concrete steps the HR or supervisor handling it could take to resolve it.
Do not include personal data in the steps.

Request:
%s`

// SuggestResolutionSteps runs one structured generation.
func (s *LLMSuggester) SuggestResolutionSteps(ctx context.Context, query string) ([]string, error) {
	session, err := s.client.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(stepsSchema),
	)
	if err != nil {
		return nil, fmt.Errorf("create suggestion session: %w", err)
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(fmt.Sprintf(promptTemplate, MaxSteps, query)))
	if err != nil {
		return nil, fmt.Errorf("generate suggestions: %w", err)
	}
	if len(resp.Texts) == 0 {
		return nil, fmt.Errorf("suggestion generation returned empty result")
	}

	var parsed stepsResponse
	if err := json.Unmarshal([]byte(resp.Texts[0]), &parsed); err != nil {
		return nil, fmt.Errorf("parse suggestions: %w", err)
	}
	return parsed.Steps, nil
}
