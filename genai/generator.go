// Package genai abstracts structured text generation behind a small
// interface so the pipeline can run against a hosted model, a local
// OpenAI-compatible server, or a deterministic stub.
package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"dealsense/config"
	"dealsense/utils"
)

// SchemaName selects which structured output schema a request must
// conform to.
type SchemaName string

const (
	SchemaMarketResearch SchemaName = "market_research"
	SchemaItemAnalysis   SchemaName = "item_analysis"
	SchemaDealMessage    SchemaName = "deal_message"
)

// Request is one structured generation call. Payload is a JSON-serializable
// mapping rendered into the user message after the instruction text, so the
// model sees the exact data the caller passed.
type Request struct {
	Schema      SchemaName
	System      string
	Instruction string
	Payload     map[string]any
}

// Generator produces a JSON document conforming to the request's schema.
type Generator interface {
	Generate(ctx context.Context, req Request) (json.RawMessage, error)
}

// ErrUnknownProvider is returned by New for an unrecognized LLM_PROVIDER.
var ErrUnknownProvider = errors.New("unknown llm provider")

// New builds the Generator selected by cfg.LLMProvider.
func New(cfg *config.Config, logger *utils.Logger) (Generator, error) {
	switch cfg.LLMProvider {
	case "openai":
		return NewOpenAIGenerator(cfg, logger), nil
	case "stub":
		return NewStubGenerator(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.LLMProvider)
	}
}

// userMessage renders the instruction plus the payload as the user turn.
func (r Request) userMessage() (string, error) {
	if len(r.Payload) == 0 {
		return r.Instruction, nil
	}
	data, err := json.MarshalIndent(r.Payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling request payload: %w", err)
	}
	return r.Instruction + "\n\n" + string(data), nil
}
