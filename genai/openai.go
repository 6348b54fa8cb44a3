package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"

	"dealsense/config"
	"dealsense/utils"
)

// OpenAIGenerator calls an OpenAI-compatible chat-completions endpoint with
// structured output enforced through a JSON schema. A custom base URL points
// it at local servers (llama.cpp, vLLM) that speak the same protocol.
type OpenAIGenerator struct {
	client openai.Client
	model  shared.ChatModel
	logger *utils.Logger
	retry  *utils.RetryConfig
}

func NewOpenAIGenerator(cfg *config.Config, logger *utils.Logger) *OpenAIGenerator {
	opts := []option.RequestOption{}
	if cfg.OpenAIAPIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.OpenAIAPIKey))
	}
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.OpenAIBaseURL))
	}

	return &OpenAIGenerator{
		client: openai.NewClient(opts...),
		model:  shared.ChatModel(cfg.OpenAIModel),
		logger: logger,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
}

// Generate performs one structured completion and returns the raw JSON
// content of the first choice.
func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (json.RawMessage, error) {
	format, err := responseFormat(req.Schema)
	if err != nil {
		return nil, err
	}

	user, err := req.userMessage()
	if err != nil {
		return nil, err
	}

	var content string
	err = g.retry.DoCtx(ctx, string(req.Schema), func() error {
		completion, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(req.System),
				openai.UserMessage(user),
			},
			Model:          g.model,
			ResponseFormat: format,
		})
		if err != nil {
			return err
		}
		if len(completion.Choices) == 0 {
			return errors.New("completion returned no choices")
		}
		content = completion.Choices[0].Message.Content
		if content == "" {
			return errors.New("completion returned empty content")
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("generating %s: %w", req.Schema, err)
	}

	g.logger.Debug("[genai] %s completion: %d bytes", req.Schema, len(content))
	return json.RawMessage(content), nil
}
