package genai

import (
	"fmt"

	"github.com/invopop/jsonschema"
	openai "github.com/openai/openai-go/v2"

	"dealsense/models"
)

// generateSchema reflects a strict JSON schema for T. Inlined definitions
// and closed objects are what the structured-output endpoint expects.
func generateSchema[T any]() any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// responseFormat returns the response-format parameter for a schema name.
func responseFormat(name SchemaName) (openai.ChatCompletionNewParamsResponseFormatUnion, error) {
	var (
		schema      any
		description string
	)

	switch name {
	case SchemaMarketResearch:
		schema = generateSchema[models.MarketResearch]()
		description = "Market value research for a second-hand listing"
	case SchemaItemAnalysis:
		schema = generateSchema[models.ItemAnalysis]()
		description = "Bargain analysis and scoring for a second-hand listing"
	case SchemaDealMessage:
		schema = generateSchema[models.DealMessage]()
		description = "Negotiation message draft for a second-hand listing"
	default:
		return openai.ChatCompletionNewParamsResponseFormatUnion{},
			fmt.Errorf("no schema registered for %q", name)
	}

	return openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
			JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
				Name:        string(name),
				Description: openai.String(description),
				Schema:      schema,
				Strict:      openai.Bool(true),
			},
		},
	}, nil
}
