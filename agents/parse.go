// Package agents wraps the generation layer with the three task-specific
// roles of the pipeline: market research, bargain analysis, and negotiation
// message drafting. Each agent owns its prompts, decodes the structured
// response, and repairs the identifier fields the model tends to drop.
package agents

import (
	"encoding/json"
	"fmt"
	"strings"
)

// extractJSONFromMarkdown strips markdown code fences from a model response.
// Structured-output endpoints return bare JSON, but local models sometimes
// wrap it in ```json blocks anyway.
func extractJSONFromMarkdown(response string) string {
	const marker = "```"

	startIdx := strings.Index(response, marker)
	if startIdx == -1 {
		startIdx = strings.Index(response, "{")
		if startIdx == -1 {
			return response
		}
		endIdx := strings.LastIndex(response, "}")
		if endIdx == -1 {
			return response
		}
		return strings.TrimSpace(response[startIdx : endIdx+1])
	}

	endIdx := strings.Index(response[startIdx+len(marker):], marker)
	if endIdx == -1 {
		return response
	}
	endIdx += startIdx + len(marker)

	content := response[startIdx+len(marker) : endIdx]

	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) > 0 && (strings.TrimSpace(lines[0]) == "json" || strings.TrimSpace(lines[0]) == "") {
		content = strings.Join(lines[1:], "\n")
	}

	return strings.TrimSpace(content)
}

// decodeResult cleans and unmarshals a generation response into T.
func decodeResult[T any](raw json.RawMessage) (*T, error) {
	cleaned := extractJSONFromMarkdown(strings.TrimSpace(string(raw)))

	var result T
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, fmt.Errorf("decoding generation response: %w", err)
	}
	return &result, nil
}
