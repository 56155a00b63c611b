package gemini

import (
	"encoding/json"
	"fmt"

	"github.com/neonpi/anton/pkg/core/types"
)

// geminiResponse is the Gemini API response format.
type geminiResponse struct {
	Candidates    []geminiCandidate `json:"candidates"`
	UsageMetadata *geminiUsage      `json:"usageMetadata,omitempty"`
	ModelVersion  string            `json:"modelVersion,omitempty"`
}

// geminiCandidate represents a single candidate response.
type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
	Index        int           `json:"index"`
}

// geminiUsage contains token usage information.
type geminiUsage struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// parseResponse parses a Gemini response into a completion response.
func (c *Client) parseResponse(body []byte) (*types.CompletionResponse, error) {
	var geminiResp geminiResponse
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	if len(geminiResp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates in response")
	}

	candidate := geminiResp.Candidates[0]

	content := parseContentParts(candidate.Content.Parts)

	// Gemini reports STOP even when the model called a function, so
	// detect tool use by content.
	stopReason := mapFinishReason(candidate.FinishReason)
	if stopReason == types.StopReasonEndTurn && hasFunctionCalls(content) {
		stopReason = types.StopReasonToolUse
	}

	usage := types.Usage{}
	if geminiResp.UsageMetadata != nil {
		usage.InputTokens = geminiResp.UsageMetadata.PromptTokenCount
		usage.OutputTokens = geminiResp.UsageMetadata.CandidatesTokenCount
		usage.TotalTokens = geminiResp.UsageMetadata.TotalTokenCount
	}

	return &types.CompletionResponse{
		Content:    content,
		StopReason: stopReason,
		Usage:      usage,
	}, nil
}

// parseContentParts converts Gemini parts to content blocks.
func parseContentParts(parts []geminiPart) []types.ContentBlock {
	content := make([]types.ContentBlock, 0, len(parts))

	for _, part := range parts {
		if part.Text != "" {
			content = append(content, types.TextBlock{
				Type: "text",
				Text: part.Text,
			})
		}

		if part.FunctionCall != nil {
			input := part.FunctionCall.Args
			if input == nil {
				input = make(map[string]any)
			}

			content = append(content, types.ToolUseBlock{
				Type: "tool_use",
				// Gemini doesn't provide call IDs.
				ID:    fmt.Sprintf("call_%s", part.FunctionCall.Name),
				Name:  part.FunctionCall.Name,
				Input: input,
			})
		}
	}

	return content
}

// hasFunctionCalls checks if content contains any tool use blocks.
func hasFunctionCalls(content []types.ContentBlock) bool {
	for _, block := range content {
		if _, ok := block.(types.ToolUseBlock); ok {
			return true
		}
	}
	return false
}

// mapFinishReason converts a Gemini finish reason to a stop reason.
func mapFinishReason(reason string) types.StopReason {
	switch reason {
	case "STOP":
		return types.StopReasonEndTurn
	case "MAX_TOKENS":
		return types.StopReasonMaxTokens
	case "SAFETY":
		return types.StopReasonEndTurn
	case "RECITATION":
		return types.StopReasonEndTurn
	case "TOOL_USE", "FUNCTION_CALL":
		return types.StopReasonToolUse
	default:
		return types.StopReasonEndTurn
	}
}
