package gemini

import (
	"encoding/json"
	"strings"

	"github.com/neonpi/anton/pkg/core/types"
)

// geminiRequest is the Gemini API request format.
// Note: Gemini API uses camelCase for JSON field names.
type geminiRequest struct {
	Contents          []geminiContent  `json:"contents"`
	SystemInstruction *geminiContent   `json:"systemInstruction,omitempty"`
	Tools             []geminiTool     `json:"tools,omitempty"`
	GenerationConfig  *geminiGenConfig `json:"generationConfig,omitempty"`
}

// geminiContent represents a content object in Gemini format.
type geminiContent struct {
	Role  string       `json:"role,omitempty"` // "user", "model", "function"
	Parts []geminiPart `json:"parts"`
}

// geminiPart represents a single part within content.
type geminiPart struct {
	Text             string                  `json:"text,omitempty"`
	FunctionCall     *geminiFunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *geminiFunctionResponse `json:"functionResponse,omitempty"`
}

// geminiFunctionCall represents a function call from the model.
type geminiFunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// geminiFunctionResponse represents a function response.
type geminiFunctionResponse struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

// geminiTool represents a tool definition.
type geminiTool struct {
	FunctionDeclarations []geminiFunctionDecl `json:"functionDeclarations,omitempty"`
}

// geminiFunctionDecl represents a function declaration.
type geminiFunctionDecl struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// geminiGenConfig contains generation configuration.
type geminiGenConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens *int     `json:"maxOutputTokens,omitempty"`
}

// buildRequest converts a completion request to a Gemini request.
func (c *Client) buildRequest(req *types.CompletionRequest) *geminiRequest {
	geminiReq := &geminiRequest{}

	if req.System != "" {
		geminiReq.SystemInstruction = &geminiContent{
			Parts: []geminiPart{{Text: req.System}},
		}
	}

	geminiReq.Contents = c.translateMessages(req.Messages)

	if len(req.Tools) > 0 {
		geminiReq.Tools = c.translateTools(req.Tools)
	}

	geminiReq.GenerationConfig = c.buildGenerationConfig(req)

	return geminiReq
}

// translateMessages converts messages to Gemini contents.
func (c *Client) translateMessages(messages []types.Message) []geminiContent {
	contents := make([]geminiContent, 0, len(messages))

	for _, msg := range messages {
		blocks := msg.ContentBlocks()

		// In Gemini, tool results have role "function", one content
		// per result.
		hasToolResults := false
		for _, block := range blocks {
			if _, ok := block.(types.ToolResultBlock); ok {
				hasToolResults = true
				break
			}
		}

		if hasToolResults {
			for _, block := range blocks {
				if tr, ok := block.(types.ToolResultBlock); ok {
					contents = append(contents, geminiContent{
						Role: "function",
						Parts: []geminiPart{{
							FunctionResponse: &geminiFunctionResponse{
								Name:     tr.Name,
								Response: toolResultToMap(tr.Content),
							},
						}},
					})
				}
			}
			continue
		}

		role := msg.Role
		if role == types.RoleAssistant {
			role = "model"
		}

		contents = append(contents, geminiContent{
			Role:  role,
			Parts: c.translateContentBlocks(blocks),
		})
	}

	return contents
}

// translateContentBlocks converts content blocks to Gemini parts.
func (c *Client) translateContentBlocks(blocks []types.ContentBlock) []geminiPart {
	parts := make([]geminiPart, 0, len(blocks))

	for _, block := range blocks {
		switch b := block.(type) {
		case types.TextBlock:
			parts = append(parts, geminiPart{Text: b.Text})

		case types.ToolUseBlock:
			parts = append(parts, geminiPart{
				FunctionCall: &geminiFunctionCall{
					Name: b.Name,
					Args: b.Input,
				},
			})

		case types.ToolResultBlock:
			// Handled with role "function" in translateMessages.
			continue
		}
	}

	return parts
}

// translateTools converts tool declarations to Gemini format.
func (c *Client) translateTools(tools []types.Tool) []geminiTool {
	funcDecls := make([]geminiFunctionDecl, 0, len(tools))

	for _, tool := range tools {
		schemaBytes, _ := json.Marshal(tool.InputSchema)
		// Gemini rejects schemas carrying additionalProperties and
		// similar meta fields.
		sanitizedSchema := sanitizeSchemaBytes(schemaBytes)
		funcDecls = append(funcDecls, geminiFunctionDecl{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  sanitizedSchema,
		})
	}

	return []geminiTool{{FunctionDeclarations: funcDecls}}
}

// buildGenerationConfig creates the generation config from the request.
func (c *Client) buildGenerationConfig(req *types.CompletionRequest) *geminiGenConfig {
	config := &geminiGenConfig{
		Temperature: req.Temperature,
	}

	if req.MaxTokens > 0 {
		config.MaxOutputTokens = &req.MaxTokens
	}

	return config
}

// toolResultToMap converts tool result content to a map.
func toolResultToMap(content []types.ContentBlock) map[string]any {
	result := make(map[string]any)

	var text strings.Builder
	for _, block := range content {
		if tb, ok := block.(types.TextBlock); ok {
			text.WriteString(tb.Text)
		}
	}

	if text.Len() > 0 {
		result["result"] = text.String()
	}

	return result
}

// sanitizeSchemaBytes sanitizes a JSON schema in byte form for Gemini.
// Removes fields not supported by Gemini: additionalProperties, $schema,
// $id, $ref, definitions.
func sanitizeSchemaBytes(schemaBytes []byte) json.RawMessage {
	if len(schemaBytes) == 0 {
		return nil
	}

	var schemaMap map[string]any
	if err := json.Unmarshal(schemaBytes, &schemaMap); err != nil {
		return schemaBytes
	}

	sanitizeSchemaMap(schemaMap)

	sanitized, err := json.Marshal(schemaMap)
	if err != nil {
		return schemaBytes
	}
	return sanitized
}

// sanitizeSchemaMap recursively removes unsupported JSON Schema fields.
func sanitizeSchemaMap(schema map[string]any) {
	delete(schema, "additionalProperties")
	delete(schema, "$schema")
	delete(schema, "$id")
	delete(schema, "$ref")
	delete(schema, "definitions")
	delete(schema, "$defs")

	if props, ok := schema["properties"].(map[string]any); ok {
		for _, v := range props {
			if propSchema, ok := v.(map[string]any); ok {
				sanitizeSchemaMap(propSchema)
			}
		}
	}

	if items, ok := schema["items"].(map[string]any); ok {
		sanitizeSchemaMap(items)
	}

	for _, key := range []string{"anyOf", "oneOf", "allOf"} {
		if arr, ok := schema[key].([]any); ok {
			for _, item := range arr {
				if itemSchema, ok := item.(map[string]any); ok {
					sanitizeSchemaMap(itemSchema)
				}
			}
		}
	}
}
