package types

import (
	"encoding/json"
	"fmt"
)

// ContentBlock is the interface for all content types that can appear
// inside a message: text, tool calls from the model, and tool results
// fed back to it.
type ContentBlock interface {
	BlockType() string
}

// TextBlock represents text content.
type TextBlock struct {
	Type string `json:"type"` // "text"
	Text string `json:"text"`
}

func (t TextBlock) BlockType() string { return "text" }

// ToolUseBlock represents a tool call from the model.
type ToolUseBlock struct {
	Type  string         `json:"type"` // "tool_use"
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

func (t ToolUseBlock) BlockType() string { return "tool_use" }

// ToolResultBlock carries the outcome of a tool call back to the model.
// Name is retained alongside the ID because the model API addresses
// function responses by name.
type ToolResultBlock struct {
	Type      string         `json:"type"` // "tool_result"
	ToolUseID string         `json:"tool_use_id"`
	Name      string         `json:"name"`
	Content   []ContentBlock `json:"content"`
	IsError   bool           `json:"is_error,omitempty"`
}

func (t ToolResultBlock) BlockType() string { return "tool_result" }

// MarshalJSON implements custom JSON marshaling for ToolResultBlock.
func (t ToolResultBlock) MarshalJSON() ([]byte, error) {
	m := map[string]any{
		"type":        t.Type,
		"tool_use_id": t.ToolUseID,
		"name":        t.Name,
	}

	if t.IsError {
		m["is_error"] = true
	}

	if len(t.Content) > 0 {
		contentJSON := make([]json.RawMessage, len(t.Content))
		for i, block := range t.Content {
			b, err := json.Marshal(block)
			if err != nil {
				return nil, err
			}
			contentJSON[i] = b
		}
		m["content"] = contentJSON
	}

	return json.Marshal(m)
}

// TextResult wraps a plain string result as the content of a tool result.
func TextResult(text string) []ContentBlock {
	return []ContentBlock{TextBlock{Type: "text", Text: text}}
}

// UnmarshalContentBlock deserializes a single content block from JSON.
func UnmarshalContentBlock(data []byte) (ContentBlock, error) {
	var typeHolder struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &typeHolder); err != nil {
		return nil, err
	}

	switch typeHolder.Type {
	case "text":
		var block TextBlock
		if err := json.Unmarshal(data, &block); err != nil {
			return nil, err
		}
		return block, nil

	case "tool_use":
		var block ToolUseBlock
		if err := json.Unmarshal(data, &block); err != nil {
			return nil, err
		}
		return block, nil

	case "tool_result":
		var raw struct {
			Type      string            `json:"type"`
			ToolUseID string            `json:"tool_use_id"`
			Name      string            `json:"name"`
			Content   []json.RawMessage `json:"content"`
			IsError   bool              `json:"is_error"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		block := ToolResultBlock{
			Type:      raw.Type,
			ToolUseID: raw.ToolUseID,
			Name:      raw.Name,
			IsError:   raw.IsError,
		}
		for _, c := range raw.Content {
			inner, err := UnmarshalContentBlock(c)
			if err != nil {
				return nil, err
			}
			block.Content = append(block.Content, inner)
		}
		return block, nil

	default:
		return nil, fmt.Errorf("unknown content block type: %q", typeHolder.Type)
	}
}

// UnmarshalContentBlocks deserializes an array of content blocks.
func UnmarshalContentBlocks(data []byte) ([]ContentBlock, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, err
	}

	blocks := make([]ContentBlock, 0, len(raws))
	for _, raw := range raws {
		block, err := UnmarshalContentBlock(raw)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}
