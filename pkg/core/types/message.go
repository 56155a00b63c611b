package types

import (
	"encoding/json"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message represents a single turn in a conversation.
type Message struct {
	Role    string `json:"role"`    // "user", "assistant" or "tool"
	Content any    `json:"content"` // string or []ContentBlock
}

// UserText builds a plain-text user turn.
func UserText(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// MarshalJSON handles the flexible Content field.
// - string -> "string"
// - ContentBlock -> [ContentBlock]
// - []ContentBlock -> [ContentBlock...]
func (m Message) MarshalJSON() ([]byte, error) {
	type rawMessage struct {
		Role    string `json:"role"`
		Content any    `json:"content"`
	}

	var content any

	switch c := m.Content.(type) {
	case string:
		content = c
	case ContentBlock:
		content = []ContentBlock{c}
	case []ContentBlock:
		content = c
	default:
		content = m.Content
	}

	return json.Marshal(rawMessage{
		Role:    m.Role,
		Content: content,
	})
}

// UnmarshalJSON handles flexible Content parsing.
func (m *Message) UnmarshalJSON(data []byte) error {
	type rawMessage struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	}

	var raw rawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	m.Role = raw.Role

	var str string
	if err := json.Unmarshal(raw.Content, &str); err == nil {
		m.Content = str
		return nil
	}

	blocks, err := UnmarshalContentBlocks(raw.Content)
	if err != nil {
		return err
	}
	m.Content = blocks
	return nil
}

// ContentBlocks returns Content as []ContentBlock regardless of input type.
func (m *Message) ContentBlocks() []ContentBlock {
	switch c := m.Content.(type) {
	case string:
		return []ContentBlock{TextBlock{Type: "text", Text: c}}
	case ContentBlock:
		return []ContentBlock{c}
	case []ContentBlock:
		return c
	default:
		return nil
	}
}

// TextContent returns the text of the message if it is a simple string,
// or concatenates all text blocks if it is an array.
func (m *Message) TextContent() string {
	switch c := m.Content.(type) {
	case string:
		return c
	case ContentBlock:
		if tb, ok := c.(TextBlock); ok {
			return tb.Text
		}
		return ""
	case []ContentBlock:
		var text string
		for _, block := range c {
			if tb, ok := block.(TextBlock); ok {
				text += tb.Text
			}
		}
		return text
	default:
		return ""
	}
}

// ToolUses returns all tool calls carried by the message.
func (m *Message) ToolUses() []ToolUseBlock {
	var uses []ToolUseBlock
	for _, block := range m.ContentBlocks() {
		if tu, ok := block.(ToolUseBlock); ok {
			uses = append(uses, tu)
		}
	}
	return uses
}
