package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestTextBlock_MarshalJSON(t *testing.T) {
	block := TextBlock{Type: "text", Text: "Hello, world!"}
	data, err := json.Marshal(block)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	expected := `{"type":"text","text":"Hello, world!"}`
	if string(data) != expected {
		t.Errorf("JSON mismatch: got %s, want %s", string(data), expected)
	}
}

func TestToolUseBlock_MarshalJSON(t *testing.T) {
	block := ToolUseBlock{
		Type:  "tool_use",
		ID:    "call_get_weather",
		Name:  "get_weather",
		Input: map[string]any{"location": "Toronto"},
	}
	data, err := json.Marshal(block)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	var unmarshaled ToolUseBlock
	if err := json.Unmarshal(data, &unmarshaled); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}

	if unmarshaled.ID != "call_get_weather" {
		t.Errorf("ID mismatch: got %q, want %q", unmarshaled.ID, "call_get_weather")
	}
	if unmarshaled.Name != "get_weather" {
		t.Errorf("Name mismatch: got %q, want %q", unmarshaled.Name, "get_weather")
	}
	if unmarshaled.Input["location"] != "Toronto" {
		t.Errorf("Input mismatch: got %v", unmarshaled.Input)
	}
}

func TestToolResultBlock_MarshalJSON(t *testing.T) {
	block := ToolResultBlock{
		Type:      "tool_result",
		ToolUseID: "call_get_weather",
		Name:      "get_weather",
		Content:   TextResult("Weather in Toronto: 72°F"),
	}
	data, err := json.Marshal(block)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("Failed to unmarshal as map: %v", err)
	}

	if m["type"] != "tool_result" {
		t.Errorf("Type mismatch: got %v", m["type"])
	}
	if m["tool_use_id"] != "call_get_weather" {
		t.Errorf("ToolUseID mismatch: got %v", m["tool_use_id"])
	}
	if m["name"] != "get_weather" {
		t.Errorf("Name mismatch: got %v", m["name"])
	}
	if _, ok := m["is_error"]; ok {
		t.Errorf("is_error should be omitted when false")
	}
}

func TestToolResultBlock_WithError(t *testing.T) {
	block := ToolResultBlock{
		Type:      "tool_result",
		ToolUseID: "call_spotify_play",
		Name:      "spotify_play",
		Content:   TextResult("Error executing tool: no active device"),
		IsError:   true,
	}
	data, err := json.Marshal(block)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("Failed to unmarshal as map: %v", err)
	}

	if m["is_error"] != true {
		t.Errorf("is_error should be true, got %v", m["is_error"])
	}
}

func TestTextResult(t *testing.T) {
	blocks := TextResult("Paused")
	if len(blocks) != 1 {
		t.Fatalf("Expected 1 block, got %d", len(blocks))
	}
	tb, ok := blocks[0].(TextBlock)
	if !ok {
		t.Fatalf("expected TextBlock, got %T", blocks[0])
	}
	if tb.Text != "Paused" {
		t.Errorf("Text mismatch: got %q", tb.Text)
	}
}

func TestUnmarshalContentBlock(t *testing.T) {
	tests := []struct {
		name     string
		json     string
		wantType string
	}{
		{
			name:     "text block",
			json:     `{"type":"text","text":"Hello"}`,
			wantType: "text",
		},
		{
			name:     "tool use block",
			json:     `{"type":"tool_use","id":"call_test","name":"test","input":{}}`,
			wantType: "tool_use",
		},
		{
			name:     "tool result block",
			json:     `{"type":"tool_result","tool_use_id":"call_test","name":"test","content":[{"type":"text","text":"ok"}]}`,
			wantType: "tool_result",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block, err := UnmarshalContentBlock([]byte(tt.json))
			if err != nil {
				t.Fatalf("Failed to unmarshal: %v", err)
			}
			if block.BlockType() != tt.wantType {
				t.Errorf("Type mismatch: got %q, want %q", block.BlockType(), tt.wantType)
			}
		})
	}
}

func TestUnmarshalContentBlock_Unknown(t *testing.T) {
	_, err := UnmarshalContentBlock([]byte(`{"type":"hologram","data":1}`))
	if err == nil {
		t.Fatal("expected error for unknown block type")
	}
	if !strings.Contains(err.Error(), "hologram") {
		t.Errorf("error should name the unknown type, got %v", err)
	}
}

func TestUnmarshalContentBlocks(t *testing.T) {
	json := `[
		{"type":"text","text":"Hello"},
		{"type":"tool_use","id":"call_test","name":"test","input":{}}
	]`

	blocks, err := UnmarshalContentBlocks([]byte(json))
	if err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}

	if len(blocks) != 2 {
		t.Fatalf("Expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].BlockType() != "text" {
		t.Errorf("First block type mismatch: got %q", blocks[0].BlockType())
	}
	if blocks[1].BlockType() != "tool_use" {
		t.Errorf("Second block type mismatch: got %q", blocks[1].BlockType())
	}
}

func TestToolResultBlock_NestedRoundTrip(t *testing.T) {
	original := ToolResultBlock{
		Type:      "tool_result",
		ToolUseID: "call_get_current_time",
		Name:      "get_current_time",
		Content:   TextResult("It's 03:04 PM on Monday, January 02, 2006"),
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	block, err := UnmarshalContentBlock(data)
	if err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	tr, ok := block.(ToolResultBlock)
	if !ok {
		t.Fatalf("expected ToolResultBlock, got %T", block)
	}
	if tr.Name != "get_current_time" {
		t.Errorf("Name mismatch: got %q", tr.Name)
	}
	if len(tr.Content) != 1 {
		t.Fatalf("expected 1 nested block, got %d", len(tr.Content))
	}
	if tr.Content[0].BlockType() != "text" {
		t.Errorf("nested type mismatch: got %q", tr.Content[0].BlockType())
	}
}

func TestContentBlock_Interface(t *testing.T) {
	// Verify all types implement ContentBlock
	var _ ContentBlock = TextBlock{}
	var _ ContentBlock = ToolUseBlock{}
	var _ ContentBlock = ToolResultBlock{}
}
