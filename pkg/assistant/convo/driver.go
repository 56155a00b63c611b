// Package convo runs the tool-calling dialogue loop between the user,
// the model and the tool registry.
package convo

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/neonpi/anton/pkg/core/types"
)

// FallbackReply is spoken whenever the model cannot produce an answer:
// backend failure, empty completion, or a tool loop that never settles.
const FallbackReply = "I'm sorry, I had trouble processing that. Could you try again?"

// DefaultMaxToolRounds bounds how many model/tool round trips one user
// turn may take.
const DefaultMaxToolRounds = 5

// Backend produces model completions.
type Backend interface {
	Generate(ctx context.Context, req *types.CompletionRequest) (*types.CompletionResponse, error)
}

// Dispatcher executes tool calls and declares the available tools.
type Dispatcher interface {
	Definitions() []types.Tool
	Dispatch(ctx context.Context, name string, args map[string]any) string
}

// Driver holds one conversation and answers user turns. It is safe for
// concurrent use; turns are serialized.
type Driver struct {
	logger     *slog.Logger
	backend    Backend
	dispatcher Dispatcher
	system     string
	maxRounds  int

	mu      sync.Mutex
	history []types.Message
}

// New builds a driver. maxRounds <= 0 selects DefaultMaxToolRounds.
func New(logger *slog.Logger, backend Backend, dispatcher Dispatcher, systemPrompt string, maxRounds int) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	if maxRounds <= 0 {
		maxRounds = DefaultMaxToolRounds
	}
	return &Driver{
		logger:     logger,
		backend:    backend,
		dispatcher: dispatcher,
		system:     systemPrompt,
		maxRounds:  maxRounds,
	}
}

// Respond processes one user utterance and returns the assistant's
// spoken reply. It always returns something speakable, falling back to
// FallbackReply on any failure.
func (d *Driver) Respond(ctx context.Context, userText string) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.history = append(d.history, types.UserText(userText))

	var interim strings.Builder
	for round := 0; round < d.maxRounds; round++ {
		resp, err := d.backend.Generate(ctx, &types.CompletionRequest{
			System:   d.system,
			Messages: d.history,
			Tools:    d.dispatcher.Definitions(),
		})
		if err != nil {
			d.logger.Error("completion failed", "round", round, "error", err)
			return FallbackReply
		}

		d.history = append(d.history, types.Message{
			Role:    types.RoleAssistant,
			Content: resp.Content,
		})

		uses := resp.ToolUses()
		if len(uses) == 0 {
			// The reply is the final completion's text alone; any
			// preamble from earlier rounds is not spoken.
			reply := strings.TrimSpace(resp.TextContent())
			if reply == "" {
				d.logger.Warn("conversation produced no speakable text")
				return FallbackReply
			}
			return reply
		}
		interim.WriteString(resp.TextContent())

		results := make([]types.ContentBlock, 0, len(uses))
		for _, use := range uses {
			out := d.dispatcher.Dispatch(ctx, use.Name, use.Input)
			d.logger.Debug("tool result", "tool", use.Name, "result", out)
			results = append(results, types.ToolResultBlock{
				Type:      "tool_result",
				ToolUseID: use.ID,
				Name:      use.Name,
				Content:   types.TextResult(out),
			})
		}
		d.history = append(d.history, types.Message{
			Role:    types.RoleTool,
			Content: results,
		})
	}

	// Round cap exhausted. Speak whatever text the model produced
	// alongside its tool calls rather than nothing at all.
	reply := strings.TrimSpace(interim.String())
	if reply == "" {
		d.logger.Warn("tool loop never settled", "rounds", d.maxRounds)
		return FallbackReply
	}
	return reply
}

// Reset clears the conversation history. The next turn starts fresh.
func (d *Driver) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.history = nil
}

// HistoryLen reports how many turns the conversation holds.
func (d *Driver) HistoryLen() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.history)
}
