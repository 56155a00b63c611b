// Package tools executes the function calls produced by the model.
// Every executor and the registry itself return speakable strings and
// never propagate errors upward; this boundary is where tool failures
// stop.
package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/neonpi/anton/pkg/core/types"
)

// Executor runs one logical tool.
type Executor interface {
	Name() string
	Definition() types.Tool
	Execute(ctx context.Context, args map[string]any) string
}

// legacyAliases maps alternate tool names the model may emit to their
// canonical executors. Resolution is case-sensitive and exact.
var legacyAliases = map[string]string{
	"play_music":     "spotify_play",
	"pause_music":    "spotify_pause",
	"resume_music":   "spotify_resume",
	"skip_track":     "spotify_skip",
	"previous_track": "spotify_previous",
	"set_volume":     "spotify_volume",
	"now_playing":    "spotify_now_playing",
}

// undeclaredTools are dispatchable but not advertised to the model.
var undeclaredTools = map[string]struct{}{
	"search_music": {},
}

// Registry resolves tool names (including aliases) to executors and
// guards dispatch against panics.
type Registry struct {
	logger    *slog.Logger
	byName    map[string]Executor
	canonical []Executor
}

// NewRegistry builds a registry over the given executors. The legacy
// alias table is resolved once here, not per call.
func NewRegistry(logger *slog.Logger, executors ...Executor) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		logger: logger,
		byName: make(map[string]Executor, len(executors)+len(legacyAliases)),
	}
	for _, ex := range executors {
		if ex == nil {
			continue
		}
		r.byName[ex.Name()] = ex
		r.canonical = append(r.canonical, ex)
	}
	for alias, canonical := range legacyAliases {
		if ex, ok := r.byName[canonical]; ok {
			r.byName[alias] = ex
		}
	}
	return r
}

// Definitions returns the tool declarations to advertise to the model.
// Aliases and hidden tools are not declared.
func (r *Registry) Definitions() []types.Tool {
	defs := make([]types.Tool, 0, len(r.canonical))
	for _, ex := range r.canonical {
		if _, hidden := undeclaredTools[ex.Name()]; hidden {
			continue
		}
		defs = append(defs, ex.Definition())
	}
	return defs
}

// Dispatch executes the named tool and returns a speakable result.
// Unknown names, errors and panics all come back as strings; the
// result is never empty and this method never panics.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]any) (result string) {
	defer func() {
		if v := recover(); v != nil {
			r.logger.Error("tool panicked", "tool", name, "panic", v)
			result = fmt.Sprintf("Error executing tool: %v", v)
		}
	}()

	ex, ok := r.byName[name]
	if !ok {
		return fmt.Sprintf("Unknown tool: %s", name)
	}

	r.logger.Debug("executing tool", "tool", name, "args", args)
	out := ex.Execute(ctx, args)
	if strings.TrimSpace(out) == "" {
		return fmt.Sprintf("Error executing tool: %s returned no result", name)
	}
	return out
}

// stringArg extracts a string argument with a default.
func stringArg(args map[string]any, key, def string) string {
	v, ok := args[key]
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// intArg extracts an integer argument with a default. JSON-decoded
// numbers arrive as float64.
func intArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	default:
		return def
	}
}
