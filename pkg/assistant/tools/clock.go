package tools

import (
	"context"
	"time"

	"github.com/neonpi/anton/pkg/core/types"
)

const timeSpokenFormat = "It's 03:04 PM on Monday, January 02, 2006"

// ClockExecutor answers get_current_time. An unknown timezone falls
// back to local time rather than failing.
type ClockExecutor struct {
	defaultZone string
	now         func() time.Time
}

// NewClockExecutor builds the time tool. now may be nil (wall clock).
func NewClockExecutor(defaultZone string, now func() time.Time) *ClockExecutor {
	if now == nil {
		now = time.Now
	}
	return &ClockExecutor{defaultZone: defaultZone, now: now}
}

func (e *ClockExecutor) Name() string { return "get_current_time" }

func (e *ClockExecutor) Definition() types.Tool {
	return types.NewTool("get_current_time", "Get the current date and time",
		&types.JSONSchema{
			Type: "object",
			Properties: map[string]types.JSONSchema{
				"timezone": {Type: "string", Description: "Timezone like 'America/New_York' (optional)"},
			},
		})
}

func (e *ClockExecutor) Execute(_ context.Context, args map[string]any) string {
	zone := stringArg(args, "timezone", e.defaultZone)

	now := e.now()
	if loc, err := time.LoadLocation(zone); err == nil {
		now = now.In(loc)
	}
	return now.Format(timeSpokenFormat)
}
