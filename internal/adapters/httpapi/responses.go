package httpapi

import (
	"fmt"
	"time"

	"github.com/nap-labs/napguard/internal/state"
)

// ActionResponse is the reply to a state-changing request.
type ActionResponse struct {
	Status  string         `json:"status"`
	Message string         `json:"message"`
	States  state.Snapshot `json:"states"`
}

func activeResponse(message string, snap state.Snapshot) ActionResponse {
	return ActionResponse{Status: "active", Message: message, States: snap}
}

func inactiveResponse(message string, snap state.Snapshot) ActionResponse {
	return ActionResponse{Status: "inactive", Message: message, States: snap}
}

func errorResponse(message string, snap state.Snapshot) ActionResponse {
	return ActionResponse{Status: "error", Message: message, States: snap}
}

// StatusResponse is the reply to GET /status.
type StatusResponse struct {
	States                state.Snapshot `json:"states"`
	TimerActive           bool           `json:"timer_active"`
	TimerRemainingSeconds *uint64        `json:"timer_remaining_seconds,omitempty"`
	Uptime                string         `json:"uptime"`
	LastAction            string         `json:"last_action,omitempty"`
	LastActionTime        *time.Time     `json:"last_action_time,omitempty"`
}

// HealthResponse is the reply to GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// formatUptime renders a duration as "1h 2m 3s", dropping leading zero
// units.
func formatUptime(d time.Duration) string {
	secs := int64(d.Seconds())
	hours := secs / 3600
	minutes := (secs % 3600) / 60
	seconds := secs % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
