package watch

import (
	"time"

	"github.com/dohr-michael/reflex/clients/api"
	"github.com/dohr-michael/reflex/internal/behavior"
)

// ModeActivatedMsg signals that a mode's action was dispatched.
type ModeActivatedMsg struct {
	Mode    string
	Trigger string
}

// ModeCompletedMsg signals that a mode's action settled.
type ModeCompletedMsg struct {
	Mode     string
	Status   string
	Message  string
	Duration time.Duration
}

// ModeEnabledMsg signals that a mode was enabled.
type ModeEnabledMsg struct {
	Mode string
}

// ModeDisabledMsg signals that a mode was disabled.
type ModeDisabledMsg struct {
	Mode string
}

// ModePausedMsg signals that a mode was paused.
type ModePausedMsg struct {
	Mode string
}

// ModeUnpausedMsg signals that a paused mode resumed.
type ModeUnpausedMsg struct {
	Mode string
}

// TaskStartedMsg signals the agent being claimed by an external task.
type TaskStartedMsg struct {
	Name     string
	Duration time.Duration
}

// TaskFinishedMsg signals the end of an external task.
type TaskFinishedMsg struct {
	Name string
}

// ConnectedMsg signals a successful WS connection.
type ConnectedMsg struct{}

// DisconnectedMsg signals a lost WS connection.
type DisconnectedMsg struct {
	Err error
}

// snapshotMsg carries a fresh health and mode snapshot from the REST API.
type snapshotMsg struct {
	health api.Health
	modes  []behavior.ModeStatus
}

// snapshotErrMsg carries a failed snapshot refresh.
type snapshotErrMsg struct {
	err error
}

// refreshTickMsg schedules the next snapshot refresh.
type refreshTickMsg struct{}
