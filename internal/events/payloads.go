package events

import (
	"encoding/json"
	"time"
)

// EventPayload is the interface all typed payloads implement.
type EventPayload interface {
	EventType() EventType
}

// =============================================================================
// MODE EVENTS
// =============================================================================

// ModeActivatedPayload is published when a mode's action is dispatched.
type ModeActivatedPayload struct {
	Mode     string `json:"mode"`
	ActionID string `json:"action_id"`
	Trigger  string `json:"trigger,omitempty"`
}

func (ModeActivatedPayload) EventType() EventType { return EventModeActivated }

// ModeCompletedPayload is published when a mode's action settles.
type ModeCompletedPayload struct {
	Mode     string        `json:"mode"`
	ActionID string        `json:"action_id"`
	Status   string        `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration"`
}

func (ModeCompletedPayload) EventType() EventType { return EventModeCompleted }

type ModeEnabledPayload struct {
	Mode string `json:"mode"`
}

func (ModeEnabledPayload) EventType() EventType { return EventModeEnabled }

type ModeDisabledPayload struct {
	Mode string `json:"mode"`
}

func (ModeDisabledPayload) EventType() EventType { return EventModeDisabled }

type ModePausedPayload struct {
	Mode string `json:"mode"`
}

func (ModePausedPayload) EventType() EventType { return EventModePaused }

type ModeUnpausedPayload struct {
	Mode string `json:"mode"`
}

func (ModeUnpausedPayload) EventType() EventType { return EventModeUnpaused }

// =============================================================================
// WORLD TASK EVENTS
// =============================================================================

// TaskStartedPayload marks the agent being claimed by an external task.
type TaskStartedPayload struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration,omitempty"`
}

func (TaskStartedPayload) EventType() EventType { return EventTaskStarted }

type TaskFinishedPayload struct {
	Name string `json:"name"`
}

func (TaskFinishedPayload) EventType() EventType { return EventTaskFinished }

// =============================================================================
// CONTROLLER EVENTS
// =============================================================================

type ControllerStartedPayload struct {
	Modes    int           `json:"modes"`
	Interval time.Duration `json:"interval"`
}

func (ControllerStartedPayload) EventType() EventType { return EventControllerStarted }

type ControllerStoppedPayload struct {
	Ticks uint64 `json:"ticks"`
}

func (ControllerStoppedPayload) EventType() EventType { return EventControllerStopped }

// =============================================================================
// TYPED EVENT CONSTRUCTORS
// =============================================================================

func NewTypedEvent(source EventSource, payload EventPayload) Event {
	return Event{
		ID:        generateEventID(),
		Type:      payload.EventType(),
		Timestamp: time.Now(),
		Source:    source,
		Payload:   toMap(payload),
	}
}

func toMap(v any) map[string]any {
	var result map[string]any
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil
	}
	return result
}

// =============================================================================
// TYPED PAYLOAD EXTRACTORS
// =============================================================================

func ExtractPayload[T EventPayload](e Event) (T, bool) {
	var result T
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return result, false
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, false
	}
	return result, true
}

func GetModeActivatedPayload(e Event) (ModeActivatedPayload, bool) {
	return ExtractPayload[ModeActivatedPayload](e)
}

func GetModeCompletedPayload(e Event) (ModeCompletedPayload, bool) {
	return ExtractPayload[ModeCompletedPayload](e)
}

func GetModePausedPayload(e Event) (ModePausedPayload, bool) {
	return ExtractPayload[ModePausedPayload](e)
}

func GetModeUnpausedPayload(e Event) (ModeUnpausedPayload, bool) {
	return ExtractPayload[ModeUnpausedPayload](e)
}

func GetTaskStartedPayload(e Event) (TaskStartedPayload, bool) {
	return ExtractPayload[TaskStartedPayload](e)
}
