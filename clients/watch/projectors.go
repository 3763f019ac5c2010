package watch

import (
	"encoding/json"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dohr-michael/reflex/internal/events"
	ws "github.com/dohr-michael/reflex/internal/gateway/ws"
)

// Project converts a gateway WS frame into a typed tea.Msg.
// Returns nil for frames that don't map to a dashboard message.
func Project(frame ws.Frame) tea.Msg {
	if frame.Event == "" {
		return nil
	}

	var evt events.Event
	if err := json.Unmarshal(frame.Payload, &evt); err != nil {
		return nil
	}

	switch events.EventType(frame.Event) {
	case events.EventModeActivated:
		p, ok := events.GetModeActivatedPayload(evt)
		if !ok {
			return nil
		}
		return ModeActivatedMsg{Mode: p.Mode, Trigger: p.Trigger}

	case events.EventModeCompleted:
		p, ok := events.GetModeCompletedPayload(evt)
		if !ok {
			return nil
		}
		return ModeCompletedMsg{
			Mode:     p.Mode,
			Status:   p.Status,
			Message:  p.Message,
			Duration: p.Duration,
		}

	case events.EventModeEnabled:
		p, ok := events.ExtractPayload[events.ModeEnabledPayload](evt)
		if !ok {
			return nil
		}
		return ModeEnabledMsg{Mode: p.Mode}

	case events.EventModeDisabled:
		p, ok := events.ExtractPayload[events.ModeDisabledPayload](evt)
		if !ok {
			return nil
		}
		return ModeDisabledMsg{Mode: p.Mode}

	case events.EventModePaused:
		p, ok := events.GetModePausedPayload(evt)
		if !ok {
			return nil
		}
		return ModePausedMsg{Mode: p.Mode}

	case events.EventModeUnpaused:
		p, ok := events.GetModeUnpausedPayload(evt)
		if !ok {
			return nil
		}
		return ModeUnpausedMsg{Mode: p.Mode}

	case events.EventTaskStarted:
		p, ok := events.GetTaskStartedPayload(evt)
		if !ok {
			return nil
		}
		return TaskStartedMsg{Name: p.Name, Duration: p.Duration}

	case events.EventTaskFinished:
		p, ok := events.ExtractPayload[events.TaskFinishedPayload](evt)
		if !ok {
			return nil
		}
		return TaskFinishedMsg{Name: p.Name}

	default:
		return nil
	}
}
