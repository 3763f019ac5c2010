package events

import (
	"testing"
	"time"
)

func TestTypedEvent_ModeActivated(t *testing.T) {
	payload := ModeActivatedPayload{Mode: "self_defense", ActionID: "act_1a2b3c4d", Trigger: "hostile zombie at 4.2m"}
	evt := NewTypedEvent(SourceExecutor, payload)

	if evt.Type != EventModeActivated {
		t.Fatalf("expected type %q, got %q", EventModeActivated, evt.Type)
	}
	got, ok := ExtractPayload[ModeActivatedPayload](evt)
	if !ok {
		t.Fatal("ExtractPayload returned false")
	}
	if got.Mode != "self_defense" {
		t.Fatalf("expected mode %q, got %q", "self_defense", got.Mode)
	}
	if got.Trigger != "hostile zombie at 4.2m" {
		t.Fatalf("expected trigger %q, got %q", "hostile zombie at 4.2m", got.Trigger)
	}
}

func TestTypedEvent_ModeCompleted(t *testing.T) {
	dur := 3 * time.Second
	payload := ModeCompletedPayload{
		Mode:     "item_collecting",
		ActionID: "act_1a2b3c4d",
		Status:   "timeout",
		Message:  "action abandoned after 10s",
		Duration: dur,
	}
	evt := NewTypedEvent(SourceExecutor, payload)

	if evt.Type != EventModeCompleted {
		t.Fatalf("expected type %q, got %q", EventModeCompleted, evt.Type)
	}
	got, ok := ExtractPayload[ModeCompletedPayload](evt)
	if !ok {
		t.Fatal("ExtractPayload returned false")
	}
	if got.Duration != dur {
		t.Fatalf("expected duration %v, got %v", dur, got.Duration)
	}
	if got.Status != "timeout" {
		t.Fatalf("expected status %q, got %q", "timeout", got.Status)
	}
}

func TestTypedEvent_TaskStarted(t *testing.T) {
	payload := TaskStartedPayload{Name: "build_shelter", Duration: 30 * time.Second}
	evt := NewTypedEvent(SourceWorld, payload)

	if evt.Type != EventTaskStarted {
		t.Fatalf("expected type %q, got %q", EventTaskStarted, evt.Type)
	}
	got, ok := ExtractPayload[TaskStartedPayload](evt)
	if !ok {
		t.Fatal("ExtractPayload returned false")
	}
	if got.Name != "build_shelter" {
		t.Fatalf("expected name %q, got %q", "build_shelter", got.Name)
	}
}

func TestExtractPayload_WrongType(t *testing.T) {
	// Create a pause event, try to extract as ModeCompletedPayload
	payload := ModePausedPayload{Mode: "hunting"}
	evt := NewTypedEvent(SourceController, payload)

	got, ok := ExtractPayload[ModeCompletedPayload](evt)
	// Extraction succeeds (JSON round-trip) but fields not shared are zero-valued
	if !ok {
		t.Fatal("ExtractPayload should succeed even for mismatched types (JSON is flexible)")
	}
	if got.ActionID != "" {
		t.Fatalf("expected empty action id for wrong type extraction, got %q", got.ActionID)
	}
	if got.Status != "" {
		t.Fatalf("expected empty status for wrong type extraction, got %q", got.Status)
	}
}
