package behavior

import (
	"errors"
	"strings"
	"testing"
)

func containsLinePrefix(text, prefix string) bool {
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

func TestBuiltinRegistryOrderAndDefaults(t *testing.T) {
	reg, err := BuiltinRegistry(BuiltinConfig{}, &fakeAgent{idle: true})
	if err != nil {
		t.Fatalf("BuiltinRegistry: %v", err)
	}

	wantOrder := []string{
		"self_preservation",
		"unstuck",
		"cowardice",
		"self_defense",
		"hunting",
		"item_collecting",
		"torch_placing",
		"idle_staring",
	}
	wantEnabled := map[string]bool{
		"self_preservation": true,
		"unstuck":           true,
		"cowardice":         false,
		"self_defense":      true,
		"hunting":           false,
		"item_collecting":   true,
		"torch_placing":     true,
		"idle_staring":      true,
	}

	modes := reg.Modes()
	if len(modes) != len(wantOrder) {
		t.Fatalf("mode count: got %d, want %d", len(modes), len(wantOrder))
	}
	for i, m := range modes {
		if m.Name() != wantOrder[i] {
			t.Errorf("priority %d: got %q, want %q", i, m.Name(), wantOrder[i])
		}
		if m.Enabled() != wantEnabled[m.Name()] {
			t.Errorf("%s enabled: got %v, want %v", m.Name(), m.Enabled(), wantEnabled[m.Name()])
		}
		if m.Paused() || m.Active() {
			t.Errorf("%s should start neither paused nor active", m.Name())
		}
	}
}

func TestBuiltinRegistryEnabledOverrides(t *testing.T) {
	reg, err := BuiltinRegistry(BuiltinConfig{
		Enabled: map[string]bool{
			"hunting":       true,
			"torch_placing": false,
		},
	}, &fakeAgent{})
	if err != nil {
		t.Fatalf("BuiltinRegistry: %v", err)
	}

	hunting, err := reg.Get("hunting")
	if err != nil {
		t.Fatalf("Get(hunting): %v", err)
	}
	if !hunting.Enabled() {
		t.Error("hunting override to enabled not applied")
	}
	torch, err := reg.Get("torch_placing")
	if err != nil {
		t.Fatalf("Get(torch_placing): %v", err)
	}
	if torch.Enabled() {
		t.Error("torch_placing override to disabled not applied")
	}
}

func TestBuiltinRegistryRejectsUnknownOverride(t *testing.T) {
	_, err := BuiltinRegistry(BuiltinConfig{
		Enabled: map[string]bool{"warp_drive": true},
	}, &fakeAgent{})
	if !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
}

func TestBuiltinRegistryRejectsBadPattern(t *testing.T) {
	_, err := BuiltinRegistry(BuiltinConfig{
		SelfDefense: SelfDefenseConfig{Patterns: []string{"[unclosed"}},
	}, &fakeAgent{})
	if err == nil {
		t.Fatal("expected error for an invalid kind pattern")
	}
}

func TestBuiltinRegistryDescribeAll(t *testing.T) {
	reg, err := BuiltinRegistry(BuiltinConfig{}, &fakeAgent{})
	if err != nil {
		t.Fatalf("BuiltinRegistry: %v", err)
	}
	text := reg.DescribeAll()
	for _, want := range []string{
		"self_preservation (on): ",
		"cowardice (off): ",
		"hunting (off): ",
		"idle_staring (on): ",
	} {
		if !containsLinePrefix(text, want) {
			t.Errorf("DescribeAll missing %q:\n%s", want, text)
		}
	}
}
