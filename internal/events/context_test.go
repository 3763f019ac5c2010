package events

import (
	"context"
	"testing"
)

func TestActionIDRoundTrip(t *testing.T) {
	ctx := ContextWithActionID(context.Background(), "act_1a2b3c4d")
	got := ActionIDFromContext(ctx)
	if got != "act_1a2b3c4d" {
		t.Errorf("got %q, want %q", got, "act_1a2b3c4d")
	}
}

func TestActionIDFromEmptyContext(t *testing.T) {
	got := ActionIDFromContext(context.Background())
	if got != "" {
		t.Errorf("got %q, want empty string", got)
	}
}
