package events

import "context"

type actionIDKey struct{}

// ContextWithActionID returns a new context carrying the action invocation ID.
func ContextWithActionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, actionIDKey{}, id)
}

// ActionIDFromContext extracts the action ID from the context, or "" if absent.
func ActionIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(actionIDKey{}).(string); ok {
		return id
	}
	return ""
}
