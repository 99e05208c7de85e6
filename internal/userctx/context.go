// Package userctx carries the authenticated subject through request contexts.
// It has no dependencies so that domain packages can read the caller without
// importing auth.
package userctx

import "context"

type contextKey string

const subjectKey contextKey = "sub"

// WithUserID stores the JWT subject on ctx.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, subjectKey, userID)
}

// GetUserID returns the subject set by the auth middleware. ok is false for
// anonymous requests (AUTH_MODE=none).
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(subjectKey).(string)
	return userID, ok && userID != ""
}
