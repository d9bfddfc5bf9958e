package goCooldown

import "context"

type subjectIDContextKey struct{}
type clientIPContextKey struct{}

// WithSubjectID attaches the identifier of the account whose action is
// being throttled. It enriches audit events; it does not change which
// storage keys are used, since one Governor instance governs one
// action/subject pair.
func WithSubjectID(ctx context.Context, subjectID string) context.Context {
	return context.WithValue(ctx, subjectIDContextKey{}, subjectID)
}

// WithClientIP attaches the caller's IP address to ctx for audit
// logging.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

func subjectIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	subjectID, _ := ctx.Value(subjectIDContextKey{}).(string)
	return subjectID
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}
