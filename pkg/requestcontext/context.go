// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Values are set by middleware and consumed by services. Keeping this package
// free of net/http dependencies means services can read the authenticated
// member or the request time without pulling in transport code.
//
// Usage in services (read values):
//
//	memberID := requestcontext.MemberID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithMember(ctx, memberID, "ada", false)
//	ctx = requestcontext.WithTime(ctx, fixedDate)
package requestcontext

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Context key types (unexported for encapsulation).
type (
	memberIDKey    struct{}
	usernameKey    struct{}
	adminKey       struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for tests that need raw context.WithValue.
var (
	ContextKeyMemberID    = memberIDKey{}
	ContextKeyUsername    = usernameKey{}
	ContextKeyAdmin       = adminKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// MemberID retrieves the authenticated member ID from the context.
// Returns uuid.Nil if not set.
func MemberID(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(ContextKeyMemberID).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

// Username retrieves the authenticated member's username from the context.
func Username(ctx context.Context) string {
	if name, ok := ctx.Value(ContextKeyUsername).(string); ok {
		return name
	}
	return ""
}

// IsAdmin reports whether the authenticated member has the admin role.
func IsAdmin(ctx context.Context) bool {
	if admin, ok := ctx.Value(ContextKeyAdmin).(bool); ok {
		return admin
	}
	return false
}

// WithMember injects the authenticated member identity into the context.
func WithMember(ctx context.Context, memberID uuid.UUID, username string, admin bool) context.Context {
	ctx = context.WithValue(ctx, ContextKeyMemberID, memberID)
	ctx = context.WithValue(ctx, ContextKeyUsername, username)
	return context.WithValue(ctx, ContextKeyAdmin, admin)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (for non-HTTP contexts like workers or
// tests that don't care about the clock).
//
// Loan dates derive from this value so one lending operation sees a single
// consistent "today", and so tests can pin the date.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
