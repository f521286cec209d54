package testutil

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"libris/pkg/requestcontext"
)

// WithMember authenticates the request as the given member, the way the auth
// middleware would.
func WithMember(req *http.Request, memberID uuid.UUID, username string, admin bool) *http.Request {
	ctx := requestcontext.WithMember(req.Context(), memberID, username, admin)
	return req.WithContext(ctx)
}

// WithPinnedTime fixes the request clock so date assertions are exact.
func WithPinnedTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}

// WithRequestID attaches a request id for log assertions.
func WithRequestID(req *http.Request, id string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), id))
}
