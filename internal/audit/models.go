package audit

import (
	"time"

	"github.com/google/uuid"
)

// Event is emitted from domain logic to capture key lending actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time
	MemberID  uuid.UUID
	Action    string
	CopyID    int64
	BookID    int64
}

// Actions emitted by the lending service.
const (
	ActionCopyRegistered = "lending.copy_registered"
	ActionCopyBorrowed   = "lending.copy_borrowed"
	ActionCopyReturned   = "lending.copy_returned"
	ActionCopyDisabled   = "lending.copy_disabled"
	ActionBookCreated    = "catalog.book_created"
)
