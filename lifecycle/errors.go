// Package lifecycle implements the issue status state machine: which status
// an issue can be in, who may move it between statuses, and the timeline
// entry each transition appends. It performs no I/O; callers persist the
// returned issue.
package lifecycle

import "net/http"

// ErrorKind is the closed taxonomy of lifecycle failures.
type ErrorKind string

const (
	KindInvalidTransition      ErrorKind = "InvalidTransition"
	KindUnauthorized           ErrorKind = "Unauthorized"
	KindNotAssigned            ErrorKind = "NotAssigned"
	KindNotAssignee            ErrorKind = "NotAssignee"
	KindAlreadyAssigned        ErrorKind = "AlreadyAssigned"
	KindBoostNotAllowed        ErrorKind = "BoostNotAllowed"
	KindSelfUpvote             ErrorKind = "SelfUpvote"
	KindAlreadyUpvoted         ErrorKind = "AlreadyUpvoted"
	KindConcurrentModification ErrorKind = "ConcurrentModification"
)

// Error is a typed lifecycle validation failure. All kinds except
// ConcurrentModification are deterministic: retrying with the same inputs
// reproduces the same error.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// ErrConcurrentModification is returned by the storage layer when an
// optimistic write finds the issue changed since it was read. It is the only
// lifecycle error that is safe to retry (after a fresh read).
var ErrConcurrentModification = newError(KindConcurrentModification,
	"issue was modified concurrently, retry with fresh state")

// KindOf extracts the error kind, or "" for non-lifecycle errors.
func KindOf(err error) ErrorKind {
	if le, ok := err.(*Error); ok {
		return le.Kind
	}
	return ""
}

// HTTPStatus maps an error kind to the response status used on the wire.
func HTTPStatus(kind ErrorKind) int {
	switch kind {
	case KindInvalidTransition, KindNotAssigned:
		return http.StatusBadRequest
	case KindUnauthorized, KindNotAssignee, KindSelfUpvote:
		return http.StatusForbidden
	case KindAlreadyAssigned, KindAlreadyUpvoted, KindBoostNotAllowed,
		KindConcurrentModification:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
