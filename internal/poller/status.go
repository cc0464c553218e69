// Package poller drives an already-submitted remote job to a terminal state
// by checking its status at a fixed interval.
package poller

import (
	"context"
	"time"
)

// Status is the normalized state of a remote job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	// StatusTimeout is never reported by a remote system. The poller
	// produces it when the attempt budget runs out.
	StatusTimeout Status = "timeout"
)

// Terminal reports whether no further transition can leave s.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusTimeout:
		return true
	default:
		return false
	}
}

// Handle identifies one remote job.
type Handle struct {
	JobID string
	// ParentID is the enclosing context of the job, such as the thread an
	// assistant run belongs to. Empty for job kinds that have none.
	ParentID string
}

// Snapshot is one status report, already mapped from the remote vocabulary.
type Snapshot struct {
	Status  Status
	Payload any
	Detail  string
}

// Outcome is the terminal result of a poll.
type Outcome struct {
	Status Status `json:"status"`
	// Payload is set only when Status is completed.
	Payload any    `json:"payload,omitempty"`
	Detail  string `json:"detail,omitempty"`
	// Polls counts the status calls made, including the immediate check.
	Polls   int           `json:"polls"`
	Elapsed time.Duration `json:"elapsed"`
}

// StatusFunc fetches the current state of a job. Implementations map the
// remote status strings to a Status, which keeps the poller independent of
// the job kind.
type StatusFunc func(ctx context.Context, h Handle) (Snapshot, error)
