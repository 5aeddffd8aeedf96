package journal

import (
	"time"

	"github.com/google/uuid"
)

// Repair actions applied by the reconciler.
const (
	ActionAddPending      = "add_pending"
	ActionRemovePending   = "remove_pending"
	ActionClearAssignment = "clear_assignment"
)

// Entry represents a reference repair that could not be applied inline and
// must be retried until the user/task pair is consistent again.
type Entry struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	UserID    string    `json:"user_id"`
	TaskID    string    `json:"task_id"`
	Retries   int       `json:"retries"`
	Timestamp time.Time `json:"timestamp"`

	bucketKey []byte
}

func (e *Entry) normalize() {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
}
