package domain

import (
	"strings"
	"time"
)

// User represents an account that tasks can be assigned to.
type User struct {
	ID           string    `bson:"_id,omitempty" json:"_id"`
	Name         string    `bson:"name" json:"name"`
	Email        string    `bson:"email" json:"email"`
	PendingTasks []string  `bson:"pendingTasks" json:"pendingTasks"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}

// HasPendingTask reports whether the task id is already in the pending set.
func (u *User) HasPendingTask(taskID string) bool {
	if u == nil {
		return false
	}
	for _, id := range u.PendingTasks {
		if id == taskID {
			return true
		}
	}
	return false
}

// AddPendingTask inserts the task id with set semantics (no duplicates).
func (u *User) AddPendingTask(taskID string) {
	if u == nil || taskID == "" || u.HasPendingTask(taskID) {
		return
	}
	u.PendingTasks = append(u.PendingTasks, taskID)
}

// RemovePendingTask drops the task id from the pending set.
func (u *User) RemovePendingTask(taskID string) {
	if u == nil {
		return
	}
	kept := u.PendingTasks[:0]
	for _, id := range u.PendingTasks {
		if id != taskID {
			kept = append(kept, id)
		}
	}
	u.PendingTasks = kept
}

// NormalizeEmail lowercases an email address for case-insensitive uniqueness.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DedupeIDs returns the ids with duplicates and empty entries removed,
// preserving first-seen order.
func DedupeIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
