package domain

import "time"

// UnassignedName is the assignedUserName marker carried by tasks without an assignee.
const UnassignedName = "unassigned"

// Task represents a unit of work, optionally assigned to a single user.
type Task struct {
	ID               string    `bson:"_id,omitempty" json:"_id"`
	Name             string    `bson:"name" json:"name"`
	Description      string    `bson:"description" json:"description"`
	Deadline         time.Time `bson:"deadline" json:"deadline"`
	Completed        bool      `bson:"completed" json:"completed"`
	AssignedUser     *string   `bson:"assignedUser" json:"assignedUser"`
	AssignedUserName string    `bson:"assignedUserName" json:"assignedUserName"`
	CreatedAt        time.Time `bson:"createdAt" json:"createdAt"`
}

// Assigned reports whether the task currently points at a user.
func (t *Task) Assigned() bool {
	return t != nil && t.AssignedUser != nil && *t.AssignedUser != ""
}

// Assignee returns the assigned user id, or "" when unassigned.
func (t *Task) Assignee() string {
	if !t.Assigned() {
		return ""
	}
	return *t.AssignedUser
}

// Assign points the task at the given user and refreshes the cached name.
func (t *Task) Assign(userID, userName string) {
	if t == nil {
		return
	}
	t.AssignedUser = &userID
	t.AssignedUserName = userName
}

// Unassign clears the assignment, restoring the unassigned marker.
func (t *Task) Unassign() {
	if t == nil {
		return
	}
	t.AssignedUser = nil
	t.AssignedUserName = UnassignedName
}
