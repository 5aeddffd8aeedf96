package transport

import (
	"time"

	"github.com/jw164/MP3/domain"
)

type CreateUserRequest struct {
	Name         string   `json:"name" validate:"required"`
	Email        string   `json:"email" validate:"required"`
	PendingTasks []string `json:"pendingTasks"`
}

type UpdateUserRequest struct {
	Name         *string   `json:"name"`
	Email        *string   `json:"email"`
	PendingTasks *[]string `json:"pendingTasks"`
}

type CreateTaskRequest struct {
	Name         string `json:"name" validate:"required"`
	Description  string `json:"description"`
	Deadline     string `json:"deadline" validate:"required"`
	Completed    bool   `json:"completed"`
	AssignedUser string `json:"assignedUser"`
}

// UpdateTaskRequest is a partial update; absent fields stay untouched.
// assignedUser: "" clears the assignment, any other value reassigns.
type UpdateTaskRequest struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	Deadline     *string `json:"deadline"`
	Completed    *bool   `json:"completed"`
	AssignedUser *string `json:"assignedUser"`
}

const dateOnly = "2006-01-02"

// ParseDeadline accepts RFC3339 timestamps and bare dates.
func ParseDeadline(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateOnly, raw)
	if err != nil {
		return time.Time{}, domain.NewError(domain.ErrCodeValidation, "deadline must be a valid date")
	}
	return t, nil
}
