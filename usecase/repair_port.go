package usecase

import "context"

// RepairQueue abstracts the reconciliation journal so use cases stay
// storage-agnostic. Flagged repairs are retried in the background until the
// user/task references converge.
type RepairQueue interface {
	Flag(ctx context.Context, action, userID, taskID string) error
}
