package repositories

// ResetRepository manages the manual password-reset workflow. Each
// operation is atomic over the store document because approval touches
// both the pending list and the user record.
type ResetRepository interface {
	// Pending returns the usernames waiting for an admin decision.
	Pending() ([]string, error)
	// Request queues a reset for the user. Queuing an already-pending
	// user is a no-op; an unknown user is ErrUserNotFound.
	Request(username string) error
	// Handle removes the pending entry and, when approve is set, grants
	// the user a one-time manual reset.
	Handle(username string, approve bool) error
	// Complete consumes an approved manual reset, storing the new hash.
	// Without a prior approval it fails with ErrResetNotAllowed.
	Complete(username, passwordHash string) error
}
