package models

import "errors"

// Domain errors. Handlers translate these to HTTP statuses with errors.Is.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateUser      = errors.New("user already exists")
	ErrPartNotFound       = errors.New("part not found")
	ErrForbidden          = errors.New("operation not allowed")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrResetNotAllowed    = errors.New("manual reset not approved")
	ErrUpstream           = errors.New("vehicle registry unavailable")
)
