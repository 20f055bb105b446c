package domain

import "errors"

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrAgentNotFound = errors.New("agent not found")
	ErrAdminNotFound = errors.New("admin not found")

	// ErrAgentExists enforces the one-agent-per-user invariant.
	ErrAgentExists = errors.New("agent profile already exists for this user")
	ErrAdminExists = errors.New("user is already an admin")

	// ErrAgentApproved blocks any mutation of an approved registration.
	ErrAgentApproved = errors.New("cannot update approved agent profile")

	// ErrInvalidInput covers missing or malformed required fields. Callers wrap
	// it with the offending field detail.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUploadFailed is returned when an uploaded file does not resolve to a
	// storage URL.
	ErrUploadFailed = errors.New("file upload failed: location missing")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAdmin           = errors.New("not authorised as admin")
	ErrInvalidOTP         = errors.New("invalid or expired verification code")
	ErrForbidden          = errors.New("access forbidden")
)
