package models

import "errors"

// Shared error taxonomy. Repositories and services wrap these sentinels with
// fmt.Errorf("...: %w", ...); the HTTP layer maps them to status codes.
var (
	// ErrNotFound means the referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthenticated means the caller identity is missing or invalid.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrInvalidArgument means the request itself is malformed, such as an
	// unknown reaction kind or an empty comment.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrConflict means a concurrent update won the race; retrying against
	// fresh state is expected to succeed.
	ErrConflict = errors.New("conflict")

	// ErrUnavailable means the store timed out or was unreachable; the
	// operation may be retried as-is.
	ErrUnavailable = errors.New("unavailable")
)
