package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no document is stored under a name.
	ErrNotFound = errors.New("storage: document not found")
	// ErrExists is returned by Create when the name is taken.
	ErrExists = errors.New("storage: document already exists")
	// ErrQuotaExceeded is returned by backends that ran out of space.
	ErrQuotaExceeded = errors.New("storage: quota exceeded")
	// ErrWrongPassword covers both an incorrect password and corrupted
	// ciphertext; the two cannot be told apart.
	ErrWrongPassword = errors.New("storage: incorrect password or corrupted file")
	// ErrPasswordRequired is returned when an encrypted document is read or
	// saved without a password.
	ErrPasswordRequired = errors.New("storage: password required")
	// ErrInvalidName is returned for empty document names.
	ErrInvalidName = errors.New("storage: invalid document name")
)

// Category buckets storage errors for user-facing handling.
type Category string

const (
	CategoryNone             Category = ""
	CategoryNotFound         Category = "not_found"
	CategoryExists           Category = "exists"
	CategoryQuota            Category = "quota"
	CategoryWrongPassword    Category = "wrong_password"
	CategoryPasswordRequired Category = "password_required"
	CategoryInvalidName      Category = "invalid_name"
	CategoryIO               Category = "io"
)

// CategoryOf classifies err. Unrecognised errors are CategoryIO; nil is
// CategoryNone.
func CategoryOf(err error) Category {
	switch {
	case err == nil:
		return CategoryNone
	case errors.Is(err, ErrNotFound):
		return CategoryNotFound
	case errors.Is(err, ErrExists):
		return CategoryExists
	case errors.Is(err, ErrQuotaExceeded):
		return CategoryQuota
	case errors.Is(err, ErrWrongPassword):
		return CategoryWrongPassword
	case errors.Is(err, ErrPasswordRequired):
		return CategoryPasswordRequired
	case errors.Is(err, ErrInvalidName):
		return CategoryInvalidName
	default:
		return CategoryIO
	}
}

// UserMessage renders err as a short message for end users. action names what
// was being attempted ("saving file", "auto-saving").
func UserMessage(err error, action string) string {
	if action == "" {
		action = "this operation"
	}
	switch CategoryOf(err) {
	case CategoryNone:
		return ""
	case CategoryNotFound:
		return "File not found."
	case CategoryExists:
		return "File already exists. Please choose a different name."
	case CategoryQuota:
		return fmt.Sprintf("Storage is full while %s. Delete some files and try again.", action)
	case CategoryWrongPassword:
		return "Incorrect password or corrupted file."
	case CategoryPasswordRequired:
		return "This file is password protected. Enter the password to continue."
	case CategoryInvalidName:
		return "Please enter a valid file name."
	default:
		return fmt.Sprintf("Something went wrong while %s.", action)
	}
}
