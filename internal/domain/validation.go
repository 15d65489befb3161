package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validation errors
var (
	ErrInvalidUserID      = errors.New("invalid user id")
	ErrInvalidDescription = errors.New("invalid description")
	ErrInvalidReference   = errors.New("invalid reference id")
	ErrInvalidIDFormat    = errors.New("invalid ID format")
)

// Validation constants
const (
	MaxUserIDLength      = 64
	MaxDescriptionLength = 500
	MaxReferenceIDLength = 128
	MaxReasonLength      = 255
	DefaultPageSize      = 20
	MaxPageSize          = 100
)

var (
	userIDRegex = regexp.MustCompile(`^[A-Za-z0-9._:@-]+$`)
	ulidRegex   = regexp.MustCompile(`^[0-9A-HJKMNP-TV-Z]{26}$`)
)

// ValidateUserID validates the identifier a wallet is keyed by
func ValidateUserID(userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: user id cannot be empty", ErrInvalidUserID)
	}

	if len(userID) > MaxUserIDLength {
		return fmt.Errorf("%w: user id exceeds %d characters", ErrInvalidUserID, MaxUserIDLength)
	}

	if !userIDRegex.MatchString(userID) {
		return fmt.Errorf("%w: user id contains forbidden characters", ErrInvalidUserID)
	}

	return nil
}

// ValidateDescription validates a free-text entry description or rejection reason
func ValidateDescription(s string, maxLen int) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("%w: not valid UTF-8", ErrInvalidDescription)
	}

	if utf8.RuneCountInString(s) > maxLen {
		return fmt.Errorf("%w: exceeds %d characters", ErrInvalidDescription, maxLen)
	}

	return nil
}

// ValidateReferenceID validates the optional external reference of a deposit
func ValidateReferenceID(ref string) error {
	if ref == "" {
		return nil
	}

	if len(ref) > MaxReferenceIDLength || strings.ContainsAny(ref, " \t\r\n") {
		return fmt.Errorf("%w: %q", ErrInvalidReference, ref)
	}

	return nil
}

// ValidateID validates ULID format
func ValidateID(id string) error {
	if !ulidRegex.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidIDFormat, id)
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
