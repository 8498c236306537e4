package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// Sentinel errors shared across packages, matched with errors.Is.
var (
	// ErrNotFound means a referenced record or source identity does not exist,
	// distinct from an empty query result
	ErrNotFound = errors.New("not found")

	// ErrNotRSSFeed means the fetched document has no recognizable feed root
	ErrNotRSSFeed = errors.New("not an RSS feed")

	// ErrInvalidLimit means a requested result-count bound is non-positive or
	// non-numeric, rejected before any I/O
	ErrInvalidLimit = errors.New("invalid limit")

	// ErrRenderTarget means an output path or directory does not exist,
	// fatal for that render call only
	ErrRenderTarget = errors.New("render target invalid")
)

var dateKeyRe = regexp.MustCompile(`^\d{8}$`)

// ParseLimit validates a user-supplied limit string. Empty means unbounded
// and yields 0. Non-numeric or non-positive values are rejected with
// ErrInvalidLimit before any store or network access happens.
func ParseLimit(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidLimit, s)
	}
	return n, CheckLimit(n)
}

// CheckLimit rejects non-positive limits. Zero is allowed as "unbounded" only
// through ParseLimit's empty-string path; explicit zero or negative input is
// an error.
func CheckLimit(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: %d is not positive", ErrInvalidLimit, n)
	}
	return nil
}

// ValidDateKey reports whether s is a zero-padded YYYYMMDD date key
func ValidDateKey(s string) bool { return dateKeyRe.MatchString(s) }
