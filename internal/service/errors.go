// Package service holds the booking rules.  Services depend on small
// interfaces rather than the MySQL repositories so they can be tested
// with mocks.
package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrValidation is wrapped by every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidTransition is returned when a booking is not in a state
	// the requested action can leave.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrBanned is returned for actions by banned accounts.
	ErrBanned = errors.New("account is banned")
	// ErrRoomUnavailable is returned for rooms under maintenance.
	ErrRoomUnavailable = errors.New("room is not available for booking")
)

// ValidationError maps request fields to what is wrong with them.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// fieldErrors collects problems while a request is checked.
type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}

func invalid(field, msg string) error {
	return &ValidationError{Fields: map[string]string{field: msg}}
}
