// Package svserr defines the sentinel error values shared by every package in
// the module. Callers branch on error category with errors.Is; every
// constructor wraps caller context with fmt.Errorf("...: %w", ...), the same
// idiom used throughout the index packages.
package svserr

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput covers malformed parameters: dimension mismatches,
	// prune_to > graph_max_degree, unknown metrics, empty datasets at build.
	ErrInvalidInput = errors.New("invalid input")

	// ErrOutOfBounds covers an id beyond a dataset's or graph's size.
	ErrOutOfBounds = errors.New("index out of bounds")

	// ErrUnknownID covers a translator lookup for an id that was never registered.
	ErrUnknownID = errors.New("unknown id")

	// ErrDuplicateID covers a translator insert that would collide with an existing mapping.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrSerialization covers schema/version mismatches, malformed root
	// tables, missing sidecar files, and malformed version strings.
	ErrSerialization = errors.New("serialization error")

	// ErrIO covers underlying read/write failures.
	ErrIO = errors.New("io error")

	// ErrThreadCrashed covers a worker that returned an error during a
	// static_partition invocation.
	ErrThreadCrashed = errors.New("worker thread crashed")

	// ErrCancelled covers a search that returned partial results because its
	// cancellation predicate returned true.
	ErrCancelled = errors.New("operation cancelled")

	// ErrNarrowing covers a lossy integer/float conversion at an API boundary.
	ErrNarrowing = errors.New("narrowing conversion")
)

// InvalidInput wraps ErrInvalidInput with context.
func InvalidInput(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalidInput)...)
}

// OutOfBounds wraps ErrOutOfBounds with context.
func OutOfBounds(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrOutOfBounds)...)
}

// UnknownID wraps ErrUnknownID with context.
func UnknownID(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrUnknownID)...)
}

// DuplicateID wraps ErrDuplicateID with context.
func DuplicateID(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrDuplicateID)...)
}

// Serialization wraps ErrSerialization with context.
func Serialization(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrSerialization)...)
}

// IO wraps ErrIO with context.
func IO(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrIO)...)
}

// ThreadCrashed wraps ErrThreadCrashed with the originating worker error.
func ThreadCrashed(workerID int, cause error) error {
	return fmt.Errorf("worker %d: %w: %v", workerID, ErrThreadCrashed, cause)
}

// Narrowing wraps ErrNarrowing with context.
func Narrowing(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrNarrowing)...)
}
