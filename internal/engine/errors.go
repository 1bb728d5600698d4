package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned for arguments the engine cannot accept
	// (empty blob, invalid configuration).
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned when a shard's files are missing or the needle
	// number lies beyond the end of its index.
	ErrNotFound = errors.New("not found")

	// ErrIOFault is returned when an underlying read, write, seek or stat
	// fails. The operation is aborted; Recover repairs a torn write.
	ErrIOFault = errors.New("i/o fault")

	// ErrShortRead is returned (together with ErrIOFault) when a stack file
	// holds fewer bytes than its index promises.
	ErrShortRead = errors.New("short read")

	// ErrCorrupt is returned (together with ErrIOFault) when an index record
	// does not describe the needle it is stored for.
	ErrCorrupt = errors.New("corrupt index record")

	// ErrInconsistent is returned (together with ErrIOFault) when a write
	// finds a shard left torn by an earlier fault. Run Recover first.
	ErrInconsistent = errors.New("shard needs recovery")
)

func ioFault(op, path string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrIOFault, op, path, err)
}

// RecoveryError reports the shard and step at which Recover failed.
type RecoveryError struct {
	Shard int
	Op    string
	Err   error
}

func (e *RecoveryError) Error() string {
	return fmt.Sprintf("recover shard %d: %s: %v", e.Shard, e.Op, e.Err)
}

// Unwrap exposes both ErrIOFault and the underlying cause to errors.Is.
func (e *RecoveryError) Unwrap() []error { return []error{ErrIOFault, e.Err} }
