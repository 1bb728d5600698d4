package haystack

import (
	"errors"
	"fmt"

	"github.com/hupe1980/haystack/internal/engine"
)

var (
	// ErrInvalidInput is returned for an empty blob, a non-positive stream
	// size or an invalid configuration.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned when the shard files are missing or the needle
	// lies beyond the end of the shard's index.
	ErrNotFound = errors.New("not found")

	// ErrIOFault is returned when an underlying file operation fails.
	// Run Recover before writing again.
	ErrIOFault = errors.New("i/o fault")
)

// Detail errors reported together with ErrIOFault.
var (
	// ErrShortRead indicates a stack file holding fewer bytes than its index promises.
	ErrShortRead = engine.ErrShortRead
	// ErrCorrupt indicates an index record that does not describe its own position.
	ErrCorrupt = engine.ErrCorrupt
	// ErrInconsistent indicates a write into a shard torn by an earlier fault.
	ErrInconsistent = engine.ErrInconsistent
)

// RecoveryError reports the shard and step at which Recover failed.
type RecoveryError = engine.RecoveryError

func translateError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, engine.ErrInvalidInput):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	case errors.Is(err, engine.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, engine.ErrIOFault):
		return fmt.Errorf("%w: %w", ErrIOFault, err)
	}

	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, engine.ErrNotFound)
}
