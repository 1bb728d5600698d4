package backup

import "errors"

var (
	// ErrNotEmpty is returned when the restore destination already contains files.
	ErrNotEmpty = errors.New("backup: destination directory is not empty")
	// ErrInvalidManifest is returned for a manifest that cannot describe a haystack group.
	ErrInvalidManifest = errors.New("backup: invalid manifest")
	// ErrSizeMismatch is returned when a transferred file differs from its recorded size.
	ErrSizeMismatch = errors.New("backup: size mismatch")
)
