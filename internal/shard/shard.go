// Package shard names, lists and selects the stack/index file pairs of a
// haystack group.
//
// Shard files are ordered by the number embedded in their name, never by the
// order in which the directory happens to list them.
package shard

import (
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/hupe1980/haystack/internal/fs"
)

const (
	// IndexExt is the extension of index files.
	IndexExt = ".index"
	// StackExt is the extension of stack files.
	StackExt = ".stack"

	nameDigits = 10
)

// IndexName returns the file name of shard n's index file.
func IndexName(n int) string { return fmt.Sprintf("%0*d%s", nameDigits, n, IndexExt) }

// StackName returns the file name of shard n's stack file.
func StackName(n int) string { return fmt.Sprintf("%0*d%s", nameDigits, n, StackExt) }

// Parse extracts the shard number and extension from a shard file name.
func Parse(name string) (n int, ext string, ok bool) {
	ext = filepath.Ext(name)
	if ext != IndexExt && ext != StackExt {
		return 0, "", false
	}
	// Only canonical names: List stats the canonical path of every shard.
	base := strings.TrimSuffix(name, ext)
	if len(base) != nameDigits {
		return 0, "", false
	}
	for _, c := range base {
		if c < '0' || c > '9' {
			return 0, "", false
		}
	}
	n, err := strconv.Atoi(base)
	if err != nil || n > maxShard {
		return 0, "", false
	}
	return n, ext, true
}

// maxShard is the largest shard number an index record can carry.
const maxShard = 1<<31 - 1

// Paths holds the two file paths of one shard.
type Paths struct {
	Index string
	Stack string
}

// PathsFor returns the paths of shard n under dir.
func PathsFor(dir string, n int) Paths {
	return Paths{
		Index: filepath.Join(dir, IndexName(n)),
		Stack: filepath.Join(dir, StackName(n)),
	}
}

// Info describes one shard found on disk.
type Info struct {
	Number int
	Paths
	HasIndex  bool
	HasStack  bool
	IndexSize int64
	StackSize int64
}

// List returns every shard under dir that has an index or a stack file,
// sorted by shard number. Sizes are read with one Stat call per file.
func List(fsys fs.FileSystem, dir string) ([]Info, error) {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	byNumber := make(map[int]*Info)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n, ext, ok := Parse(e.Name())
		if !ok {
			continue
		}
		info, ok := byNumber[n]
		if !ok {
			info = &Info{Number: n, Paths: PathsFor(dir, n)}
			byNumber[n] = info
		}
		switch ext {
		case IndexExt:
			size, err := fs.Size(fsys, info.Index)
			if err != nil {
				return nil, err
			}
			info.HasIndex, info.IndexSize = true, size
		case StackExt:
			size, err := fs.Size(fsys, info.Stack)
			if err != nil {
				return nil, err
			}
			info.HasStack, info.StackSize = true, size
		}
	}

	infos := make([]Info, 0, len(byNumber))
	for _, info := range byNumber {
		infos = append(infos, *info)
	}
	slices.SortFunc(infos, func(a, b Info) int { return a.Number - b.Number })
	return infos, nil
}

// Select returns the shard a blob of pending bytes should be written to.
//
// infos must be sorted by number, as List returns them. The first shard whose
// size plus pending fits in maxSize wins; a number missing between existing
// shards counts as an empty shard, so gaps are refilled first. When nothing
// fits, the number after the highest shard is returned, or the first gap if
// that number would not fit an index record. The check only admits writes
// into existing shards: a blob larger than maxSize still lands in a fresh
// shard, which then exceeds maxSize.
func Select(infos []Info, pending, maxSize int64) int {
	next, firstGap := 0, -1
	for _, info := range infos {
		if info.Number > next {
			if pending <= maxSize {
				return next
			}
			if firstGap < 0 {
				firstGap = next
			}
		}
		if info.StackSize+pending <= maxSize {
			return info.Number
		}
		next = info.Number + 1
	}
	if next > maxShard && firstGap >= 0 {
		return firstGap
	}
	return next
}
