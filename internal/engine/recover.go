package engine

import (
	"fmt"
	"os"
	"time"

	"github.com/hupe1980/haystack/internal/needle"
	"github.com/hupe1980/haystack/internal/shard"
)

// Action is the repair Recover applied to a shard.
type Action int

const (
	// ActionNone means the shard was consistent.
	ActionNone Action = iota
	// ActionTrimIndex drops a partial trailing index record.
	ActionTrimIndex
	// ActionRollback drops the last index record and truncates the stack to
	// that record's offset.
	ActionRollback
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionTrimIndex:
		return "trim-index"
	case ActionRollback:
		return "rollback"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// ShardRepair describes what Recover did to one shard.
type ShardRepair struct {
	Shard       int
	Action      Action
	IndexBefore int64
	IndexAfter  int64
	StackBefore int64
	StackAfter  int64
}

// Report summarizes one Recover pass.
type Report struct {
	// Inspected is the number of index files examined.
	Inspected int
	// Repairs lists the shards that were changed, in shard order.
	Repairs []ShardRepair
}

// Repaired returns the number of shards that were changed.
func (r Report) Repaired() int { return len(r.Repairs) }

// Recover repairs shards torn by a fault during their most recent write.
//
// A partial trailing index record is dropped. A complete trailing record
// whose blob does not end exactly at the end of the stack file is dropped
// too, and the stack is truncated back to where that blob started. Shards
// that are already consistent are not touched, so Recover is idempotent.
//
// Corruption of earlier records is not detected.
func (s *Stacker) Recover() (Report, error) {
	start := time.Now()

	infos, err := s.list()
	if err != nil {
		return Report{}, err
	}

	var report Report
	for _, info := range infos {
		if !info.HasIndex {
			continue
		}
		report.Inspected++

		repair, err := s.recoverShard(info)
		if err != nil {
			return report, err
		}
		if repair.Action == ActionNone {
			continue
		}
		if s.cache != nil {
			s.cache.InvalidateShard(info.Number)
		}
		report.Repairs = append(report.Repairs, repair)
		s.logger.Warn("Shard repaired",
			"shard", repair.Shard,
			"action", repair.Action.String(),
			"indexBefore", repair.IndexBefore,
			"indexAfter", repair.IndexAfter,
			"stackBefore", repair.StackBefore,
			"stackAfter", repair.StackAfter,
		)
	}

	s.logger.Info("Recovery completed",
		"inspected", report.Inspected,
		"repaired", report.Repaired(),
		"duration", time.Since(start),
	)
	return report, nil
}

func (s *Stacker) recoverShard(info shard.Info) (ShardRepair, error) {
	repair := ShardRepair{
		Shard:       info.Number,
		IndexBefore: info.IndexSize,
		IndexAfter:  info.IndexSize,
		StackBefore: info.StackSize,
		StackAfter:  info.StackSize,
	}

	// The index append was torn; no blob byte can have been written.
	if !needle.Aligned(info.IndexSize) {
		repair.Action = ActionTrimIndex
		repair.IndexAfter = needle.Floor(info.IndexSize)
		if err := s.truncate(info.Index, repair.IndexAfter); err != nil {
			return repair, &RecoveryError{Shard: info.Number, Op: "trim index", Err: err}
		}
		return repair, nil
	}

	if info.IndexSize == 0 {
		return repair, nil
	}

	last, err := s.lastRecord(info.Index, info.IndexSize)
	if err != nil {
		return repair, &RecoveryError{Shard: info.Number, Op: "read last record", Err: err}
	}
	if info.HasStack && info.StackSize == last.End() {
		return repair, nil
	}

	if info.StackSize < last.Offset {
		s.logger.Warn("Stack ends before the last needle starts; earlier needles are damaged",
			"shard", info.Number,
			"stackSize", info.StackSize,
			"offset", last.Offset,
		)
	}

	// Stack first: a crash between the two truncations leaves a shard that
	// the next pass rolls back to the same state.
	repair.Action = ActionRollback
	repair.StackAfter = last.Offset
	repair.IndexAfter = info.IndexSize - needle.RecordSize
	if !info.HasStack {
		if err := s.ensureShard(info.Paths); err != nil {
			return repair, &RecoveryError{Shard: info.Number, Op: "create stack", Err: err}
		}
	}
	if err := s.truncate(info.Stack, repair.StackAfter); err != nil {
		return repair, &RecoveryError{Shard: info.Number, Op: "truncate stack", Err: err}
	}
	if err := s.truncate(info.Index, repair.IndexAfter); err != nil {
		return repair, &RecoveryError{Shard: info.Number, Op: "drop last record", Err: err}
	}
	return repair, nil
}

func (s *Stacker) lastRecord(path string, indexLen int64) (needle.Record, error) {
	return s.readRecord(path, indexLen-needle.RecordSize)
}

func (s *Stacker) truncate(path string, size int64) error {
	if err := s.fs.Truncate(path, size); err != nil {
		return err
	}
	if s.durability != DurabilitySync {
		return nil
	}
	f, err := s.fs.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
