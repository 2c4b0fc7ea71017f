package history

// This file contains the cache decision and the run ledger updates.

import (
	"time"

	"github.com/test262-automator/automator/model"
)

// Decision tells the capture whether a stored artifact can stand in for a new run.
type Decision int

const (
	Rerun Decision = iota
	Reuse
)

func (d Decision) String() string {
	if d == Reuse {
		return "reuse"
	}
	return "rerun"
}

// Decide returns Reuse when prev was produced by the same engine version on
// the same test262 revision, Rerun otherwise or when there is no prev.
func Decide(prev *model.RunMetadata, version, revision string) Decision {
	if prev == nil {
		return Rerun
	}
	if prev.Version == version && prev.Revision == revision {
		return Reuse
	}
	return Rerun
}

// Millis converts t into the ledger timestamp unit.
func Millis(t time.Time) int64 {
	return t.UnixNano() / int64(time.Millisecond)
}

// Migrate seeds AllRuns of an entry written before the field existed.
func Migrate(m *model.RunMetadata) {
	if len(m.AllRuns) == 0 {
		m.AllRuns = []int64{m.TimeStamp}
	}
}

// Fresh builds the first ledger entry of a configuration.
func Fresh(cur model.RunMetadata, now time.Time) model.RunMetadata {
	ts := Millis(now)
	cur.AllRuns = []int64{ts}
	cur.TimeStamp = ts
	return cur
}

// Record appends now to the ledger. A nil prev is not valid here, use
// Fresh for the first run of a configuration.
func Record(prev *model.RunMetadata, now time.Time) model.RunMetadata {
	next := *prev
	next.AllRuns = append([]int64(nil), prev.AllRuns...)
	Migrate(&next)

	ts := Millis(now)
	if last := next.AllRuns[len(next.AllRuns)-1]; ts < last {
		ts = last
	}
	next.AllRuns = append(next.AllRuns, ts)
	next.TimeStamp = ts
	return next
}

// Rebase moves the run list of prev onto the identity of cur. It is used
// when the stored entry no longer matches the engine or revision being run.
func Rebase(prev *model.RunMetadata, cur model.RunMetadata) model.RunMetadata {
	cur.AllRuns = append([]int64(nil), prev.AllRuns...)
	cur.TimeStamp = prev.TimeStamp
	Migrate(&cur)
	return cur
}

// Next returns the ledger entry to persist for the given decision.
func Next(prev *model.RunMetadata, cur model.RunMetadata, d Decision, now time.Time) model.RunMetadata {
	switch {
	case prev == nil:
		return Fresh(cur, now)
	case d == Reuse:
		return Record(prev, now)
	default:
		rebased := Rebase(prev, cur)
		return Record(&rebased, now)
	}
}
