package models

import (
	"encoding/binary"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Snapshot is one atomically published view of the session directory.
// Entries and Counts always come from the same reload pass.
type Snapshot struct {
	Entries     []SessionEntry `json:"sessions"`
	Counts      StateCounts    `json:"counts"`
	Sequence    uint64         `json:"sequence"`
	GeneratedAt time.Time      `json:"generated_at"`
	Digest      uint64         `json:"digest"`
}

// NewSnapshot sorts entries, counts them and computes the digest.
func NewSnapshot(entries []SessionEntry, seq uint64, at time.Time) Snapshot {
	if entries == nil {
		entries = []SessionEntry{}
	}
	SortEntries(entries)
	return Snapshot{
		Entries:     entries,
		Counts:      CountsOf(entries),
		Sequence:    seq,
		GeneratedAt: at,
		Digest:      DigestOf(entries),
	}
}

// Dominant is shorthand for s.Counts.Dominant.
func (s Snapshot) Dominant() (SessionState, bool) {
	return s.Counts.Dominant()
}

// DigestOf fingerprints an ordered entry list. Two reloads of an unchanged
// directory yield the same digest.
func DigestOf(entries []SessionEntry) uint64 {
	d := xxhash.New()
	var buf [8]byte
	for _, e := range entries {
		_, _ = d.WriteString(e.ID)
		_, _ = d.Write([]byte{0})
		_, _ = d.WriteString(e.Cwd)
		_, _ = d.Write([]byte{0})
		_, _ = d.WriteString(string(e.State))
		_, _ = d.Write([]byte{0})
		binary.LittleEndian.PutUint64(buf[:], uint64(e.UpdatedAt.UnixNano()))
		_, _ = d.Write(buf[:])
		if e.StartedAt != nil {
			binary.LittleEndian.PutUint64(buf[:], uint64(e.StartedAt.UnixNano()))
			_, _ = d.Write(buf[:])
		}
		_, _ = d.Write([]byte{0})
		_, _ = d.WriteString(e.TerminalBundleID)
		_, _ = d.Write([]byte{0})
		_, _ = d.WriteString(e.TTY)
		_, _ = d.Write([]byte{1})
	}
	return d.Sum64()
}
