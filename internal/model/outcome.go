package model

import (
	"fmt"
	"sort"
	"strings"
)

// SkipReason explains why a data row produced no record.
type SkipReason string

const (
	// SkipCoordinateUnparseable means latitude or longitude could not be
	// parsed even after the decimal-comma fallback.
	SkipCoordinateUnparseable SkipReason = "CoordinateUnparseable"
	// SkipTooFewFields means the row held fewer than two fields.
	SkipTooFewFields SkipReason = "TooFewFields"
)

// RowSkip is the diagnostic kept for one skipped row.
type RowSkip struct {
	Line   int        `json:"line"`
	Reason SkipReason `json:"reason"`
	Detail string     `json:"detail,omitempty"`
}

// MaxSkipDetails bounds how many RowSkip entries a LoadOutcome retains.
// Counts in SkipCounts are always complete.
const MaxSkipDetails = 100

// LoadOutcome summarizes one pipeline run. It is returned and logged, never stored.
type LoadOutcome struct {
	RowsRead      int                `json:"rows_read"`
	Mapped        int                `json:"mapped"`
	Skipped       int                `json:"skipped"`
	SkipCounts    map[SkipReason]int `json:"skip_counts,omitempty"`
	Skips         []RowSkip          `json:"skips,omitempty"`
	Anomalies     int                `json:"anomalies"`
	Inserted      int64              `json:"inserted"`
	SeedSkipped   bool               `json:"seed_skipped,omitempty"`
	ExistingCount int64              `json:"existing_count,omitempty"`
}

// AddSkip records a skipped row.
func (o *LoadOutcome) AddSkip(line int, reason SkipReason, detail string) {
	o.Skipped++
	if o.SkipCounts == nil {
		o.SkipCounts = make(map[SkipReason]int)
	}
	o.SkipCounts[reason]++
	if len(o.Skips) < MaxSkipDetails {
		o.Skips = append(o.Skips, RowSkip{Line: line, Reason: reason, Detail: detail})
	}
}

// String renders a one-line summary for logs and CLI output.
func (o *LoadOutcome) String() string {
	if o.SeedSkipped {
		return fmt.Sprintf("seed skipped: store already holds %d records", o.ExistingCount)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "read=%d mapped=%d skipped=%d anomalies=%d inserted=%d",
		o.RowsRead, o.Mapped, o.Skipped, o.Anomalies, o.Inserted)
	if len(o.SkipCounts) > 0 {
		reasons := make([]string, 0, len(o.SkipCounts))
		for r := range o.SkipCounts {
			reasons = append(reasons, string(r))
		}
		sort.Strings(reasons)
		b.WriteString(" (")
		for i, r := range reasons {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%d", r, o.SkipCounts[SkipReason(r)])
		}
		b.WriteString(")")
	}
	return b.String()
}
