package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadOutcome_AddSkip(t *testing.T) {
	var o LoadOutcome
	for i := 0; i < MaxSkipDetails+5; i++ {
		o.AddSkip(i+2, SkipCoordinateUnparseable, "latitud=abc")
	}
	o.AddSkip(999, SkipTooFewFields, "")

	assert.Equal(t, MaxSkipDetails+6, o.Skipped)
	assert.Equal(t, MaxSkipDetails+5, o.SkipCounts[SkipCoordinateUnparseable])
	assert.Equal(t, 1, o.SkipCounts[SkipTooFewFields])
	assert.Len(t, o.Skips, MaxSkipDetails)
	assert.Equal(t, 2, o.Skips[0].Line)
}

func TestLoadOutcome_String(t *testing.T) {
	o := LoadOutcome{RowsRead: 3, Mapped: 2, Inserted: 2, Anomalies: 1}
	o.AddSkip(4, SkipTooFewFields, "")
	o.AddSkip(5, SkipCoordinateUnparseable, "")

	assert.Equal(t,
		"read=3 mapped=2 skipped=2 anomalies=1 inserted=2 (CoordinateUnparseable=1, TooFewFields=1)",
		o.String())
}

func TestLoadOutcome_String_SeedSkipped(t *testing.T) {
	o := LoadOutcome{SeedSkipped: true, ExistingCount: 42}
	assert.Equal(t, "seed skipped: store already holds 42 records", o.String())
}
