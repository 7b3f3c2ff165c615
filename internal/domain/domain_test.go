package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Action
		wantErr bool
	}{
		{name: "english borrow", input: "borrow", want: ActionBorrow},
		{name: "english return", input: "return", want: ActionReturn},
		{name: "form borrow word", input: "借閱", want: ActionBorrow},
		{name: "form return word", input: "歸還", want: ActionReturn},
		{name: "case and whitespace", input: "  Borrow ", want: ActionBorrow},
		{name: "unknown keyword", input: "renew", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAction(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidAction)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestActionOpposite(t *testing.T) {
	assert.Equal(t, ActionReturn, ActionBorrow.Opposite())
	assert.Equal(t, ActionBorrow, ActionReturn.Opposite())
}

func TestParseItemID(t *testing.T) {
	id, err := ParseItemID("A-018")
	require.NoError(t, err)
	assert.Equal(t, ItemID("A-018"), id)

	for _, bad := range []string{"", "A018", "a-018", "A-", "-018", "A-01x"} {
		_, err := ParseItemID(bad)
		assert.ErrorIs(t, err, ErrInvalidIdentifier, "input %q", bad)
	}
}

func TestItemStatusCirculating(t *testing.T) {
	assert.True(t, StatusAvailable.Circulating())
	assert.True(t, StatusOnLoan.Circulating())
	assert.False(t, StatusLost.Circulating())
	assert.False(t, StatusArchived.Circulating())
}

func TestEffectiveTime(t *testing.T) {
	ts := time.Date(2026, 3, 9, 10, 30, 0, 0, time.UTC)
	day := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	t.Run("client timestamp wins", func(t *testing.T) {
		row := RawRow{ClientTimestamp: &ts, ManualDate: &day}
		got, err := row.EffectiveTime()
		require.NoError(t, err)
		assert.Equal(t, ts, got)
	})

	t.Run("manual date coerced to end of day", func(t *testing.T) {
		row := RawRow{ManualDate: &day}
		got, err := row.EffectiveTime()
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 3, 9, 23, 59, 59, 0, time.UTC), got)
	})

	t.Run("neither present", func(t *testing.T) {
		_, err := RawRow{Ref: "row:7"}.EffectiveTime()
		require.ErrorIs(t, err, ErrMissingTimestamp)
	})
}

func TestDedupKey(t *testing.T) {
	base := ResolvedEvent{
		ItemID:        "A-018",
		BorrowerID:    42,
		Action:        ActionBorrow,
		EffectiveTime: time.Date(2026, 3, 9, 10, 30, 17, 0, time.UTC),
	}

	t.Run("bucketed to granularity", func(t *testing.T) {
		other := base
		other.EffectiveTime = base.EffectiveTime.Add(20 * time.Second)
		assert.Equal(t, base.Key(), other.Key())
	})

	t.Run("different minute is a different event", func(t *testing.T) {
		other := base
		other.EffectiveTime = base.EffectiveTime.Add(2 * time.Minute)
		assert.NotEqual(t, base.Key(), other.Key())
	})

	t.Run("string form is stable", func(t *testing.T) {
		assert.Equal(t, "A-018|42|borrow|2026-03-09T10:30:00Z", base.Key().String())
	})
}

func TestCheckpointAdvance(t *testing.T) {
	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	t1 := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	t.Run("newer batch replaces the mark", func(t *testing.T) {
		cp := Checkpoint{HighWater: t1, Offset: 3}
		got := cp.Advance(t2, 2, now)
		assert.Equal(t, Checkpoint{HighWater: t2, Offset: 2, UpdatedAt: now}, got)
	})

	t.Run("same instant accumulates", func(t *testing.T) {
		cp := Checkpoint{HighWater: t1, Offset: 3}
		got := cp.Advance(t1, 2, now)
		assert.Equal(t, Checkpoint{HighWater: t1, Offset: 5, UpdatedAt: now}, got)
	})

	t.Run("older batch is a no-op", func(t *testing.T) {
		cp := Checkpoint{HighWater: t2, Offset: 1}
		assert.Equal(t, cp, cp.Advance(t1, 4, now))
	})
}

func TestNewRejectionID(t *testing.T) {
	ts := time.Date(2026, 3, 9, 10, 30, 0, 0, time.UTC)
	row := RawRow{
		Ref:             "row:2",
		BorrowerName:    "Jane Doe",
		CategoryCode:    "A",
		LabelRaw:        "18",
		ActionKeyword:   "borrow",
		ClientTimestamp: &ts,
	}

	t.Run("stable across redeliveries", func(t *testing.T) {
		assert.Equal(t,
			NewRejectionID(row, ReasonUnknownBorrower),
			NewRejectionID(row, ReasonUnknownBorrower),
		)
	})

	t.Run("reason is part of the identity", func(t *testing.T) {
		assert.NotEqual(t,
			NewRejectionID(row, ReasonUnknownBorrower),
			NewRejectionID(row, ReasonInvalidIdentifier),
		)
	})

	t.Run("corrected content gets a fresh id", func(t *testing.T) {
		corrected := row
		corrected.BorrowerName = "Jane Dole"
		assert.NotEqual(t,
			NewRejectionID(row, ReasonUnknownBorrower),
			NewRejectionID(corrected, ReasonUnknownBorrower),
		)
	})
}

func TestReasonForError(t *testing.T) {
	reason, ok := ReasonForError(ErrAmbiguousBorrower)
	require.True(t, ok)
	assert.Equal(t, ReasonAmbiguousBorrower, reason)

	_, ok = ReasonForError(assert.AnError)
	assert.False(t, ok)
}
