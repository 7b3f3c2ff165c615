package source_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelfsync/internal/source"
)

func TestParse(t *testing.T) {
	in := strings.Join([]string{
		"Timestamp,Borrower_Name,Category,Label,Action,Date,Notes",
		`2026-03-09T10:30:05Z,Alice Wang,A,18,借閱,,`,
		`2026-03-09 10:31:00,Bob Chen,a, 7 ,return,,damaged spine`,
		`,Alice Wang,A,18,歸還,2026-03-10,`,
	}, "\n")

	rows, err := source.Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	first := rows[0]
	assert.Equal(t, "row:2", first.Ref)
	assert.Equal(t, "Alice Wang", first.BorrowerName)
	assert.Equal(t, "A", first.CategoryCode)
	assert.Equal(t, "18", first.LabelRaw)
	assert.Equal(t, "借閱", first.ActionKeyword)
	require.NotNil(t, first.ClientTimestamp)
	assert.Equal(t, time.Date(2026, 3, 9, 10, 30, 5, 0, time.UTC), first.ClientTimestamp.UTC())
	assert.Nil(t, first.ManualDate)

	second := rows[1]
	assert.Equal(t, "row:3", second.Ref)
	assert.Equal(t, "a", second.CategoryCode)
	assert.Equal(t, "7", second.LabelRaw, "cell whitespace is trimmed, not rejected")
	assert.Equal(t, "damaged spine", second.Notes)
	require.NotNil(t, second.ClientTimestamp)
	assert.Equal(t, time.Date(2026, 3, 9, 10, 31, 0, 0, time.UTC), second.ClientTimestamp.UTC())

	third := rows[2]
	assert.Nil(t, third.ClientTimestamp)
	require.NotNil(t, third.ManualDate)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), third.ManualDate.UTC())
}

// Garbage in the timestamp cell does not kill the read; the row is carried
// with the timestamp absent so the normalizer can report it properly.
func TestParseUnparseableTimestamp(t *testing.T) {
	in := strings.Join([]string{
		"timestamp,borrower_name,category,label,action",
		`yesterday-ish,Alice Wang,A,18,borrow`,
	}, "\n")

	rows, err := source.Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].ClientTimestamp)
	assert.Nil(t, rows[0].ManualDate)
}

func TestParseMissingRequiredColumn(t *testing.T) {
	in := strings.Join([]string{
		"timestamp,borrower_name,category,label",
		`2026-03-09T10:30:05Z,Alice Wang,A,18`,
	}, "\n")

	_, err := source.Parse(strings.NewReader(in))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "action")
}

func TestParseOptionalColumnsAbsent(t *testing.T) {
	in := strings.Join([]string{
		"borrower_name,category,label,action",
		`Alice Wang,A,18,borrow`,
	}, "\n")

	rows, err := source.Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Empty(t, rows[0].Notes)
	assert.Nil(t, rows[0].ClientTimestamp)
}
