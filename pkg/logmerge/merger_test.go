package logmerge

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func at(hhmm string) time.Time {
	return ts("2024-01-01 " + hhmm + ":00.000")
}

func TestMerge_EqualTimestamps(t *testing.T) {
	rows := Merge(
		[]Entry{{Timestamp: at("10:00"), Message: "A"}},
		[]Entry{{Timestamp: at("10:00"), Message: "B"}},
	)

	require.Equal(t, []MergedEntry{{Timestamp: at("10:00"), Left: "A", Right: "B"}}, rows)
}

func TestMerge_Interleaved(t *testing.T) {
	rows := Merge(
		[]Entry{{Timestamp: at("10:00"), Message: "A"}, {Timestamp: at("10:05"), Message: "C"}},
		[]Entry{{Timestamp: at("10:02"), Message: "B"}},
	)

	require.Equal(t, []MergedEntry{
		{Timestamp: at("10:00"), Left: "A"},
		{Timestamp: at("10:02"), Right: "B"},
		{Timestamp: at("10:05"), Left: "C"},
	}, rows)
}

func TestMerge_EmptyInputs(t *testing.T) {
	one := []Entry{{Timestamp: at("10:00"), Message: "A"}}

	require.Empty(t, Merge(nil, nil))
	require.Equal(t, []MergedEntry{{Timestamp: at("10:00"), Left: "A"}}, Merge(one, nil))
	require.Equal(t, []MergedEntry{{Timestamp: at("10:00"), Right: "A"}}, Merge(nil, one))
}

func TestMerge_DrainsRemainder(t *testing.T) {
	left := []Entry{{Timestamp: at("10:00"), Message: "L1"}}
	right := []Entry{
		{Timestamp: at("09:00"), Message: "R1"},
		{Timestamp: at("11:00"), Message: "R2"},
		{Timestamp: at("12:00"), Message: "R3"},
	}

	rows := Merge(left, right)

	require.Equal(t, []MergedEntry{
		{Timestamp: at("09:00"), Right: "R1"},
		{Timestamp: at("10:00"), Left: "L1"},
		{Timestamp: at("11:00"), Right: "R2"},
		{Timestamp: at("12:00"), Right: "R3"},
	}, rows)
}

func TestMerge_SameTimestampPairsPositionally(t *testing.T) {
	left := []Entry{
		{Timestamp: at("10:00"), Message: "L1"},
		{Timestamp: at("10:00"), Message: "L2"},
		{Timestamp: at("10:00"), Message: "L3"},
	}
	right := []Entry{
		{Timestamp: at("10:00"), Message: "R1"},
		{Timestamp: at("10:01"), Message: "R2"},
	}

	rows := Merge(left, right)

	require.Equal(t, []MergedEntry{
		{Timestamp: at("10:00"), Left: "L1", Right: "R1"},
		{Timestamp: at("10:00"), Left: "L2"},
		{Timestamp: at("10:00"), Left: "L3"},
		{Timestamp: at("10:01"), Right: "R2"},
	}, rows)
}

func TestMerge_UnsortedInputDoesNotFail(t *testing.T) {
	left := []Entry{{Timestamp: at("10:05"), Message: "late"}, {Timestamp: at("10:00"), Message: "early"}}
	right := []Entry{{Timestamp: at("10:03"), Message: "mid"}}

	rows := Merge(left, right)

	require.Len(t, rows, 3)
	require.Equal(t, "mid", rows[0].Right)
}

func TestAll_Restartable(t *testing.T) {
	left := []Entry{{Timestamp: at("10:00"), Message: "A"}, {Timestamp: at("10:05"), Message: "C"}}
	right := []Entry{{Timestamp: at("10:02"), Message: "B"}}

	seq := All(left, right)

	require.Equal(t, slices.Collect(seq), slices.Collect(seq))
	require.Equal(t, Merge(left, right), slices.Collect(seq))
}

func TestAll_StopsEarly(t *testing.T) {
	left := []Entry{{Timestamp: at("10:00"), Message: "A"}, {Timestamp: at("10:05"), Message: "C"}}
	right := []Entry{{Timestamp: at("10:02"), Message: "B"}, {Timestamp: at("10:07"), Message: "D"}}

	var got []MergedEntry
	for row := range All(left, right) {
		got = append(got, row)
		if len(got) == 2 {
			break
		}
	}

	require.Len(t, got, 2)
	require.Equal(t, "B", got[1].Right)
}

func TestSummarize(t *testing.T) {
	rows := []MergedEntry{
		{Timestamp: at("10:00"), Left: "A", Right: "B"},
		{Timestamp: at("10:01"), Left: "C"},
		{Timestamp: at("10:02"), Right: "D"},
		{Timestamp: at("10:03"), Right: "E"},
	}

	require.Equal(t, Stats{Rows: 4, Paired: 1, LeftOnly: 1, RightOnly: 2}, Summarize(rows))
}

// randomLog returns n entries with non-decreasing timestamps drawn from a
// small range so that ties are common.
func randomLog(r *rand.Rand, name string, n int) []Entry {
	base := at("10:00")
	entries := make([]Entry, n)
	for i := range entries {
		entries[i] = Entry{
			Timestamp: base.Add(time.Duration(r.IntN(20)) * time.Millisecond),
			Message:   fmt.Sprintf("%s-%d", name, i),
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
	return entries
}

func TestMerge_Properties(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))

	for n := 0; n < 200; n++ {
		left := randomLog(r, "L", r.IntN(15))
		right := randomLog(r, "R", r.IntN(15))

		rows := Merge(left, right)
		stats := Summarize(rows)

		// Every input entry appears exactly once, in order.
		var gotLeft, gotRight []string
		for i, row := range rows {
			require.True(t, row.Left != "" || row.Right != "")
			if i > 0 {
				require.False(t, row.Timestamp.Before(rows[i-1].Timestamp), "timestamps must not decrease")
			}
			if row.Left != "" {
				gotLeft = append(gotLeft, row.Left)
			}
			if row.Right != "" {
				gotRight = append(gotRight, row.Right)
			}
		}
		require.Equal(t, messages(left), gotLeft)
		require.Equal(t, messages(right), gotRight)
		require.Equal(t, len(left)+len(right)-stats.Paired, len(rows))
	}
}

func messages(entries []Entry) []string {
	var out []string
	for _, e := range entries {
		out = append(out, e.Message)
	}
	return out
}
