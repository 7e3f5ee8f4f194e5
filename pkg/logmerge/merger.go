package logmerge

import "iter"

// Merge aligns two logs by timestamp. Each input must be sorted by timestamp
// for the result to be chronological; Merge itself never fails.
func Merge(left, right []Entry) []MergedEntry {
	rows := make([]MergedEntry, 0, len(left)+len(right))
	for row := range All(left, right) {
		rows = append(rows, row)
	}
	return rows
}

// All yields the rows of Merge(left, right) one at a time. Every range over
// the returned sequence starts again from the first entries.
func All(left, right []Entry) iter.Seq[MergedEntry] {
	return func(yield func(MergedEntry) bool) {
		i, j := 0, 0
		for i < len(left) && j < len(right) {
			l, r := left[i], right[j]

			var row MergedEntry
			switch {
			case l.Timestamp.Before(r.Timestamp):
				row = MergedEntry{Timestamp: l.Timestamp, Left: l.Message}
				i++
			case r.Timestamp.Before(l.Timestamp):
				row = MergedEntry{Timestamp: r.Timestamp, Right: r.Message}
				j++
			default:
				row = MergedEntry{Timestamp: l.Timestamp, Left: l.Message, Right: r.Message}
				i++
				j++
			}
			if !yield(row) {
				return
			}
		}

		// At most one of these loops has work left.
		for ; i < len(left); i++ {
			if !yield(MergedEntry{Timestamp: left[i].Timestamp, Left: left[i].Message}) {
				return
			}
		}
		for ; j < len(right); j++ {
			if !yield(MergedEntry{Timestamp: right[j].Timestamp, Right: right[j].Message}) {
				return
			}
		}
	}
}
