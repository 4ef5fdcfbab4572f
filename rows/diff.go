// Package rows projects discovery directories into typed display rows.
// This file contains the keyed diff between successive projections,
// expressed as index-based delete and insert operations suitable for an
// animated list update.
package rows

// Insertion places a row at its final index in the new projection.
type Insertion struct {
	Index int
	Row   Row
}

// Diff is the minimal set of operations turning one projection into the
// next. DeletedIndices are indices into the old projection, sorted
// descending so they can be applied in order; Insertions are sorted
// ascending by final index. Rows whose relative order changed appear as
// a delete+insert pair, since the consumer understands only those two
// operations.
type Diff struct {
	DeletedIndices []int
	Insertions     []Insertion
}

// Empty reports whether the diff contains no operations.
func (d Diff) Empty() bool {
	return len(d.DeletedIndices) == 0 && len(d.Insertions) == 0
}

// Compute diffs two projections by row key. Rows present only in the
// old projection are deleted exactly once; rows present only in the new
// projection are inserted exactly once at their final index; rows
// present in both are left alone unless their relative order changed.
// The stable rows are the longest common subsequence of the two key
// sequences, so in-place value updates never force a delete+insert.
func Compute(old, new []Row) Diff {
	oldKeys := make([]string, len(old))
	for i, r := range old {
		oldKeys[i] = r.Key()
	}
	newKeys := make([]string, len(new))
	for i, r := range new {
		newKeys[i] = r.Key()
	}

	keepOld, keepNew := commonSubsequence(oldKeys, newKeys)

	var diff Diff
	for i := len(old) - 1; i >= 0; i-- {
		if !keepOld[i] {
			diff.DeletedIndices = append(diff.DeletedIndices, i)
		}
	}
	for i := range new {
		if !keepNew[i] {
			diff.Insertions = append(diff.Insertions, Insertion{Index: i, Row: new[i]})
		}
	}
	return diff
}

// Apply replays a diff onto the old projection: deletes first (indices
// are already descending), then inserts at their final indices. The
// result is index-equal to the new projection the diff was computed
// against.
func Apply(old []Row, d Diff) []Row {
	out := make([]Row, len(old))
	copy(out, old)

	for _, idx := range d.DeletedIndices {
		out = append(out[:idx], out[idx+1:]...)
	}
	for _, ins := range d.Insertions {
		out = append(out, Row{})
		copy(out[ins.Index+1:], out[ins.Index:])
		out[ins.Index] = ins.Row
	}
	return out
}

// UpdatedIndices returns the final indices of rows that are stable in
// the diff but whose display value changed, for in-place cell updates.
// This is communicated separately from the structural diff.
func UpdatedIndices(old, new []Row) []int {
	oldByKey := make(map[string]Row, len(old))
	for _, r := range old {
		oldByKey[r.Key()] = r
	}
	var updated []int
	for i, r := range new {
		prev, ok := oldByKey[r.Key()]
		if ok && prev.DisplayName != r.DisplayName {
			updated = append(updated, i)
		}
	}
	return updated
}

// commonSubsequence marks, per side, the elements belonging to one
// longest common subsequence of the two key slices.
func commonSubsequence(a, b []string) (keepA, keepB []bool) {
	n, m := len(a), len(b)
	keepA = make([]bool, n)
	keepB = make([]bool, m)

	// Standard LCS table; projections are list-sized, so the quadratic
	// table is fine.
	lcs := make([][]int, n+1)
	for i := range lcs {
		lcs[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if a[i] == b[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else if lcs[i+1][j] >= lcs[i][j+1] {
				lcs[i][j] = lcs[i+1][j]
			} else {
				lcs[i][j] = lcs[i][j+1]
			}
		}
	}

	i, j := 0, 0
	for i < n && j < m {
		switch {
		case a[i] == b[j]:
			keepA[i] = true
			keepB[j] = true
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			i++
		default:
			j++
		}
	}
	return keepA, keepB
}
