package postprocess

import "sort"

// argsortDescending returns the indices of values ordered by descending
// value.  Equal values keep their original relative order.
func argsortDescending(values []float64) []int {

	indices := make([]int, len(values))

	for i := range indices {
		indices[i] = i
	}

	sort.SliceStable(indices, func(a, b int) bool {
		return values[indices[a]] > values[indices[b]]
	})

	return indices
}

// permute returns a new slice holding items[order[0]], items[order[1]], ...
func permute[T any](items []T, order []int) []T {

	out := make([]T, len(order))

	for i, idx := range order {
		out[i] = items[idx]
	}

	return out
}

// reversed returns a reversed copy of items
func reversed[T any](items []T) []T {

	out := make([]T, len(items))

	for i, v := range items {
		out[len(items)-1-i] = v
	}

	return out
}

// filter returns the items whose keep flag is set
func filter[T any](items []T, keep []bool) []T {

	out := make([]T, 0, len(items))

	for i, v := range items {
		if keep[i] {
			out = append(out, v)
		}
	}

	return out
}
