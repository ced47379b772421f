package fuzzy

// Distance returns the Levenshtein distance between a and b, counted in runes.
// The comparison is case-sensitive; callers fold case beforehand.
func Distance(a, b string) int {
	d, _ := distance([]rune(a), []rune(b), -1)
	return d
}

// DistanceWithin computes the distance between a and b but gives up as soon as
// it is known to exceed max. When ok is false the returned value is a lower
// bound greater than max, not the exact distance.
func DistanceWithin(a, b string, max int) (d int, ok bool) {
	if max < 0 {
		max = 0
	}
	return distance([]rune(a), []rune(b), max)
}

// distance runs the classic dynamic program over two rolling rows.
// A negative limit disables the early exit.
func distance(a, b []rune, limit int) (int, bool) {
	if len(a) == 0 {
		return bounded(len(b), limit)
	}
	if len(b) == 0 {
		return bounded(len(a), limit)
	}

	prev := make([]int, len(a)+1)
	curr := make([]int, len(a)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(b); i++ {
		curr[0] = i
		rowMin := i
		for j := 1; j <= len(a); j++ {
			if b[i-1] == a[j-1] {
				curr[j] = prev[j-1]
			} else {
				curr[j] = min(prev[j-1], curr[j-1], prev[j]) + 1
			}
			if curr[j] < rowMin {
				rowMin = curr[j]
			}
		}
		// row minima never decrease, so the final cell can't come back under the limit
		if limit >= 0 && rowMin > limit {
			return rowMin, false
		}
		prev, curr = curr, prev
	}

	return bounded(prev[len(a)], limit)
}

func bounded(d, limit int) (int, bool) {
	return d, limit < 0 || d <= limit
}
