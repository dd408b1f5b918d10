package advisor

// BuildPositionMapping maps new argument index -> old argument index for
// a derived method whose parameter order follows its predicate columns.
// current and recommended must be permutations of each other and must not
// exceed argCount; otherwise no mapping is returned. Arguments beyond
// the tracked column count (e.g. a trailing pagination or sort argument)
// are identity-mapped: they are not part of the reordered predicate set.
func BuildPositionMapping(current, recommended []string, argCount int) (map[int]int, bool) {
	if len(current) != len(recommended) {
		return nil, false
	}
	if len(current) > argCount {
		return nil, false
	}

	mapping := make(map[int]int, argCount)
	used := make([]bool, len(current))

	for newIdx, column := range recommended {
		oldIdx := -1
		for j, c := range current {
			if !used[j] && c == column {
				oldIdx = j
				break
			}
		}
		if oldIdx < 0 {
			// Not a permutation of the current order.
			return nil, false
		}
		used[oldIdx] = true
		mapping[newIdx] = oldIdx
	}

	for i := len(current); i < argCount; i++ {
		mapping[i] = i
	}
	return mapping, true
}
