package services

import "sort"

// largestRemainder splits total in proportion to weights. Each part gets the
// floor of its exact share; leftover units go to the largest fractional
// remainders, ties to the lower index. The parts always sum to total.
func largestRemainder(total int64, weights []int64) []int64 {
	parts := make([]int64, len(weights))
	var sum int64
	for _, w := range weights {
		if w > 0 {
			sum += w
		}
	}
	if sum == 0 || total <= 0 {
		return parts
	}

	type rem struct {
		idx int
		r   int64
	}
	rems := make([]rem, 0, len(weights))
	var assigned int64
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		parts[i] = total * w / sum
		assigned += parts[i]
		rems = append(rems, rem{idx: i, r: total * w % sum})
	}

	sort.SliceStable(rems, func(a, b int) bool {
		if rems[a].r != rems[b].r {
			return rems[a].r > rems[b].r
		}
		return rems[a].idx < rems[b].idx
	})
	for i := int64(0); i < total-assigned; i++ {
		parts[rems[i].idx]++
	}
	return parts
}
