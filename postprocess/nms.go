package postprocess

import (
	"github.com/swdee/go-scrfd/geometry"
)

// SortDescending reorders the index permutation order so that the proposals
// it refers to are in non-increasing probability.  props is not modified.
// The order of proposals with equal probability is unspecified.
func SortDescending(props []Proposal, order []int) {

	if len(order) < 2 {
		return
	}

	quickSortDescent(props, order, 0, len(order)-1)
}

// quickSortDescent is an in place partition sort over order[left:right+1]
// using the middle element as pivot
func quickSortDescent(props []Proposal, order []int, left, right int) {

	i := left
	j := right
	pivot := props[order[(left+right)/2]].Prob

	for i <= j {
		for props[order[i]].Prob > pivot {
			i++
		}

		for props[order[j]].Prob < pivot {
			j--
		}

		if i <= j {
			order[i], order[j] = order[j], order[i]
			i++
			j--
		}
	}

	if left < j {
		quickSortDescent(props, order, left, j)
	}

	if i < right {
		quickSortDescent(props, order, i, right)
	}
}

// IoU returns the Intersection over Union of two boxes.  Boxes with no union
// area have an IoU of 0.
func IoU(a, b geometry.ModelRect) float32 {

	inter := a.Intersect(b).Area()
	union := a.Area() + b.Area() - inter

	if union <= 0 {
		return 0
	}

	return inter / union
}

// SuppressSorted runs greedy Non-Maximum Suppression over proposals already
// ordered by descending probability through order.  A candidate is dropped
// when its IoU with any kept proposal exceeds nmsThreshold.  The returned
// indices are positions within order.
func SuppressSorted(props []Proposal, order []int, nmsThreshold float32) []int {

	picked := make([]int, 0)

	for i, n := range order {

		keep := true

		for _, p := range picked {
			if IoU(props[n].Rect, props[order[p]].Rect) > nmsThreshold {
				keep = false
				break
			}
		}

		if keep {
			picked = append(picked, i)
		}
	}

	return picked
}

// NMS sorts the proposals by descending probability then suppresses
// overlapping boxes.  The returned indices refer to props, ordered by
// descending probability, and no two of them overlap by more than
// nmsThreshold.
func NMS(props []Proposal, nmsThreshold float32) []int {

	order := make([]int, len(props))

	for i := range order {
		order[i] = i
	}

	SortDescending(props, order)

	picked := SuppressSorted(props, order, nmsThreshold)

	keep := make([]int, len(picked))

	for i, p := range picked {
		keep[i] = order[p]
	}

	return keep
}
