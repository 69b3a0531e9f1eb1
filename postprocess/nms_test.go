package postprocess

import (
	"math/rand"
	"testing"

	"github.com/swdee/go-scrfd/geometry"
)

// box returns a proposal for the given rect and probability
func box(x, y, w, h, prob float32) Proposal {
	return Proposal{
		Rect: geometry.ModelRect{X: x, Y: y, Width: w, Height: h},
		Prob: prob,
	}
}

func TestIoU(t *testing.T) {

	tests := []struct {
		name string
		a, b geometry.ModelRect
		want float32
	}{
		{"identical", geometry.ModelRect{X: 0, Y: 0, Width: 10, Height: 10},
			geometry.ModelRect{X: 0, Y: 0, Width: 10, Height: 10}, 1},
		{"half overlap", geometry.ModelRect{X: 0, Y: 0, Width: 10, Height: 10},
			geometry.ModelRect{X: 5, Y: 0, Width: 10, Height: 10}, 50.0 / 150.0},
		{"disjoint", geometry.ModelRect{X: 0, Y: 0, Width: 10, Height: 10},
			geometry.ModelRect{X: 20, Y: 20, Width: 10, Height: 10}, 0},
		{"zero area", geometry.ModelRect{X: 0, Y: 0}, geometry.ModelRect{X: 0, Y: 0}, 0},
	}

	for _, tc := range tests {
		if got := IoU(tc.a, tc.b); !almostEqual(got, tc.want, 1e-6) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestNMSIdenticalBoxes(t *testing.T) {

	props := []Proposal{
		box(10, 10, 50, 50, 0.8),
		box(10, 10, 50, 50, 0.9),
	}

	keep := NMS(props, 0.45)

	if len(keep) != 1 || keep[0] != 1 {
		t.Errorf("expected only the 0.9 box to survive, got %v", keep)
	}
}

func TestNMSDisjointBoxes(t *testing.T) {

	props := []Proposal{
		box(0, 0, 10, 10, 0.6),
		box(100, 100, 10, 10, 0.7),
	}

	for _, thr := range []float32{0.01, 0.45, 1} {
		keep := NMS(props, thr)

		if len(keep) != 2 {
			t.Errorf("threshold %v: expected both boxes kept, got %v", thr, keep)
		}
	}
}

func TestNMSThresholdExclusive(t *testing.T) {

	// IoU is exactly 1/3
	props := []Proposal{
		box(0, 0, 10, 10, 0.9),
		box(5, 0, 10, 10, 0.8),
	}

	if keep := NMS(props, float32(50.0/150.0)); len(keep) != 2 {
		t.Errorf("expected IoU equal to threshold to be kept, got %v", keep)
	}

	if keep := NMS(props, 0.3); len(keep) != 1 {
		t.Errorf("expected IoU above threshold to be suppressed, got %v", keep)
	}
}

func TestNMSEmpty(t *testing.T) {

	keep := NMS(nil, 0.45)

	if keep == nil || len(keep) != 0 {
		t.Errorf("expected empty non nil result, got %v", keep)
	}
}

// randomProposals returns n overlapping proposals spread over a small area
func randomProposals(rng *rand.Rand, n int) []Proposal {

	props := make([]Proposal, n)

	for i := range props {
		props[i] = box(
			rng.Float32()*100,
			rng.Float32()*100,
			20+rng.Float32()*40,
			20+rng.Float32()*40,
			rng.Float32(),
		)
	}

	return props
}

func TestSortDescending(t *testing.T) {

	rng := rand.New(rand.NewSource(42))

	for _, n := range []int{0, 1, 2, 7, 64, 500} {
		props := randomProposals(rng, n)

		// force some ties
		for i := 0; i+3 < n; i += 4 {
			props[i+3].Prob = props[i].Prob
		}

		order := make([]int, n)

		for i := range order {
			order[i] = i
		}

		SortDescending(props, order)

		seen := make(map[int]bool)

		for i, idx := range order {
			if seen[idx] {
				t.Fatalf("n=%d: index %d appears twice", n, idx)
			}

			seen[idx] = true

			if i > 0 && props[order[i-1]].Prob < props[idx].Prob {
				t.Fatalf("n=%d: order not descending at %d", n, i)
			}
		}

		if len(seen) != n {
			t.Errorf("n=%d: expected a permutation, got %d distinct indices", n, len(seen))
		}
	}
}

func TestNMSProperties(t *testing.T) {

	rng := rand.New(rand.NewSource(7))
	thr := float32(0.45)

	for round := 0; round < 20; round++ {
		props := randomProposals(rng, 50)
		keep := NMS(props, thr)

		if len(keep) == 0 {
			t.Fatalf("round %d: expected at least one proposal kept", round)
		}

		for i := range keep {
			// descending confidence
			if i > 0 && props[keep[i-1]].Prob < props[keep[i]].Prob {
				t.Errorf("round %d: kept list not descending at %d", round, i)
			}

			// pairwise overlap within threshold
			for j := i + 1; j < len(keep); j++ {
				if iou := IoU(props[keep[i]].Rect, props[keep[j]].Rect); iou > thr {
					t.Errorf("round %d: kept %d and %d overlap with IoU %v", round,
						keep[i], keep[j], iou)
				}
			}
		}

		// idempotent
		kept := make([]Proposal, len(keep))

		for i, k := range keep {
			kept[i] = props[k]
		}

		again := NMS(kept, thr)

		if len(again) != len(kept) {
			t.Errorf("round %d: second pass changed result from %d to %d proposals",
				round, len(kept), len(again))
		}
	}
}

func TestSuppressSorted(t *testing.T) {

	props := []Proposal{
		box(0, 0, 10, 10, 0.5),
		box(1, 1, 10, 10, 0.9),
		box(50, 50, 10, 10, 0.7),
	}

	order := []int{1, 2, 0}

	picked := SuppressSorted(props, order, 0.45)

	// positions within order
	want := []int{0, 1}

	if len(picked) != len(want) {
		t.Fatalf("expected %v, got %v", want, picked)
	}

	for i := range want {
		if picked[i] != want[i] {
			t.Errorf("expected %v, got %v", want, picked)
		}
	}
}
