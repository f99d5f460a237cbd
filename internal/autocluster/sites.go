package autocluster

import (
	"cmp"
	"math/rand/v2"
	"slices"

	"github.com/chewxy/math32"

	"github.com/Faultbox/shatter/pkg/geom"
)

// allocate returns the site count of every group. Each group gets one site;
// the rest of budget is shared by group volume, rounded to nearest and
// capped by member count, never exceeding budget in total.
func allocate(groups [][]int, cands []candidate, budget int) []int {
	sites := make([]int, len(groups))
	for i := range sites {
		sites[i] = 1
	}
	remaining := budget - len(groups)
	if remaining <= 0 {
		return sites
	}

	weights := make([]float32, len(groups))
	var total float32
	for i, members := range groups {
		for _, m := range members {
			weights[i] += cands[m].volume
		}
		total += weights[i]
	}
	if total <= 0 {
		// Flat geometry everywhere: share by member count instead.
		for i, members := range groups {
			weights[i] = float32(len(members))
			total += weights[i]
		}
	}

	used := 0
	for i, members := range groups {
		extra := int(math32.Round(float32(remaining) * weights[i] / total))
		extra = min(extra, len(members)-1)
		sites[i] += extra
		used += extra
	}

	// Rounding up in several groups can overshoot; take back from the
	// group holding the most extra sites.
	for used > remaining {
		best := -1
		for i := range sites {
			if sites[i] > 1 && (best < 0 || sites[i] > sites[best]) {
				best = i
			}
		}
		sites[best]--
		used--
	}
	return sites
}

// placeAnchors returns the k members with the largest boxes. Equal volumes
// keep index order, or a random order when rng is set.
func placeAnchors(cands []candidate, members []int, k int, rng *rand.Rand) []int {
	order := slices.Clone(members)
	tie := make(map[int]int, len(order))
	if rng != nil {
		for i, p := range rng.Perm(len(order)) {
			tie[order[i]] = p
		}
	} else {
		for i, m := range order {
			tie[m] = i
		}
	}
	slices.SortFunc(order, func(a, b int) int {
		if c := cmp.Compare(cands[b].volume, cands[a].volume); c != 0 {
			return c
		}
		return cmp.Compare(tie[a], tie[b])
	})
	return order[:min(k, len(order))]
}

// assign splits members between anchors. Every anchor keeps itself; other
// members go to the nearest anchor, ties to the lowest site. With
// byCorners the distance is the corner-to-corner distance of the boxes,
// otherwise the distance between centres. Each list keeps index order.
func assign(cands []candidate, members, anchors []int, byCorners bool) [][]int {
	site := make(map[int]int, len(anchors))
	for s, a := range anchors {
		site[a] = s
	}

	out := make([][]int, len(anchors))
	for _, m := range members {
		if s, ok := site[m]; ok {
			out[s] = append(out[s], m)
			continue
		}
		best, bestDist := 0, math32.Inf(1)
		for s, a := range anchors {
			var d float32
			if byCorners {
				d = cands[m].box.CornerDistance(cands[a].box)
			} else {
				d = geom.Distance(cands[m].centre, cands[a].centre)
			}
			if d < bestDist {
				best, bestDist = s, d
			}
		}
		out[best] = append(out[best], m)
	}
	return out
}
