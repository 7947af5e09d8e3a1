// Copyright (c) 2020 MinIO Inc. All rights reserved.
// Use of this source code is governed by a license that can be
// found in the LICENSE file.

package rsha256

import (
	"sort"
)

// Helper struct for sorting lanes on pending iterations
type pending struct {
	n   uint64
	pos uint
}

type byPending []pending

func (p byPending) Len() int           { return len(p) }
func (p byPending) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }
func (p byPending) Less(i, j int) bool { return p[i].n < p[j].n }

// segment - run the lanes in mask for rounds iterations
type segment struct {
	mask   uint8
	rounds uint64
}

// lanes returns the positions set in mask, in ascending order.
func (s segment) lanes() (pos []int) {
	for i := 0; i < MaxLanes; i++ {
		if s.mask&(1<<uint(i)) != 0 {
			pos = append(pos, i)
		}
	}
	return
}

// schedule splits the pending iterations of up to MaxLanes chains into
// segments. All lanes with work start together; whenever the shortest
// remaining lane completes it drops out of the mask, so every segment can run
// on the lockstep kernel matching its number of lanes.
func schedule(input [MaxLanes]uint64) (segs []segment) {

	// Sort on iterations small to large
	var sorted [MaxLanes]pending
	for c, n := range input {
		sorted[c] = pending{n, uint(c)}
	}
	sort.Stable(byPending(sorted[:]))

	m, round := uint8(1<<MaxLanes-1), uint64(0)
	segs = make([]segment, 0, MaxLanes)
	for _, s := range sorted {
		if s.n > round {
			segs = append(segs, segment{m, s.n - round})
			round = s.n
		}
		m &^= 1 << s.pos
	}

	return
}
