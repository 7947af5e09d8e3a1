// Copyright (c) 2020 MinIO Inc. All rights reserved.
// Use of this source code is governed by a license that can be
// found in the LICENSE file.

package rsha256

import (
	"reflect"
	"testing"
)

type scheduleTest struct {
	in  [MaxLanes]uint64
	out []segment
}

var goldenSchedule = []scheduleTest{
	{[MaxLanes]uint64{0, 0, 0, 0}, []segment{}},
	{[MaxLanes]uint64{5, 0, 5, 0}, []segment{{0x5, 5}}},
	{[MaxLanes]uint64{0, 7, 0, 0}, []segment{{0x2, 7}}},
	{[MaxLanes]uint64{1, 1, 1, 1}, []segment{{0xf, 1}}},
	{[MaxLanes]uint64{1, 2, 1, 2}, []segment{{0xf, 1}, {0xa, 1}}},
	{[MaxLanes]uint64{2, 1, 2, 1}, []segment{{0xf, 1}, {0x5, 1}}},
	{[MaxLanes]uint64{1, 2, 3, 4}, []segment{{0xf, 1}, {0xe, 1}, {0xc, 1}, {0x8, 1}}},
	{[MaxLanes]uint64{2, 1, 3, 4}, []segment{{0xf, 1}, {0xd, 1}, {0xc, 1}, {0x8, 1}}},
	{[MaxLanes]uint64{3, 3, 0, 9}, []segment{{0xb, 3}, {0x8, 6}}},
	{[MaxLanes]uint64{10, 19, 27, 34}, []segment{{0xf, 10}, {0xe, 9}, {0xc, 8}, {0x8, 7}}},
}

func TestSchedule(t *testing.T) {
	for gcase, g := range goldenSchedule {
		got := schedule(g.in)
		if !reflect.DeepEqual(got, g.out) {
			t.Fatalf("case %d: got %x\n             want %x", gcase, got, g.out)
		}
	}
}

func TestSegmentLanes(t *testing.T) {
	if got := (segment{mask: 0xb}).lanes(); !reflect.DeepEqual(got, []int{0, 1, 3}) {
		t.Errorf("got %v", got)
	}
	if got := (segment{}).lanes(); len(got) != 0 {
		t.Errorf("got %v", got)
	}
}

// Running the segments one after the other must apply every lane's own
// iteration count.
func TestScheduleApplies(t *testing.T) {
	in := [MaxLanes]uint64{4, 0, 9, 2}

	var state [MaxLanes]Hash
	for i := range state {
		state[i] = Seed(i)
	}
	for _, seg := range schedule(in) {
		for _, p := range seg.lanes() {
			blockGeneric(state[p][:], seg.rounds)
		}
	}
	for i, n := range in {
		if want := Sum(Seed(i), n); state[i] != want {
			t.Errorf("lane %d: got %s, want %s", i, state[i], want)
		}
	}
}
