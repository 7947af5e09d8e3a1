// Copyright (c) 2020 MinIO Inc. All rights reserved.
// Use of this source code is governed by a license that can be
// found in the LICENSE file.

package rsha256

import (
	"encoding/binary"
	"math/bits"
)

// compressGeneric replaces h with SHA256(h) using the plain round function.
//
// The block is h followed by the fixed padding, and the result is the
// compression output plus the IV. Both only hold because h is the complete
// 32 byte message of a fresh single block hash.
func compressGeneric(h *[Size]byte) {
	var w [64]uint32
	for i := 0; i < 8; i++ {
		w[i] = binary.BigEndian.Uint32(h[4*i:])
	}
	copy(w[8:16], pad[:])
	for i := 16; i < 64; i++ {
		v1 := w[i-2]
		t1 := bits.RotateLeft32(v1, -17) ^ bits.RotateLeft32(v1, -19) ^ (v1 >> 10)
		v2 := w[i-15]
		t2 := bits.RotateLeft32(v2, -7) ^ bits.RotateLeft32(v2, -18) ^ (v2 >> 3)
		w[i] = t1 + w[i-7] + t2 + w[i-16]
	}

	a, b, c, d, e, f, g, hh := uint32(init0), uint32(init1), uint32(init2), uint32(init3),
		uint32(init4), uint32(init5), uint32(init6), uint32(init7)

	for i := 0; i < 64; i++ {
		t1 := hh + (bits.RotateLeft32(e, -6) ^ bits.RotateLeft32(e, -11) ^ bits.RotateLeft32(e, -25)) +
			((e & f) ^ (^e & g)) + _K[i] + w[i]
		t2 := (bits.RotateLeft32(a, -2) ^ bits.RotateLeft32(a, -13) ^ bits.RotateLeft32(a, -22)) +
			((a & b) ^ (a & c) ^ (b & c))

		hh = g
		g = f
		f = e
		e = d + t1
		d = c
		c = b
		b = a
		a = t1 + t2
	}

	binary.BigEndian.PutUint32(h[0:], a+init0)
	binary.BigEndian.PutUint32(h[4:], b+init1)
	binary.BigEndian.PutUint32(h[8:], c+init2)
	binary.BigEndian.PutUint32(h[12:], d+init3)
	binary.BigEndian.PutUint32(h[16:], e+init4)
	binary.BigEndian.PutUint32(h[20:], f+init5)
	binary.BigEndian.PutUint32(h[24:], g+init6)
	binary.BigEndian.PutUint32(h[28:], hh+init7)
}

// blockGeneric advances every chain in h by n iterations, one chain after
// the other. len(h) must be a multiple of Size.
func blockGeneric(h []byte, n uint64) {
	for len(h) >= Size {
		s := (*[Size]byte)(h[:Size])
		for i := n; i > 0; i-- {
			compressGeneric(s)
		}
		h = h[Size:]
	}
}
