//go:build (amd64 || arm64) && !appengine && !noasm && gc

// Copyright (c) 2020 MinIO Inc. All rights reserved.
// Use of this source code is governed by a license that can be
// found in the LICENSE file.

package rsha256

// accelBlocks - assembly kernels indexed by lanes-1. Callers guarantee
// len(h) == lanes*Size and that hasAccel is set.
var accelBlocks = [MaxLanes]func(h []byte, n uint64){
	func(h []byte, n uint64) { blockX1((*[Size]byte)(h), n) },
	func(h []byte, n uint64) { blockX2((*[2 * Size]byte)(h), n) },
	func(h []byte, n uint64) { blockX3((*[3 * Size]byte)(h), n) },
	func(h []byte, n uint64) { blockX4((*[4 * Size]byte)(h), n) },
}
