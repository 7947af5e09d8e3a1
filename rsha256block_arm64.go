//go:build !appengine && !noasm && gc

// Copyright (c) 2020 MinIO Inc. All rights reserved.
// Use of this source code is governed by a license that can be
// found in the LICENSE file.

package rsha256

// Kernels in rsha256block_arm64.s, generated by _gen/arm64. The result of
// every kernel is undefined on CPUs without the ARMv8 SHA2 extension;
// callers check hasAccel.

// blockX1 replaces h with SHA256(h), n times.
//
//go:noescape
func blockX1(h *[32]byte, n uint64)

// blockX2 advances 2 independent chains of h in lockstep, n iterations each.
//
//go:noescape
func blockX2(h *[64]byte, n uint64)

// blockX3 advances 3 independent chains of h in lockstep, n iterations each.
//
//go:noescape
func blockX3(h *[96]byte, n uint64)

// blockX4 advances 4 independent chains of h in lockstep, n iterations each.
//
//go:noescape
func blockX4(h *[128]byte, n uint64)
