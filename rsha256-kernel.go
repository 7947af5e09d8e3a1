// Copyright (c) 2020 MinIO Inc. All rights reserved.
// Use of this source code is governed by a license that can be
// found in the LICENSE file.

package rsha256

import (
	"fmt"
	"os"
)

// Kernel advances a fixed number of independent chains.
type Kernel interface {
	// Name - short description, for example "Fast x2"
	Name() string
	// Lanes - number of chains advanced per call
	Lanes() int
	// Accelerated reports whether the kernel uses the CPU's SHA instructions.
	Accelerated() bool
	// Recurse replaces every chain in buf by the result of n iterations.
	// buf holds Lanes() chain values back to back; it panics on any other
	// length. n == 0 leaves buf unchanged.
	Recurse(buf []byte, n uint64)
}

// useAccel is cleared by RSHA256_NOASM to run the portable code on capable
// machines, mirroring the noasm build tag.
var useAccel = hasAccel && os.Getenv("RSHA256_NOASM") == ""

type kernel struct {
	name  string
	lanes int
	accel bool
	block func(h []byte, n uint64)
}

func (k *kernel) Name() string      { return k.name }
func (k *kernel) Lanes() int        { return k.lanes }
func (k *kernel) Accelerated() bool { return k.accel }

func (k *kernel) Recurse(buf []byte, n uint64) {
	if len(buf) != k.lanes*Size {
		panic(fmt.Sprintf("rsha256: %s needs %d bytes, got %d", k.name, k.lanes*Size, len(buf)))
	}
	k.block(buf, n)
}

var (
	referenceKernels [MaxLanes]*kernel
	fastKernels      [MaxLanes]*kernel
	best             [MaxLanes]func(h []byte, n uint64)
)

func init() {
	for i := 0; i < MaxLanes; i++ {
		referenceKernels[i] = &kernel{name: fmt.Sprintf("Reference x%d", i+1), lanes: i + 1, block: blockGeneric}
		best[i] = blockGeneric
		if useAccel {
			fastKernels[i] = &kernel{name: fmt.Sprintf("Fast x%d", i+1), lanes: i + 1, accel: true, block: accelBlocks[i]}
			best[i] = accelBlocks[i]
		}
	}
}

// Accelerated reports whether hardware kernels are in use.
func Accelerated() bool { return useAccel }

// Acceleration names the instruction set used by the hardware kernels, or
// returns an empty string when none is in use.
func Acceleration() string {
	if !useAccel {
		return ""
	}
	return accelName
}

// New returns the fastest kernel available for lanes chains.
func New(lanes int) (Kernel, error) {
	if k, err := NewAccelerated(lanes); err == nil {
		return k, nil
	}
	return NewReference(lanes)
}

// NewReference returns the portable kernel for lanes chains.
func NewReference(lanes int) (Kernel, error) {
	if lanes < 1 || lanes > MaxLanes {
		return nil, fmt.Errorf("%w: %d", ErrLanes, lanes)
	}
	return referenceKernels[lanes-1], nil
}

// NewAccelerated returns the hardware kernel for lanes chains. It fails with
// ErrNoAcceleration when the CPU has no SHA256 instructions.
func NewAccelerated(lanes int) (Kernel, error) {
	if lanes < 1 || lanes > MaxLanes {
		return nil, fmt.Errorf("%w: %d", ErrLanes, lanes)
	}
	if !useAccel {
		return nil, ErrNoAcceleration
	}
	return fastKernels[lanes-1], nil
}

// Kernels lists every usable kernel: the single lane reference first, then
// the hardware kernels x1..x4 when present, otherwise the reference x2..x4.
func Kernels() []Kernel {
	ks := []Kernel{referenceKernels[0]}
	if useAccel {
		for _, k := range fastKernels {
			ks = append(ks, k)
		}
		return ks
	}
	for _, k := range referenceKernels[1:] {
		ks = append(ks, k)
	}
	return ks
}

// Apply advances the lanes chains stored back to back in buf by n
// iterations, using the fastest kernel available.
func Apply(buf []byte, lanes int, n uint64) error {
	if err := checkLanes(buf, lanes); err != nil {
		return err
	}
	best[lanes-1](buf, n)
	return nil
}

// Recurse replaces h with the value after n iterations.
func Recurse(h *[Size]byte, n uint64) { best[0](h[:], n) }

// Recurse2 advances two independent chains in lockstep.
func Recurse2(h *[2 * Size]byte, n uint64) { best[1](h[:], n) }

// Recurse3 advances three independent chains in lockstep.
func Recurse3(h *[3 * Size]byte, n uint64) { best[2](h[:], n) }

// Recurse4 advances four independent chains in lockstep.
func Recurse4(h *[4 * Size]byte, n uint64) { best[3](h[:], n) }

// Sum returns seed after n iterations.
func Sum(seed Hash, n uint64) Hash {
	h := [Size]byte(seed)
	Recurse(&h, n)
	return h
}
