// Copyright (c) 2020 MinIO Inc. All rights reserved.
// Use of this source code is governed by a license that can be
// found in the LICENSE file.

// Package rsha256 computes recursive SHA256: a 32 byte value is hashed with
// SHA256 again and again, every output being the input of the next
// iteration.
//
// On amd64 CPUs with the SHA extensions and arm64 CPUs with the SHA2
// cryptography extension the iterations run in assembly, either on a single
// chain (x1) or on 2, 3 or 4 independent chains issued in lockstep (x2..x4).
// Everywhere else a portable implementation is used.
//
// Chain values are always exchanged in big-endian order, exactly as
// crypto/sha256 returns them. One iteration of a chain h is sha256.Sum256(h).
package rsha256

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
)

const (
	// Size - size of a chain value in bytes
	Size = 32
	// BlockSize - size of the single SHA256 block hashed per iteration
	BlockSize = 64
	// MaxLanes - widest lockstep kernel
	MaxLanes = 4
)

var (
	// ErrLanes is returned for lane counts outside 1..MaxLanes.
	ErrLanes = errors.New("rsha256: lane count must be between 1 and 4")
	// ErrBufferSize is returned when a buffer does not hold exactly lanes*Size bytes.
	ErrBufferSize = errors.New("rsha256: buffer size does not match lane count")
	// ErrNoAcceleration is returned when the CPU lacks the SHA extensions.
	ErrNoAcceleration = errors.New("rsha256: no hardware SHA256 support")
	// ErrMismatch reports a kernel that disagrees with the known answers.
	ErrMismatch = errors.New("rsha256: hash mismatch")
	// ErrServerClosed is returned by chains of a closed server.
	ErrServerClosed = errors.New("rsha256: server closed")
)

// SHA256 round constants
var _K = [64]uint32{
	0x428a2f98, 0x71374491, 0xb5c0fbcf, 0xe9b5dba5, 0x3956c25b, 0x59f111f1, 0x923f82a4, 0xab1c5ed5,
	0xd807aa98, 0x12835b01, 0x243185be, 0x550c7dc3, 0x72be5d74, 0x80deb1fe, 0x9bdc06a7, 0xc19bf174,
	0xe49b69c1, 0xefbe4786, 0x0fc19dc6, 0x240ca1cc, 0x2de92c6f, 0x4a7484aa, 0x5cb0a9dc, 0x76f988da,
	0x983e5152, 0xa831c66d, 0xb00327c8, 0xbf597fc7, 0xc6e00bf3, 0xd5a79147, 0x06ca6351, 0x14292967,
	0x27b70a85, 0x2e1b2138, 0x4d2c6dfc, 0x53380d13, 0x650a7354, 0x766a0abb, 0x81c2c92e, 0x92722c85,
	0xa2bfe8a1, 0xa81a664b, 0xc24b8b70, 0xc76c51a3, 0xd192e819, 0xd6990624, 0xf40e3585, 0x106aa070,
	0x19a4c116, 0x1e376c08, 0x2748774c, 0x34b0bcb5, 0x391c0cb3, 0x4ed8aa4a, 0x5b9cca4f, 0x682e6ff3,
	0x748f82ee, 0x78a5636f, 0x84c87814, 0x8cc70208, 0x90befffa, 0xa4506ceb, 0xbef9a3f7, 0xc67178f2,
}

// SHA256 initialization constants
const (
	init0 = 0x6a09e667
	init1 = 0xbb67ae85
	init2 = 0x3c6ef372
	init3 = 0xa54ff53a
	init4 = 0x510e527f
	init5 = 0x9b05688c
	init6 = 0x1f83d9ab
	init7 = 0x5be0cd19
)

// Message words 8..15. The message is always 32 bytes, so the padding
// (0x80 terminator, zeros, bit length 256) never changes.
var pad = [8]uint32{0x80000000, 0, 0, 0, 0, 0, 0, Size * 8}

// Hash - a chain value in big-endian byte order
type Hash [Size]byte

// String returns the lower case hex encoding of h.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Words decodes h into the eight big-endian SHA256 state words.
func (h Hash) Words() (w [8]uint32) {
	for i := range w {
		w[i] = binary.BigEndian.Uint32(h[4*i:])
	}
	return
}

// HashFromWords encodes eight SHA256 state words big-endian.
func HashFromWords(w [8]uint32) (h Hash) {
	for i, v := range w {
		binary.BigEndian.PutUint32(h[4*i:], v)
	}
	return
}

// ParseHash decodes a 64 character hex string, upper or lower case.
func ParseHash(s string) (h Hash, err error) {
	if hex.DecodedLen(len(s)) != Size {
		return h, fmt.Errorf("rsha256: hash must be %d hex characters, got %d", 2*Size, len(s))
	}
	if _, err = hex.Decode(h[:], []byte(s)); err != nil {
		return h, fmt.Errorf("rsha256: invalid hash %q: %w", s, err)
	}
	return h, nil
}

// checkLanes validates a lane count and a buffer holding that many chains.
func checkLanes(buf []byte, lanes int) error {
	if lanes < 1 || lanes > MaxLanes {
		return fmt.Errorf("%w: %d", ErrLanes, lanes)
	}
	if len(buf) != lanes*Size {
		return fmt.Errorf("%w: %d bytes for %d lanes", ErrBufferSize, len(buf), lanes)
	}
	return nil
}
