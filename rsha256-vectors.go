// Copyright (c) 2020 MinIO Inc. All rights reserved.
// Use of this source code is governed by a license that can be
// found in the LICENSE file.

package rsha256

import (
	"bytes"
	"fmt"
)

// VectorIterations - iteration counts with known answers for every lane
var VectorIterations = [...]uint64{0, 1, 10_000_000, 50_000_000, 100_000_000, 200_000_000, 500_000_000}

var vectors = [MaxLanes][len(VectorIterations)]Hash{
	{
		mustParse("2efd64a55463b5b554c4a2e22a472da23bb76e63758ce3c89276abf0e9ad8b15"), // 0
		mustParse("77461d8ed8a2206f82366618d363baa2ffdd991b5d2d80986dbcf82f58a4f3f3"), // 1
		mustParse("85de676493db941bac9f89b329327af2433621800718ebb5d7926bd4f5ffed97"), // 10M
		mustParse("067d78d950044f002b4cc9896ede9ce05a5ca9fa4a0f6e69be188e6c95616ced"), // 50M
		mustParse("6d9b4c4990282bf046c9657b32cd99ec1435166aee6b4c233cbeac1f285a65aa"), // 100M
		mustParse("05905da958d9fc7852ae954af9f131b95a1fa407186e9b687de57d49d4055bf1"), // 200M
		mustParse("49c053e8c3826477fa52b77de203ed9de0d1ce045da01a45c056e3653f9f729e"), // 500M
	},
	{
		mustParse("73e5c1f5367e1fad7d42aaacaa295f107fb9e2c6341701126b1d64bbcb178da3"), // 0
		mustParse("907c06be9b50777527cacf8579c60f5deb31c97a01e756d7e9903e8e07b1e655"), // 1
		mustParse("9178dd1524b778b61fa598667e11ad23c8bd1c03610036e01ee167a94bc7dfff"), // 10M
		mustParse("165110606c925c799ee01ab8acf06c3f06839944d4f432a6208d75393f0bfb7b"), // 50M
		mustParse("57c55a3fa027c30b0ec9768228143b8a62f5340b7ab6e61ccf5efe87a6a9275d"), // 100M
		mustParse("5c46152cca2c713a466b05b45734ee69c524df45fd02ca75ec79efd4d8382e03"), // 200M
		mustParse("74c94027180d0677a2a7155e33ed3f3b73415b92ffbb33797f75c18447651f86"), // 500M
	},
	{
		mustParse("052751686210a1dace862d474146a003696e9721daa837d92b200bc1db9f14ef"), // 0
		mustParse("285af96fd451b54592b1b0f7afd9f48b0993f430dcd8b4e6dd76ad1c472d3db9"), // 1
		mustParse("b34daaccc6a18c230ab5aa74b5d81df3ad23d48723b31c14d1ccb7b1d1e731a4"), // 10M
		mustParse("610e1eb2bf7691cc83c88e055f2c449db59a12fb0300dbe5c91934c3f37a4ed6"), // 50M
		mustParse("b83a64d1fa9670f5f33a2005a344527b4b653ab8052d4eef3506c6d614c8df44"), // 100M
		mustParse("32de0d8502d987527d00e65c7035de38f271bc85f84369a018255b4b2e1fd9db"), // 200M
		mustParse("56b2417e4dd4bb2d831db51d30b583a37f1f8ca607efff5b0461ec9876440dee"), // 500M
	},
	{
		mustParse("ca6a0779cda9e10e39905a785d428d6e3ece262753a6402ab9363b84cf736f60"), // 0
		mustParse("e51adadac9c6d934d05b0ed004b4107fc2961c997f622a15ca8b55b05fa58b60"), // 1
		mustParse("b33fa171b28be69f3cbdc17cd7f1723e203b85cdecb2a690e461107df5ee3e04"), // 10M
		mustParse("17b6938d556ecf28be1a6789be964d72bfe7fbcca9578a4222cd0a61b6348a4a"), // 50M
		mustParse("62d3e9af03cc7c268e26f3c339630ef53a7172687bd1766be119ea53e23bab99"), // 100M
		mustParse("28c256a44289bf7db0644b90266e99313447902868b51099c40f4c31c12891a4"), // 200M
		mustParse("54bc9f8be4502171187c2f06834ecdb8a6fabd1143b6f24b7aebd70890855add"), // 500M
	},
}

func mustParse(s string) Hash {
	h, err := ParseHash(s)
	if err != nil {
		panic(err)
	}
	return h
}

// Seed returns the starting value of the given lane (0 based) of the
// known answer tables.
func Seed(lane int) Hash {
	return vectors[lane][0]
}

// Seeds returns the seeds of the first lanes lanes, back to back, ready to be
// passed to a Kernel.
func Seeds(lanes int) []byte {
	buf := make([]byte, 0, lanes*Size)
	for i := 0; i < lanes; i++ {
		buf = append(buf, vectors[i][0][:]...)
	}
	return buf
}

// Vector returns the known value of lane after n iterations, if any.
func Vector(lane int, n uint64) (Hash, bool) {
	if lane < 0 || lane >= MaxLanes {
		return Hash{}, false
	}
	for i, it := range VectorIterations {
		if it == n {
			return vectors[lane][i], true
		}
	}
	return Hash{}, false
}

// HasVector reports whether known answers exist for n iterations.
func HasVector(n uint64) bool {
	_, ok := Vector(0, n)
	return ok
}

// Verify compares buf, the result of n iterations started from Seeds,
// against the known answers. It returns an error wrapping ErrMismatch
// naming the first wrong lane, and nil when there is no vector for n.
func Verify(buf []byte, n uint64) error {
	lanes := len(buf) / Size
	if err := checkLanes(buf, lanes); err != nil {
		return err
	}
	for i := 0; i < lanes; i++ {
		want, ok := Vector(i, n)
		if !ok {
			return nil
		}
		if got := buf[i*Size : (i+1)*Size]; !bytes.Equal(got, want[:]) {
			return fmt.Errorf("%w: lane %d after %d iterations: got %x, want %s", ErrMismatch, i+1, n, got, want)
		}
	}
	return nil
}

// CheckConsistency runs k for 0 and 1 iterations from the known seeds and
// checks the results against the known answers. It then runs k and the
// reference kernel a few iterations from the 1 iteration values and checks
// they agree. A kernel must pass this before its timings mean anything.
func CheckConsistency(k Kernel) error {
	lanes := k.Lanes()
	for _, n := range []uint64{0, 1} {
		buf := Seeds(lanes)
		k.Recurse(buf, n)
		if err := Verify(buf, n); err != nil {
			return fmt.Errorf("%s: %w", k.Name(), err)
		}
	}

	got := make([]byte, 0, lanes*Size)
	for i := 0; i < lanes; i++ {
		got = append(got, vectors[i][1][:]...)
	}
	want := append([]byte(nil), got...)
	k.Recurse(got, 3)
	blockGeneric(want, 3)
	for i := 0; i < lanes; i++ {
		g, w := got[i*Size:(i+1)*Size], want[i*Size:(i+1)*Size]
		if !bytes.Equal(g, w) {
			return fmt.Errorf("%s: %w: lane %d disagrees with reference: got %x, want %x", k.Name(), ErrMismatch, i+1, g, w)
		}
	}
	return nil
}
