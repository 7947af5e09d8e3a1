// Copyright (c) 2020 MinIO Inc. All rights reserved.
// Use of this source code is governed by a license that can be
// found in the LICENSE file.

package rsha256

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
	"testing"

	"lukechampine.com/frand"
)

// allKernels returns the reference kernels and, when available, the hardware ones.
func allKernels() (ks []Kernel) {
	for i := 1; i <= MaxLanes; i++ {
		k, _ := NewReference(i)
		ks = append(ks, k)
	}
	if !Accelerated() {
		return
	}
	for i := 1; i <= MaxLanes; i++ {
		k, _ := NewAccelerated(i)
		ks = append(ks, k)
	}
	return
}

func oracle(seed []byte, n uint64) []byte {
	h := append([]byte(nil), seed...)
	for i := uint64(0); i < n; i++ {
		s := sha256.Sum256(h)
		h = s[:]
	}
	return h
}

func randomSeeds(lanes int) []byte {
	buf := make([]byte, lanes*Size)
	frand.Read(buf)
	return buf
}

var golden = []struct {
	in   string
	n    uint64
	want string
}{
	{"2efd64a55463b5b554c4a2e22a472da23bb76e63758ce3c89276abf0e9ad8b15", 0, "2efd64a55463b5b554c4a2e22a472da23bb76e63758ce3c89276abf0e9ad8b15"},
	{"2efd64a55463b5b554c4a2e22a472da23bb76e63758ce3c89276abf0e9ad8b15", 1, "77461d8ed8a2206f82366618d363baa2ffdd991b5d2d80986dbcf82f58a4f3f3"},
	{"73e5c1f5367e1fad7d42aaacaa295f107fb9e2c6341701126b1d64bbcb178da3", 1, "907c06be9b50777527cacf8579c60f5deb31c97a01e756d7e9903e8e07b1e655"},
	{"052751686210a1dace862d474146a003696e9721daa837d92b200bc1db9f14ef", 1, "285af96fd451b54592b1b0f7afd9f48b0993f430dcd8b4e6dd76ad1c472d3db9"},
	{"ca6a0779cda9e10e39905a785d428d6e3ece262753a6402ab9363b84cf736f60", 1, "e51adadac9c6d934d05b0ed004b4107fc2961c997f622a15ca8b55b05fa58b60"},
	// SHA256 of 32 zero bytes
	{"0000000000000000000000000000000000000000000000000000000000000000", 1, "66687aadf862bd776c8fc18b8e9f8e20089714856ee233b3902a591d0d5f2925"},
}

func TestGolden(t *testing.T) {
	for _, k := range allKernels() {
		if k.Lanes() != 1 {
			continue
		}
		for i, g := range golden {
			h, err := ParseHash(g.in)
			if err != nil {
				t.Fatal(err)
			}
			k.Recurse(h[:], g.n)
			if got := h.String(); got != g.want {
				t.Errorf("%s golden[%d]: got %s, want %s", k.Name(), i, got, g.want)
			}
		}
	}
}

func TestSum(t *testing.T) {
	for i, g := range golden {
		seed, _ := ParseHash(g.in)
		if got := Sum(seed, g.n).String(); got != g.want {
			t.Errorf("golden[%d]: got %s, want %s", i, got, g.want)
		}
	}
}

func TestOracle(t *testing.T) {
	for _, k := range allKernels() {
		t.Run(k.Name(), func(t *testing.T) {
			for _, n := range []uint64{1, 2, 3, 17, 64} {
				seeds := randomSeeds(k.Lanes())
				buf := append([]byte(nil), seeds...)
				k.Recurse(buf, n)
				for l := 0; l < k.Lanes(); l++ {
					want := oracle(seeds[l*Size:(l+1)*Size], n)
					if got := buf[l*Size : (l+1)*Size]; !bytes.Equal(got, want) {
						t.Fatalf("lane %d, %d iterations: got %x, want %x", l, n, got, want)
					}
				}
			}
		})
	}
}

func TestIdentityAtZero(t *testing.T) {
	for _, k := range allKernels() {
		seeds := randomSeeds(k.Lanes())
		buf := append([]byte(nil), seeds...)
		k.Recurse(buf, 0)
		if !bytes.Equal(buf, seeds) {
			t.Errorf("%s: 0 iterations changed the input", k.Name())
		}
	}
}

func TestConsistency(t *testing.T) {
	for _, k := range allKernels() {
		if err := CheckConsistency(k); err != nil {
			t.Error(err)
		}
	}
}

// corruptKernel flips a bit of lane whenever more than after iterations are
// requested.
type corruptKernel struct {
	Kernel
	lane  int
	after uint64
}

func (k corruptKernel) Name() string { return "Corrupt " + k.Kernel.Name() }

func (k corruptKernel) Recurse(buf []byte, n uint64) {
	k.Kernel.Recurse(buf, n)
	if n > k.after {
		buf[k.lane*Size+7] ^= 0x10
	}
}

func TestConsistencyRejects(t *testing.T) {
	for _, k := range allKernels() {
		for lane := 0; lane < k.Lanes(); lane++ {
			// after 0 trips the known answers, after 1 the reference comparison
			for _, after := range []uint64{0, 1} {
				bad := corruptKernel{Kernel: k, lane: lane, after: after}
				err := CheckConsistency(bad)
				if !errors.Is(err, ErrMismatch) {
					t.Fatalf("%s lane %d after %d: got %v, want ErrMismatch", k.Name(), lane, after, err)
				}
				if msg := err.Error(); !strings.Contains(msg, fmt.Sprintf("lane %d ", lane+1)) || !strings.HasPrefix(msg, bad.Name()) {
					t.Errorf("%s lane %d after %d: %q does not name the kernel and lane", k.Name(), lane, after, msg)
				}
			}
		}
	}
}

func TestAgreement(t *testing.T) {
	if !Accelerated() {
		t.Skip("no hardware SHA256")
	}
	for lanes := 1; lanes <= MaxLanes; lanes++ {
		ref, _ := NewReference(lanes)
		fast, _ := NewAccelerated(lanes)
		for _, n := range []uint64{0, 1, 1000} {
			want := randomSeeds(lanes)
			got := append([]byte(nil), want...)
			ref.Recurse(want, n)
			fast.Recurse(got, n)
			if !bytes.Equal(got, want) {
				t.Errorf("x%d, %d iterations: %s and %s disagree", lanes, n, fast.Name(), ref.Name())
			}
		}
	}
}

func TestComposability(t *testing.T) {
	for _, k := range allKernels() {
		seeds := randomSeeds(k.Lanes())
		once := append([]byte(nil), seeds...)
		k.Recurse(once, 250)

		split := append([]byte(nil), seeds...)
		k.Recurse(split, 0)
		k.Recurse(split, 99)
		k.Recurse(split, 151)
		if !bytes.Equal(once, split) {
			t.Errorf("%s: 99+151 iterations differ from 250", k.Name())
		}
	}
}

func TestDeterminism(t *testing.T) {
	for _, k := range allKernels() {
		seeds := randomSeeds(k.Lanes())
		a := append([]byte(nil), seeds...)
		b := append([]byte(nil), seeds...)
		k.Recurse(a, 500)
		k.Recurse(b, 500)
		if !bytes.Equal(a, b) {
			t.Errorf("%s: two runs differ", k.Name())
		}
	}
}

func TestLaneIndependence(t *testing.T) {
	for _, k := range allKernels() {
		lanes := k.Lanes()
		if lanes == 1 {
			continue
		}
		base := randomSeeds(lanes)
		want := append([]byte(nil), base...)
		k.Recurse(want, 20)

		for l := 0; l < lanes; l++ {
			changed := append([]byte(nil), base...)
			frand.Read(changed[l*Size : (l+1)*Size])
			got := append([]byte(nil), changed...)
			k.Recurse(got, 20)

			for o := 0; o < lanes; o++ {
				g, w := got[o*Size:(o+1)*Size], want[o*Size:(o+1)*Size]
				if o == l {
					if bytes.Equal(g, w) {
						t.Errorf("%s: lane %d did not change with its input", k.Name(), o)
					}
					if !bytes.Equal(g, oracle(changed[o*Size:(o+1)*Size], 20)) {
						t.Errorf("%s: lane %d wrong after changing its input", k.Name(), o)
					}
				} else if !bytes.Equal(g, w) {
					t.Errorf("%s: lane %d changed when lane %d did", k.Name(), o, l)
				}
			}
		}
	}
}

func TestTypedHelpers(t *testing.T) {
	var h1 [Size]byte
	copy(h1[:], Seeds(1))
	Recurse(&h1, 1)

	var h2 [2 * Size]byte
	copy(h2[:], Seeds(2))
	Recurse2(&h2, 1)

	var h3 [3 * Size]byte
	copy(h3[:], Seeds(3))
	Recurse3(&h3, 1)

	var h4 [4 * Size]byte
	copy(h4[:], Seeds(4))
	Recurse4(&h4, 1)

	for i, buf := range [][]byte{h1[:], h2[:], h3[:], h4[:]} {
		if err := Verify(buf, 1); err != nil {
			t.Errorf("Recurse x%d: %v", i+1, err)
		}
	}
}

func TestApply(t *testing.T) {
	for lanes := 1; lanes <= MaxLanes; lanes++ {
		buf := Seeds(lanes)
		if err := Apply(buf, lanes, 1); err != nil {
			t.Fatal(err)
		}
		if err := Verify(buf, 1); err != nil {
			t.Errorf("x%d: %v", lanes, err)
		}
	}

	if err := Apply(make([]byte, 5*Size), 5, 1); !errors.Is(err, ErrLanes) {
		t.Errorf("5 lanes: got %v, want ErrLanes", err)
	}
	if err := Apply(make([]byte, Size), 0, 1); !errors.Is(err, ErrLanes) {
		t.Errorf("0 lanes: got %v, want ErrLanes", err)
	}
	if err := Apply(make([]byte, Size+1), 1, 1); !errors.Is(err, ErrBufferSize) {
		t.Errorf("33 bytes: got %v, want ErrBufferSize", err)
	}
}

func TestRecursePanicsOnShortBuffer(t *testing.T) {
	k, _ := New(2)
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	k.Recurse(make([]byte, Size), 1)
}

func TestKernels(t *testing.T) {
	ks := Kernels()
	if len(ks) != MaxLanes+1 {
		t.Fatalf("got %d kernels, want %d", len(ks), MaxLanes+1)
	}
	if ks[0].Accelerated() || ks[0].Lanes() != 1 {
		t.Errorf("first kernel should be the single lane reference, got %s", ks[0].Name())
	}
	for i, k := range ks[1:] {
		if k.Lanes() != i+1 {
			t.Errorf("%s: got %d lanes, want %d", k.Name(), k.Lanes(), i+1)
		}
		if k.Accelerated() != Accelerated() {
			t.Errorf("%s: accelerated = %v", k.Name(), k.Accelerated())
		}
	}
	if _, err := NewAccelerated(1); Accelerated() == (err != nil) {
		t.Errorf("NewAccelerated: %v with acceleration %v", err, Accelerated())
	}
	if _, err := New(0); !errors.Is(err, ErrLanes) {
		t.Errorf("New(0): got %v", err)
	}
}

func TestParseHash(t *testing.T) {
	upper := "2EFD64A55463B5B554C4A2E22A472DA23BB76E63758CE3C89276ABF0E9AD8B15"
	h, err := ParseHash(upper)
	if err != nil {
		t.Fatal(err)
	}
	if h != Seed(0) {
		t.Errorf("got %s, want %s", h, Seed(0))
	}
	if HashFromWords(h.Words()) != h {
		t.Error("words round trip failed")
	}
	if w := h.Words(); w[0] != 0x2efd64a5 || w[7] != 0xe9ad8b15 {
		t.Errorf("unexpected words %08x", w)
	}
	for _, bad := range []string{"", "2efd", upper + "00", "zz" + upper[2:]} {
		if _, err := ParseHash(bad); err == nil {
			t.Errorf("ParseHash(%q) should fail", bad)
		}
	}
}

func TestVerify(t *testing.T) {
	buf := Seeds(2)
	if err := Verify(buf, 0); err != nil {
		t.Fatal(err)
	}
	buf[Size] ^= 1
	err := Verify(buf, 0)
	if !errors.Is(err, ErrMismatch) {
		t.Fatalf("got %v, want ErrMismatch", err)
	}
	if err := Verify(buf, 12345); err != nil {
		t.Errorf("no vector for 12345 iterations, got %v", err)
	}
	if HasVector(12345) || !HasVector(10_000_000) {
		t.Error("HasVector")
	}
}

// Known answers for the long runs. The 10M vectors take a few seconds per
// lane with hardware support; the others are skipped in short mode.
func TestLongVectors(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping in short mode")
	}
	iters := []uint64{10_000_000}
	if Accelerated() {
		iters = append(iters, 100_000_000)
	}
	for _, n := range iters {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			k, err := New(MaxLanes)
			if err != nil {
				t.Fatal(err)
			}
			buf := Seeds(MaxLanes)
			k.Recurse(buf, n)
			if err := Verify(buf, n); err != nil {
				t.Error(err)
			}
		})
	}
}

func benchmarkKernel(b *testing.B, k Kernel) {
	const iters = 1000
	buf := Seeds(k.Lanes())
	b.SetBytes(int64(iters * BlockSize * k.Lanes()))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		k.Recurse(buf, iters)
	}
}

func BenchmarkReference(b *testing.B) {
	k, _ := NewReference(1)
	benchmarkKernel(b, k)
}

func BenchmarkFast(b *testing.B) {
	if !Accelerated() {
		b.Skip("no hardware SHA256")
	}
	for lanes := 1; lanes <= MaxLanes; lanes++ {
		k, _ := NewAccelerated(lanes)
		b.Run(fmt.Sprintf("x%d", lanes), func(b *testing.B) {
			benchmarkKernel(b, k)
		})
	}
}

func BenchmarkParallel(b *testing.B) {
	k, _ := New(MaxLanes)
	const iters = 1000
	b.SetBytes(int64(iters * BlockSize * k.Lanes()))
	b.RunParallel(func(pb *testing.PB) {
		buf := Seeds(k.Lanes())
		for pb.Next() {
			k.Recurse(buf, iters)
		}
	})
}
