package main

//go:generate go run gen.go -out ../rsha256block_amd64.s -stubs ../rsha256block_amd64.go -pkg rsha256

import (
	"fmt"

	"github.com/mmcloughlin/avo/attr"
	x "github.com/mmcloughlin/avo/build"
	"github.com/mmcloughlin/avo/buildtags"
	o "github.com/mmcloughlin/avo/operand"
	"github.com/mmcloughlin/avo/reg"
)

// SHA256RNDS2 has a latency of 3-6 cycles depending on the core while a new
// one can issue every 1-2 cycles. Independent chains interleaved step by step
// fill that gap, which is where the x2..x4 kernels get their throughput.
//
// Per lane we need ABEF, CDGH, four message words and one W+K register.
// Two lanes fit all of that in X1-X14 (X0 is the implicit SHA256RNDS2
// operand, X15 is scratch). From three lanes on, the message schedule of
// every lane lives in a 64 byte stack slot and is streamed through three
// scratch registers.
const spillFrom = 3

var k = [64]uint32{
	0x428a2f98, 0x71374491, 0xb5c0fbcf, 0xe9b5dba5, 0x3956c25b, 0x59f111f1, 0x923f82a4, 0xab1c5ed5,
	0xd807aa98, 0x12835b01, 0x243185be, 0x550c7dc3, 0x72be5d74, 0x80deb1fe, 0x9bdc06a7, 0xc19bf174,
	0xe49b69c1, 0xefbe4786, 0x0fc19dc6, 0x240ca1cc, 0x2de92c6f, 0x4a7484aa, 0x5cb0a9dc, 0x76f988da,
	0x983e5152, 0xa831c66d, 0xb00327c8, 0xbf597fc7, 0xc6e00bf3, 0xd5a79147, 0x06ca6351, 0x14292967,
	0x27b70a85, 0x2e1b2138, 0x4d2c6dfc, 0x53380d13, 0x650a7354, 0x766a0abb, 0x81c2c92e, 0x92722c85,
	0xa2bfe8a1, 0xa81a664b, 0xc24b8b70, 0xc76c51a3, 0xd192e819, 0xd6990624, 0xf40e3585, 0x106aa070,
	0x19a4c116, 0x1e376c08, 0x2748774c, 0x34b0bcb5, 0x391c0cb3, 0x4ed8aa4a, 0x5b9cca4f, 0x682e6ff3,
	0x748f82ee, 0x78a5636f, 0x84c87814, 0x8cc70208, 0x90befffa, 0xa4506ceb, 0xbef9a3f7, 0xc67178f2,
}

var iv = [8]uint32{
	0x6a09e667, 0xbb67ae85, 0x3c6ef372, 0xa54ff53a, 0x510e527f, 0x9b05688c, 0x1f83d9ab, 0x5be0cd19,
}

// Second half of the only block we ever hash: 0x80 terminator, zeros and
// the bit length of a 32 byte message.
var pad = [8]uint32{0x80000000, 0, 0, 0, 0, 0, 0, 0x00000100}

type tables struct {
	k    o.Mem
	abef o.Mem
	cdgh o.Mem
	pad  [2]o.Mem
	flip o.Mem
}

func genTables() (t tables) {
	t.k = x.GLOBL("sha256k", attr.RODATA|attr.NOPTR)
	for i, v := range k {
		x.DATA(4*i, o.U32(v))
	}

	// The round instructions want the state split as ABEF/CDGH with A in
	// the top dword.
	consts := x.GLOBL("sha256consts", attr.RODATA|attr.NOPTR)
	words := []uint32{
		iv[5], iv[4], iv[1], iv[0],
		iv[7], iv[6], iv[3], iv[2],
		pad[0], pad[1], pad[2], pad[3],
		pad[4], pad[5], pad[6], pad[7],
	}
	for i, v := range words {
		x.DATA(4*i, o.U32(v))
	}
	x.DATA(64, o.U64(0x0405060700010203))
	x.DATA(72, o.U64(0x0c0d0e0f08090a0b))

	t.abef = consts
	t.cdgh = consts.Offset(16)
	t.pad[0] = consts.Offset(32)
	t.pad[1] = consts.Offset(48)
	t.flip = consts.Offset(64)
	return
}

var xmm = []reg.VecPhysical{
	reg.X0, reg.X1, reg.X2, reg.X3, reg.X4, reg.X5, reg.X6, reg.X7,
	reg.X8, reg.X9, reg.X10, reg.X11, reg.X12, reg.X13, reg.X14, reg.X15,
}

// lane holds the registers (and stack slots) of one chain.
type lane struct {
	abef, cdgh reg.VecPhysical
	wk         reg.VecPhysical
	msg        [4]o.Op
}

type kernel struct {
	t       tables
	lanes   []lane
	tmp     []reg.VecPhysical
	spilled bool
}

func newKernel(t tables, n int) *kernel {
	kr := &kernel{t: t, spilled: n >= spillFrom}
	next := 1
	var stack o.Mem
	if kr.spilled {
		stack = x.AllocLocal(64 * n)
	}
	for i := 0; i < n; i++ {
		var l lane
		l.abef, l.cdgh = xmm[next], xmm[next+1]
		next += 2
		if kr.spilled {
			l.wk = xmm[next]
			next++
			for j := range l.msg {
				l.msg[j] = stack.Offset(64*i + 16*j)
			}
		} else {
			for j := range l.msg {
				l.msg[j] = xmm[next+j]
			}
			l.wk = xmm[next+4]
			next += 5
		}
		kr.lanes = append(kr.lanes, l)
	}
	ntmp := 1
	if kr.spilled {
		ntmp = 3
	}
	kr.tmp = xmm[next : next+ntmp]
	return kr
}

// loadState reads the big-endian chain values into native message words.
func (kr *kernel) loadState(h reg.Register) {
	x.Comment("Load the chain states and convert to native word order.")
	for i, l := range kr.lanes {
		for j := 0; j < 2; j++ {
			src := o.Mem{Base: h, Disp: 32*i + 16*j}
			if !kr.spilled {
				x.MOVOU(src, l.msg[j])
				x.PSHUFB(kr.t.flip, l.msg[j])
				continue
			}
			x.MOVOU(src, kr.tmp[0])
			x.PSHUFB(kr.t.flip, kr.tmp[0])
			x.MOVOU(kr.tmp[0], l.msg[j])
		}
	}
}

func (kr *kernel) storeState(h reg.Register) {
	x.Comment("Store the chain states in big-endian order.")
	for i, l := range kr.lanes {
		for j := 0; j < 2; j++ {
			dst := o.Mem{Base: h, Disp: 32*i + 16*j}
			if !kr.spilled {
				x.PSHUFB(kr.t.flip, l.msg[j])
				x.MOVOU(l.msg[j], dst)
				continue
			}
			x.MOVOU(l.msg[j], kr.tmp[0])
			x.PSHUFB(kr.t.flip, kr.tmp[0])
			x.MOVOU(kr.tmp[0], dst)
		}
	}
}

// reset starts a new single block hash: IV as state, padding as words 8..15.
func (kr *kernel) reset() {
	x.Comment("Fresh IV and fixed padding for every iteration.")
	for _, l := range kr.lanes {
		x.MOVOU(kr.t.abef, l.abef)
		x.MOVOU(kr.t.cdgh, l.cdgh)
		if !kr.spilled {
			x.MOVOU(kr.t.pad[0], l.msg[2])
			x.MOVOU(kr.t.pad[1], l.msg[3])
			continue
		}
		x.MOVOU(kr.t.pad[0], kr.tmp[0])
		x.MOVOU(kr.tmp[0], l.msg[2])
		x.MOVOU(kr.t.pad[1], kr.tmp[1])
		x.MOVOU(kr.tmp[1], l.msg[3])
	}
}

// quad emits rounds 4q..4q+3 for all lanes. Every step is issued for each
// lane before the next step starts.
func (kr *kernel) quad(q int) {
	c, n, p := q%4, (q+1)%4, (q+3)%4
	x.Commentf("Rounds %d-%d", 4*q, 4*q+3)

	for _, l := range kr.lanes {
		if kr.spilled {
			x.MOVOU(l.msg[c], l.wk)
		} else {
			x.MOVO(l.msg[c], l.wk)
		}
		x.PADDL(kr.t.k.Offset(16*q), l.wk)
	}
	for _, l := range kr.lanes {
		x.MOVO(l.wk, reg.X0)
		x.SHA256RNDS2(reg.X0, l.abef, l.cdgh)
	}
	if q >= 3 && q <= 14 {
		for _, l := range kr.lanes {
			kr.msg2(l, c, n, p)
		}
	}
	for _, l := range kr.lanes {
		x.PSHUFD(o.U8(0x0e), l.wk, reg.X0)
		x.SHA256RNDS2(reg.X0, l.cdgh, l.abef)
	}
	if q >= 1 && q <= 12 {
		for _, l := range kr.lanes {
			kr.msg1(l, c, p)
		}
	}
}

// msg2 completes the next four schedule words in msg[n].
func (kr *kernel) msg2(l lane, c, n, p int) {
	if !kr.spilled {
		t := kr.tmp[0]
		x.MOVO(l.msg[c], t)
		x.PALIGNR(o.U8(4), l.msg[p], t)
		x.PADDL(t, l.msg[n])
		x.SHA256MSG2(l.msg[c], l.msg[n])
		return
	}
	t0, t1, t2 := kr.tmp[0], kr.tmp[1], kr.tmp[2]
	x.MOVOU(l.msg[c], t0)
	x.MOVO(t0, t1)
	x.MOVOU(l.msg[p], t2)
	x.PALIGNR(o.U8(4), t2, t1)
	x.MOVOU(l.msg[n], t2)
	x.PADDL(t1, t2)
	x.SHA256MSG2(t0, t2)
	x.MOVOU(t2, l.msg[n])
}

// msg1 starts the schedule words that will land in msg[p].
func (kr *kernel) msg1(l lane, c, p int) {
	if !kr.spilled {
		x.SHA256MSG1(l.msg[c], l.msg[p])
		return
	}
	t0, t1 := kr.tmp[0], kr.tmp[1]
	x.MOVOU(l.msg[c], t0)
	x.MOVOU(l.msg[p], t1)
	x.SHA256MSG1(t0, t1)
	x.MOVOU(t1, l.msg[p])
}

// finish adds the IV and turns ABEF/CDGH back into message words 0..7,
// which is the input of the next iteration.
func (kr *kernel) finish() {
	x.Comment("Add the IV and rearrange ABEF/CDGH back into message words.")
	for _, l := range kr.lanes {
		x.PADDL(kr.t.abef, l.abef)
		x.PADDL(kr.t.cdgh, l.cdgh)
		x.PSHUFD(o.U8(0x1b), l.abef, l.abef)
		x.PSHUFD(o.U8(0xb1), l.cdgh, l.cdgh)
		if !kr.spilled {
			x.MOVO(l.abef, l.msg[0])
			x.PBLENDW(o.U8(0xf0), l.cdgh, l.msg[0])
			x.PALIGNR(o.U8(8), l.abef, l.cdgh)
			x.MOVO(l.cdgh, l.msg[1])
			continue
		}
		x.MOVO(l.abef, kr.tmp[0])
		x.PBLENDW(o.U8(0xf0), l.cdgh, kr.tmp[0])
		x.MOVOU(kr.tmp[0], l.msg[0])
		x.PALIGNR(o.U8(8), l.abef, l.cdgh)
		x.MOVOU(l.cdgh, l.msg[1])
	}
}

func genBlock(t tables, lanes int) {
	x.TEXT(fmt.Sprintf("blockX%d", lanes), attr.NOSPLIT, fmt.Sprintf("func(h *[%d]byte, n uint64)", 32*lanes))
	doc := "blockX1 replaces h with SHA256(h), n times."
	if lanes > 1 {
		doc = fmt.Sprintf("blockX%d advances %d independent chains of h in lockstep, n iterations each.", lanes, lanes)
	}
	x.Doc(doc, "", "The result is undefined on CPUs without SHA-NI and SSE4.1; callers check hasAccel.")
	x.Pragma("noescape")

	h := x.Load(x.Param("h"), reg.RAX)
	n := x.Load(x.Param("n"), reg.RCX)
	x.TESTQ(n, n)
	x.JZ(o.LabelRef("done"))

	kr := newKernel(t, lanes)
	kr.loadState(h)

	x.Label("loop")
	kr.reset()
	for q := 0; q < 16; q++ {
		kr.quad(q)
	}
	kr.finish()
	x.DECQ(n)
	x.JNZ(o.LabelRef("loop"))

	kr.storeState(h)

	x.Label("done")
	x.RET()
}

func main() {
	x.Constraint(buildtags.Not("appengine").ToConstraint())
	x.Constraint(buildtags.Not("noasm").ToConstraint())
	x.Constraint(buildtags.Term("gc").ToConstraint())

	t := genTables()
	for lanes := 1; lanes <= 4; lanes++ {
		genBlock(t, lanes)
	}
	x.Generate()
}
