// Command gen writes the arm64 recursion kernels. avo only targets amd64,
// so this emits the same per-step plan as ../gen.go as plain text.
package main

//go:generate go run gen.go -out ../../rsha256block_arm64.s

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
)

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

var pad = [8]uint32{0x80000000, 0, 0, 0, 0, 0, 0, 0x00000100}

const table = "rsha256tab<>"

// Up to two lanes the round constants stay resident in V16-V31. Wider
// kernels use all 32 registers for lane state and stream K from memory.
const residentK = 2

type lane struct {
	msg        [4]string
	abef, efgh string
	wk, save   string
}

func newLanes(n int) []lane {
	lanes := make([]lane, n)
	for i := range lanes {
		b := 8 * i
		l := &lanes[i]
		for j := range l.msg {
			l.msg[j] = fmt.Sprintf("V%d", b+j)
		}
		l.abef = fmt.Sprintf("V%d", b+4)
		l.efgh = fmt.Sprintf("V%d", b+5)
		l.wk = fmt.Sprintf("V%d", b+6)
		l.save = fmt.Sprintf("V%d", b+7)
	}
	return lanes
}

type emitter struct {
	bytes.Buffer
}

func (e *emitter) ins(op string, args ...string) {
	if len(args) == 0 {
		fmt.Fprintf(e, "\t%s\n", op)
		return
	}
	fmt.Fprintf(e, "\t%s\t%s\n", op, strings.Join(args, ", "))
}

func (e *emitter) comment(format string, a ...interface{}) {
	fmt.Fprintf(e, "\n\t// %s\n", fmt.Sprintf(format, a...))
}

func (e *emitter) label(name string) {
	fmt.Fprintf(e, "\n%s:\n", name)
}

func s4(r string) string  { return r + ".S4" }
func b16(r string) string { return r + ".B16" }

func list(regs ...string) string { return "[" + strings.Join(regs, ", ") + "]" }

func (e *emitter) block(n int) {
	lanes := newLanes(n)
	resident := n <= residentK

	fmt.Fprintf(e, "// func blockX%d(h *[%d]byte, n uint64)\n", n, 32*n)
	fmt.Fprintf(e, "// Requires: SHA2, ASIMD\n")
	fmt.Fprintf(e, "TEXT ·blockX%d(SB), NOSPLIT, $0-16\n", n)
	e.ins("MOVD", "h+0(FP)", "R0")
	e.ins("MOVD", "n+8(FP)", "R3")
	e.ins("CBZ", "R3", "done")
	e.ins("MOVD", "$"+table+"(SB)", "R4")
	e.ins("ADD", "$256", "R4", "R5")
	e.ins("ADD", "$288", "R4", "R6")

	if resident {
		e.comment("Keep all round constants resident.")
		e.ins("MOVD", "R4", "R2")
		for g := 0; g < 4; g++ {
			regs := make([]string, 4)
			for j := range regs {
				regs[j] = s4(fmt.Sprintf("V%d", 16+4*g+j))
			}
			if g < 3 {
				e.ins("VLD1.P", "64(R2)", list(regs...))
			} else {
				e.ins("VLD1", "(R2)", list(regs...))
			}
		}
	}

	e.comment("Load the chain states and convert to native word order.")
	e.ins("MOVD", "R0", "R1")
	for _, l := range lanes {
		e.ins("VLD1.P", "32(R1)", list(b16(l.msg[0]), b16(l.msg[1])))
		e.ins("VREV32", b16(l.msg[0]), b16(l.msg[0]))
		e.ins("VREV32", b16(l.msg[1]), b16(l.msg[1]))
	}

	e.label("loop")
	if !resident {
		e.ins("MOVD", "R4", "R2")
	}
	e.comment("Fresh IV and fixed padding for every iteration.")
	for _, l := range lanes {
		e.ins("VLD1", "(R5)", list(s4(l.abef), s4(l.efgh)))
		e.ins("VLD1", "(R6)", list(s4(l.msg[2]), s4(l.msg[3])))
		e.ins("VMOV", b16(l.abef), b16(l.save))
	}

	for q := 0; q < 16; q++ {
		c := q % 4
		e.comment("Rounds %d-%d", 4*q, 4*q+3)
		if resident {
			for _, l := range lanes {
				e.ins("VADD", s4(fmt.Sprintf("V%d", 16+q)), s4(l.msg[c]), s4(l.wk))
			}
		} else {
			for i, l := range lanes {
				if i == len(lanes)-1 {
					e.ins("VLD1.P", "16(R2)", list(s4(l.wk)))
				} else {
					e.ins("VLD1", "(R2)", list(s4(l.wk)))
				}
			}
			for _, l := range lanes {
				e.ins("VADD", s4(l.wk), s4(l.msg[c]), s4(l.wk))
			}
		}
		if q <= 11 {
			for _, l := range lanes {
				e.ins("SHA256SU0", s4(l.msg[(c+1)%4]), s4(l.msg[c]))
			}
		}
		if q >= 1 && q <= 12 {
			for _, l := range lanes {
				e.ins("SHA256SU1", s4(l.msg[(c+2)%4]), s4(l.msg[(c+1)%4]), s4(l.msg[(c+3)%4]))
			}
		}
		for _, l := range lanes {
			e.ins("SHA256H", s4(l.wk), l.efgh, l.abef)
		}
		for _, l := range lanes {
			e.ins("SHA256H2", s4(l.wk), l.save, l.efgh)
		}
		if q < 15 {
			for _, l := range lanes {
				e.ins("VMOV", b16(l.abef), b16(l.save))
			}
		}
	}

	e.comment("Add the IV.")
	for _, l := range lanes {
		e.ins("VLD1", "(R5)", list(s4(l.wk), s4(l.save)))
		e.ins("VADD", s4(l.wk), s4(l.abef), s4(l.msg[0]))
		e.ins("VADD", s4(l.save), s4(l.efgh), s4(l.msg[1]))
	}
	e.ins("SUB", "$1", "R3", "R3")
	e.ins("CBNZ", "R3", "loop")

	e.comment("Store the chain states in big-endian order.")
	e.ins("MOVD", "R0", "R1")
	for _, l := range lanes {
		e.ins("VREV32", b16(l.msg[0]), b16(l.msg[0]))
		e.ins("VREV32", b16(l.msg[1]), b16(l.msg[1]))
		e.ins("VST1.P", list(b16(l.msg[0]), b16(l.msg[1])), "32(R1)")
	}
	e.label("done")
	e.ins("RET")
}

func main() {
	out := flag.String("out", "rsha256block_arm64.s", "output file")
	flag.Parse()

	var e emitter
	fmt.Fprintf(&e, "// Code generated by command: go run gen.go -out %s. DO NOT EDIT.\n\n", *out)
	e.WriteString("//go:build !appengine && !noasm && gc\n\n")
	e.WriteString("#include \"textflag.h\"\n\n")

	words := append(append(k[:], iv[:]...), pad[:]...)
	for i, w := range words {
		fmt.Fprintf(&e, "DATA %s+%d(SB)/4, $0x%08x\n", table, 4*i, w)
	}
	fmt.Fprintf(&e, "GLOBL %s(SB), RODATA|NOPTR, $%d\n", table, 4*len(words))

	for n := 1; n <= 4; n++ {
		e.WriteString("\n")
		e.block(n)
	}

	if err := os.WriteFile(*out, e.Bytes(), 0o644); err != nil {
		log.Fatal(err)
	}
}
