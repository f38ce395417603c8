//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"crypto/rand"
	"errors"
	"testing"

	"github.com/markkurossi/yao/ot"
)

// evalGarbled evaluates the garbled circuit locally with the input
// labels of the inputs and decodes the outputs with the wire labels.
func evalGarbled(t testing.TB, circ *Circuit, garbled *Garbled,
	inputs map[string]int64) map[string]uint64 {

	labels := make(map[Wire]ot.Label)
	for _, io := range circ.Inputs {
		bits, err := io.Encode(inputs[io.Name])
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		for i, w := range io.Wires {
			labels[w] = garbled.Label(w, bits[i])
		}
	}
	for _, w := range circ.Constants() {
		labels[w] = garbled.Label(w, circ.Wires[w].Value)
	}
	for _, gate := range circ.Gates {
		var b *ot.Label
		if gate.Op != INV {
			l := labels[gate.Input1]
			b = &l
		}
		out, err := Decrypt(gate.ID(), garbled.Tables[gate.ID()],
			labels[gate.Input0], b)
		if err != nil {
			t.Fatalf("Decrypt: %v", err)
		}
		labels[gate.Output] = out
	}
	result := make(map[string]uint64)
	for _, io := range circ.Outputs {
		bits := make([]bool, len(io.Wires))
		for i, w := range io.Wires {
			bit, err := garbled.Wires[w].Bit(labels[w])
			if err != nil {
				t.Fatalf("output %s: %v", io.Name, err)
			}
			bits[i] = bit
		}
		v, err := io.Decode(bits)
		if err != nil {
			t.Fatal(err)
		}
		result[io.Name] = v
	}
	return result
}

var testValues = []int64{
	0, 1, 2, 7, 37, 42, 74, 100, 111, 127, 128, 148, 185, 222, 254, 255,
}

func TestGarbleEval(t *testing.T) {
	for _, name := range []string{"add", "gt", "eq"} {
		circ := newBinaryCircuit(t, name, DefaultWidth)
		garbled, err := circ.Garble(rand.Reader)
		if err != nil {
			t.Fatalf("Garble: %v", err)
		}
		for a := int64(0); a < 256; a++ {
			for _, b := range testValues {
				r := evalGarbled(t, circ, garbled, map[string]int64{
					"a": a,
					"b": b,
				})
				e := expected(name, uint64(a), uint64(b))
				if r["r"] != e {
					t.Fatalf("%s(%d,%d)=%d, expected %d", name, a, b,
						r["r"], e)
				}
			}
		}
	}
}

func TestGarbleWraparound(t *testing.T) {
	circ := newBinaryCircuit(t, "add", DefaultWidth)
	garbled, err := circ.Garble(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	r := evalGarbled(t, circ, garbled, map[string]int64{
		"a": 255,
		"b": 1,
	})
	if r["r"] != 0 {
		t.Errorf("255+1=%d, expected 0", r["r"])
	}
}

func TestGarbleTables(t *testing.T) {
	circ := newBinaryCircuit(t, "ge", DefaultWidth)
	garbled, err := circ.Garble(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	if len(garbled.Tables) != circ.NumGates {
		t.Fatalf("%d tables for %d gates", len(garbled.Tables), circ.NumGates)
	}
	for _, gate := range circ.Gates {
		table := garbled.Tables[gate.ID()]
		if len(table) != 1<<len(gate.Inputs()) {
			t.Errorf("gate %s: %d rows", gate, len(table))
		}
	}
	for w, wire := range garbled.Wires {
		if wire.L0.Equal(wire.L1) {
			t.Errorf("wire %d: equal labels", w)
		}
	}
}

// TestNonDegeneracy verifies that decrypting a gate's table with an
// incorrect key pair never yields the output label the correct pair
// yields.
func TestNonDegeneracy(t *testing.T) {
	circ := newBinaryCircuit(t, "add", DefaultWidth)
	garbled, err := circ.Garble(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	for _, gate := range circ.Gates {
		table := garbled.Tables[gate.ID()]
		a := garbled.Wires[gate.Input0]

		if gate.Op == INV {
			for _, va := range []bool{false, true} {
				out, err := Decrypt(gate.ID(), table, a.Label(va), nil)
				if err != nil {
					t.Fatalf("gate %s: %v", gate, err)
				}
				if !out.Equal(garbled.Label(gate.Output, !va)) {
					t.Fatalf("gate %s: wrong output", gate)
				}
			}
			checkWrongKeys(t, gate, table, a.L0, nil)
			continue
		}
		b := garbled.Wires[gate.Input1]
		for _, va := range []bool{false, true} {
			for _, vb := range []bool{false, true} {
				lb := b.Label(vb)
				out, err := Decrypt(gate.ID(), table, a.Label(va), &lb)
				if err != nil {
					t.Fatalf("gate %s: %v", gate, err)
				}
				e := garbled.Label(gate.Output, gate.Op.Eval(va, vb))
				if !out.Equal(e) {
					t.Fatalf("gate %s: wrong output", gate)
				}
			}
		}
		lb := b.L0
		checkWrongKeys(t, gate, table, a.L0, &lb)
	}
}

func checkWrongKeys(t *testing.T, gate Gate, table [][]byte, a ot.Label,
	b *ot.Label) {

	random, err := ot.NewLabel(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	// Random label.
	_, err = Decrypt(gate.ID(), table, random, b)
	if !errors.Is(err, ErrNoValidRow) {
		t.Errorf("gate %s: random label: got %v", gate, err)
	}
	if b == nil {
		return
	}
	_, err = Decrypt(gate.ID(), table, a, &random)
	if !errors.Is(err, ErrNoValidRow) {
		t.Errorf("gate %s: random second label: got %v", gate, err)
	}

	// Swapped labels.
	_, err = Decrypt(gate.ID(), table, *b, &a)
	if !errors.Is(err, ErrNoValidRow) {
		t.Errorf("gate %s: swapped labels: got %v", gate, err)
	}

	// Right labels, wrong gate.
	_, err = Decrypt(gate.ID()+1, table, a, b)
	if !errors.Is(err, ErrNoValidRow) {
		t.Errorf("gate %s: wrong gate ID: got %v", gate, err)
	}
}

func TestCommitment(t *testing.T) {
	wire, err := ot.NewWire(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	c0 := Commitment(1, wire.L0)
	c1 := Commitment(1, wire.L1)
	if len(c0) != commitmentSize {
		t.Fatalf("commitment size %d", len(c0))
	}
	if string(c0) == string(c1) {
		t.Errorf("labels have equal commitments")
	}
	if string(c0) == string(Commitment(2, wire.L0)) {
		t.Errorf("commitment does not bind the wire ID")
	}
}

func BenchmarkGarble(b *testing.B) {
	circ := newBinaryCircuit(b, "add", DefaultWidth)
	for i := 0; i < b.N; i++ {
		if _, err := circ.Garble(rand.Reader); err != nil {
			b.Fatal(err)
		}
	}
}
