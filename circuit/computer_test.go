//
// Copyright (c) 2020-2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"errors"
	"testing"
)

func expected(op string, a, b uint64) uint64 {
	var r bool
	switch op {
	case "add":
		return (a + b) % 256
	case "gt":
		r = a > b
	case "lt":
		r = a < b
	case "ge":
		r = a >= b
	case "le":
		r = a <= b
	case "eq":
		r = a == b
	}
	if r {
		return 1
	}
	return 0
}

func TestComputeExhaustive(t *testing.T) {
	for name := range binaryOps {
		circ := newBinaryCircuit(t, name, DefaultWidth)
		for a := uint64(0); a < 256; a++ {
			for b := uint64(0); b < 256; b++ {
				result, err := circ.Compute(map[string]int64{
					"a": int64(a),
					"b": int64(b),
				})
				if err != nil {
					t.Fatalf("%s: Compute: %v", name, err)
				}
				if result["r"] != expected(name, a, b) {
					t.Fatalf("%s(%d,%d)=%d, expected %d", name, a, b,
						result["r"], expected(name, a, b))
				}
			}
		}
	}
}

func TestComputeNarrow(t *testing.T) {
	for _, bits := range []int{1, 2, 3} {
		add := newBinaryCircuit(t, "add", bits)
		gt := newBinaryCircuit(t, "gt", bits)
		mod := uint64(1) << bits

		for a := uint64(0); a < mod; a++ {
			for b := uint64(0); b < mod; b++ {
				inputs := map[string]int64{
					"a": int64(a),
					"b": int64(b),
				}
				r, err := add.Compute(inputs)
				if err != nil {
					t.Fatal(err)
				}
				if r["r"] != (a+b)%mod {
					t.Errorf("%d bits: %d+%d=%d", bits, a, b, r["r"])
				}
				r, err = gt.Compute(inputs)
				if err != nil {
					t.Fatal(err)
				}
				if (r["r"] == 1) != (a > b) {
					t.Errorf("%d bits: %d>%d=%d", bits, a, b, r["r"])
				}
			}
		}
	}
}

func TestComputeInputs(t *testing.T) {
	circ := newBinaryCircuit(t, "add", DefaultWidth)

	_, err := circ.Compute(map[string]int64{"a": 1})
	if !errors.Is(err, ErrAssignment) {
		t.Errorf("missing input: got %v", err)
	}
	_, err = circ.Compute(map[string]int64{"a": 1, "b": 2, "c": 3})
	if !errors.Is(err, ErrAssignment) {
		t.Errorf("unknown input: got %v", err)
	}
	_, err = circ.Compute(map[string]int64{"a": 256, "b": 2})
	if !errors.Is(err, ErrOverflow) {
		t.Errorf("overflow: got %v", err)
	}
}
