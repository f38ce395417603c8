//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"errors"
	"testing"
)

type binaryOp func(b *Builder, x, y Value) (Value, error)

var binaryOps = map[string]binaryOp{
	"add": func(b *Builder, x, y Value) (Value, error) {
		return b.Add(x, y)
	},
	"gt": func(b *Builder, x, y Value) (Value, error) {
		return b.GreaterThan(x, y)
	},
	"lt": func(b *Builder, x, y Value) (Value, error) {
		return b.LessThan(x, y)
	},
	"ge": func(b *Builder, x, y Value) (Value, error) {
		return b.GreaterOrEqual(x, y)
	},
	"le": func(b *Builder, x, y Value) (Value, error) {
		return b.LessOrEqual(x, y)
	},
	"eq": func(b *Builder, x, y Value) (Value, error) {
		return b.Equal(x, y)
	},
}

// newBinaryCircuit creates a circuit computing r = op(a, b) where a
// is the garbler's input and b the evaluator's input.
func newBinaryCircuit(t testing.TB, name string, bits int) *Circuit {
	op, ok := binaryOps[name]
	if !ok {
		t.Fatalf("unknown operation %s", name)
	}
	b := NewBuilder()
	x := b.NewSecureIntegerWidth(bits)
	y := b.NewSecureIntegerWidth(bits)
	if err := b.AssignToParty(0, "a", x); err != nil {
		t.Fatalf("AssignToParty: %v", err)
	}
	if err := b.AssignToParty(1, "b", y); err != nil {
		t.Fatalf("AssignToParty: %v", err)
	}
	r, err := op(b, x, y)
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	if err := b.SetOutput("r", r); err != nil {
		t.Fatalf("SetOutput: %v", err)
	}
	circ, err := b.Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return circ
}

func TestBuilderCompile(t *testing.T) {
	circ := newBinaryCircuit(t, "add", DefaultWidth)

	if len(circ.Inputs) != 2 || len(circ.Outputs) != 1 {
		t.Fatalf("unexpected I/O: %v -> %v", circ.Inputs, circ.Outputs)
	}
	if circ.Inputs[0].Size() != DefaultWidth {
		t.Errorf("input width %d", circ.Inputs[0].Size())
	}
	if circ.Inputs[0].Party != PartyGarbler ||
		circ.Inputs[1].Party != PartyEvaluator {
		t.Errorf("unexpected input parties: %v", circ.Inputs)
	}
	if len(circ.Constants()) != 1 {
		t.Errorf("expected one constant wire, got %v", circ.Constants())
	}
	if circ.Stats.Count() != circ.NumGates {
		t.Errorf("stats %v do not match #gates %d", circ.Stats, circ.NumGates)
	}
	for _, g := range circ.Gates {
		for _, i := range g.Inputs() {
			if i >= g.Output {
				t.Errorf("gate %s: forward reference to %s", g, i)
			}
		}
	}
	for _, edge := range circ.Prerequisites() {
		gate := edge[len(edge)-1]
		if int(gate) >= circ.NumWires {
			t.Errorf("invalid gate ID %s", gate)
		}
	}
}

func TestAssignToParty(t *testing.T) {
	tests := []struct {
		party int
		err   error
	}{
		{party: 0},
		{party: 1},
		{party: -1, err: ErrInvalidParty},
		{party: 2, err: ErrNotImplemented},
		{party: 3, err: ErrInvalidParty},
	}
	for _, test := range tests {
		b := NewBuilder()
		err := b.AssignToParty(test.party, "x", b.NewSecureInteger())
		if test.err == nil {
			if err != nil {
				t.Errorf("party %d: unexpected error: %v", test.party, err)
			}
			continue
		}
		if !errors.Is(err, test.err) {
			t.Errorf("party %d: got %v, expected %v", test.party, err,
				test.err)
		}
	}
}

func TestBuilderErrors(t *testing.T) {
	other := NewBuilder()

	tests := []struct {
		name string
		run  func(b *Builder) error
		err  error
	}{
		{
			name: "type mismatch",
			run: func(b *Builder) error {
				_, err := b.Add(b.NewSecureInteger(), b.NewBit())
				return err
			},
			err: ErrTypeMismatch,
		},
		{
			name: "bit comparison",
			run: func(b *Builder) error {
				_, err := b.GreaterThan(b.NewBit(), b.NewBit())
				return err
			},
			err: ErrTypeMismatch,
		},
		{
			name: "nil operand",
			run: func(b *Builder) error {
				var x *SecureInteger
				_, err := b.Equal(b.NewSecureInteger(), x)
				return err
			},
			err: ErrTypeMismatch,
		},
		{
			name: "width mismatch",
			run: func(b *Builder) error {
				_, err := b.Add(b.NewSecureInteger(),
					b.NewSecureIntegerWidth(4))
				return err
			},
			err: ErrWidthMismatch,
		},
		{
			name: "invalid width",
			run: func(b *Builder) error {
				b.NewSecureIntegerWidth(0)
				return b.Err()
			},
			err: ErrWidthMismatch,
		},
		{
			name: "foreign value",
			run: func(b *Builder) error {
				_, err := b.Xor(b.NewSecureInteger(),
					other.NewSecureInteger())
				return err
			},
			err: ErrForeignValue,
		},
		{
			name: "duplicate name",
			run: func(b *Builder) error {
				if err := b.AssignToParty(0, "x", b.NewBit()); err != nil {
					return err
				}
				return b.AssignToParty(1, "x", b.NewBit())
			},
			err: ErrAssignment,
		},
		{
			name: "reassign",
			run: func(b *Builder) error {
				x := b.NewSecureInteger()
				if err := b.AssignToParty(0, "x", x); err != nil {
					return err
				}
				return b.AssignToParty(1, "y", x)
			},
			err: ErrAssignment,
		},
		{
			name: "assign gate output",
			run: func(b *Builder) error {
				x := b.NewBit()
				if err := b.AssignToParty(0, "x", x); err != nil {
					return err
				}
				r, err := b.Not(x)
				if err != nil {
					return err
				}
				return b.AssignToParty(1, "r", r)
			},
			err: ErrAssignment,
		},
		{
			name: "input as output",
			run: func(b *Builder) error {
				x := b.NewBit()
				if err := b.AssignToParty(0, "x", x); err != nil {
					return err
				}
				return b.SetOutput("r", x)
			},
			err: ErrAssignment,
		},
	}
	for _, test := range tests {
		b := NewBuilder()
		err := test.run(b)
		if !errors.Is(err, test.err) {
			t.Errorf("%s: got %v, expected %v", test.name, err, test.err)
			continue
		}
		// The error is sticky.
		_, err = b.Compile()
		if !errors.Is(err, test.err) {
			t.Errorf("%s: Compile: got %v, expected %v", test.name, err,
				test.err)
		}
		if _, err := b.Or(b.NewBit(), b.NewBit()); !errors.Is(err, test.err) {
			t.Errorf("%s: Or after error: got %v", test.name, err)
		}
	}
}

func TestCompileErrors(t *testing.T) {
	b := NewBuilder()
	x := b.NewBit()
	if err := b.AssignToParty(0, "x", x); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Compile(); !errors.Is(err, ErrAssignment) {
		t.Errorf("no outputs: got %v", err)
	}

	b = NewBuilder()
	x = b.NewBit()
	y := b.NewBit()
	if err := b.AssignToParty(0, "x", x); err != nil {
		t.Fatal(err)
	}
	r, err := b.And(x, y)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.SetOutput("r", r); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Compile(); !errors.Is(err, ErrAssignment) {
		t.Errorf("unassigned wire: got %v", err)
	}
}

func TestBitOperations(t *testing.T) {
	b := NewBuilder()
	x := b.NewBit()
	y := b.NewBit()
	if err := b.AssignToParty(0, "x", x); err != nil {
		t.Fatal(err)
	}
	if err := b.AssignToParty(1, "y", y); err != nil {
		t.Fatal(err)
	}
	ops := map[string]func(x, y Value) (Value, error){
		"xor":  b.Xor,
		"xnor": b.Xnor,
		"and":  b.And,
		"or":   b.Or,
		"not": func(x, y Value) (Value, error) {
			return b.Not(x)
		},
	}
	for name, op := range ops {
		r, err := op(x, y)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if r.Kind() != KindWire || len(r.Wires()) != 1 {
			t.Fatalf("%s: unexpected result %v", name, r)
		}
		if err := b.SetOutput(name, r); err != nil {
			t.Fatalf("SetOutput: %v", err)
		}
	}
	circ, err := b.Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	for _, vx := range []bool{false, true} {
		for _, vy := range []bool{false, true} {
			result, err := circ.Compute(map[string]int64{
				"x": b2i(vx),
				"y": b2i(vy),
			})
			if err != nil {
				t.Fatalf("Compute: %v", err)
			}
			expected := map[string]bool{
				"xor":  vx != vy,
				"xnor": vx == vy,
				"and":  vx && vy,
				"or":   vx || vy,
				"not":  !vx,
			}
			for name, e := range expected {
				if result[name] != uint64(b2i(e)) {
					t.Errorf("%s(%v,%v)=%v, expected %v",
						name, vx, vy, result[name], e)
				}
			}
		}
	}
}

func b2i(v bool) int64 {
	if v {
		return 1
	}
	return 0
}
