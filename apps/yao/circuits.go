//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package main

import (
	"fmt"
	"slices"

	"github.com/markkurossi/yao/circuit"
	"golang.org/x/exp/maps"
)

type binaryOp func(b *circuit.Builder, x, y circuit.Value) (
	circuit.Value, error)

type example struct {
	a, b, out string
	op        binaryOp
}

var examples = map[string]example{
	"millionaires": {
		a:   "Wealth (Alice)",
		b:   "Wealth (Bob)",
		out: "alice_richer_than_bob",
		op: func(b *circuit.Builder, x, y circuit.Value) (
			circuit.Value, error) {
			r, err := b.GreaterThan(x, y)
			if err != nil {
				return nil, err
			}
			return r, nil
		},
	},
	"equality": {
		a:   "a",
		b:   "b",
		out: "equal",
		op: func(b *circuit.Builder, x, y circuit.Value) (
			circuit.Value, error) {
			r, err := b.Equal(x, y)
			if err != nil {
				return nil, err
			}
			return r, nil
		},
	},
	"add": {
		a:   "a",
		b:   "b",
		out: "sum",
		op: func(b *circuit.Builder, x, y circuit.Value) (
			circuit.Value, error) {
			r, err := b.Add(x, y)
			if err != nil {
				return nil, err
			}
			return r, nil
		},
	},
}

func exampleNames() []string {
	names := maps.Keys(examples)
	slices.Sort(names)
	return names
}

// newCircuit builds the named example circuit. The garbler and the
// evaluator provide one integer input each and the circuit outputs
// op(a, b).
func newCircuit(name string, bits int) (*circuit.Circuit, error) {
	ex, ok := examples[name]
	if !ok {
		return nil, fmt.Errorf("unknown circuit %s, expected one of %v",
			name, exampleNames())
	}
	b := circuit.NewBuilder()
	x := b.NewSecureIntegerWidth(bits)
	y := b.NewSecureIntegerWidth(bits)
	if err := b.Err(); err != nil {
		return nil, err
	}
	if err := b.AssignToParty(0, ex.a, x); err != nil {
		return nil, err
	}
	if err := b.AssignToParty(1, ex.b, y); err != nil {
		return nil, err
	}
	r, err := ex.op(b, x, y)
	if err != nil {
		return nil, err
	}
	if err := b.SetOutput(ex.out, r); err != nil {
		return nil, err
	}
	return b.Compile()
}
