//
// Copyright (c) 2020-2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"fmt"
)

// Compute evaluates the circuit in plaintext. The inputs map input
// names to their values. The result maps output names to their
// values.
func (c *Circuit) Compute(inputs map[string]int64) (map[string]uint64, error) {
	wires := make([]bool, c.NumWires)

	for id, info := range c.Wires {
		if info.Owner == OwnerConstant {
			wires[id] = info.Value
		}
	}
	for _, io := range c.Inputs {
		v, ok := inputs[io.Name]
		if !ok {
			return nil, fmt.Errorf("%w: input %s not set", ErrAssignment,
				io.Name)
		}
		bits, err := io.Encode(v)
		if err != nil {
			return nil, err
		}
		for i, w := range io.Wires {
			wires[w] = bits[i]
		}
	}
	if len(inputs) != len(c.Inputs) {
		for name := range inputs {
			if _, ok := c.Inputs.Find(name); !ok {
				return nil, fmt.Errorf("%w: unknown input %s", ErrAssignment,
					name)
			}
		}
	}

	// Evaluate circuit.
	for _, gate := range c.Gates {
		var b bool
		if gate.Op != INV {
			b = wires[gate.Input1]
		}
		wires[gate.Output] = gate.Op.Eval(wires[gate.Input0], b)
	}

	// Construct outputs.
	result := make(map[string]uint64)
	for _, io := range c.Outputs {
		bits := make([]bool, len(io.Wires))
		for i, w := range io.Wires {
			bits[i] = wires[w]
		}
		v, err := io.Decode(bits)
		if err != nil {
			return nil, err
		}
		result[io.Name] = v
	}
	return result, nil
}
