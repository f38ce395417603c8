//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"fmt"
	"slices"

	"golang.org/x/exp/maps"
)

// Graph is the gate dependency graph of a garbled circuit. Its nodes
// are wire IDs: gates are identified by their output wires and the
// leaves are circuit input and constant wires.
type Graph struct {
	gates  map[Wire][]Wire
	leaves map[Wire]bool
	order  []Wire
}

// NewGraph creates the dependency graph from the prerequisite edge
// lists. The last element of each edge list is the gate ID and the
// preceding elements are the gate's input wires. NewGraph verifies
// that every gate has a garbled table with one row per input
// combination, that every prerequisite is a gate, an input wire, or a
// constant wire, and that the graph is acyclic.
func NewGraph(prereqs [][]Wire, tables map[Wire][][]byte, inputs IO,
	consts []Wire) (*Graph, error) {

	g := &Graph{
		gates:  make(map[Wire][]Wire),
		leaves: make(map[Wire]bool),
	}
	for _, input := range inputs {
		for _, w := range input.Wires {
			g.leaves[w] = true
		}
	}
	for _, w := range consts {
		g.leaves[w] = true
	}

	for _, edge := range prereqs {
		if len(edge) < 2 || len(edge) > 3 {
			return nil, fmt.Errorf("%w: invalid edge list %v", ErrProtocol,
				edge)
		}
		id := edge[len(edge)-1]
		if _, ok := g.gates[id]; ok {
			return nil, fmt.Errorf("%w: duplicate gate %s", ErrProtocol, id)
		}
		if g.leaves[id] {
			return nil, fmt.Errorf("%w: gate %s is an input wire",
				ErrProtocol, id)
		}
		table, ok := tables[id]
		if !ok {
			return nil, fmt.Errorf("%w: no garbled table for gate %s",
				ErrDanglingReference, id)
		}
		numInputs := len(edge) - 1
		if len(table) != 1<<numInputs {
			return nil, fmt.Errorf("%w: gate %s: %d table rows for %d inputs",
				ErrProtocol, id, len(table), numInputs)
		}
		g.gates[id] = append([]Wire(nil), edge[:numInputs]...)
	}
	for id := range tables {
		if _, ok := g.gates[id]; !ok {
			return nil, fmt.Errorf("%w: no prerequisites for gate %s",
				ErrDanglingReference, id)
		}
	}
	for id, inputs := range g.gates {
		for _, w := range inputs {
			if _, ok := g.gates[w]; !ok && !g.leaves[w] {
				return nil, fmt.Errorf("%w: gate %s input %s",
					ErrDanglingReference, id, w)
			}
		}
	}

	order, err := g.sort()
	if err != nil {
		return nil, err
	}
	g.order = order

	return g, nil
}

// sort computes a topological order of the gates with Kahn's
// algorithm. The order is deterministic: ready gates are processed in
// increasing ID order.
func (g *Graph) sort() ([]Wire, error) {
	ids := maps.Keys(g.gates)
	slices.Sort(ids)

	pending := make(map[Wire]int)
	dependents := make(map[Wire][]Wire)
	var ready []Wire

	for _, id := range ids {
		for _, w := range g.gates[id] {
			if _, ok := g.gates[w]; ok {
				pending[id]++
				dependents[w] = append(dependents[w], id)
			}
		}
		if pending[id] == 0 {
			ready = append(ready, id)
		}
	}

	order := make([]Wire, 0, len(ids))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		for _, dep := range dependents[id] {
			pending[dep]--
			if pending[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}
	if len(order) != len(ids) {
		return nil, fmt.Errorf("%w: %d of %d gates unreachable",
			ErrCycle, len(ids)-len(order), len(ids))
	}
	return order, nil
}

// Order returns a topological order of the gates.
func (g *Graph) Order() []Wire {
	return append([]Wire(nil), g.order...)
}

// NumGates returns the number of gates in the graph.
func (g *Graph) NumGates() int {
	return len(g.gates)
}

// IsGate tests if the wire is a gate output.
func (g *Graph) IsGate(w Wire) bool {
	_, ok := g.gates[w]
	return ok
}

// Inputs returns the input wires of the gate.
func (g *Graph) Inputs(gate Wire) []Wire {
	return g.gates[gate]
}

// CheckOrder verifies that the order lists every gate exactly once
// and that each gate comes after all gates it depends on.
func (g *Graph) CheckOrder(order []Wire) error {
	if len(order) != len(g.gates) {
		return fmt.Errorf("%w: order has %d gates, graph has %d",
			ErrPrerequisite, len(order), len(g.gates))
	}
	seen := make(map[Wire]bool)
	for _, id := range order {
		inputs, ok := g.gates[id]
		if !ok {
			return fmt.Errorf("%w: unknown gate %s", ErrDanglingReference, id)
		}
		if seen[id] {
			return fmt.Errorf("%w: gate %s listed twice", ErrPrerequisite, id)
		}
		for _, w := range inputs {
			if g.IsGate(w) && !seen[w] {
				return fmt.Errorf("%w: gate %s before its input %s",
					ErrPrerequisite, id, w)
			}
		}
		seen[id] = true
	}
	return nil
}
