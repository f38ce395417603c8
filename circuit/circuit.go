//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

// Package circuit implements boolean circuits for two-party
// computation with Yao's garbled circuits: the circuit builder, the
// garbling engine, the evaluator engine, and the request/reply
// protocol between the garbler and the evaluator.
package circuit

import (
	"errors"
	"fmt"
	"io"

	"github.com/markkurossi/text/superscript"
)

// Construction, protocol, and cryptographic errors.
var (
	ErrInvalidParty      = errors.New("invalid party")
	ErrNotImplemented    = errors.New("not implemented")
	ErrTypeMismatch      = errors.New("operand type mismatch")
	ErrWidthMismatch     = errors.New("operand width mismatch")
	ErrForeignValue      = errors.New("value belongs to another circuit")
	ErrAssignment        = errors.New("invalid input assignment")
	ErrOverflow          = errors.New("integer overflow")
	ErrUnknownKind       = errors.New("unknown input kind")
	ErrProtocol          = errors.New("protocol error")
	ErrPrerequisite      = errors.New("gate prerequisites not evaluated")
	ErrCycle             = errors.New("dependency graph contains a cycle")
	ErrDanglingReference = errors.New("dependency graph has dangling reference")
	ErrNoValidRow        = errors.New("no valid garbled table row")
	ErrRejected          = errors.New("request rejected")
)

// Operation specifies gate function.
type Operation byte

// Gate functions.
const (
	XOR Operation = iota
	XNOR
	AND
	OR
	INV
)

// Stats holds statistics about circuit operations.
type Stats [INV + 1]int

// Count returns the total number of gates.
func (stats Stats) Count() int {
	var result int
	for _, v := range stats {
		result += v
	}
	return result
}

func (op Operation) String() string {
	switch op {
	case XOR:
		return "XOR"
	case XNOR:
		return "XNOR"
	case AND:
		return "AND"
	case OR:
		return "OR"
	case INV:
		return "INV"
	default:
		return fmt.Sprintf("{Operation %d}", op)
	}
}

// Eval computes the operation for the plaintext input bits. The
// argument b is ignored for INV.
func (op Operation) Eval(a, b bool) bool {
	switch op {
	case XOR:
		return a != b
	case XNOR:
		return a == b
	case AND:
		return a && b
	case OR:
		return a || b
	case INV:
		return !a
	default:
		panic(fmt.Sprintf("unsupported gate type %s", op))
	}
}

// Party identifies a computation party. The negative values identify
// wires that no party owns.
type Party int

// Parties and wire owners.
const (
	OwnerConstant  Party = -2
	OwnerInternal  Party = -1
	PartyGarbler   Party = 0
	PartyEvaluator Party = 1

	// NumParties is the number of supported parties.
	NumParties = 2
)

func (p Party) String() string {
	switch p {
	case OwnerConstant:
		return "const"
	case OwnerInternal:
		return "internal"
	default:
		return "P" + superscript.Itoa(int(p))
	}
}

// CheckParty verifies that the party index identifies a supported
// party.
func CheckParty(party int) error {
	if party < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidParty, party)
	}
	if party >= NumParties {
		return fmt.Errorf("%w: %w: only %d parties supported, got %d",
			ErrInvalidParty, ErrNotImplemented, NumParties, party)
	}
	return nil
}

// Wire specifies a wire ID.
type Wire uint32

// ID returns the wire ID as integer.
func (w Wire) ID() int {
	return int(w)
}

func (w Wire) String() string {
	return fmt.Sprintf("w%d", w)
}

// WireInfo describes the ownership of a wire. The Value is the
// constant value of OwnerConstant wires.
type WireInfo struct {
	Owner Party
	Value bool
}

// Gate specifies a boolean gate. The gate ID is its output wire ID.
type Gate struct {
	Input0 Wire
	Input1 Wire
	Output Wire
	Op     Operation
}

func (g Gate) String() string {
	return fmt.Sprintf("%v %v %v", g.Inputs(), g.Op, g.Output)
}

// ID returns the gate ID.
func (g Gate) ID() Wire {
	return g.Output
}

// Inputs returns gate input wires.
func (g Gate) Inputs() []Wire {
	switch g.Op {
	case XOR, XNOR, AND, OR:
		return []Wire{g.Input0, g.Input1}
	case INV:
		return []Wire{g.Input0}
	default:
		panic(fmt.Sprintf("unsupported gate type %s", g.Op))
	}
}

// Circuit specifies a boolean circuit. Gates are in topological
// order.
type Circuit struct {
	NumGates int
	NumWires int
	Wires    []WireInfo
	Inputs   IO
	Outputs  IO
	Gates    []Gate
	Stats    Stats
}

func (c *Circuit) String() string {
	var stats string

	for k := XOR; k <= INV; k++ {
		v := c.Stats[k]
		if len(stats) > 0 {
			stats += " "
		}
		stats += fmt.Sprintf("%s=%d", k, v)
	}
	return fmt.Sprintf("#gates=%d (%s) #w=%d", c.NumGates, stats, c.NumWires)
}

// Cost computes the relative computational cost of the circuit.
func (c *Circuit) Cost() int {
	return (c.NumGates-c.Stats[INV])*4 + c.Stats[INV]*2
}

// Dump prints a debug dump of the circuit.
func (c *Circuit) Dump(out io.Writer) {
	fmt.Fprintf(out, "circuit %s\n", c)
	for _, input := range c.Inputs {
		fmt.Fprintf(out, "input\t%s\t%s\t%v\n", input.Party, input, input.Wires)
	}
	for _, gate := range c.Gates {
		fmt.Fprintf(out, "%04d\t%s\n", gate.ID(), gate)
	}
	for _, output := range c.Outputs {
		fmt.Fprintf(out, "output\t%s\t%v\n", output, output.Wires)
	}
}

// Prerequisites returns the gate dependency graph as edge lists. The
// last element of each list is the gate ID and the preceding elements
// are the wires the gate consumes.
func (c *Circuit) Prerequisites() [][]Wire {
	result := make([][]Wire, 0, len(c.Gates))
	for _, gate := range c.Gates {
		edge := append(gate.Inputs(), gate.ID())
		result = append(result, edge)
	}
	return result
}

// Constants returns the constant wires of the circuit.
func (c *Circuit) Constants() []Wire {
	var result []Wire
	for id, info := range c.Wires {
		if info.Owner == OwnerConstant {
			result = append(result, Wire(id))
		}
	}
	return result
}
