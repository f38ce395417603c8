//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// Kind specifies the kind of an I/O argument.
type Kind string

// Argument kinds.
const (
	KindInt  Kind = "int"
	KindWire Kind = "wire"
)

// Check verifies that the kind is known.
func (k Kind) Check() error {
	switch k {
	case KindInt, KindWire:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, string(k))
	}
}

// IOArg describes circuit input or output argument. The wires are
// ordered most significant bit first.
type IOArg struct {
	Name  string `cbor:"name"`
	Kind  Kind   `cbor:"kind"`
	Party Party  `cbor:"party"`
	Wires []Wire `cbor:"wires"`
}

func (io IOArg) String() string {
	if io.Kind == KindInt {
		return fmt.Sprintf("%s:%s%d", io.Name, io.Kind, len(io.Wires))
	}
	return fmt.Sprintf("%s:%s", io.Name, io.Kind)
}

// Size returns the argument size in bits.
func (io IOArg) Size() int {
	return len(io.Wires)
}

// Encode encodes the value into the argument's bits, most
// significant bit first. Negative values are not supported and
// values not fitting into the argument's wires are overflow errors.
func (io IOArg) Encode(value int64) ([]bool, error) {
	if err := io.Kind.Check(); err != nil {
		return nil, err
	}
	if value < 0 {
		return nil, fmt.Errorf("%w: negative input %d for %s",
			ErrNotImplemented, value, io.Name)
	}
	n := len(io.Wires)
	if bits.Len64(uint64(value)) > n {
		return nil, fmt.Errorf("%w: value %d does not fit in %d bits of %s",
			ErrOverflow, value, n, io.Name)
	}
	result := make([]bool, n)
	for i := 0; i < n; i++ {
		result[i] = (uint64(value)>>(n-1-i))&1 == 1
	}
	return result, nil
}

// Decode decodes the argument value from its bits, most significant
// bit first.
func (io IOArg) Decode(values []bool) (uint64, error) {
	if len(values) != len(io.Wires) {
		return 0, fmt.Errorf("invalid number of bits for %s: got %d, expected %d",
			io.Name, len(values), len(io.Wires))
	}
	if len(values) > 64 {
		return 0, fmt.Errorf("%w: %s has %d bits", ErrOverflow, io.Name,
			len(values))
	}
	var result uint64
	for _, v := range values {
		result <<= 1
		if v {
			result |= 1
		}
	}
	return result, nil
}

// IO specifies circuit input and output arguments.
type IO []IOArg

// Size computes the size of the circuit input and output arguments in
// bits.
func (io IO) Size() int {
	var sum int
	for _, a := range io {
		sum += a.Size()
	}
	return sum
}

func (io IO) String() string {
	var parts []string
	for _, a := range io {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, ", ")
}

// Find finds the argument by name.
func (io IO) Find(name string) (IOArg, bool) {
	for _, a := range io {
		if a.Name == name {
			return a, true
		}
	}
	return IOArg{}, false
}

// Party returns the arguments of the party.
func (io IO) Party(party Party) IO {
	var result IO
	for _, a := range io {
		if a.Party == party {
			result = append(result, a)
		}
	}
	return result
}

// ParseInput parses an input value. The value can be given in any Go
// integer literal syntax, for example 42, 0x2a, or 0b00101010.
func ParseInput(value string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(value), 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid input %q: %w", value, err)
	}
	return v, nil
}

// ParseAssignment parses a name=value input assignment.
func ParseAssignment(arg string) (string, int64, error) {
	idx := strings.LastIndexByte(arg, '=')
	if idx <= 0 {
		return "", 0, fmt.Errorf("invalid input assignment %q", arg)
	}
	v, err := ParseInput(arg[idx+1:])
	if err != nil {
		return "", 0, err
	}
	return strings.TrimSpace(arg[:idx]), v, nil
}
