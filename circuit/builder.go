//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"fmt"
)

// DefaultWidth is the bit width of secure integers.
const DefaultWidth = 8

// Value is a circuit value: a single wire or a secure integer.
type Value interface {
	// Kind returns the value kind.
	Kind() Kind

	// Wires returns the value wires, most significant bit first.
	Wires() []Wire

	builder() *Builder
}

// Bit is a single wire value.
type Bit struct {
	b *Builder
	w Wire
}

// Kind implements Value.Kind.
func (v *Bit) Kind() Kind {
	return KindWire
}

// Wires implements Value.Wires.
func (v *Bit) Wires() []Wire {
	return []Wire{v.w}
}

// Wire returns the bit's wire.
func (v *Bit) Wire() Wire {
	return v.w
}

func (v *Bit) builder() *Builder {
	if v == nil {
		return nil
	}
	return v.b
}

func (v *Bit) String() string {
	return v.w.String()
}

// SecureInteger is a fixed width unsigned integer value. Its wires
// are ordered most significant bit first.
type SecureInteger struct {
	b     *Builder
	wires []Wire
}

// Kind implements Value.Kind.
func (v *SecureInteger) Kind() Kind {
	return KindInt
}

// Wires implements Value.Wires.
func (v *SecureInteger) Wires() []Wire {
	result := make([]Wire, len(v.wires))
	copy(result, v.wires)
	return result
}

// Width returns the integer width in bits.
func (v *SecureInteger) Width() int {
	return len(v.wires)
}

func (v *SecureInteger) builder() *Builder {
	if v == nil {
		return nil
	}
	return v.b
}

func (v *SecureInteger) String() string {
	return fmt.Sprintf("int%d%v", len(v.wires), v.wires)
}

type source byte

const (
	srcFree source = iota
	srcInput
	srcConst
	srcGate
)

// Builder builds circuits from secure values. The first construction
// error is sticky: all subsequent operations and Compile return it.
type Builder struct {
	wires   []WireInfo
	sources []source
	gates   []Gate
	inputs  IO
	outputs IO
	names   map[string]bool
	consts  [2]*Wire
	err     error
}

// NewBuilder creates a new circuit builder.
func NewBuilder() *Builder {
	return &Builder{
		names: make(map[string]bool),
	}
}

// Err returns the first construction error.
func (b *Builder) Err() error {
	return b.err
}

func (b *Builder) fail(err error) error {
	if b.err == nil {
		b.err = err
	}
	return err
}

func (b *Builder) newWire(owner Party, src source) Wire {
	w := Wire(len(b.wires))
	b.wires = append(b.wires, WireInfo{
		Owner: owner,
	})
	b.sources = append(b.sources, src)
	return w
}

// NewBit allocates a new free bit value.
func (b *Builder) NewBit() *Bit {
	return &Bit{
		b: b,
		w: b.newWire(OwnerInternal, srcFree),
	}
}

// NewSecureInteger allocates a new DefaultWidth bit secure integer.
func (b *Builder) NewSecureInteger() *SecureInteger {
	return b.NewSecureIntegerWidth(DefaultWidth)
}

// NewSecureIntegerWidth allocates a new secure integer with the
// specified width.
func (b *Builder) NewSecureIntegerWidth(bits int) *SecureInteger {
	if bits <= 0 {
		b.fail(fmt.Errorf("%w: invalid integer width %d",
			ErrWidthMismatch, bits))
		bits = 0
	}
	wires := make([]Wire, bits)
	for i := range wires {
		wires[i] = b.newWire(OwnerInternal, srcFree)
	}
	return &SecureInteger{
		b:     b,
		wires: wires,
	}
}

func (b *Builder) wrap(kind Kind, wires []Wire) Value {
	if kind == KindWire {
		return &Bit{
			b: b,
			w: wires[0],
		}
	}
	return &SecureInteger{
		b:     b,
		wires: wires,
	}
}

// check verifies that the values are non-nil, belong to this
// builder, and have the same kind and width.
func (b *Builder) check(values ...Value) error {
	if b.err != nil {
		return b.err
	}
	for _, v := range values {
		if v == nil || v.builder() == nil {
			return b.fail(fmt.Errorf("%w: nil operand", ErrTypeMismatch))
		}
		if v.builder() != b {
			return b.fail(ErrForeignValue)
		}
	}
	for i := 1; i < len(values); i++ {
		if values[i].Kind() != values[0].Kind() {
			return b.fail(fmt.Errorf("%w: %s and %s", ErrTypeMismatch,
				values[0].Kind(), values[i].Kind()))
		}
		w0 := len(values[0].Wires())
		wi := len(values[i].Wires())
		if wi != w0 {
			return b.fail(fmt.Errorf("%w: %d and %d bits", ErrWidthMismatch,
				w0, wi))
		}
	}
	return nil
}

func (b *Builder) integers(x, y Value) (*SecureInteger, *SecureInteger,
	error) {

	if err := b.check(x, y); err != nil {
		return nil, nil, err
	}
	xi, ok := x.(*SecureInteger)
	if !ok {
		return nil, nil, b.fail(fmt.Errorf("%w: %s is not a SecureInteger",
			ErrTypeMismatch, x.Kind()))
	}
	yi, ok := y.(*SecureInteger)
	if !ok {
		return nil, nil, b.fail(fmt.Errorf("%w: %s is not a SecureInteger",
			ErrTypeMismatch, y.Kind()))
	}
	return xi, yi, nil
}

// constant returns a wire holding the constant value.
func (b *Builder) constant(value bool) Wire {
	var idx int
	if value {
		idx = 1
	}
	if b.consts[idx] == nil {
		w := b.newWire(OwnerConstant, srcConst)
		b.wires[w].Value = value
		b.consts[idx] = &w
	}
	return *b.consts[idx]
}

func (b *Builder) gate(op Operation, i0, i1 Wire) Wire {
	o := b.newWire(OwnerInternal, srcGate)
	b.gates = append(b.gates, Gate{
		Input0: i0,
		Input1: i1,
		Output: o,
		Op:     op,
	})
	return o
}

func (b *Builder) xor(x, y Wire) Wire {
	return b.gate(XOR, x, y)
}

func (b *Builder) xnor(x, y Wire) Wire {
	return b.gate(XNOR, x, y)
}

func (b *Builder) and(x, y Wire) Wire {
	return b.gate(AND, x, y)
}

func (b *Builder) or(x, y Wire) Wire {
	return b.gate(OR, x, y)
}

func (b *Builder) inv(x Wire) Wire {
	return b.gate(INV, x, 0)
}

// gt returns x AND NOT y, the single bit x>y.
func (b *Builder) gt(x, y Wire) Wire {
	return b.and(x, b.inv(y))
}

func (b *Builder) bitwise(op Operation, x, y Value) (Value, error) {
	if err := b.check(x, y); err != nil {
		return nil, err
	}
	xw := x.Wires()
	yw := y.Wires()
	result := make([]Wire, len(xw))
	for i := range xw {
		result[i] = b.gate(op, xw[i], yw[i])
	}
	return b.wrap(x.Kind(), result), nil
}

// Xor computes bitwise x XOR y.
func (b *Builder) Xor(x, y Value) (Value, error) {
	return b.bitwise(XOR, x, y)
}

// Xnor computes bitwise x XNOR y.
func (b *Builder) Xnor(x, y Value) (Value, error) {
	return b.bitwise(XNOR, x, y)
}

// And computes bitwise x AND y.
func (b *Builder) And(x, y Value) (Value, error) {
	return b.bitwise(AND, x, y)
}

// Or computes bitwise x OR y.
func (b *Builder) Or(x, y Value) (Value, error) {
	return b.bitwise(OR, x, y)
}

// Not computes bitwise NOT x.
func (b *Builder) Not(x Value) (Value, error) {
	if err := b.check(x); err != nil {
		return nil, err
	}
	xw := x.Wires()
	result := make([]Wire, len(xw))
	for i := range xw {
		result[i] = b.inv(xw[i])
	}
	return b.wrap(x.Kind(), result), nil
}

func (b *Builder) claimName(name string) error {
	if len(name) == 0 {
		return b.fail(fmt.Errorf("%w: empty name", ErrAssignment))
	}
	if b.names[name] {
		return b.fail(fmt.Errorf("%w: name %q already used",
			ErrAssignment, name))
	}
	b.names[name] = true
	return nil
}

// AssignToParty assigns the value as the party's input with the
// name. The value must consist of free wires allocated with NewBit or
// NewSecureInteger.
func (b *Builder) AssignToParty(party int, name string, v Value) error {
	if b.err != nil {
		return b.err
	}
	if err := CheckParty(party); err != nil {
		return b.fail(err)
	}
	if err := b.check(v); err != nil {
		return err
	}
	wires := v.Wires()
	for _, w := range wires {
		if b.sources[w] != srcFree {
			return b.fail(fmt.Errorf("%w: %s is not a free wire",
				ErrAssignment, w))
		}
	}
	if err := b.claimName(name); err != nil {
		return err
	}
	for _, w := range wires {
		b.sources[w] = srcInput
		b.wires[w].Owner = Party(party)
	}
	b.inputs = append(b.inputs, IOArg{
		Name:  name,
		Kind:  v.Kind(),
		Party: Party(party),
		Wires: wires,
	})
	return nil
}

// SetOutput declares the value as a circuit output with the name. The
// output wires must be computed by gates.
func (b *Builder) SetOutput(name string, v Value) error {
	if err := b.check(v); err != nil {
		return err
	}
	wires := v.Wires()
	for _, w := range wires {
		if b.sources[w] != srcGate {
			return b.fail(fmt.Errorf("%w: output %s: %s is not a gate output",
				ErrAssignment, name, w))
		}
	}
	if err := b.claimName(name); err != nil {
		return err
	}
	b.outputs = append(b.outputs, IOArg{
		Name:  name,
		Kind:  v.Kind(),
		Party: OwnerInternal,
		Wires: wires,
	})
	return nil
}

// Compile compiles the circuit. It fails if any construction step
// failed, if any allocated wire is left unassigned, or if no outputs
// are declared.
func (b *Builder) Compile() (*Circuit, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.outputs) == 0 {
		return nil, fmt.Errorf("%w: no outputs declared", ErrAssignment)
	}
	for id, src := range b.sources {
		if src == srcFree {
			return nil, fmt.Errorf("%w: wire %s not assigned to a party",
				ErrAssignment, Wire(id))
		}
	}
	var stats Stats
	for _, g := range b.gates {
		for _, i := range g.Inputs() {
			if i >= g.Output {
				return nil, fmt.Errorf("gate %s: forward reference to %s",
					g.ID(), i)
			}
		}
		stats[g.Op]++
	}

	wires := make([]WireInfo, len(b.wires))
	copy(wires, b.wires)
	gates := make([]Gate, len(b.gates))
	copy(gates, b.gates)

	return &Circuit{
		NumGates: len(gates),
		NumWires: len(wires),
		Wires:    wires,
		Inputs:   copyIO(b.inputs),
		Outputs:  copyIO(b.outputs),
		Gates:    gates,
		Stats:    stats,
	}, nil
}

func copyIO(io IO) IO {
	result := make(IO, len(io))
	for i, arg := range io {
		result[i] = arg
		result[i].Wires = append([]Wire(nil), arg.Wires...)
	}
	return result
}
