//
// circ_adder.go
//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

package circuit

// fullAdder adds the bits a, b, and cin. It returns the sum bit and,
// if carry is set, the carry out bit.
func (b *Builder) fullAdder(x, y, cin Wire, carry bool) (Wire, Wire) {
	// s = x XOR y XOR cin
	// cout = cin XOR ((x XOR cin) AND (y XOR cin)).

	w1 := b.xor(y, cin)
	s := b.xor(x, w1)
	if !carry {
		return s, 0
	}
	w2 := b.xor(x, cin)
	w3 := b.and(w1, w2)
	cout := b.xor(cin, w3)

	return s, cout
}

// Add computes x+y with a ripple-carry adder. The result has the
// operands' width and wraps around on overflow.
func (b *Builder) Add(x, y Value) (*SecureInteger, error) {
	xi, yi, err := b.integers(x, y)
	if err != nil {
		return nil, err
	}
	n := len(xi.wires)
	sum := make([]Wire, n)

	cin := b.constant(false)

	// Wires are MSB first, the carry ripples from the last wire.
	for i := n - 1; i >= 0; i-- {
		// N+N=N, overflow, drop carry bit.
		sum[i], cin = b.fullAdder(xi.wires[i], yi.wires[i], cin, i > 0)
	}

	return &SecureInteger{
		b:     b,
		wires: sum,
	}, nil
}
