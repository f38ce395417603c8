//
// Copyright (c) 2020-2026 Markku Rossi
//
// All rights reserved.
//

package circuit

// GreaterThan tests if x>y. The comparison scans the bits from the
// most significant down, accumulating the result while the
// more significant bits are equal.
func (b *Builder) GreaterThan(x, y Value) (*Bit, error) {
	xi, yi, err := b.integers(x, y)
	if err != nil {
		return nil, err
	}
	n := len(xi.wires)

	result := b.gt(xi.wires[0], yi.wires[0])
	if n == 1 {
		return &Bit{b: b, w: result}, nil
	}
	eq := b.xnor(xi.wires[0], yi.wires[0])

	for i := 1; i < n; i++ {
		// result = result OR (eq AND x[i]>y[i])
		result = b.or(result, b.and(eq, b.gt(xi.wires[i], yi.wires[i])))
		if i+1 < n {
			eq = b.and(eq, b.xnor(xi.wires[i], yi.wires[i]))
		}
	}
	return &Bit{b: b, w: result}, nil
}

// LessThan tests if x<y.
func (b *Builder) LessThan(x, y Value) (*Bit, error) {
	return b.GreaterThan(y, x)
}

// GreaterOrEqual tests if x>=y.
func (b *Builder) GreaterOrEqual(x, y Value) (*Bit, error) {
	lt, err := b.LessThan(x, y)
	if err != nil {
		return nil, err
	}
	return &Bit{b: b, w: b.inv(lt.w)}, nil
}

// LessOrEqual tests if x<=y.
func (b *Builder) LessOrEqual(x, y Value) (*Bit, error) {
	return b.GreaterOrEqual(y, x)
}

// Equal tests if x==y.
func (b *Builder) Equal(x, y Value) (*Bit, error) {
	xi, yi, err := b.integers(x, y)
	if err != nil {
		return nil, err
	}
	result := b.xnor(xi.wires[0], yi.wires[0])
	for i := 1; i < len(xi.wires); i++ {
		result = b.and(result, b.xnor(xi.wires[i], yi.wires[i]))
	}
	return &Bit{b: b, w: result}, nil
}
