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

func TestEncode(t *testing.T) {
	arg := IOArg{
		Name:  "x",
		Kind:  KindInt,
		Wires: make([]Wire, 8),
	}
	bits, err := arg.Encode(0b10100001)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	expected := []bool{true, false, true, false, false, false, false, true}
	for i, bit := range bits {
		if bit != expected[i] {
			t.Fatalf("Encode: got %v, expected %v (MSB first)", bits, expected)
		}
	}
	v, err := arg.Decode(bits)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if v != 0b10100001 {
		t.Errorf("Decode: got %d", v)
	}

	if _, err := arg.Encode(255); err != nil {
		t.Errorf("Encode(255): %v", err)
	}
	if _, err := arg.Encode(256); !errors.Is(err, ErrOverflow) {
		t.Errorf("Encode(256): got %v, expected overflow", err)
	}
	if _, err := arg.Encode(-1); !errors.Is(err, ErrNotImplemented) {
		t.Errorf("Encode(-1): got %v, expected not implemented", err)
	}

	wire := IOArg{
		Name:  "w",
		Kind:  KindWire,
		Wires: make([]Wire, 1),
	}
	if _, err := wire.Encode(1); err != nil {
		t.Errorf("wire Encode(1): %v", err)
	}
	if _, err := wire.Encode(2); !errors.Is(err, ErrOverflow) {
		t.Errorf("wire Encode(2): got %v, expected overflow", err)
	}

	unknown := IOArg{
		Name:  "u",
		Kind:  "float",
		Wires: make([]Wire, 8),
	}
	if _, err := unknown.Encode(1); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("unknown kind: got %v", err)
	}
}

func TestParseAssignment(t *testing.T) {
	tests := []struct {
		arg   string
		name  string
		value int64
		fail  bool
	}{
		{arg: "a=42", name: "a", value: 42},
		{arg: "Wealth (Alice)=100", name: "Wealth (Alice)", value: 100},
		{arg: "b=0x2a", name: "b", value: 42},
		{arg: "c=0b00101010", name: "c", value: 42},
		{arg: "d = 7", name: "d", value: 7},
		{arg: "=7", fail: true},
		{arg: "e", fail: true},
		{arg: "f=x", fail: true},
	}
	for _, test := range tests {
		name, value, err := ParseAssignment(test.arg)
		if test.fail {
			if err == nil {
				t.Errorf("%q: expected error", test.arg)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: %v", test.arg, err)
			continue
		}
		if name != test.name || value != test.value {
			t.Errorf("%q: got %s=%d", test.arg, name, value)
		}
	}
}
