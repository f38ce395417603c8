//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package yao

import (
	"bytes"
	"strings"
	"testing"

	"github.com/markkurossi/yao/circuit"
)

func TestFormatResult(t *testing.T) {
	tests := []struct {
		result   circuit.Result
		base     int
		expected string
	}{
		{
			result:   circuit.Result{Kind: circuit.KindInt, Value: 42},
			expected: "42",
		},
		{
			result:   circuit.Result{Kind: circuit.KindInt, Value: 42},
			base:     16,
			expected: "0x2a",
		},
		{
			result:   circuit.Result{Kind: circuit.KindInt, Value: 5},
			base:     2,
			expected: "0b101",
		},
		{
			result:   circuit.Result{Kind: circuit.KindWire, Value: 1},
			base:     16,
			expected: "true",
		},
		{
			result:   circuit.Result{Kind: circuit.KindWire},
			expected: "false",
		},
	}
	for _, test := range tests {
		got := FormatResult(test.result, test.base)
		if got != test.expected {
			t.Errorf("FormatResult(%v, %d)=%q, expected %q",
				test.result, test.base, got, test.expected)
		}
	}
}

func TestPrintResults(t *testing.T) {
	var buf bytes.Buffer
	PrintResults(&buf, []circuit.Result{
		{
			Name:  "alice_richer_than_bob",
			Kind:  circuit.KindWire,
			Value: 1,
		},
		{
			Name:  "sum",
			Kind:  circuit.KindInt,
			Value: 155,
		},
	}, 0)
	out := buf.String()
	for _, s := range []string{"alice_richer_than_bob", "true", "sum", "155"} {
		if !strings.Contains(out, s) {
			t.Errorf("output does not contain %q:\n%s", s, out)
		}
	}
}
