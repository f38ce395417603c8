//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

// Package yao implements two-party secure computation with Yao's
// garbled circuits.
package yao

import (
	"fmt"
	"io"
	"strconv"

	"github.com/markkurossi/tabulate"
	"github.com/markkurossi/yao/circuit"
)

// FormatResult formats the result value in the base. Wire results
// are formatted as booleans. The base 0 selects decimal.
func FormatResult(result circuit.Result, base int) string {
	if result.Kind == circuit.KindWire {
		return fmt.Sprintf("%v", result.Bool())
	}
	if base == 0 {
		base = 10
	}
	str := strconv.FormatUint(result.Value, base)
	switch base {
	case 2:
		return "0b" + str
	case 8:
		return "0o" + str
	case 16:
		return "0x" + str
	default:
		return str
	}
}

// PrintResults prints the result values to the writer.
func PrintResults(w io.Writer, results []circuit.Result, base int) {
	tab := tabulate.New(tabulate.UnicodeLight)
	tab.Header("Output").SetAlign(tabulate.ML)
	tab.Header("Type").SetAlign(tabulate.ML)
	tab.Header("Value").SetAlign(tabulate.MR)

	for _, result := range results {
		row := tab.Row()
		row.Column(result.Name)
		row.Column(string(result.Kind))
		row.Column(FormatResult(result, base))
	}
	tab.Print(w)
}
