//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"fmt"
	"io"
)

var partyColors = map[Party]string{
	PartyGarbler:   "lightblue",
	PartyEvaluator: "lightpink",
	OwnerConstant:  "lightgray",
}

// Dot creates graphviz dot output of the circuit. Input wires are
// colored by their owner.
func (c *Circuit) Dot(out io.Writer) {
	fmt.Fprintf(out, "digraph circuit\n{\n")
	fmt.Fprintf(out, "  overlap=scale;\n")
	fmt.Fprintf(out, "  node\t[fontname=\"Helvetica\"];\n")
	fmt.Fprintf(out, "  {\n    node [shape=plaintext];\n")
	for w, info := range c.Wires {
		color, ok := partyColors[info.Owner]
		if ok {
			fmt.Fprintf(out,
				"    w%d\t[label=\"%d\" style=filled fillcolor=%s];\n",
				w, w, color)
		} else {
			fmt.Fprintf(out, "    w%d\t[label=\"%d\"];\n", w, w)
		}
	}
	fmt.Fprintf(out, "  }\n")

	fmt.Fprintf(out, "  {\n    node [shape=box];\n")
	for _, gate := range c.Gates {
		fmt.Fprintf(out, "    g%d\t[label=\"%s\"];\n", gate.ID(), gate.Op)
	}
	fmt.Fprintf(out, "  }\n")

	fmt.Fprintf(out, "  {  rank=same")
	for _, input := range c.Inputs {
		for _, w := range input.Wires {
			fmt.Fprintf(out, "; w%d", w)
		}
	}
	fmt.Fprintf(out, ";}\n")

	fmt.Fprintf(out, "  {  rank=same")
	for _, output := range c.Outputs {
		for _, w := range output.Wires {
			fmt.Fprintf(out, "; w%d", w)
		}
	}
	fmt.Fprintf(out, ";}\n")

	for _, gate := range c.Gates {
		for _, i := range gate.Inputs() {
			fmt.Fprintf(out, "  w%d -> g%d;\n", i, gate.ID())
		}
		fmt.Fprintf(out, "  g%d -> w%d;\n", gate.ID(), gate.Output)
	}
	fmt.Fprintf(out, "}\n")
}
