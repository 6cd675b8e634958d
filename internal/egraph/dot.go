package egraph

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// WriteDot renders the graph in GraphViz format: one cluster per class,
// one record per node, edges from nodes to child classes.
func (g *EGraph) WriteDot(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "digraph egraph {")
	fmt.Fprintln(bw, "  compound=true;")
	fmt.Fprintln(bw, "  clusterrank=local;")

	for _, id := range g.Classes() {
		cls := g.classes[id]
		fmt.Fprintf(bw, "  subgraph cluster_%d {\n", id)
		fmt.Fprintln(bw, "    style=dotted;")
		label := "e" + strconv.FormatUint(uint64(id), 10)
		if cls.Data.HasConstant() {
			label += " = " + cls.Data.Constant.String()
		}
		fmt.Fprintf(bw, "    label=%q;\n", label)
		for i, n := range cls.Nodes {
			text := n.Op.String()
			if n.Op.IsLeaf() {
				text = n.String()
			}
			fmt.Fprintf(bw, "    n%d_%d [label=%q];\n", id, i, text)
		}
		fmt.Fprintln(bw, "  }")
	}

	for _, id := range g.Classes() {
		for i, n := range g.classes[id].Nodes {
			for j, c := range n.Children {
				c = g.uf.root(c)
				fmt.Fprintf(bw, "  n%d_%d -> n%d_0 [lhead=cluster_%d, label=%d];\n", id, i, c, c, j)
			}
		}
	}

	fmt.Fprintln(bw, "}")
	return bw.Flush()
}
