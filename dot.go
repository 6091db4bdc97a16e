package taskgraph

import (
	"fmt"
	"io"
	"strings"
)

// WriteDOT renders the pipeline in Graphviz DOT format for debugging.
// Nodes are drawn as records with one cell per port; inputs without a bound
// output (external feed points) and outputs nobody consumes are drawn as
// point-shaped pseudo nodes. WriteDOT does not build the pipeline and may
// be called before or instead of Build.
func (p *Pipeline) WriteDOT(w io.Writer) error {
	var b strings.Builder

	b.WriteString("digraph structs {\n")
	b.WriteString("\trankdir = LR;\n\n")
	b.WriteString("\tnode [shape = record];\n")

	for i, cfg := range p.cfgs {
		fmt.Fprintf(&b, "\tn%d[label = \"%s|{{%s}|{%s}}\"]\n",
			i, cfg.name, inputsToString(cfg.inputs), outputsToString(cfg.outputs))
	}
	b.WriteString("\n")

	owner := map[OutputPort]int{}
	ownerSlot := map[OutputPort]int{}
	unused := map[OutputPort]struct{}{}
	for i, cfg := range p.cfgs {
		for slot, out := range cfg.outputs {
			owner[out] = i
			ownerSlot[out] = slot
			unused[out] = struct{}{}
		}
	}

	pseudo := 0
	for i, cfg := range p.cfgs {
		for slot, in := range cfg.inputs {
			src := in.Source()
			if src == nil {
				fmt.Fprintf(&b, "\tnode [shape = point]; u%d;\n", pseudo)
				fmt.Fprintf(&b, "\tu%d->n%d:<i%d>\n", pseudo, i, slot)
				pseudo++
				continue
			}
			fmt.Fprintf(&b, "\tn%d:<o%d> -> n%d:<i%d>\n", owner[src], ownerSlot[src], i, slot)
			delete(unused, src)
		}
	}

	for i, cfg := range p.cfgs {
		for slot, out := range cfg.outputs {
			if _, ok := unused[out]; !ok {
				continue
			}
			fmt.Fprintf(&b, "\tnode [shape = point]; u%d;\n", pseudo)
			fmt.Fprintf(&b, "\tn%d:<o%d>->u%d\n", i, slot, pseudo)
			pseudo++
		}
	}

	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func inputsToString(inputs []InputPort) string {
	cells := make([]string, 0, len(inputs))
	for slot, in := range inputs {
		cells = append(cells, fmt.Sprintf("<i%d>%s", slot, in.Name()))
	}
	return strings.Join(cells, "|")
}

func outputsToString(outputs []OutputPort) string {
	cells := make([]string, 0, len(outputs))
	for slot, out := range outputs {
		cells = append(cells, fmt.Sprintf("<o%d>%s", slot, out.Name()))
	}
	return strings.Join(cells, "|")
}
