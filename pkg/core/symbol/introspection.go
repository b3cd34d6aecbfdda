// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package symbol

import (
	"fmt"
	"strings"

	"github.com/gomlx/symgraph/pkg/support/sets"
	"github.com/gomlx/symgraph/pkg/support/xslices"
)

// This file defines methods that allow for introspection of the symbol's graph.

// dfsVisit calls fn for every node reachable from the heads, in depth-first post-order: inputs are
// visited in argument order before the node itself, and each node is visited only once.
func (s *Symbol) dfsVisit(fn func(n *node)) {
	visited := sets.Make[*node]()
	var visit func(n *node)
	visit = func(n *node) {
		if visited.Has(n) {
			return
		}
		visited.Insert(n)
		for _, in := range n.inputs {
			visit(in.node)
		}
		fn(n)
	}
	for _, head := range s.heads {
		visit(head.node)
	}
}

// nodes returns all nodes reachable from the heads, in the order of dfsVisit.
func (s *Symbol) nodes() (nodes []*node) {
	s.dfsVisit(func(n *node) { nodes = append(nodes, n) })
	return
}

// ListArguments returns the names of the variables the symbol depends on, in a deterministic order:
// depth-first, with the inputs of each operator listed in argument order.
//
// E.g., for fc2 := FullyConnected("fc2").Data(fc1), with fc1 := FullyConnected("fc1").Data(Variable("data")):
// [data fc1_weight fc1_bias fc2_weight fc2_bias].
func (s *Symbol) ListArguments() []string {
	var args []string
	s.dfsVisit(func(n *node) {
		if n.isVariable() {
			args = append(args, n.name)
		}
	})
	return args
}

// ListOutputs returns the names of the outputs of the symbol: "<name>_output" for operators, and the
// variable name for variables.
func (s *Symbol) ListOutputs() []string {
	return xslices.Map(s.heads, func(e entry) string {
		if e.node.isVariable() {
			return e.node.name
		}
		return e.node.name + "_output"
	})
}

// DebugStr returns a multi-line description of the symbol's graph: its outputs and every node in the
// order of ListArguments, with operators' inputs and attributes.
func (s *Symbol) DebugStr() string {
	var sb strings.Builder
	sb.WriteString("Symbol Outputs:\n")
	for ii, head := range s.heads {
		_, _ = fmt.Fprintf(&sb, "\toutput[%d]=%s(%d)\n", ii, head.node.name, head.index)
	}
	s.dfsVisit(func(n *node) {
		if n.isVariable() {
			_, _ = fmt.Fprintf(&sb, "Variable:%s\n", n.name)
			return
		}
		sb.WriteString(strings.Repeat("-", 20) + "\n")
		_, _ = fmt.Fprintf(&sb, "Op:%s, Name=%s\n", n.op.Type, n.name)
		sb.WriteString("Inputs:\n")
		for ii, in := range n.inputs {
			_, _ = fmt.Fprintf(&sb, "\targ[%d]=%s(%d)\n", ii, in.node.name, in.index)
		}
		if len(n.attrs) > 0 {
			sb.WriteString("Attrs:\n")
			for _, key := range xslices.SortedKeys(n.attrs) {
				_, _ = fmt.Fprintf(&sb, "\t%s=%s\n", key, n.attrs[key])
			}
		}
	})
	return sb.String()
}
