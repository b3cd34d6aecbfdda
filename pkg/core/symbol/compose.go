// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package symbol

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/symgraph/pkg/support/sets"
	"github.com/gomlx/symgraph/pkg/support/xslices"
	"k8s.io/klog/v2"
)

// Compose returns a new symbol where every variable of s whose name is a key of inputs is replaced by the
// corresponding symbol. s itself is not modified, and the input symbols are shared (not copied).
//
// If name is not empty, the output node of the new symbol is renamed to name.
//
// Example: with fc3 created without data (so it has a "fc3_data" variable), and fc4 built on top of fc3:
//
//	composed := fc4.Compose("composed", map[string]*symbol.Symbol{"fc3_data": fc2})
//
// It panics if s outputs a variable, if a key of inputs doesn't match any argument of s, or if an input
// symbol is nil or has more than one output.
func (s *Symbol) Compose(name string, inputs map[string]*Symbol) *Symbol {
	for _, head := range s.heads {
		if head.node.isVariable() {
			exceptions.Panicf("Symbol.Compose(%q): cannot compose variable %q", name, head.node.name)
		}
	}
	if name != "" && len(s.heads) != 1 {
		exceptions.Panicf("Symbol.Compose(%q): cannot rename a symbol with %d outputs", name, len(s.heads))
	}
	for _, key := range xslices.SortedKeys(inputs) {
		input := inputs[key]
		if input == nil {
			exceptions.Panicf("Symbol.Compose(%q): input %q is nil", name, key)
		}
		if len(input.heads) != 1 {
			exceptions.Panicf("Symbol.Compose(%q): input %q must have a single output, got %d", name, key, len(input.heads))
		}
	}

	composed := s.Copy()
	// Collect the nodes before substitution: the nodes of the input symbols are shared and must not be changed.
	nodes := composed.nodes()
	matched := sets.Make[string]()
	for _, n := range nodes {
		for ii, in := range n.inputs {
			if !in.node.isVariable() {
				continue
			}
			if sub, found := inputs[in.node.name]; found {
				n.inputs[ii] = sub.heads[0]
				matched.Insert(in.node.name)
			}
		}
	}
	unmatched := sets.MakeWith(xslices.SortedKeys(inputs)...).Sub(matched)
	if len(unmatched) > 0 {
		missing := xslices.SortedKeys(unmatched)
		exceptions.Panicf("Symbol.Compose(%q): inputs %v don't match any argument, arguments are %v",
			name, missing, s.ListArguments())
	}
	if name != "" {
		composed.heads[0].node.name = name
	}
	if klog.V(1).Enabled() {
		klog.Infof("composed %s with inputs %v: %v", s, xslices.SortedKeys(inputs), composed)
	}
	return composed
}
