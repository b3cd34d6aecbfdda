// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package symbol

import (
	"slices"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/symgraph/pkg/core/shapes"
	"github.com/gomlx/symgraph/pkg/support/xslices"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// InferShape infers the shapes of all arguments and outputs of the symbol, given the shapes of some of
// its arguments (by name). Variables created with VariableWithShape contribute their declared shapes.
//
// It returns the shapes of the arguments, in the order of ListArguments, and of the outputs, in the order
// of ListOutputs.
//
// It panics if some shape cannot be inferred, if a known shape conflicts with an inferred one, or if
// known has names that are not arguments of the symbol.
func (s *Symbol) InferShape(known map[string]shapes.Shape) (args, outputs []shapes.Shape) {
	nodes := s.nodes()
	nodeShapes := make(map[*node]shapes.Shape, len(nodes))
	used := 0
	for _, n := range nodes {
		if !n.isVariable() {
			continue
		}
		shape := n.shape
		if knownShape, found := known[n.name]; found {
			used++
			if shape.Ok() {
				if err := knownShape.Check(shape.DType, shape.Dimensions...); err != nil {
					panic(errors.WithMessagef(err, "InferShape(): variable %q declared with shape %s", n.name, shape))
				}
			}
			shape = knownShape
		}
		nodeShapes[n] = shape
	}
	if used != len(known) {
		arguments := s.ListArguments()
		for _, name := range xslices.SortedKeys(known) {
			if !slices.Contains(arguments, name) {
				exceptions.Panicf("InferShape(): %q is not an argument of the symbol, arguments are %v", name, arguments)
			}
		}
	}

	for _, n := range nodes {
		if n.isVariable() {
			continue
		}
		if err := inferNode(n, nodeShapes); err != nil {
			panic(errors.WithMessagef(err, "InferShape() of %s %q", n.op.Type, n.name))
		}
	}

	for _, n := range nodes {
		if n.isVariable() {
			shape := nodeShapes[n]
			if !shape.Ok() {
				exceptions.Panicf("InferShape(): cannot infer the shape of argument %q", n.name)
			}
			args = append(args, shape)
		}
	}
	outputs = xslices.Map(s.heads, func(e entry) shapes.Shape { return nodeShapes[e.node] })
	return
}

// inferNode infers the output shape of the operator node n, and the shapes of those of its variable
// inputs that were still unknown. Results are written to nodeShapes.
func inferNode(n *node, nodeShapes map[*node]shapes.Shape) error {
	if n.op.InferShape == nil {
		return errors.Errorf("operator %s doesn't support shape inference", n.op.Type)
	}
	inputs := xslices.Map(n.inputs, func(e entry) shapes.Shape { return nodeShapes[e.node] })
	inferred, output, err := n.op.InferShape(n.attrs, inputs)
	if err != nil {
		return err
	}
	if len(inferred) != len(n.inputs) {
		return errors.Errorf("operator %s inferred %d input shapes, but it has %d inputs", n.op.Type, len(inferred), len(n.inputs))
	}
	args := n.op.activeArguments(n.attrs)
	for ii, in := range n.inputs {
		given := inputs[ii]
		if !given.Ok() {
			if in.node.isVariable() {
				nodeShapes[in.node] = inferred[ii]
				klog.V(2).Infof("InferShape(): %q inferred as %s by %q", in.node.name, inferred[ii], n.name)
			}
			continue
		}
		if !given.Equal(inferred[ii]) {
			return errors.Errorf("argument %q (%q) has shape %s, but the operator expects %s",
				args[ii], in.node.name, given, inferred[ii])
		}
	}
	nodeShapes[n] = output
	return nil
}
