// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package symbol implements declarative symbolic graphs: named placeholders (variables) and operator
// applications (like FullyConnected) that can be composed and introspected, but not executed.
//
// The main elements in the package are:
//
//   - Symbol: a handle on one or more outputs ("heads") of a graph of nodes. Symbols are immutable
//     once returned to the caller and can be freely shared, also across goroutines.
//
//   - Variable: a placeholder node, identified by its name, to be bound later -- either with a value
//     or, through Compose, with another Symbol.
//
//   - Operators: registered with an OpDef (see RegisterOp), they list their named arguments and
//     parameters. When an operator is created without some of its arguments, variables named
//     "<operator name>_<argument>" are created for them: e.g. "fc1_weight" and "fc1_bias".
//
//   - Compose: substitutes variables of a graph by other symbols, by name, returning a new Symbol.
//
// ## Error Handling
//
// Like graph building in GoMLX, errors while constructing symbols are not returned: they panic with an
// error that includes a stack trace. Use exceptions.TryCatch[error] to convert them back to errors where
// needed.
//
// Example:
//
//	data := symbol.Variable("data")
//	fc1 := symbol.FullyConnected("fc1").Data(data).NumHidden(128).Done()
//	fc2 := symbol.FullyConnected("fc2").Data(fc1).NumHidden(10).Done()
//	fmt.Println(fc2.ListArguments())  // [data fc1_weight fc1_bias fc2_weight fc2_bias]
package symbol

import (
	"fmt"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/symgraph/pkg/core/shapes"
	"github.com/gomlx/symgraph/pkg/support/xslices"
)

// node is either a variable (op == nil) or the application of an operator to its inputs.
type node struct {
	op     *OpDef
	name   string
	attrs  map[string]string
	inputs []entry

	// shape is only used by variables, and may be invalid if not declared.
	shape shapes.Shape
}

// entry refers to one output of a node.
type entry struct {
	node  *node
	index int
}

func (n *node) isVariable() bool { return n.op == nil }

// Symbol is a handle on the outputs ("heads") of a symbolic graph.
//
// Create them with Variable, with operator builders like FullyConnected or with CreateOp.
type Symbol struct {
	heads []entry
}

// Variable creates a placeholder symbol with the given name.
//
// It panics if name is empty.
func Variable(name string) *Symbol {
	if name == "" {
		exceptions.Panicf("symbol.Variable() requires a non-empty name")
	}
	return &Symbol{heads: []entry{{node: &node{name: name, shape: shapes.Invalid()}}}}
}

// VariableWithShape creates a placeholder symbol with the given name, and a declared shape
// that is used by InferShape.
func VariableWithShape(name string, shape shapes.Shape) *Symbol {
	if !shape.Ok() {
		exceptions.Panicf("symbol.VariableWithShape(%q): invalid shape %s", name, shape)
	}
	s := Variable(name)
	s.heads[0].node.shape = shape.Clone()
	return s
}

// Group returns a Symbol with the outputs of all the given symbols, in order.
func Group(symbols ...*Symbol) *Symbol {
	if len(symbols) == 0 {
		exceptions.Panicf("symbol.Group() requires at least one symbol")
	}
	g := &Symbol{}
	for ii, s := range symbols {
		if s == nil {
			exceptions.Panicf("symbol.Group(): symbol #%d is nil", ii)
		}
		g.heads = append(g.heads, s.heads...)
	}
	return g
}

// NumOutputs returns the number of outputs (heads) of the symbol.
func (s *Symbol) NumOutputs() int { return len(s.heads) }

// IsVariable returns whether the symbol is a single variable.
func (s *Symbol) IsVariable() bool {
	return len(s.heads) == 1 && s.heads[0].node.isVariable()
}

// single returns the only head of the symbol, or panics if it has more than one output.
func (s *Symbol) single(method string) *node {
	if s == nil {
		exceptions.Panicf("Symbol.%s() called on a nil Symbol", method)
	}
	if len(s.heads) != 1 {
		exceptions.Panicf("Symbol.%s() requires a single output symbol, got %d outputs %v",
			method, len(s.heads), s.ListOutputs())
	}
	return s.heads[0].node
}

// Name of the symbol: the name of the variable or operator it outputs.
// It panics for grouped symbols, with more than one output.
func (s *Symbol) Name() string {
	return s.single("Name").name
}

// OpType returns the operator type of the symbol (e.g. "FullyConnected"), or "" if it is a variable.
// It panics for grouped symbols.
func (s *Symbol) OpType() string {
	n := s.single("OpType")
	if n.isVariable() {
		return ""
	}
	return n.op.Type
}

// Attr returns the value of the attribute of the symbol's operator, and whether it is set.
// It panics for grouped symbols.
func (s *Symbol) Attr(key string) (value string, found bool) {
	n := s.single("Attr")
	value, found = n.attrs[key]
	return
}

// String implements fmt.Stringer.
func (s *Symbol) String() string {
	if s == nil {
		return "Symbol(nil)"
	}
	parts := xslices.Map(s.heads, func(e entry) string {
		if e.node.isVariable() {
			return fmt.Sprintf("Variable(%s)", e.node.name)
		}
		return fmt.Sprintf("%s(%s)", e.node.op.Type, e.node.name)
	})
	return fmt.Sprintf("Symbol[%s]", strings.Join(parts, ", "))
}

// Copy returns a deep copy of the symbol's graph: no node is shared with the original.
func (s *Symbol) Copy() *Symbol {
	copies := make(map[*node]*node)
	var copyNode func(n *node) *node
	copyNode = func(n *node) *node {
		if c, found := copies[n]; found {
			return c
		}
		c := &node{op: n.op, name: n.name, shape: n.shape.Clone()}
		if n.attrs != nil {
			c.attrs = make(map[string]string, len(n.attrs))
			for k, v := range n.attrs {
				c.attrs[k] = v
			}
		}
		copies[n] = c
		c.inputs = make([]entry, len(n.inputs))
		for ii, in := range n.inputs {
			c.inputs[ii] = entry{node: copyNode(in.node), index: in.index}
		}
		return c
	}
	c := &Symbol{heads: make([]entry, len(s.heads))}
	for ii, head := range s.heads {
		c.heads[ii] = entry{node: copyNode(head.node), index: head.index}
	}
	return c
}
