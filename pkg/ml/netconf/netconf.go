// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package netconf builds symbol graphs from network descriptions written in HCL.
//
// A description declares variables, operators and compositions, that refer to each other by name, in any order:
//
//	variable "data" {
//	  shape = [32, 100]     # Optional, used by shape inference.
//	  dtype = "float32"     # Optional, defaults to float32.
//	}
//
//	op "FullyConnected" "fc1" {
//	  inputs = { data = "data" }
//	  attrs  = { num_hidden = 128, no_bias = false }
//	}
//
//	op "FullyConnected" "fc3" {}   # Unbound "fc3_data", "fc3_weight" and "fc3_bias".
//
//	compose "composed" {
//	  symbol = "fc4"
//	  inputs = { fc3_data = "fc2" }
//	}
//
//	outputs = ["composed"]  # Optional.
//
// If outputs is not given, the declarations not referenced by any other declaration are the outputs.
package netconf

import (
	"os"
	"slices"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/symgraph/pkg/core/shapes"
	"github.com/gomlx/symgraph/pkg/core/symbol"
	"github.com/gomlx/symgraph/pkg/support/fsutil"
	"github.com/gomlx/symgraph/pkg/support/sets"
	"github.com/gomlx/symgraph/pkg/support/xslices"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/pkg/errors"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"k8s.io/klog/v2"
)

// hclNetworkFile is the top-level structure of a network file for decoding.
type hclNetworkFile struct {
	Variables []*hclVariable `hcl:"variable,block"`
	Ops       []*hclOp       `hcl:"op,block"`
	Composes  []*hclCompose  `hcl:"compose,block"`
	Outputs   []string       `hcl:"outputs,optional"`
}

type hclVariable struct {
	Name  string `hcl:"name,label"`
	Shape []int  `hcl:"shape,optional"`
	DType string `hcl:"dtype,optional"`
}

type hclOp struct {
	Type   string            `hcl:"type,label"`
	Name   string            `hcl:"name,label"`
	Inputs map[string]string `hcl:"inputs,optional"`
	Attrs  hcl.Expression    `hcl:"attrs,optional"`
}

type hclCompose struct {
	Name   string            `hcl:"name,label"`
	Symbol string            `hcl:"symbol"`
	Inputs map[string]string `hcl:"inputs"`
}

// declaration is any of the named blocks of a network file.
type declaration struct {
	kind     string
	name     string
	variable *hclVariable
	op       *hclOp
	compose  *hclCompose
}

// references returns the names of the declarations this one depends on, sorted.
func (d *declaration) references() []string {
	refs := sets.Make[string]()
	switch {
	case d.op != nil:
		for _, ref := range d.op.Inputs {
			refs.Insert(ref)
		}
	case d.compose != nil:
		refs.Insert(d.compose.Symbol)
		for _, ref := range d.compose.Inputs {
			refs.Insert(ref)
		}
	}
	return xslices.SortedKeys(refs)
}

// Network is a symbol graph built from a network description.
type Network struct {
	symbols map[string]*symbol.Symbol
	outputs []string
	output  *symbol.Symbol
}

// Symbol returns the symbol of the declaration with the given name, or nil if there is none.
func (n *Network) Symbol(name string) *symbol.Symbol {
	return n.symbols[name]
}

// Names returns the sorted names of all declarations.
func (n *Network) Names() []string {
	return xslices.SortedKeys(n.symbols)
}

// OutputNames returns the names of the declarations that are the outputs of the network.
func (n *Network) OutputNames() []string {
	return slices.Clone(n.outputs)
}

// Output returns the output symbol of the network: a Group if there is more than one output.
func (n *Network) Output() *symbol.Symbol {
	return n.output
}

// Load reads and builds the network described in the HCL file at filePath.
// A leading "~" in filePath is replaced by the user's home directory.
func Load(filePath string) (*Network, error) {
	filePath, err := fsutil.ReplaceTildeInPath(filePath)
	if err != nil {
		return nil, err
	}
	src, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read network file %q", filePath)
	}
	return Parse(src, filePath)
}

// Parse builds the network described by the HCL source src. filename is used for error messages.
func Parse(src []byte, filename string) (*Network, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, errors.Wrapf(diags, "failed to parse network file %s", filename)
	}
	var parsed hclNetworkFile
	diags = gohcl.DecodeBody(hclFile.Body, nil, &parsed)
	if diags.HasErrors() {
		return nil, errors.Wrapf(diags, "failed to decode network file %s", filename)
	}

	b := &builder{
		declarations: make(map[string]*declaration),
		state:        make(map[string]int),
		symbols:      make(map[string]*symbol.Symbol),
	}
	if err := b.declareAll(&parsed); err != nil {
		return nil, errors.WithMessagef(err, "network file %s", filename)
	}
	for _, name := range xslices.SortedKeys(b.declarations) {
		if _, err := b.resolve(name, nil); err != nil {
			return nil, errors.WithMessagef(err, "network file %s", filename)
		}
	}

	net := &Network{symbols: b.symbols, outputs: parsed.Outputs}
	if len(net.outputs) == 0 {
		net.outputs = b.sinks()
	}
	outputSymbols := make([]*symbol.Symbol, 0, len(net.outputs))
	for _, name := range net.outputs {
		s, found := net.symbols[name]
		if !found {
			return nil, errors.Errorf("network file %s: output %q is not declared", filename, name)
		}
		outputSymbols = append(outputSymbols, s)
	}
	switch len(outputSymbols) {
	case 0:
		return nil, errors.Errorf("network file %s: no declarations", filename)
	case 1:
		net.output = outputSymbols[0]
	default:
		net.output = symbol.Group(outputSymbols...)
	}
	klog.V(1).Infof("loaded network %s: %d declarations, outputs %v", filename, len(net.symbols), net.outputs)
	return net, nil
}

// builder resolves declarations into symbols, depth-first.
type builder struct {
	declarations map[string]*declaration

	// state of each declaration during resolution: 0 not visited, 1 in progress, 2 done.
	state   map[string]int
	symbols map[string]*symbol.Symbol
}

func (b *builder) declare(d *declaration) error {
	if d.name == "" {
		return errors.Errorf("%s block with an empty name", d.kind)
	}
	if prev, found := b.declarations[d.name]; found {
		return errors.Errorf("%s %q is already declared as a %s", d.kind, d.name, prev.kind)
	}
	b.declarations[d.name] = d
	return nil
}

func (b *builder) declareAll(parsed *hclNetworkFile) error {
	for _, v := range parsed.Variables {
		if err := b.declare(&declaration{kind: "variable", name: v.Name, variable: v}); err != nil {
			return err
		}
	}
	for _, op := range parsed.Ops {
		if err := b.declare(&declaration{kind: "op", name: op.Name, op: op}); err != nil {
			return err
		}
	}
	for _, c := range parsed.Composes {
		if err := b.declare(&declaration{kind: "compose", name: c.Name, compose: c}); err != nil {
			return err
		}
	}
	return nil
}

// sinks returns the sorted names of the declarations not referenced by any other.
func (b *builder) sinks() []string {
	referenced := sets.Make[string]()
	for _, d := range b.declarations {
		referenced.Insert(d.references()...)
	}
	return xslices.SortedKeys(sets.MakeWith(xslices.SortedKeys(b.declarations)...).Sub(referenced))
}

// resolve returns the symbol for the declaration name, building its dependencies first.
// path is the chain of declarations being resolved, used to report cycles.
func (b *builder) resolve(name string, path []string) (*symbol.Symbol, error) {
	d, found := b.declarations[name]
	if !found {
		return nil, errors.Errorf("%q is not declared (referenced by %q)", name, xslices.Last(path))
	}
	path = append(path, name)
	switch b.state[name] {
	case 2:
		return b.symbols[name], nil
	case 1:
		return nil, errors.Errorf("cycle in network: %s", strings.Join(path, " -> "))
	}
	b.state[name] = 1

	refs := make(map[string]*symbol.Symbol)
	for _, ref := range d.references() {
		s, err := b.resolve(ref, path)
		if err != nil {
			return nil, err
		}
		refs[ref] = s
	}

	var s *symbol.Symbol
	err := exceptions.TryCatch[error](func() {
		var buildErr error
		s, buildErr = b.build(d, refs)
		if buildErr != nil {
			panic(buildErr)
		}
	})
	if err != nil {
		return nil, errors.WithMessagef(err, "building %s %q", d.kind, name)
	}
	b.symbols[name] = s
	b.state[name] = 2
	klog.V(2).Infof("netconf: built %s %q", d.kind, name)
	return s, nil
}

// build creates the symbol of a declaration whose references are already resolved. It may panic.
func (b *builder) build(d *declaration, refs map[string]*symbol.Symbol) (*symbol.Symbol, error) {
	switch {
	case d.variable != nil:
		return buildVariable(d.variable)
	case d.op != nil:
		attrs, err := attrsToStrings(d.op.Attrs)
		if err != nil {
			return nil, err
		}
		inputs := make(map[string]*symbol.Symbol, len(d.op.Inputs))
		for arg, ref := range d.op.Inputs {
			inputs[arg] = refs[ref]
		}
		return symbol.CreateOp(d.op.Type, d.op.Name, inputs, attrs), nil
	default:
		inputs := make(map[string]*symbol.Symbol, len(d.compose.Inputs))
		for arg, ref := range d.compose.Inputs {
			inputs[arg] = refs[ref]
		}
		return refs[d.compose.Symbol].Compose(d.compose.Name, inputs), nil
	}
}

func buildVariable(v *hclVariable) (*symbol.Symbol, error) {
	if len(v.Shape) == 0 {
		if v.DType != "" {
			return nil, errors.Errorf("variable %q has a dtype but no shape", v.Name)
		}
		return symbol.Variable(v.Name), nil
	}
	dtype := dtypes.Float32
	if v.DType != "" {
		var err error
		dtype, err = shapes.ParseDType(v.DType)
		if err != nil {
			return nil, err
		}
	}
	return symbol.VariableWithShape(v.Name, shapes.Make(dtype, v.Shape...)), nil
}

// attrsToStrings converts the attrs object expression to strings, as accepted by symbol.CreateOp.
func attrsToStrings(expr hcl.Expression) (map[string]string, error) {
	attrs := make(map[string]string)
	if expr == nil {
		return attrs, nil
	}
	value, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, errors.Wrap(diags, "failed to evaluate attrs")
	}
	if value.IsNull() {
		return attrs, nil
	}
	valueType := value.Type()
	if !valueType.IsObjectType() && !valueType.IsMapType() {
		return nil, errors.Errorf("attrs must be an object, got %s", valueType.FriendlyName())
	}
	for it := value.ElementIterator(); it.Next(); {
		key, element := it.Element()
		if element.IsNull() || !element.IsKnown() {
			return nil, errors.Errorf("attribute %q has no value", key.AsString())
		}
		converted, err := convert.Convert(element, cty.String)
		if err != nil {
			return nil, errors.Wrapf(err, "attribute %q of type %s can't be converted to a string",
				key.AsString(), element.Type().FriendlyName())
		}
		attrs[key.AsString()] = converted.AsString()
	}
	return attrs, nil
}
