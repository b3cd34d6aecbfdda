// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package symbol

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/symgraph/pkg/core/shapes"
	"github.com/gomlx/symgraph/pkg/support/sets"
	"github.com/gomlx/symgraph/pkg/support/xslices"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// OpDef defines an operator that can be used to create symbols.
type OpDef struct {
	// Type of the operator, e.g. "FullyConnected". It must be unique among registered operators.
	Type string

	// Description is a one-line documentation of the operator.
	Description string

	// Arguments are the names of the inputs of the operator, in order.
	Arguments []string

	// Params are the attributes accepted by the operator.
	Params []ParamDef

	// ActiveArguments returns which of Arguments are used for the given (already normalized and
	// completed with defaults) attributes. E.g.: "bias" is not used if "no_bias" is set.
	// If nil, all arguments are always used.
	ActiveArguments func(attrs map[string]string) []string

	// InferShape is given the normalized attributes and the shapes of the active arguments, where
	// unknown shapes are invalid (shapes.Shape.Ok() == false). It returns the shapes of all the arguments
	// (filling in the ones it could infer) and the shape of the output.
	InferShape func(attrs map[string]string, inputs []shapes.Shape) (inferred []shapes.Shape, output shapes.Shape, err error)
}

// ParamDef defines one attribute of an operator.
type ParamDef struct {
	Name string

	// Default value, used when the attribute is not given. Ignored if Required.
	Default string

	Required bool

	// Normalize validates and converts the value given by the user to its canonical form.
	// If nil, values are used as given.
	Normalize func(value string) (string, error)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]*OpDef)
)

// RegisterOp registers the operator definition, so it can be used by CreateOp.
// It panics if an operator with the same type is already registered, or if the definition is malformed.
func RegisterOp(def *OpDef) {
	if def == nil || def.Type == "" {
		exceptions.Panicf("symbol.RegisterOp(): operator definition must have a Type")
	}
	seen := sets.Make[string]()
	for _, arg := range def.Arguments {
		if arg == "" || seen.Has(arg) {
			exceptions.Panicf("symbol.RegisterOp(%q): empty or duplicate argument name %q", def.Type, arg)
		}
		seen.Insert(arg)
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, found := registry[def.Type]; found {
		exceptions.Panicf("symbol.RegisterOp(%q): operator already registered", def.Type)
	}
	registry[def.Type] = def
	klog.V(2).Infof("registered operator %q with arguments %v", def.Type, def.Arguments)
}

// LookupOp returns the registered operator definition for the given type.
func LookupOp(opType string) (def *OpDef, found bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	def, found = registry[opType]
	return
}

// ListOps returns the sorted types of all registered operators.
func ListOps() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return xslices.SortedKeys(registry)
}

// String returns the operator type, its arguments and its description.
func (def *OpDef) String() string {
	if def.Description == "" {
		return fmt.Sprintf("%s(%s)", def.Type, strings.Join(def.Arguments, ", "))
	}
	return fmt.Sprintf("%s(%s): %s", def.Type, strings.Join(def.Arguments, ", "), def.Description)
}

// activeArguments returns the arguments used by the operator for the given attributes.
func (def *OpDef) activeArguments(attrs map[string]string) []string {
	if def.ActiveArguments == nil {
		return def.Arguments
	}
	return def.ActiveArguments(attrs)
}

// normalizeAttrs validates the user given attributes and completes them with default values.
func (def *OpDef) normalizeAttrs(attrs map[string]string) (map[string]string, error) {
	normalized := make(map[string]string, len(def.Params))
	known := sets.Make[string](len(def.Params))
	for _, param := range def.Params {
		known.Insert(param.Name)
		value, found := attrs[param.Name]
		if !found {
			if param.Required {
				return nil, errors.Errorf("operator %s: missing required attribute %q", def.Type, param.Name)
			}
			value = param.Default
		}
		if param.Normalize != nil {
			var err error
			value, err = param.Normalize(value)
			if err != nil {
				return nil, errors.WithMessagef(err, "operator %s: invalid value for attribute %q", def.Type, param.Name)
			}
		}
		normalized[param.Name] = value
	}
	for key := range attrs {
		if !known.Has(key) {
			return nil, errors.Errorf("operator %s: unknown attribute %q (accepted attributes: %v)",
				def.Type, key, xslices.Map(def.Params, func(p ParamDef) string { return p.Name }))
		}
	}
	return normalized, nil
}

// CreateOp creates a symbol applying the registered operator opType to the given inputs.
//
// The inputs are given by argument name. Active arguments not given are created as variables named
// "<name>_<argument>". If name is empty, one is generated by the DefaultNameManager.
//
// It panics if the operator is not registered, if an input is not an active argument of the operator,
// or if the attributes are invalid.
func CreateOp(opType, name string, inputs map[string]*Symbol, attrs map[string]string) *Symbol {
	return createOp(DefaultNameManager(), opType, name, inputs, attrs)
}

func createOp(nameManager *NameManager, opType, name string, inputs map[string]*Symbol, attrs map[string]string) *Symbol {
	def, found := LookupOp(opType)
	if !found {
		exceptions.Panicf("symbol.CreateOp(): unknown operator %q, registered operators are %v", opType, ListOps())
	}
	normalized, err := def.normalizeAttrs(attrs)
	if err != nil {
		panic(err)
	}
	active := def.activeArguments(normalized)
	for _, argName := range xslices.SortedKeys(inputs) {
		input := inputs[argName]
		if !slices.Contains(active, argName) {
			exceptions.Panicf("symbol.CreateOp(%s, %q): %q is not an argument of the operator %s (active arguments: %v)",
				def.Type, name, argName, def, active)
		}
		if input == nil {
			exceptions.Panicf("symbol.CreateOp(%s, %q): input %q is nil", def.Type, name, argName)
		}
		if len(input.heads) != 1 {
			exceptions.Panicf("symbol.CreateOp(%s, %q): input %q must have a single output, got %d",
				def.Type, name, argName, len(input.heads))
		}
	}
	name = nameManager.Get(name, def.Type)

	n := &node{op: def, name: name, attrs: normalized, inputs: make([]entry, 0, len(active))}
	var created []string
	for _, argName := range active {
		if input, found := inputs[argName]; found {
			n.inputs = append(n.inputs, input.heads[0])
			continue
		}
		varName := name + "_" + argName
		created = append(created, varName)
		n.inputs = append(n.inputs, Variable(varName).heads[0])
	}
	if klog.V(2).Enabled() {
		klog.Infof("created %s %q, new variables: [%s]", def.Type, name, strings.Join(created, ", "))
	}
	return &Symbol{heads: []entry{{node: n}}}
}

// BoolParam returns a ParamDef for a boolean attribute. Values are normalized to "True" or "False",
// and accepted as "1"/"0", "true"/"false" (any case).
func BoolParam(name string, defaultValue bool) ParamDef {
	return ParamDef{
		Name:      name,
		Default:   formatBool(defaultValue),
		Normalize: normalizeBool,
	}
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func normalizeBool(value string) (string, error) {
	b, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(value)))
	if err != nil {
		return "", errors.Errorf("%q is not a boolean", value)
	}
	return formatBool(b), nil
}

// ParseBoolAttr parses an attribute normalized by BoolParam.
func ParseBoolAttr(value string) bool {
	return value == "True"
}

// IntParam returns a ParamDef for an integer attribute, with a minimum value.
func IntParam(name string, defaultValue, minValue int) ParamDef {
	return ParamDef{
		Name:    name,
		Default: strconv.Itoa(defaultValue),
		Normalize: func(value string) (string, error) {
			v, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return "", errors.Errorf("%q is not an integer", value)
			}
			if v < minValue {
				return "", errors.Errorf("%d is smaller than the minimum %d", v, minValue)
			}
			return strconv.Itoa(v), nil
		},
	}
}

// EnumParam returns a ParamDef for an attribute that takes one of the given values (case-insensitive,
// normalized to the given case).
func EnumParam(name, defaultValue string, values ...string) ParamDef {
	return ParamDef{
		Name:    name,
		Default: defaultValue,
		Normalize: func(value string) (string, error) {
			for _, v := range values {
				if strings.EqualFold(v, strings.TrimSpace(value)) {
					return v, nil
				}
			}
			return "", errors.Errorf("%q is not one of %v", value, values)
		},
	}
}
