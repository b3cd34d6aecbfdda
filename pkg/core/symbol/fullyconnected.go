// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package symbol

import (
	"strconv"

	"github.com/gomlx/symgraph/pkg/core/shapes"
	"github.com/gomlx/symgraph/pkg/support/xslices"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// FullyConnectedType is the operator type of FullyConnected symbols.
const FullyConnectedType = "FullyConnected"

// Attributes of FullyConnected.
const (
	ParamNumHidden = "num_hidden"
	ParamNoBias    = "no_bias"
)

func init() {
	RegisterOp(&OpDef{
		Type:        FullyConnectedType,
		Description: "Dense linear transformation: output = data @ weight^T + bias.",
		Arguments:   []string{"data", "weight", "bias"},
		Params: []ParamDef{
			IntParam(ParamNumHidden, 0, 0),
			BoolParam(ParamNoBias, false),
		},
		ActiveArguments: func(attrs map[string]string) []string {
			if ParseBoolAttr(attrs[ParamNoBias]) {
				return []string{"data", "weight"}
			}
			return []string{"data", "weight", "bias"}
		},
		InferShape: inferFullyConnected,
	})
}

// inferFullyConnected takes data shaped [batch, features...], which is flattened to [batch, inFeatures].
// weight is shaped [num_hidden, inFeatures] and bias [num_hidden]. The output is [batch, num_hidden].
func inferFullyConnected(attrs map[string]string, inputs []shapes.Shape) ([]shapes.Shape, shapes.Shape, error) {
	numHidden, _ := strconv.Atoi(attrs[ParamNumHidden])
	if numHidden <= 0 {
		klog.Warningf("FullyConnected shape inference with %s=%d: set it to a positive value", ParamNumHidden, numHidden)
		return nil, shapes.Invalid(), errors.Errorf("%s must be > 0 for shape inference, got %d", ParamNumHidden, numHidden)
	}
	data := inputs[0]
	if !data.Ok() {
		return nil, shapes.Invalid(), errors.New("shape of \"data\" is unknown")
	}
	if data.Rank() < 2 {
		return nil, shapes.Invalid(), errors.Errorf("\"data\" must have rank >= 2 ([batch, features...]), got %s", data)
	}
	batchSize := data.Dim(0)
	inFeatures := xslices.Product(data.Dimensions[1:])

	inferred := make([]shapes.Shape, len(inputs))
	inferred[0] = data
	inferred[1] = shapes.Make(data.DType, numHidden, inFeatures)
	if weight := inputs[1]; weight.Ok() {
		if err := weight.Check(data.DType, numHidden, inFeatures); err != nil {
			return nil, shapes.Invalid(), errors.WithMessagef(err, "invalid \"weight\" for data shaped %s", data)
		}
	}
	if len(inputs) > 2 {
		inferred[2] = shapes.Make(data.DType, numHidden)
		if bias := inputs[2]; bias.Ok() {
			if err := bias.Check(data.DType, numHidden); err != nil {
				return nil, shapes.Invalid(), errors.WithMessage(err, "invalid \"bias\"")
			}
		}
	}
	return inferred, shapes.Make(data.DType, batchSize, numHidden), nil
}

// FullyConnectedConfig is created with FullyConnected, configured with its methods, and the symbol is
// created with Done.
type FullyConnectedConfig struct {
	name        string
	nameManager *NameManager
	inputs      map[string]*Symbol
	attrs       map[string]string
}

// FullyConnected starts the configuration of a fully-connected (dense) layer symbol with the given name.
// If name is empty, one is generated.
//
// Inputs not given (data, weight, bias) are created as variables named "<name>_data", "<name>_weight" and
// "<name>_bias", to be bound later -- see Symbol.Compose.
//
// Example:
//
//	fc1 := symbol.FullyConnected("fc1").Data(data).NumHidden(128).Done()
func FullyConnected(name string) *FullyConnectedConfig {
	return &FullyConnectedConfig{
		name:        name,
		nameManager: DefaultNameManager(),
		inputs:      make(map[string]*Symbol),
		attrs:       make(map[string]string),
	}
}

// Data sets the input of the layer.
func (c *FullyConnectedConfig) Data(data *Symbol) *FullyConnectedConfig {
	c.inputs["data"] = data
	return c
}

// Weight sets the weight of the layer, instead of creating a "<name>_weight" variable.
func (c *FullyConnectedConfig) Weight(weight *Symbol) *FullyConnectedConfig {
	c.inputs["weight"] = weight
	return c
}

// Bias sets the bias of the layer, instead of creating a "<name>_bias" variable.
func (c *FullyConnectedConfig) Bias(bias *Symbol) *FullyConnectedConfig {
	c.inputs["bias"] = bias
	return c
}

// NumHidden sets the output dimension of the layer. It is only required for shape inference.
func (c *FullyConnectedConfig) NumHidden(numHidden int) *FullyConnectedConfig {
	c.attrs[ParamNumHidden] = strconv.Itoa(numHidden)
	return c
}

// NoBias configures whether the layer has no bias. Default is false, so a bias is used.
func (c *FullyConnectedConfig) NoBias(noBias bool) *FullyConnectedConfig {
	c.attrs[ParamNoBias] = formatBool(noBias)
	return c
}

// WithNameManager sets the NameManager used if the layer has no name.
func (c *FullyConnectedConfig) WithNameManager(m *NameManager) *FullyConnectedConfig {
	c.nameManager = m
	return c
}

// Done creates the FullyConnected symbol.
func (c *FullyConnectedConfig) Done() *Symbol {
	return createOp(c.nameManager, FullyConnectedType, c.name, c.inputs, c.attrs)
}
