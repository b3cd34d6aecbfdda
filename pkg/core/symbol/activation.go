// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package symbol

import (
	"github.com/gomlx/symgraph/pkg/core/shapes"
	"github.com/pkg/errors"
)

// ActivationType is the operator type of Activation symbols.
const ActivationType = "Activation"

// ParamActType is the attribute of Activation selecting the function.
const ParamActType = "act_type"

// ActType enumerates the functions supported by Activation.
type ActType string

const (
	ActReLU     ActType = "relu"
	ActSigmoid  ActType = "sigmoid"
	ActTanh     ActType = "tanh"
	ActSoftReLU ActType = "softrelu"
)

func init() {
	param := EnumParam(ParamActType, "", string(ActReLU), string(ActSigmoid), string(ActTanh), string(ActSoftReLU))
	param.Required = true
	RegisterOp(&OpDef{
		Type:        ActivationType,
		Description: "Element-wise activation function.",
		Arguments:   []string{"data"},
		Params:      []ParamDef{param},
		InferShape: func(_ map[string]string, inputs []shapes.Shape) ([]shapes.Shape, shapes.Shape, error) {
			if !inputs[0].Ok() {
				return nil, shapes.Invalid(), errors.New("shape of \"data\" is unknown")
			}
			return inputs, inputs[0].Clone(), nil
		},
	})
}

// ActivationConfig is created with Activation, configured with its methods, and the symbol is
// created with Done.
type ActivationConfig struct {
	name        string
	nameManager *NameManager
	inputs      map[string]*Symbol
	attrs       map[string]string
}

// Activation starts the configuration of an element-wise activation symbol. The activation
// function must be set with ActType.
func Activation(name string) *ActivationConfig {
	return &ActivationConfig{
		name:        name,
		nameManager: DefaultNameManager(),
		inputs:      make(map[string]*Symbol),
		attrs:       make(map[string]string),
	}
}

// Data sets the input of the activation.
func (c *ActivationConfig) Data(data *Symbol) *ActivationConfig {
	c.inputs["data"] = data
	return c
}

// ActType sets the activation function.
func (c *ActivationConfig) ActType(actType ActType) *ActivationConfig {
	c.attrs[ParamActType] = string(actType)
	return c
}

// WithNameManager sets the NameManager used if the activation has no name.
func (c *ActivationConfig) WithNameManager(m *NameManager) *ActivationConfig {
	c.nameManager = m
	return c
}

// Done creates the Activation symbol.
func (c *ActivationConfig) Done() *Symbol {
	return createOp(c.nameManager, ActivationType, c.name, c.inputs, c.attrs)
}
