// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package symbol

import (
	"testing"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/symgraph/pkg/core/shapes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferShape(t *testing.T) {
	data := Variable("data")
	fc1 := FullyConnected("fc1").Data(data).NumHidden(64).Done()
	act := Activation("relu1").Data(fc1).ActType(ActReLU).Done()
	fc2 := FullyConnected("fc2").Data(act).NumHidden(10).Done()

	args, outputs := fc2.InferShape(map[string]shapes.Shape{"data": shapes.Make(dtypes.Float32, 32, 100)})
	require.Len(t, args, 5)
	want := []shapes.Shape{
		shapes.Make(dtypes.Float32, 32, 100),
		shapes.Make(dtypes.Float32, 64, 100),
		shapes.Make(dtypes.Float32, 64),
		shapes.Make(dtypes.Float32, 10, 64),
		shapes.Make(dtypes.Float32, 10),
	}
	for ii, shape := range want {
		assert.Truef(t, shape.Equal(args[ii]), "argument %q: wanted %s, got %s", fc2.ListArguments()[ii], shape, args[ii])
	}
	require.Len(t, outputs, 1)
	assert.True(t, outputs[0].Equal(shapes.Make(dtypes.Float32, 32, 10)), "got output %s", outputs[0])
}

func TestInferShapeFlattens(t *testing.T) {
	data := VariableWithShape("images", shapes.Make(dtypes.Float64, 8, 3, 4, 5))
	fc := FullyConnected("fc").Data(data).NumHidden(7).NoBias(true).Done()
	args, outputs := fc.InferShape(nil)
	require.Len(t, args, 2)
	assert.True(t, args[1].Equal(shapes.Make(dtypes.Float64, 7, 60)), "got weight %s", args[1])
	assert.True(t, outputs[0].Equal(shapes.Make(dtypes.Float64, 8, 7)), "got output %s", outputs[0])
}

func TestInferShapeGroup(t *testing.T) {
	data := Variable("data")
	fc1 := FullyConnected("fc1").Data(data).NumHidden(4).Done()
	fc2 := FullyConnected("fc2").Data(fc1).NumHidden(2).Done()
	_, outputs := Group(fc1, fc2).InferShape(map[string]shapes.Shape{"data": shapes.Make(dtypes.Float32, 3, 5)})
	require.Len(t, outputs, 2)
	assert.True(t, outputs[0].Equal(shapes.Make(dtypes.Float32, 3, 4)))
	assert.True(t, outputs[1].Equal(shapes.Make(dtypes.Float32, 3, 2)))
}

func TestInferShapeErrors(t *testing.T) {
	data := Variable("data")
	dataShape := shapes.Make(dtypes.Float32, 32, 100)
	fc := FullyConnected("fc").Data(data).NumHidden(64).Done()

	testCases := []struct {
		name        string
		symbol      *Symbol
		known       map[string]shapes.Shape
		errContains string
	}{
		{"missing data", fc, nil, "unknown"},
		{"num_hidden unset", FullyConnected("fc").Data(data).Done(),
			map[string]shapes.Shape{"data": dataShape}, "num_hidden"},
		{"rank 1", fc, map[string]shapes.Shape{"data": shapes.Make(dtypes.Float32, 100)}, "rank"},
		{"conflict", fc, map[string]shapes.Shape{
			"data": dataShape, "fc_weight": shapes.Make(dtypes.Float32, 64, 99)}, "axis 1 has dimension 99"},
		{"bias dtype", fc, map[string]shapes.Shape{
			"data": dataShape, "fc_bias": shapes.Make(dtypes.Float64, 64)}, "invalid \"bias\""},
		{"not an argument", fc, map[string]shapes.Shape{"data": dataShape, "label": dataShape}, "not an argument"},
		{"declared conflict", FullyConnected("fc").Data(VariableWithShape("data", dataShape)).NumHidden(3).Done(),
			map[string]shapes.Shape{"data": shapes.Make(dtypes.Float32, 1, 2)}, "declared with shape"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := exceptions.TryCatch[error](func() { _, _ = tc.symbol.InferShape(tc.known) })
			require.ErrorContains(t, err, tc.errContains)
		})
	}
}
