// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package symbol

import (
	"strings"
	"testing"

	"github.com/gomlx/exceptions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompose(t *testing.T) {
	_, _, fc2 := buildFC2()
	fc3 := FullyConnected("fc3").Done()
	fc4 := FullyConnected("fc4").Data(fc3).Done()
	fc4Dump := fc4.DebugStr()

	composed := fc4.Compose("composed", map[string]*Symbol{"fc3_data": fc2})
	assert.Equal(t, "composed", composed.Name())
	assert.Equal(t, []string{"composed_output"}, composed.ListOutputs())
	assert.Equal(t, []string{
		"data", "fc1_weight", "fc1_bias", "fc2_weight", "fc2_bias",
		"fc3_weight", "fc3_bias", "fc4_weight", "fc4_bias"}, composed.ListArguments())

	dump := composed.DebugStr()
	assert.NotContains(t, dump, "fc3_data")
	assert.Contains(t, dump, "Op:FullyConnected, Name=composed\n")
	// fc2's subgraph is nested as the input of fc3, which feeds the composed output.
	fc1Pos := strings.Index(dump, "Name=fc1\n")
	fc2Pos := strings.Index(dump, "Name=fc2\n")
	fc3Pos := strings.Index(dump, "Name=fc3\n")
	composedPos := strings.Index(dump, "Name=composed\n")
	require.True(t, fc1Pos >= 0 && fc2Pos >= 0 && fc3Pos >= 0)
	assert.True(t, fc1Pos < fc2Pos && fc2Pos < fc3Pos && fc3Pos < composedPos)
	assert.Contains(t, dump[fc3Pos:composedPos], "\targ[0]=fc2(0)\n")
	assert.Contains(t, dump[composedPos:], "\targ[1]=fc4_weight(0)\n")

	// The callee is not modified.
	assert.Equal(t, fc4Dump, fc4.DebugStr())
	assert.Equal(t, "fc4", fc4.Name())
	assert.Equal(t, []string{"fc3_data", "fc3_weight", "fc3_bias", "fc4_weight", "fc4_bias"}, fc4.ListArguments())
}

func TestComposeKeepsName(t *testing.T) {
	fc := FullyConnected("fc").Done()
	composed := fc.Compose("", map[string]*Symbol{"fc_data": Variable("x")})
	assert.Equal(t, "fc", composed.Name())
	assert.Equal(t, []string{"x", "fc_weight", "fc_bias"}, composed.ListArguments())
}

func TestComposeSharedInputs(t *testing.T) {
	_, _, fc2 := buildFC2()
	fc3 := FullyConnected("fc3").Done()
	composed := fc3.Compose("composed", map[string]*Symbol{"fc3_data": fc2})

	// Re-binding "data" in composed must not change fc2, whose nodes composed shares.
	rebound := composed.Compose("", map[string]*Symbol{"data": Variable("x")})
	assert.Equal(t, "x", rebound.ListArguments()[0])
	assert.Equal(t, "data", composed.ListArguments()[0])
	assert.Equal(t, "data", fc2.ListArguments()[0])
}

func TestComposeMultipleUses(t *testing.T) {
	// A variable used twice is replaced everywhere.
	x := Variable("x")
	fcA := FullyConnected("a").Data(x).Done()
	fcB := FullyConnected("b").Data(x).Done()
	g := Group(fcA, fcB)
	composed := g.Compose("", map[string]*Symbol{"x": Variable("y")})
	assert.Equal(t, []string{"y", "a_weight", "a_bias", "b_weight", "b_bias"}, composed.ListArguments())
}

func TestComposeErrors(t *testing.T) {
	_, fc1, fc2 := buildFC2()
	fc4 := FullyConnected("fc4").Done()

	err := exceptions.TryCatch[error](func() {
		_ = fc4.Compose("composed", map[string]*Symbol{"fc3_data": fc2})
	})
	require.ErrorContains(t, err, "fc3_data")
	require.ErrorContains(t, err, "don't match any argument")

	err = exceptions.TryCatch[error](func() {
		_ = Variable("data").Compose("x", map[string]*Symbol{"data": fc2})
	})
	require.ErrorContains(t, err, "cannot compose variable")

	require.Panics(t, func() { _ = fc4.Compose("", map[string]*Symbol{"fc4_data": nil}) })
	require.Panics(t, func() { _ = fc4.Compose("", map[string]*Symbol{"fc4_data": Group(fc1, fc2)}) })
	require.Panics(t, func() { _ = Group(fc1, fc2).Compose("named", nil) })
}
