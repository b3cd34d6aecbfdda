// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gomlx/symgraph/pkg/core/symbol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunDemo(t *testing.T) {
	var buf bytes.Buffer
	composed := runDemo(&buf, 0)
	require.NotNil(t, composed)
	output := buf.String()

	// Sections are separated by the blank line after each debug dump.
	sections := strings.Split(output, "\n\n")
	require.Len(t, sections, 5, "output:\n%s", output)

	// fc1's dump mentions fc1 and its input data.
	assert.True(t, strings.HasPrefix(sections[0], "Symbol Outputs:\n\toutput[0]=fc1(0)\n"))
	assert.Contains(t, sections[0], "Variable:data\n")
	assert.Contains(t, sections[0], "Op:FullyConnected, Name=fc1\n")

	// fc2's dump is followed by its arguments.
	assert.Contains(t, sections[1], "Op:FullyConnected, Name=fc2\n")
	assert.Equal(t, "[data fc1_weight fc1_bias fc2_weight fc2_bias]", sections[2][:strings.Index(sections[2], "\n")])

	// fc4's dump, with the unbound fc3_data, then the separator.
	fc4Section := sections[2][strings.Index(sections[2], "\n")+1:]
	assert.Contains(t, fc4Section, "Variable:fc3_data\n")
	assert.Contains(t, fc4Section, "Op:FullyConnected, Name=fc4\n")
	assert.True(t, strings.HasPrefix(sections[3], "----------\nSymbol Outputs:\n\toutput[0]=composed(0)\n"),
		"got %q", sections[3])

	// The composed dump nests fc2's subgraph.
	assert.NotContains(t, sections[3], "fc3_data")
	assert.Contains(t, sections[3], "Name=fc2\n")
	assert.Equal(t, "", sections[4])

	// The separator is a line of exactly ten dashes.
	var separators int
	for _, line := range strings.Split(output, "\n") {
		if strings.Trim(line, "-") == "" && line != "" {
			if len(line) == 10 {
				separators++
			} else {
				assert.Len(t, line, 20, "unexpected dashes line %q", line)
			}
		}
	}
	assert.Equal(t, 1, separators)

	assert.Equal(t, "composed", composed.Name())
}

func TestPrintNetwork(t *testing.T) {
	var buf bytes.Buffer
	out, err := printNetwork(&buf, filepath.Join("testdata", "demo.hcl"))
	require.NoError(t, err)
	assert.Equal(t, "composed", out.Name())
	assert.Contains(t, buf.String(), "Op:FullyConnected, Name=composed\n")
	assert.Contains(t, buf.String(), "[data fc1_weight fc1_bias fc2_weight fc2_bias fc3_weight fc3_bias fc4_weight fc4_bias]\n")

	_, err = printNetwork(&buf, filepath.Join("testdata", "missing.hcl"))
	require.Error(t, err)
}

func TestPrintSummary(t *testing.T) {
	var demoOut, buf bytes.Buffer
	composed := runDemo(&demoOut, 100)
	require.NoError(t, printSummary(&buf, composed, []int{32, 100}, true))
	summary := buf.String()
	assert.Contains(t, summary, "fc1_weight")
	assert.Contains(t, summary, "(Float32)[100 100]")
	assert.Contains(t, summary, "10,000")
	assert.Contains(t, summary, "composed_output")
	assert.Contains(t, summary, "(Float32)[32 100]")
	// 4 layers, each with 100x100 weights and 100 biases.
	assert.Contains(t, summary, "40,400")

	// Shapes declared in the network file.
	buf.Reset()
	out, err := printNetwork(&demoOut, filepath.Join("testdata", "demo.hcl"))
	require.NoError(t, err)
	require.NoError(t, printSummary(&buf, out, nil, true))
	assert.Contains(t, buf.String(), "(Float32)[32 10]")

	// num_hidden unset: shapes can't be inferred.
	err = printSummary(&buf, runDemo(&demoOut, 0), []int{32, 100}, true)
	require.ErrorContains(t, err, "num_hidden")

	// No data argument.
	fc := symbol.FullyConnected("fc").NumHidden(3).Done()
	require.Error(t, printSummary(&buf, fc, []int{32, 100}, true))
	require.Error(t, printSummary(&buf, composed, []int{32, 0}, true))
}
