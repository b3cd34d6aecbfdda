// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package xslices

import (
	"flag"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap(t *testing.T) {
	got := Map([]int{1, 2, 3}, func(e int) string { return strconv.Itoa(e * 2) })
	assert.Equal(t, []string{"2", "4", "6"}, got)
	assert.Empty(t, Map([]int{}, func(e int) int { return e }))
}

func TestSortedKeys(t *testing.T) {
	m := map[string]int{"fc2": 2, "data": 0, "fc1": 1}
	assert.Equal(t, []string{"data", "fc1", "fc2"}, SortedKeys(m))
}

func TestProduct(t *testing.T) {
	assert.Equal(t, 3200, Product([]int{32, 100}))
	assert.Equal(t, 1, Product([]int{}))
	assert.InDelta(t, 1.5, Product([]float64{0.5, 3}), 1e-9)
	assert.Equal(t, "x", Last([]string{"a", "x"}))
}

func TestFlag(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	dims := FlagSet(fs, "dims", []int{1}, "dimensions", strconv.Atoi)
	require.NoError(t, fs.Parse([]string{"-dims=32, 100"}))
	assert.Equal(t, []int{32, 100}, *dims)
	assert.Equal(t, "32,100", fs.Lookup("dims").Value.String())

	require.Error(t, fs.Parse([]string{"-dims=a,b"}))
	require.NoError(t, fs.Parse([]string{"-dims="}))
	assert.Empty(t, *dims)
}
