// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package sets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	// Sets are created empty.
	s := Make[string](10)
	assert.Len(t, s, 0)

	s.Insert("fc1_weight", "fc1_bias")
	assert.Len(t, s, 2)
	assert.True(t, s.Has("fc1_weight"))
	assert.False(t, s.Has("data"))

	s2 := MakeWith("data", "fc1_bias")
	s3 := s.Sub(s2)
	assert.Len(t, s3, 1)
	assert.True(t, s3.Has("fc1_weight"))

	s.Delete("fc1_bias", "not_there")
	assert.Len(t, s, 1)
	assert.False(t, s.Has("fc1_bias"))
}
