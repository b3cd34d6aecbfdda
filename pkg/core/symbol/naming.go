// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package symbol

import (
	"fmt"
	"strings"
	"sync"
)

// NameManager generates names for operators created without one: the lower-cased operator
// type followed by a counter, e.g. "fullyconnected0", "fullyconnected1".
//
// It is safe for concurrent use.
type NameManager struct {
	mu       sync.Mutex
	counters map[string]int
}

// NewNameManager returns a NameManager with all counters at 0.
func NewNameManager() *NameManager {
	return &NameManager{counters: make(map[string]int)}
}

var defaultNameManager = NewNameManager()

// DefaultNameManager is the NameManager used by CreateOp and the operator builders, unless one
// is configured explicitly.
func DefaultNameManager() *NameManager { return defaultNameManager }

// Get returns name if it is not empty, otherwise a new unique name based on hint.
func (m *NameManager) Get(name, hint string) string {
	if name != "" {
		return name
	}
	hint = strings.ToLower(hint)
	m.mu.Lock()
	defer m.mu.Unlock()
	count := m.counters[hint]
	m.counters[hint] = count + 1
	return fmt.Sprintf("%s%d", hint, count)
}

// Reset all counters.
func (m *NameManager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters = make(map[string]int)
}
