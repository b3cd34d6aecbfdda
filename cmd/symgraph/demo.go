// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/gomlx/symgraph/pkg/core/symbol"
	"github.com/gomlx/symgraph/pkg/ml/netconf"
	"github.com/pkg/errors"
)

// separator printed between the layer dumps and the composed symbol.
var separator = strings.Repeat("-", 10)

// runDemo builds data -> fc1 -> fc2, and an unbound fc3 -> fc4, then composes fc4 on top of fc2.
// It prints the debug strings and arguments along the way, and returns the composed symbol.
//
// Errors from the symbol package are not handled: they panic.
func runDemo(w io.Writer, numHidden int) *symbol.Symbol {
	data := symbol.Variable("data")
	fc1 := symbol.FullyConnected("fc1").Data(data).NumHidden(numHidden).NoBias(false).Done()
	_, _ = fmt.Fprintln(w, fc1.DebugStr())

	fc2 := symbol.FullyConnected("fc2").Data(fc1).NumHidden(numHidden).NoBias(false).Done()
	_, _ = fmt.Fprintln(w, fc2.DebugStr())
	_, _ = fmt.Fprintln(w, fc2.ListArguments())

	// fc3 has no data: "fc3_data" is left to be bound later.
	fc3 := symbol.FullyConnected("fc3").NumHidden(numHidden).Done()
	fc4 := symbol.FullyConnected("fc4").Data(fc3).NumHidden(numHidden).Done()
	_, _ = fmt.Fprintln(w, fc4.DebugStr())

	_, _ = fmt.Fprintln(w, separator)
	composed := fc4.Compose("composed", map[string]*symbol.Symbol{"fc3_data": fc2})
	_, _ = fmt.Fprintln(w, composed.DebugStr())
	return composed
}

// printNetwork loads the network description in filePath and prints its output's debug string and arguments.
func printNetwork(w io.Writer, filePath string) (*symbol.Symbol, error) {
	net, err := netconf.Load(filePath)
	if err != nil {
		return nil, err
	}
	out := net.Output()
	if _, err = fmt.Fprintln(w, out.DebugStr()); err != nil {
		return nil, errors.Wrap(err, "failed to print network")
	}
	_, err = fmt.Fprintln(w, out.ListArguments())
	return out, errors.Wrap(err, "failed to print network")
}
