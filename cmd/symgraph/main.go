// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// symgraph builds a few fully-connected layer symbols, composes them, and prints their debug dumps
// and argument lists.
//
// With -net it instead loads a network description (see package netconf) and prints its output symbol.
// With -summary it also prints a table with the inferred shapes of the arguments.
package main

import (
	"flag"
	"os"
	"strconv"

	"github.com/gomlx/symgraph/pkg/core/symbol"
	"github.com/gomlx/symgraph/pkg/support/xslices"
	"github.com/janpfeifer/must"
	"k8s.io/klog/v2"
)

var (
	flagNet = flag.String("net", "", "HCL network description to load and print, instead of the built-in demo.")

	flagSummary = flag.Bool("summary", false, "Print a summary table of the arguments of the final symbol, "+
		"with their inferred shapes. It requires --num_hidden for the demo, and the shape of \"data\" "+
		"either given by --data_shape or declared in the network file.")
	flagNumHidden = flag.Int("num_hidden", 0, "Output dimension of the demo's fully-connected layers. "+
		"0 leaves it unset.")
	flagDataShape = xslices.Flag("data_shape", nil, "Comma-separated dimensions of the \"data\" argument, "+
		"used by --summary. E.g.: --data_shape=32,100", strconv.Atoi)
	flagNoColor = flag.Bool("no_color", false, "Disable colors in the --summary table.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if len(flag.Args()) > 0 {
		klog.Errorf("Unexpected arguments %v. See 'symgraph -help'.", flag.Args())
		os.Exit(1)
	}

	var final *symbol.Symbol
	if *flagNet != "" {
		final = must.M1(printNetwork(os.Stdout, *flagNet))
	} else {
		final = runDemo(os.Stdout, *flagNumHidden)
	}
	if *flagSummary {
		must.M(printSummary(os.Stdout, final, *flagDataShape, *flagNoColor))
	}
}
