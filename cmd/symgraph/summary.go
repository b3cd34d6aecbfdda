// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/symgraph/pkg/core/shapes"
	"github.com/gomlx/symgraph/pkg/core/symbol"
	"github.com/muesli/termenv"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// dataArgument is the argument whose shape is given by --data_shape.
const dataArgument = "data"

type tableStyles struct {
	header, odd, even, title lipgloss.Style
	border                   lipgloss.Style
}

func newTableStyles(r *lipgloss.Renderer) tableStyles {
	return tableStyles{
		header: r.NewStyle().Reverse(true).Padding(0, 2, 0, 2).Align(lipgloss.Center),
		odd:    r.NewStyle().Foreground(lipgloss.Color("#FFF")).PaddingLeft(1).PaddingRight(1),
		even:   r.NewStyle().Foreground(lipgloss.Color("#999")).PaddingLeft(1).PaddingRight(1),
		title:  r.NewStyle().Bold(true).Padding(1, 4, 1, 4),
		border: r.NewStyle().Foreground(lipgloss.Color("99")),
	}
}

func (s tableStyles) newTable() *lgtable.Table {
	return lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.border).
		StyleFunc(func(row, col int) (style lipgloss.Style) {
			switch {
			case row == lgtable.HeaderRow:
				return s.header
			case row%2 == 0:
				style = s.even
			default:
				style = s.odd
			}
			if col == 0 {
				return style.Align(lipgloss.Left)
			}
			return style.Align(lipgloss.Right)
		})
}

// printSummary prints a table with the inferred shapes and sizes of the arguments and outputs of s.
// dataShape, if not empty, is the shape of the "data" argument.
func printSummary(w io.Writer, s *symbol.Symbol, dataShape []int, noColor bool) error {
	arguments := s.ListArguments()
	known := make(map[string]shapes.Shape)
	if len(dataShape) > 0 {
		if !slices.Contains(arguments, dataArgument) {
			return errors.Errorf("--data_shape given, but %q is not an argument of %s", dataArgument, s)
		}
		if err := exceptions.TryCatch[error](func() {
			known[dataArgument] = shapes.Make(dtypes.Float32, dataShape...)
		}); err != nil {
			return errors.WithMessage(err, "invalid --data_shape")
		}
	}

	var argShapes, outShapes []shapes.Shape
	err := exceptions.TryCatch[error](func() { argShapes, outShapes = s.InferShape(known) })
	if err != nil {
		return errors.WithMessage(err, "summary requires all shapes to be inferred, see --num_hidden and --data_shape")
	}

	renderer := lipgloss.NewRenderer(w)
	if noColor {
		renderer.SetColorProfile(termenv.Ascii)
	}
	styles := newTableStyles(renderer)

	table := styles.newTable().Headers("Argument", "Shape", "# Parameters", "Memory")
	var totalSize int
	var totalMemory uintptr
	for ii, name := range arguments {
		shape := argShapes[ii]
		if name != dataArgument {
			totalSize += shape.Size()
			totalMemory += shape.Memory()
		}
		table.Row(name, shape.String(), humanize.Comma(int64(shape.Size())), humanize.Bytes(uint64(shape.Memory())))
	}
	table.Row("Total (excluding data)", "", humanize.Comma(int64(totalSize)), humanize.Bytes(uint64(totalMemory)))
	klog.V(1).Infof("summary of %s: %d arguments, %d parameters", s, len(arguments), totalSize)

	outputs := styles.newTable().Headers("Output", "Shape")
	for ii, name := range s.ListOutputs() {
		outputs.Row(name, outShapes[ii].String())
	}

	for _, part := range []string{
		styles.title.Render("Arguments"), table.String(),
		styles.title.Render("Outputs"), outputs.String(),
	} {
		if _, err := fmt.Fprintln(w, part); err != nil {
			return errors.Wrap(err, "failed to print summary")
		}
	}
	return nil
}
