// Package present holds the two external-sink contracts the core pushes
// rows and edits into: TableSink for query output, and the buildozer-style
// edit-directive writer for DWYU/canonicalize. The core only ever calls
// through these interfaces; concrete pretty-printers beyond the one
// aligned-text sink shipped here (JSON/S-expr/CSV/plist) live elsewhere.
package present

import (
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// TableSink is the opaque row sink every query command writes through.
// Concrete implementations beyond AlignedTableSink (JSON, CSV, S-expr,
// property-list) are external collaborators.
type TableSink interface {
	AddRow(cells []string)
	// AddRowWithRepeatedLastColumn emits one row per entry of repeat, each
	// with prefix's cells followed by that one entry — used by
	// one-to-many queries like "deps of target" or "headers of library".
	AddRowWithRepeatedLastColumn(prefix []string, repeat []string)
	Finish()
}

// AlignedTableSink renders rows as an aligned text table via
// olekukonko/tablewriter.
type AlignedTableSink struct {
	table *tablewriter.Table
}

// NewAlignedTableSink returns a TableSink that writes an aligned table to
// w with the given column headers.
func NewAlignedTableSink(w io.Writer, headers []string) *AlignedTableSink {
	t := tablewriter.NewWriter(w)
	t.SetHeader(headers)
	t.SetAutoWrapText(false)
	t.SetAlignment(tablewriter.ALIGN_LEFT)
	return &AlignedTableSink{table: t}
}

func (s *AlignedTableSink) AddRow(cells []string) {
	s.table.Append(cells)
}

func (s *AlignedTableSink) AddRowWithRepeatedLastColumn(prefix []string, repeat []string) {
	if len(repeat) == 0 {
		s.AddRow(append(append([]string{}, prefix...), ""))
		return
	}
	for _, r := range repeat {
		s.AddRow(append(append([]string{}, prefix...), r))
	}
}

func (s *AlignedTableSink) Finish() {
	s.table.Render()
}

// ShellQuote quotes s the way buildozer-style edit lines quote target
// labels and header paths: single-quoted, with any embedded single quote
// written as close-quote, backslash-quote, reopen-quote (the usual shell
// idiom).
func ShellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
