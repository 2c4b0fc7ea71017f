package report

// This file contains the console output of a parsed configuration.

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/test262-automator/automator/model"
)

// WriteSummary prints the run header followed by one line per top-level
// folder and per folder directly below it.
func WriteSummary(w io.Writer, meta model.RunMetadata, stats *Stats, children []*Node) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("test262 results: %s", meta.Name))
	t.AppendRows([]table.Row{
		{"Engine", fmt.Sprintf("%s version %s", meta.Engine, meta.Version)},
		{"Name used", meta.Name},
		{"Args used", meta.Args},
		{"Test262 Revision", meta.Revision},
		{"Tests run", stats.Lines},
		{"Unique files", stats.UniqueFiles()},
		{"Passing tests", stats.Passing},
		{"Failing tests", stats.Failing},
	})
	t.Render()

	fmt.Fprintln(w, "Folders:")
	for _, folder := range children {
		if !folder.IsFolder() {
			continue
		}
		writeFolderLine(w, folder, "")
		for _, sub := range folder.Children {
			if !sub.IsFolder() {
				continue
			}
			writeFolderLine(w, sub, folder.Name+"/")
		}
	}
}

func writeFolderLine(w io.Writer, n *Node, prefix string) {
	fmt.Fprintf(w, "- test/%s%s/: %d tests run, %d passing, %d failing.\n",
		prefix, n.Name, n.Summary.Total, n.Summary.Passing, n.Summary.Failing)
}

// WriteLevel prints the direct children of a tree level as a table.
func WriteLevel(w io.Writer, title string, children []*Node) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	t.AppendHeader(table.Row{"Name", "Tests", "Passed", "Failed", "Rate"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Name", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Tests", Align: text.AlignRight},
		{Name: "Passed", Align: text.AlignRight},
		{Name: "Failed", Align: text.AlignRight},
		{Name: "Rate", Align: text.AlignRight},
	})

	var total Summary
	for _, n := range children {
		s := n.Counts()
		total.Total += s.Total
		total.Passing += s.Passing
		total.Failing += s.Failing

		name := n.Name
		if n.IsFolder() {
			name += "/"
		}
		t.AppendRow(table.Row{name, s.Total, s.Passing, s.Failing, rate(s)})
	}
	t.AppendFooter(table.Row{"Total", total.Total, total.Passing, total.Failing, rate(total)})
	t.Render()
}

// Counts returns the summary of a folder, or the tally of a file's results.
func (n *Node) Counts() Summary {
	if n.IsFolder() {
		return *n.Summary
	}
	var s Summary
	for _, r := range n.Results {
		s.add(r.Pass)
	}
	return s
}

func rate(s Summary) string {
	if s.Total == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", float64(s.Passing)*100/float64(s.Total))
}
