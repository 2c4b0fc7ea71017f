package cli

// This file contains the list and engines commands.

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"

	"github.com/test262-automator/automator/engines"
	"github.com/test262-automator/automator/history"
)

// sortNewestFirst orders ledger entries by their last run.
func sortNewestFirst(entries []history.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Meta.TimeStamp > entries[j].Meta.TimeStamp
	})
}

func shortRevision(revision string) string {
	if len(revision) > 8 {
		return revision[:8]
	}
	return revision
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02 15:04:05")
}

func writeLedger(w io.Writer, entries []history.Entry) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("Captures (%d total)", len(entries)))
	t.AppendHeader(table.Row{"#", "Name", "Engine", "Version", "Revision", "Args", "Runs", "Last run"})
	for i, entry := range entries {
		m := entry.Meta
		name := m.Name
		if m.Folder != "" {
			name += " (" + m.Folder + ")"
		}
		t.AppendRow(table.Row{-i, name, m.Engine, m.Version, shortRevision(m.Revision), m.Args, len(m.AllRuns), formatMillis(m.TimeStamp)})
	}
	t.Render()
}

func (a *App) list(ctx *cli.Context) error {
	dir := ctx.Path("capture-dir")
	entries, err := history.LoadEntries(a.logger, dir)
	if err != nil {
		return fmt.Errorf("failed to load run metadata: %w", err)
	}

	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No captures found")
		fmt.Fprintf(a.out, "Captures are saved to %s/meta-<name>.json\n", dir)
		return nil
	}

	sortNewestFirst(entries)
	writeLedger(a.out, entries)

	fmt.Fprintln(a.out, "\nView a report: test262-automator view <name|#> [path]")
	return nil
}

func writeEngines(w io.Writer, registry *engines.Registry) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Engine", "Host type", "Binary", "Preprocessor"})
	for _, name := range registry.Names() {
		// names come from the registry itself
		e, _ := registry.Lookup(name)
		t.AppendRow(table.Row{e.Name, e.HostType, e.Binary(), e.Preprocessor})
	}
	t.Render()
}

func (a *App) listEngines(ctx *cli.Context) error {
	registry, err := a.registry(ctx)
	if err != nil {
		return err
	}
	writeEngines(a.out, registry)
	fmt.Fprintf(a.out, "Supported engines: %s\n", strings.Join(registry.Names(), ", "))
	return nil
}
