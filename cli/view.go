package cli

// This file contains the view command for displaying a level of a parsed report.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/urfave/cli/v2"

	"github.com/test262-automator/automator/capture"
	"github.com/test262-automator/automator/history"
	"github.com/test262-automator/automator/report"
)

func removeFirstDashDash(in []string) []string {
	if len(in) > 0 && in[0] == "--" {
		return in[1:]
	}
	return in
}

// parseViewArgs splits the view arguments into the capture selector and
// the path inside its report. Reports are rooted at test/, so a leading
// test segment is dropped.
func parseViewArgs(in []string) (target string, path string) {
	in = removeFirstDashDash(in)
	if len(in) == 0 {
		return "0", ""
	}

	var segments []string
	for _, arg := range in[1:] {
		for _, s := range strings.Split(arg, "/") {
			if s != "" {
				segments = append(segments, s)
			}
		}
	}
	if len(segments) > 0 && segments[0] == "test" {
		segments = segments[1:]
	}
	return in[0], strings.Join(segments, "/")
}

// selectEntry finds the capture named by target in entries ordered
// newest first. Target is either an index (0 for the latest, -1 for the
// one before) or a configuration name.
func selectEntry(entries []history.Entry, target string) (*history.Entry, error) {
	if parsed, err := strconv.ParseInt(target, 10, 64); err == nil {
		if parsed > 0 {
			return nil, fmt.Errorf("invalid index: %s (use 0 for the latest capture, -1 for the one before, etc.)", target)
		}
		index := int(-parsed)
		if index >= len(entries) {
			return nil, fmt.Errorf("index %s out of range (only %d captures)", target, len(entries))
		}
		return &entries[index], nil
	}

	for i := range entries {
		if entries[i].Meta.Name == target {
			return &entries[i], nil
		}
	}
	return nil, fmt.Errorf("no capture found with name: %s", target)
}

func (a *App) view(ctx *cli.Context) error {
	target, path := parseViewArgs(ctx.Args().Slice())

	layout := capture.NewLayout(ctx.Path("capture-dir"), time.Now())
	entries, err := history.LoadEntries(a.logger, layout.Dir)
	if err != nil {
		return fmt.Errorf("failed to load run metadata: %w", err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("no captures found in %s", layout.Dir)
	}
	sortNewestFirst(entries)

	entry, err := selectEntry(entries, target)
	if err != nil {
		return err
	}

	reportPath := layout.Current(capture.ParsedFile(entry.Meta))
	rep, err := capture.LoadReport(reportPath)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("no report for %s, run the parse command first", entry.Meta.Name)
	}
	if err != nil {
		return err
	}

	return displayReport(a.out, rep, path)
}

func displayReport(w io.Writer, rep *report.Report, path string) error {
	h := rep.Host
	fmt.Fprintf(w, "=== %s ===\n", h.Name)
	fmt.Fprintf(w, "Engine: %s version %s\n", h.Engine, h.Version)
	if h.Args != "" {
		fmt.Fprintf(w, "Args: %s\n", h.Args)
	}
	fmt.Fprintf(w, "Test262 Revision: %s\n", h.Revision)
	fmt.Fprintf(w, "Last run: %s (%d runs)\n", formatMillis(h.TimeStamp), len(h.AllRuns))
	fmt.Fprintln(w)

	if path == "" {
		report.WriteLevel(w, "test/", rep.Children)
		return nil
	}

	n, ok := report.Lookup(rep.Children, path)
	if !ok {
		return fmt.Errorf("no folder or file test/%s in the report of %s", path, h.Name)
	}
	if n.IsFolder() {
		report.WriteLevel(w, "test/"+path+"/", n.Children)
		return nil
	}
	writeFile(w, "test/"+path, n)
	return nil
}

// writeFile prints the scenarios of a file node.
func writeFile(w io.Writer, title string, n *report.Node) {
	if n.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", n.Description)
	}
	if len(n.Features) > 0 {
		fmt.Fprintf(w, "Features: %s\n", strings.Join(n.Features, ", "))
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	t.AppendHeader(table.Row{"Scenario", "Status", "Message"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Message", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
	})
	for _, r := range n.Results {
		status := "FAIL"
		if r.Pass {
			status = "pass"
		}
		t.AppendRow(table.Row{r.Scenario, status, resultMessage(r.Result)})
	}
	t.Render()
}

func resultMessage(result json.RawMessage) string {
	var fields struct {
		Message string `json:"message"`
	}
	if len(result) == 0 || json.Unmarshal(result, &fields) != nil {
		return ""
	}
	return fields.Message
}
