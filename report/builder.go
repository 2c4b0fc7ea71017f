package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/test262-automator/automator/model"
)

// ConflictError is returned when a path segment names a file at one place
// and a folder at another within the same parent.
type ConflictError struct {
	Relative string
	Segment  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("path %q: %q is used both as a file and as a folder", e.Relative, e.Segment)
}

// entry is an arena slot. Children are kept in arrival order with a name
// index beside them so lookups do not rescan siblings.
type entry struct {
	name     string
	file     bool
	children []int
	index    map[string]int

	summary     Summary
	description string
	features    []string
	negative    []byte
	results     []ScenarioResult
}

// Builder folds test results into a report tree.
type Builder struct {
	arena []entry
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	// slot 0 is the root; its summary is never reported
	return &Builder{arena: []entry{{index: make(map[string]int)}}}
}

// Add folds a single record into the tree. Every folder on the record's
// path counts the record once.
func (b *Builder) Add(rec *model.TestResult) error {
	// Improve this if captures are ever produced on Windows
	segments := strings.Split(rec.Relative, "/")

	parent := 0
	for i, name := range segments {
		isFile := i == len(segments)-1 && strings.HasSuffix(name, ".js")

		idx, ok := b.arena[parent].index[name]
		if !ok {
			idx = b.create(parent, name, isFile)
		} else if b.arena[idx].file != isFile {
			return &ConflictError{Relative: rec.Relative, Segment: name}
		}

		e := &b.arena[idx]
		if isFile {
			e.attach(rec)
			break
		}
		e.summary.add(rec.Pass)
		parent = idx
	}
	return nil
}

func (b *Builder) create(parent int, name string, file bool) int {
	e := entry{name: name, file: file}
	if !file {
		e.index = make(map[string]int)
	}
	b.arena = append(b.arena, e)
	idx := len(b.arena) - 1

	p := &b.arena[parent]
	p.children = append(p.children, idx)
	p.index[name] = idx
	return idx
}

func (e *entry) attach(rec *model.TestResult) {
	if len(rec.Attrs.Features) > 0 && e.features == nil {
		e.features = rec.Attrs.Features
	}
	if len(rec.Attrs.Negative) > 0 && e.negative == nil {
		e.negative = rec.Attrs.Negative
	}
	if rec.Attrs.Description != "" && e.description == "" {
		e.description = rec.Attrs.Description
	}
	e.results = append(e.results, ScenarioResult{
		Scenario:  rec.Scenario,
		Pass:      rec.Pass,
		Result:    rec.Result,
		RawResult: rec.RawResult,
	})
}

// Tree materializes the folded tree. Siblings are ordered by upper-cased
// name; equal names keep their arrival order.
func (b *Builder) Tree() []*Node {
	return b.nodes(0)
}

func (b *Builder) nodes(parent int) []*Node {
	children := b.arena[parent].children
	out := make([]*Node, 0, len(children))
	for _, idx := range children {
		out = append(out, b.node(idx))
	}
	sortNodes(out)
	return out
}

func (b *Builder) node(idx int) *Node {
	e := &b.arena[idx]
	n := &Node{Name: e.name}
	if e.file {
		n.Description = e.description
		n.Features = e.features
		n.Negative = e.negative
		n.Results = e.results
		return n
	}
	summary := e.summary
	n.Summary = &summary
	n.Children = b.nodes(idx)
	return n
}

func sortNodes(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return strings.ToUpper(nodes[i].Name) < strings.ToUpper(nodes[j].Name)
	})
}

// Fold builds the tree of records in one pass.
func Fold(records []*model.TestResult) ([]*Node, error) {
	b := NewBuilder()
	for _, rec := range records {
		if err := b.Add(rec); err != nil {
			return nil, err
		}
	}
	return b.Tree(), nil
}
