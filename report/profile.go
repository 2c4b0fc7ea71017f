package report

// This file renders a report tree as a pprof profile, so that
// "go tool pprof -http" can show conformance as a flame graph of the
// test262 directory layout.

import (
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/pprof/profile"
)

// profileBuilder holds the state for building the profile
type profileBuilder struct {
	profile   *profile.Profile
	functions map[string]*profile.Function
	locations map[string]*profile.Location
}

// Profile converts the tree into a pprof profile. Every test file becomes
// one sample whose stack is its path, with the values tests, passing and
// failing.
func Profile(children []*Node, captured time.Time) (*profile.Profile, error) {
	b := &profileBuilder{
		profile: &profile.Profile{
			SampleType: []*profile.ValueType{
				{Type: "tests", Unit: "count"},
				{Type: "passing", Unit: "count"},
				{Type: "failing", Unit: "count"},
			},
			DefaultSampleType: "failing",
			TimeNanos:         captured.UnixNano(),
		},
		functions: make(map[string]*profile.Function),
		locations: make(map[string]*profile.Location),
	}

	for _, n := range children {
		b.walk(n, "", nil)
	}

	if err := b.profile.CheckValid(); err != nil {
		return nil, fmt.Errorf("invalid profile: %w", err)
	}
	return b.profile, nil
}

// WriteProfile writes the gzipped profile of the tree to w.
func WriteProfile(w io.Writer, children []*Node, captured time.Time) error {
	prof, err := Profile(children, captured)
	if err != nil {
		return err
	}
	if err := prof.Write(w); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return nil
}

// walk descends the tree, stack holds the ancestors leaf first.
func (b *profileBuilder) walk(n *Node, dir string, stack []*profile.Location) {
	full := path.Join(dir, n.Name)
	loc := b.getOrCreateLocation(n.Name, full)

	// leaf first, so prepend
	frames := make([]*profile.Location, 0, len(stack)+1)
	frames = append(frames, loc)
	frames = append(frames, stack...)

	if n.IsFolder() {
		for _, c := range n.Children {
			b.walk(c, full, frames)
		}
		return
	}

	value := []int64{0, 0, 0}
	for _, r := range n.Results {
		value[0]++
		if r.Pass {
			value[1]++
		} else {
			value[2]++
		}
	}
	if value[0] == 0 {
		return
	}
	b.profile.Sample = append(b.profile.Sample, &profile.Sample{
		Location: frames,
		Value:    value,
		Label:    map[string][]string{"path": {full}},
	})
}

// getOrCreateFunction gets or creates a function
func (b *profileBuilder) getOrCreateFunction(name, full string) *profile.Function {
	if fn, exists := b.functions[full]; exists {
		return fn
	}

	fn := &profile.Function{
		ID:         uint64(len(b.profile.Function) + 1),
		Name:       name,
		SystemName: full,
		Filename:   full,
	}
	b.functions[full] = fn
	b.profile.Function = append(b.profile.Function, fn)
	return fn
}

// getOrCreateLocation gets or creates the location of a path
func (b *profileBuilder) getOrCreateLocation(name, full string) *profile.Location {
	if loc, exists := b.locations[full]; exists {
		return loc
	}

	loc := &profile.Location{
		ID: uint64(len(b.profile.Location) + 1),
		Line: []profile.Line{
			{Function: b.getOrCreateFunction(name, full)},
		},
	}
	b.locations[full] = loc
	b.profile.Location = append(b.profile.Location, loc)
	return loc
}
