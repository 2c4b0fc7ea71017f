// Package report folds test results into the hierarchical folder/file tree
// published for a configuration.
package report

import (
	"encoding/json"
	"strings"

	"github.com/test262-automator/automator/model"
)

// Summary holds the rolled up counters of a folder.
type Summary struct {
	Total   int `json:"total"`
	Passing int `json:"passing"`
	Failing int `json:"failing"`
}

func (s *Summary) add(pass bool) {
	s.Total++
	if pass {
		s.Passing++
	} else {
		s.Failing++
	}
}

// Node is either a folder (Summary is set) or a test file.
type Node struct {
	Name string `json:"name"`

	// File fields
	Description string           `json:"description,omitempty"`
	Features    []string         `json:"features,omitempty"`
	Negative    json.RawMessage  `json:"negative,omitempty"`
	Results     []ScenarioResult `json:"results,omitempty"`

	// Folder fields
	Children []*Node  `json:"children,omitempty"`
	Summary  *Summary `json:"summary,omitempty"`
}

// IsFolder reports whether n is a folder node.
func (n *Node) IsFolder() bool {
	return n.Summary != nil
}

// Child returns the direct child called name, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Lookup walks a slash separated path down from children.
func Lookup(children []*Node, p string) (*Node, bool) {
	var n *Node
	for _, name := range strings.Split(strings.Trim(p, "/"), "/") {
		n = (&Node{Children: children}).Child(name)
		if n == nil {
			return nil, false
		}
		children = n.Children
	}
	return n, n != nil
}

// ScenarioResult is one execution of a test file. It is rendered as the
// result object merged between the scenario and the raw result, so fields
// of the result override "scenario" and "rawResult" overrides both.
type ScenarioResult struct {
	Scenario  string
	Pass      bool
	Result    json.RawMessage
	RawResult json.RawMessage
}

func (r ScenarioResult) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage)
	if r.Scenario != "" {
		scenario, err := json.Marshal(r.Scenario)
		if err != nil {
			return nil, err
		}
		fields["scenario"] = scenario
	}
	if len(r.Result) > 0 {
		var result map[string]json.RawMessage
		if err := json.Unmarshal(r.Result, &result); err != nil {
			return nil, err
		}
		for k, v := range result {
			fields[k] = v
		}
	}
	if len(r.RawResult) > 0 {
		fields["rawResult"] = r.RawResult
	}
	return json.Marshal(fields)
}

func (r *ScenarioResult) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*r = ScenarioResult{}
	if scenario, ok := fields["scenario"]; ok {
		if err := json.Unmarshal(scenario, &r.Scenario); err != nil {
			return err
		}
		delete(fields, "scenario")
	}
	if raw, ok := fields["rawResult"]; ok {
		r.RawResult = raw
		delete(fields, "rawResult")
	}
	if pass, ok := fields["pass"]; ok {
		if err := json.Unmarshal(pass, &r.Pass); err != nil {
			return err
		}
	}
	result, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	r.Result = result
	return nil
}

// Report is the persisted parse output of a configuration.
type Report struct {
	Children []*Node           `json:"children"`
	Host     model.RunMetadata `json:"host"`
}
