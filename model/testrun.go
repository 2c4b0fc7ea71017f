package model

import "encoding/json"

// TestResult is a single record emitted by the test harness for one
// test file executed under one scenario.
type TestResult struct {
	// Slash separated path relative to the test262 checkout (e.g. "test/built-ins/Array/length.js")
	Relative string `json:"relative"`
	// Outcome object; only "pass" is interpreted, the rest is carried as-is
	Result json.RawMessage `json:"result"`
	// Diagnostic payload of the harness, carried unmodified
	RawResult json.RawMessage `json:"rawResult,omitempty"`
	// Execution mode (e.g. "default", "strict mode")
	Scenario string `json:"scenario,omitempty"`
	// Test file frontmatter
	Attrs Attrs `json:"attrs"`

	// Decoded result.pass
	Pass bool `json:"-"`
}

// Attrs holds the frontmatter attributes of a test file.
type Attrs struct {
	Features    []string        `json:"features,omitempty"`
	Negative    json.RawMessage `json:"negative,omitempty"`
	Description string          `json:"description,omitempty"`
}
