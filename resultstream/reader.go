// Package resultstream reads the line framed JSON array written by
// test262-harness --reporter=json.
//
// The artifact is a JSON array with exactly one element per line:
//
//	[
//	{"relative":"test/a.js","result":{"pass":true},...}
//	,{"relative":"test/b.js","result":{"pass":false},...}
//	]
//
// Lines starting with '[' or ']' are delimiters, a single leading comma
// marks a continuation element. Records are decoded one line at a time so
// memory use is bounded by the longest line, not by the artifact size.
package resultstream

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/test262-automator/automator/model"
)

// MaxLineSize is the longest record line accepted.
const MaxLineSize = 64 << 20

// ErrNoResults is returned when a stream holds no record at all.
var ErrNoResults = errors.New("no test results found")

// MalformedRecordError reports a record line that can not be trusted.
type MalformedRecordError struct {
	Line   int
	Reason string
	Err    error
}

func (e *MalformedRecordError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed test result on line %d: %s: %v", e.Line, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed test result on line %d: %s", e.Line, e.Reason)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

// Reader iterates over the records of a result stream.
type Reader struct {
	scanner *bufio.Scanner
	line    int
	count   int
	record  model.TestResult
	err     error
}

// NewReader creates a reader over r.
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	return &Reader{scanner: scanner}
}

// Next advances to the next record. It returns false at the end of the
// stream or on the first error, which is then reported by Err.
func (r *Reader) Next() bool {
	if r.err != nil {
		return false
	}

	for r.scanner.Scan() {
		r.line++
		line := r.scanner.Bytes()

		// Skip the array wrappers
		if len(line) > 0 && (line[0] == '[' || line[0] == ']') {
			continue
		}
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		// Remove the leading comma
		line = bytes.TrimPrefix(line, []byte(","))

		rec, err := decode(line)
		if err != nil {
			r.err = err
			if mErr, ok := err.(*MalformedRecordError); ok {
				mErr.Line = r.line
			}
			return false
		}
		r.record = rec
		r.count++
		return true
	}

	if err := r.scanner.Err(); err != nil {
		r.err = fmt.Errorf("failed to read test results: %w", err)
		return false
	}
	if r.count == 0 {
		r.err = ErrNoResults
	}
	return false
}

// Record returns the current record. It stays valid until the next call to Next.
func (r *Reader) Record() *model.TestResult {
	return &r.record
}

// Err returns the error that stopped the iteration, if any.
func (r *Reader) Err() error {
	return r.err
}

// Count returns the number of records read so far.
func (r *Reader) Count() int {
	return r.count
}

// Each calls fn for every record of the stream and returns the record count.
// An error from fn stops the iteration and is returned as-is.
func Each(in io.Reader, fn func(*model.TestResult) error) (int, error) {
	r := NewReader(in)
	for r.Next() {
		if err := fn(r.Record()); err != nil {
			return r.Count(), err
		}
	}
	return r.Count(), r.Err()
}

type resultFields struct {
	Pass bool `json:"pass"`
}

func decode(line []byte) (model.TestResult, error) {
	var rec model.TestResult
	if err := json.Unmarshal(line, &rec); err != nil {
		return model.TestResult{}, &MalformedRecordError{Reason: "invalid json", Err: err}
	}

	if rec.Relative == "" {
		return model.TestResult{}, &MalformedRecordError{Reason: "missing relative"}
	}
	if len(rec.Result) == 0 || bytes.Equal(rec.Result, []byte("null")) {
		return model.TestResult{}, &MalformedRecordError{Reason: "missing result"}
	}

	var fields resultFields
	if err := json.Unmarshal(rec.Result, &fields); err != nil {
		return model.TestResult{}, &MalformedRecordError{Reason: "result is not an object", Err: err}
	}
	rec.Pass = fields.Pass
	return rec, nil
}
