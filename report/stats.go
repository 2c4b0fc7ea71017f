package report

import "github.com/test262-automator/automator/model"

// Stats are the run wide counters gathered from the raw record stream,
// alongside the fold.
type Stats struct {
	Lines   int
	Passing int
	Failing int

	files map[string]struct{}
}

// Observe counts a single record.
func (s *Stats) Observe(rec *model.TestResult) {
	if s.files == nil {
		s.files = make(map[string]struct{})
	}
	s.Lines++
	s.files[rec.Relative] = struct{}{}
	if rec.Pass {
		s.Passing++
	} else {
		s.Failing++
	}
}

// UniqueFiles returns the number of distinct test files seen.
func (s *Stats) UniqueFiles() int {
	return len(s.files)
}
