package model

// RunMetadata is the ledger entry of a single named configuration.
// It is the cache key of the next capture and the audit trail of every
// capture attempt made for the configuration.
type RunMetadata struct {
	// Unique configuration name (e.g. "v8" or "v8---harmony")
	Name string `json:"name"`
	// Engine registry key the configuration runs
	Engine string `json:"engine"`
	// Engine version at the time of the last recorded run
	Version string `json:"version"`
	// test262 commit hash at the time of the last recorded run
	Revision string `json:"revision"`
	// Extra host arguments passed to the engine binary
	Args string `json:"args"`
	// Optional sub-suite label, suffixed to artifact names
	Folder string `json:"folder,omitempty"`
	// Every invocation timestamp in milliseconds since the epoch, oldest first.
	// Empty on entries written before the field existed.
	AllRuns []int64 `json:"allRuns,omitempty"`
	// Most recent entry of AllRuns, kept for older readers
	TimeStamp int64 `json:"timeStamp"`
}

// Suffix returns the artifact file suffix for the configuration,
// "-<name>" or "-<name>-<folder>".
func (m RunMetadata) Suffix() string {
	if m.Folder != "" {
		return "-" + m.Name + "-" + m.Folder
	}
	return "-" + m.Name
}

// Legacy reports whether the entry predates the AllRuns field.
func (m RunMetadata) Legacy() bool {
	return len(m.AllRuns) == 0
}
