// Package backup implements the smart backup orchestrator: pushing branches
// to multiple destination remotes with per-destination failure isolation,
// persisted history, retention, and fast-forward-only restore.
package backup

import (
	"fmt"
	"time"
)

// Outcome is the result of backing up to (or restoring from) one
// destination. Category is a stable machine-readable failure class from the
// git failure classifier; Detail carries the raw git output for diagnosis.
type Outcome struct {
	Succeeded bool   `json:"succeeded"`
	Category  string `json:"category,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// Record is one persisted backup run. Outcomes is keyed by destination
// remote name; a record always holds one outcome per destination, whether
// it succeeded or not.
type Record struct {
	ID            string             `json:"id"`
	Timestamp     time.Time          `json:"timestamp"`
	Branches      []string           `json:"branches"`
	Destinations  []string           `json:"destinations"`
	Outcomes      map[string]Outcome `json:"outcomes"`
	RetainedUntil time.Time          `json:"retained_until"`
}

// SucceededCount returns how many destinations completed successfully.
func (r *Record) SucceededCount() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Succeeded {
			n++
		}
	}
	return n
}

// FullySucceeded reports whether every destination completed.
func (r *Record) FullySucceeded() bool {
	return r.SucceededCount() == len(r.Destinations)
}

// Summary renders the partial-success line, e.g. "2 of 3 destinations succeeded".
func (r *Record) Summary() string {
	return fmt.Sprintf("%d of %d destinations succeeded", r.SucceededCount(), len(r.Destinations))
}
