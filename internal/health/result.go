package health

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Status is the outcome taxonomy for a single check: pass means the
// assertion held, fail means it was violated, warning is degraded but not a
// hard failure, error is an unexpected fault inside the check itself, and
// skip means the check was inapplicable.
type Status string

const (
	StatusPass    Status = "pass"
	StatusFail    Status = "fail"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
	StatusSkip    Status = "skip"
)

// Result is the outcome of one probe. Every probe produces exactly one
// Result; faults inside a probe become a StatusError result instead of
// propagating.
type Result struct {
	Status   Status         `json:"status"`
	Message  string         `json:"message"`
	Details  map[string]any `json:"details"`
	Duration float64        `json:"duration"`
}

// NamedResult pairs a check name with its result so the report preserves
// registration order.
type NamedResult struct {
	Name string
	Result
}

type CheckList []NamedResult

// MarshalJSON encodes the checks as a JSON object whose keys appear in
// registration order.
func (l CheckList) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal check name: %w", err)
		}
		value, err := json.Marshal(c.Result)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal check result: %w", err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type Summary struct {
	Total    int `json:"total"`
	Passed   int `json:"passed"`
	Failed   int `json:"failed"`
	Warnings int `json:"warnings"`
	Skipped  int `json:"skipped"`
}

// Report aggregates one full run of all selected checks. It is built fresh
// per run and never merged across runs.
type Report struct {
	Timestamp     time.Time `json:"timestamp"`
	OverallStatus Status    `json:"overall_status"`
	Checks        CheckList `json:"checks"`
	Summary       Summary   `json:"summary"`
}

// Check returns the result recorded under the given name.
func (r *Report) Check(name string) (Result, bool) {
	for _, c := range r.Checks {
		if c.Name == name {
			return c.Result, true
		}
	}
	return Result{}, false
}

// finalize derives the summary counts and the overall status. Skipped is
// computed as the remainder, which folds error-status checks into the
// skipped bucket. That matches the observable summary contract and is
// asserted in tests.
func (r *Report) finalize() {
	s := Summary{Total: len(r.Checks)}
	for _, c := range r.Checks {
		switch c.Status {
		case StatusPass:
			s.Passed++
		case StatusFail:
			s.Failed++
		case StatusWarning:
			s.Warnings++
		}
	}
	s.Skipped = s.Total - s.Passed - s.Failed - s.Warnings
	r.Summary = s

	switch {
	case s.Failed > 0:
		r.OverallStatus = StatusFail
	case s.Warnings > 0:
		r.OverallStatus = StatusWarning
	default:
		r.OverallStatus = StatusPass
	}
}
