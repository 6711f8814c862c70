package domain

// CheckStatus classifies the outcome of one environment check.
type CheckStatus string

const (
	// StatusPass means the component is present and compatible.
	StatusPass CheckStatus = "pass"
	// StatusWarn means the component is present but its version is
	// suspect or incompatible with a sibling component.
	StatusWarn CheckStatus = "warn"
	// StatusFail means the component is absent or unusable.
	StatusFail CheckStatus = "fail"
)

// CheckResult is the advisory outcome of a single environment check.
// It never carries side effects; Recommendation is empty when there is
// nothing actionable.
type CheckResult struct {
	Name           string      `json:"name"`
	Status         CheckStatus `json:"status"`
	Message        string      `json:"message"`
	Recommendation string      `json:"recommendation,omitempty"`
}
