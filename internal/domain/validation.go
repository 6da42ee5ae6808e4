package domain

// Severity grades a validation finding.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ValidationIssue is a single data-quality finding. Issues are data attached to
// the output, never errors in the Go sense.
type ValidationIssue struct {
	Type     string   `json:"type"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Fields   []string `json:"fields,omitempty"`
}

// ValidationResult is the cross-field consistency report for one invoice.
// Score starts at 100 and only goes down as findings accumulate; it never
// drops below 0. IsValid is false whenever Errors is non-empty.
type ValidationResult struct {
	Score    int               `json:"score"`
	IsValid  bool              `json:"isValid"`
	Warnings []ValidationIssue `json:"warnings"`
	Errors   []ValidationIssue `json:"errors"`
	Summary  string            `json:"summary"`
}
