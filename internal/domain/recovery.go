package domain

// ErrorCategory buckets a pipeline failure for the recovery controller.
type ErrorCategory string

const (
	CategoryCritical      ErrorCategory = "critical"      // input/file access, unrecoverable
	CategoryRecoverable   ErrorCategory = "recoverable"   // extraction/parsing failure
	CategoryInformational ErrorCategory = "informational" // validation-only
)

// RecoveryRecord is produced only on the failure path. Field confidences are
// 1 (recovered) or 0 (absent); OverallConfidence is the fraction of fields
// recovered. Usable requires order-number and order-date confidence above zero
// and an overall confidence above the configured minimum.
type RecoveryRecord struct {
	Category          ErrorCategory      `json:"category"`
	OriginalError     string             `json:"originalError"`
	FieldConfidence   map[string]float64 `json:"fieldConfidence"`
	OverallConfidence float64            `json:"overallConfidence"`
	Usable            bool               `json:"usable"`
	Suggestions       []string           `json:"suggestions"` // ranked, most actionable first
}
