package domain

// Format is the top-level invoice layout family.
type Format string

const (
	FormatDomestic      Format = "domestic"      // amazon.com, US English layout
	FormatInternational Format = "international" // amazon.de, German layout
	FormatNone          Format = "none"
)

// Subtype sub-classifies the international format.
type Subtype string

const (
	SubtypeBusiness Subtype = "business"
	SubtypeConsumer Subtype = "consumer"
	SubtypeNone     Subtype = "none"
)

// QualityLevel bands the classifier confidence into a coarse data-quality signal.
type QualityLevel string

const (
	QualityVeryLow QualityLevel = "very_low"
	QualityLow     QualityLevel = "low"
	QualityMedium  QualityLevel = "medium"
	QualityHigh    QualityLevel = "high"
)

// RecommendedAction is advisory only; routing does not depend on it.
type RecommendedAction string

const (
	ActionAccept RecommendedAction = "accept"
	ActionReview RecommendedAction = "review"
	ActionReject RecommendedAction = "reject"
)

// FormatClassification is the immutable outcome of format scoring.
type FormatClassification struct {
	Format     Format            `json:"format"`
	Subtype    Subtype           `json:"subtype"`
	Confidence int               `json:"confidence"` // 0-100 band
	Quality    QualityLevel      `json:"qualityLevel"`
	Action     RecommendedAction `json:"recommendedAction"`
	Scores     map[Format]int    `json:"perFormatScores"`

	// SubtypeDefaulted marks a subtype that fell through to consumer with no
	// signal either way, so downstream consumers can treat it as low-confidence
	// rather than a positive identification.
	SubtypeDefaulted bool `json:"subtypeDefaulted,omitempty"`
}
