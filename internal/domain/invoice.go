package domain

import "time"

// Vendor is the marketplace all supported invoice layouts come from.
const Vendor = "amazon"

// ExtractedInvoice is the structured purchase record produced by the pipeline.
// Monetary fields keep their original locale formatting ("$172.78", "176,46 €");
// they are never numerically coerced on the way out.
type ExtractedInvoice struct {
	OrderNumber string     `json:"orderNumber,omitempty"`
	OrderDate   string     `json:"orderDate,omitempty"` // ISO yyyy-mm-dd
	Items       []LineItem `json:"items"`
	Subtotal    string     `json:"subtotal,omitempty"`
	Shipping    string     `json:"shipping,omitempty"`
	Tax         string     `json:"tax,omitempty"`
	Discount    string     `json:"discount,omitempty"`
	Total       string     `json:"total,omitempty"`
	Vendor      string     `json:"vendor"`

	LanguageDetection    *LanguageDetection    `json:"languageDetection,omitempty"`
	FormatClassification *FormatClassification `json:"formatClassification,omitempty"`
	Validation           *ValidationResult     `json:"validation,omitempty"`
	Recovery             *RecoveryRecord       `json:"recovery,omitempty"`

	ProcessingMetadata ProcessingMetadata `json:"processingMetadata"`
	PerformanceMetrics PerformanceMetrics `json:"performanceMetrics"`
}

// LineItem is a single purchased position, owned by its invoice.
type LineItem struct {
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unitPrice,omitempty"`
	TotalPrice  string `json:"totalPrice,omitempty"`
	CatalogID   string `json:"catalogId,omitempty"`
	Currency    string `json:"currency,omitempty"`
}

// LanguageDetection reports the language the routing fallback resolved to.
type LanguageDetection struct {
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"` // 0-1, fraction of marker hits
}

// ProcessingMetadata describes how a result was produced.
type ProcessingMetadata struct {
	DocumentID    string    `json:"documentId"`
	ParserVariant string    `json:"parserVariant"`
	ProcessedAt   time.Time `json:"processedAt"`
	CacheHit      bool      `json:"cacheHit"`
}

// PerformanceMetrics carries per-stage and cumulative timings.
type PerformanceMetrics struct {
	StageMillis      map[string]float64 `json:"stageMillis"`
	TotalMillis      float64            `json:"totalMillis"`
	FieldSuccessRate float64            `json:"fieldSuccessRate"` // extracted / expected top-level fields
}

// ParseOptions are caller-supplied knobs for a single parse call.
type ParseOptions struct {
	Debug bool `json:"debug"`
}
