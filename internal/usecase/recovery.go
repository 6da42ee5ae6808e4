package usecase

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/ledgerlens/backend/internal/domain"
)

// defaultMinUsableConfidence is the overall-confidence bar a recovered result
// must clear to be returned to callers.
const defaultMinUsableConfidence = 0.3

// recoveryFields are the fields the controller attempts to re-extract,
// weighted equally in the overall confidence.
var recoveryFields = []string{"order_number", "order_date", "subtotal", "total", "items"}

// RecoveryConfig holds tuning for the recovery controller
type RecoveryConfig struct {
	MinUsableConfidence float64
	EnableDebugLogging  bool
}

// RecoveryController is the failure path of the pipeline. When the normal
// parse fails it re-runs extraction field by field with broad rule banks,
// grades what survived, and decides whether the partial result is worth
// returning at all.
type RecoveryController struct {
	minUsable          float64
	enableDebugLogging bool
}

// NewRecoveryController creates a recovery controller
func NewRecoveryController(config RecoveryConfig) *RecoveryController {
	minUsable := config.MinUsableConfidence
	if minUsable <= 0 || minUsable >= 1 {
		minUsable = defaultMinUsableConfidence
	}
	return &RecoveryController{
		minUsable:          minUsable,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// Recover attempts a degraded parse of the original text. The returned
// invoice is nil when nothing usable could be salvaged; the record is always
// returned.
func (r *RecoveryController) Recover(text string, cause error) (*domain.RecoveryRecord, *domain.ExtractedInvoice) {
	record := &domain.RecoveryRecord{
		Category:        categorizeError(cause),
		OriginalError:   errorMessage(cause),
		FieldConfidence: zeroConfidences(),
	}

	var partial *domain.ExtractedInvoice
	if record.Category != domain.CategoryCritical && strings.TrimSpace(text) != "" {
		partial = r.reextract(text, record)
	}

	record.OverallConfidence = overallConfidence(record.FieldConfidence)
	record.Usable = record.FieldConfidence["order_number"] > 0 &&
		record.FieldConfidence["order_date"] > 0 &&
		record.OverallConfidence > r.minUsable
	record.Suggestions = buildSuggestions(record)

	if r.enableDebugLogging {
		log.Printf("[RECOVER] category=%s overall=%.2f usable=%v cause=%q",
			record.Category, record.OverallConfidence, record.Usable, record.OriginalError)
	}

	if !record.Usable {
		return record, nil
	}
	return record, partial
}

// reextract runs the broadest applicable rule bank one field at a time. Each
// field is isolated: a panic in one strategy costs only that field.
func (r *RecoveryController) reextract(text string, record *domain.RecoveryRecord) *domain.ExtractedInvoice {
	variant := recoveryVariant(text)

	inv := &domain.ExtractedInvoice{
		Items:  []domain.LineItem{},
		Vendor: domain.Vendor,
	}

	recoverField(record, "order_number", func() bool {
		inv.OrderNumber = extractOrderNumber(text, variant.patterns.orderNumber)
		return inv.OrderNumber != ""
	})
	recoverField(record, "order_date", func() bool {
		inv.OrderDate = extractOrderDate(text, variant.patterns.orderDate)
		return inv.OrderDate != ""
	})
	recoverField(record, "subtotal", func() bool {
		inv.Subtotal = extractMoneyField(text, variant.patterns.subtotal)
		return inv.Subtotal != ""
	})
	recoverField(record, "total", func() bool {
		inv.Total = extractMoneyField(text, variant.patterns.total)
		return inv.Total != ""
	})
	recoverField(record, "items", func() bool {
		extractor := &Extractor{}
		inv.Items = extractor.extractItems(text, variant.layout)
		return len(inv.Items) > 0
	})

	return inv
}

// recoveryVariant picks the widest rule bank the text supports: the detected
// language's legacy variant when one matches, otherwise the minimal one.
func recoveryVariant(text string) *parserVariant {
	detection := detectLanguage(text)
	if detection.Confidence > 0 {
		if variant, ok := languageRoutes[detection.Language]; ok {
			return variant
		}
	}
	return variantMinimal
}

// recoverField marks the field confidence 1 when the attempt both returns a
// value and does not panic
func recoverField(record *domain.RecoveryRecord, field string, attempt func() bool) {
	defer func() {
		if recover() != nil {
			record.FieldConfidence[field] = 0
		}
	}()
	if attempt() {
		record.FieldConfidence[field] = 1
	}
}

// categorizeError buckets the original failure. Validation-originated
// failures are informational: the data was extracted, it just did not check
// out.
func categorizeError(cause error) domain.ErrorCategory {
	switch {
	case cause == nil:
		return domain.CategoryRecoverable
	case errors.Is(cause, domain.ErrEmptyInput), errors.Is(cause, domain.ErrUnreadableDocument):
		return domain.CategoryCritical
	case strings.Contains(strings.ToLower(cause.Error()), "validation"):
		return domain.CategoryInformational
	default:
		return domain.CategoryRecoverable
	}
}

func errorMessage(cause error) string {
	if cause == nil {
		return "unknown failure"
	}
	return cause.Error()
}

func zeroConfidences() map[string]float64 {
	confidences := make(map[string]float64, len(recoveryFields))
	for _, field := range recoveryFields {
		confidences[field] = 0
	}
	return confidences
}

func overallConfidence(confidences map[string]float64) float64 {
	if len(confidences) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range confidences {
		sum += c
	}
	return sum / float64(len(confidences))
}

// buildSuggestions ranks remediation advice, most actionable first
func buildSuggestions(record *domain.RecoveryRecord) []string {
	var suggestions []string

	switch record.Category {
	case domain.CategoryCritical:
		suggestions = append(suggestions,
			"verify the document is readable text and not empty",
			"re-export or re-scan the source document before retrying")
	case domain.CategoryInformational:
		suggestions = append(suggestions,
			"review the validation findings; the extracted data may still be correct",
			"check the source document for multi-shipment or promotional adjustments")
	default:
		suggestions = append(suggestions,
			"check whether the document is a supported marketplace invoice layout")
		for _, field := range recoveryFields {
			if record.FieldConfidence[field] == 0 {
				suggestions = append(suggestions,
					fmt.Sprintf("the %s could not be located; check its label formatting", strings.ReplaceAll(field, "_", " ")))
			}
		}
	}

	switch {
	case record.OverallConfidence >= 0.8:
		suggestions = append(suggestions, "recovered data is near-complete and likely reliable")
	case record.OverallConfidence >= 0.4:
		suggestions = append(suggestions, "recovered data is partial; treat amounts as unverified")
	default:
		suggestions = append(suggestions, "recovered data is sparse; manual review is required")
	}

	return suggestions
}
