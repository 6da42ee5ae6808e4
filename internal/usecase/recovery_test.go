package usecase

import (
	"errors"
	"testing"

	"github.com/ledgerlens/backend/internal/domain"
)

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name  string
		cause error
		want  domain.ErrorCategory
	}{
		{"empty input is critical", domain.ErrEmptyInput, domain.CategoryCritical},
		{"unreadable document is critical", domain.ErrUnreadableDocument, domain.CategoryCritical},
		{"wrapped critical stays critical", errors.Join(errors.New("read"), domain.ErrUnreadableDocument), domain.CategoryCritical},
		{"validation failure is informational", errors.New("validation rejected the result"), domain.CategoryInformational},
		{"anything else is recoverable", errors.New("pattern bank exhausted"), domain.CategoryRecoverable},
		{"nil is recoverable", nil, domain.CategoryRecoverable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := categorizeError(tt.cause); got != tt.want {
				t.Errorf("categorizeError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecover_CriticalIsNeverUsable(t *testing.T) {
	controller := NewRecoveryController(RecoveryConfig{})

	record, partial := controller.Recover("", domain.ErrEmptyInput)

	if record.Category != domain.CategoryCritical {
		t.Errorf("Category = %v, want critical", record.Category)
	}
	if record.Usable {
		t.Error("Usable = true, want false for a critical failure")
	}
	if partial != nil {
		t.Error("partial result should be nil when unusable")
	}
	if record.OverallConfidence != 0 {
		t.Errorf("OverallConfidence = %v, want 0", record.OverallConfidence)
	}
	if len(record.Suggestions) == 0 {
		t.Error("expected suggestions even on the critical path")
	}
}

func TestRecover_SalvagesIdentifiableDocument(t *testing.T) {
	controller := NewRecoveryController(RecoveryConfig{})

	// Enough structure for the broad rule banks to find the anchor fields
	text := `the order was placed with total shipping charges below
Order # 111-2223334-4445556
Order Placed: December 15, 2023
Order Total: $172.78`

	record, partial := controller.Recover(text, errors.New("extraction produced nothing"))

	if record.Category != domain.CategoryRecoverable {
		t.Fatalf("Category = %v, want recoverable", record.Category)
	}
	if record.FieldConfidence["order_number"] != 1 {
		t.Errorf("order_number confidence = %v, want 1", record.FieldConfidence["order_number"])
	}
	if record.FieldConfidence["order_date"] != 1 {
		t.Errorf("order_date confidence = %v, want 1", record.FieldConfidence["order_date"])
	}
	if !record.Usable {
		t.Fatalf("Usable = false, want true; confidences: %v", record.FieldConfidence)
	}
	if partial == nil {
		t.Fatal("partial = nil, want a salvaged invoice")
	}
	if partial.OrderNumber != "111-2223334-4445556" {
		t.Errorf("OrderNumber = %q, want 111-2223334-4445556", partial.OrderNumber)
	}
	if partial.OrderDate != "2023-12-15" {
		t.Errorf("OrderDate = %q, want 2023-12-15", partial.OrderDate)
	}
}

func TestRecover_UnidentifiableDocumentIsUnusable(t *testing.T) {
	controller := NewRecoveryController(RecoveryConfig{})

	record, partial := controller.Recover("no identifiers anywhere in this text", errors.New("extraction produced nothing"))

	if record.Usable {
		t.Error("Usable = true, want false without order number and date")
	}
	if partial != nil {
		t.Error("partial should be nil when unusable")
	}
}

func TestRecover_ConfidenceGate(t *testing.T) {
	// With the bar raised above what two recovered fields can reach, even an
	// identifiable document is rejected.
	controller := NewRecoveryController(RecoveryConfig{MinUsableConfidence: 0.9})

	text := "Order # 111-2223334-4445556 placed the order\nOrder Placed: December 15, 2023"
	record, partial := controller.Recover(text, errors.New("extraction produced nothing"))

	if record.Usable {
		t.Errorf("Usable = true, want false at overall %v against bar 0.9", record.OverallConfidence)
	}
	if partial != nil {
		t.Error("partial should be nil when below the confidence bar")
	}
}
