package usecase

import (
	"testing"

	"github.com/ledgerlens/backend/internal/domain"
)

func consistentInvoice() *domain.ExtractedInvoice {
	return &domain.ExtractedInvoice{
		OrderNumber: "111-2223334-4445556",
		OrderDate:   "2023-12-15",
		Subtotal:    "$159.98",
		Shipping:    "$5.99",
		Tax:         "$6.81",
		Total:       "$172.78",
		Vendor:      domain.Vendor,
		Items: []domain.LineItem{
			{Description: "Wireless Mouse", Quantity: 1, UnitPrice: "$129.99", TotalPrice: "$129.99", CatalogID: "B0ABCDEFGH", Currency: "USD"},
			{Description: "USB Cable", Quantity: 1, UnitPrice: "$29.99", TotalPrice: "$29.99", CatalogID: "B0HGFEDCBA", Currency: "USD"},
		},
	}
}

func hasIssue(issues []domain.ValidationIssue, issueType string) bool {
	for _, issue := range issues {
		if issue.Type == issueType {
			return true
		}
	}
	return false
}

func TestValidate_CleanInvoice(t *testing.T) {
	validator := NewValidator(ValidatorConfig{})

	result := validator.Validate(consistentInvoice(), "")

	if result.Score != 100 {
		t.Errorf("Score = %d, want 100", result.Score)
	}
	if !result.IsValid {
		t.Error("IsValid = false, want true")
	}
	if len(result.Errors) != 0 {
		t.Errorf("Errors = %v, want none", result.Errors)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", result.Warnings)
	}
}

func TestValidate_MathInconsistencyIsWarning(t *testing.T) {
	validator := NewValidator(ValidatorConfig{})

	inv := consistentInvoice()
	inv.Total = "$100.00" // far from subtotal + shipping + tax

	result := validator.Validate(inv, "")

	if !hasIssue(result.Warnings, "mathematical_inconsistency") {
		t.Fatalf("expected mathematical_inconsistency warning, got %v", result.Warnings)
	}
	if hasIssue(result.Errors, "mathematical_inconsistency") {
		t.Error("mathematical inconsistency must be a warning, not an error")
	}
	if !result.IsValid {
		t.Error("IsValid = false, want true: a math warning alone does not invalidate")
	}
	if result.Score != 95 {
		t.Errorf("Score = %d, want 95 (one medium warning)", result.Score)
	}
}

func TestValidate_MultiShipmentWidensTolerance(t *testing.T) {
	validator := NewValidator(ValidatorConfig{})

	inv := consistentInvoice()
	inv.Total = "$170.28" // 2.50 off, beyond the base tolerance

	t.Run("single shipment flags the drift", func(t *testing.T) {
		result := validator.Validate(inv, "")
		if !hasIssue(result.Warnings, "mathematical_inconsistency") {
			t.Errorf("expected warning at 2.50 drift, got %v", result.Warnings)
		}
	})

	t.Run("repeated subtotal markers absorb it", func(t *testing.T) {
		source := "Shipment 1\nSubtotal: $80.00\nShipment 2\nSubtotal: $79.98\n"
		result := validator.Validate(inv, source)
		if hasIssue(result.Warnings, "mathematical_inconsistency") {
			t.Errorf("expected no warning with widened tolerance, got %v", result.Warnings)
		}
		if result.Score != 100 {
			t.Errorf("Score = %d, want 100", result.Score)
		}
	})

	t.Run("large drift on multi-shipment is a low warning", func(t *testing.T) {
		far := consistentInvoice()
		far.Total = "$160.00" // 12.78 off, beyond even the widened tolerance
		source := "Subtotal: $80.00\nSubtotal: $79.98\n"

		result := validator.Validate(far, source)
		if !hasIssue(result.Warnings, "mathematical_inconsistency") {
			t.Fatalf("expected warning, got %v", result.Warnings)
		}
		if result.Score != 100-penaltyLowWarning {
			t.Errorf("Score = %d, want %d for a low-severity warning", result.Score, 100-penaltyLowWarning)
		}
	})
}

func TestValidate_ItemSubtotalMismatch(t *testing.T) {
	validator := NewValidator(ValidatorConfig{})

	t.Run("moderate mismatch is an error", func(t *testing.T) {
		inv := consistentInvoice()
		inv.Items[1].UnitPrice = "$25.00" // sum 154.99 vs subtotal 159.98

		result := validator.Validate(inv, "")
		if !hasIssue(result.Errors, "item_subtotal_mismatch") {
			t.Fatalf("expected item_subtotal_mismatch error, got %v", result.Errors)
		}
		if result.IsValid {
			t.Error("IsValid = true, want false with an error present")
		}
		if result.Score > 80 {
			t.Errorf("Score = %d, want at most 80 after an error", result.Score)
		}
	})

	t.Run("mismatch above ten percent is critical", func(t *testing.T) {
		inv := consistentInvoice()
		inv.Items = inv.Items[:1] // sum 129.99 vs subtotal 159.98

		result := validator.Validate(inv, "")
		if !hasIssue(result.Errors, "item_subtotal_mismatch") {
			t.Fatalf("expected item_subtotal_mismatch error, got %v", result.Errors)
		}
		if result.Errors[0].Severity != domain.SeverityCritical {
			t.Errorf("Severity = %v, want critical", result.Errors[0].Severity)
		}
		if result.IsValid {
			t.Error("IsValid = true, want false")
		}
	})

	t.Run("sub-tolerance drift is a low warning", func(t *testing.T) {
		inv := consistentInvoice()
		inv.Items[1].UnitPrice = "$29.50" // 0.49 off: above the floor, below tolerance

		result := validator.Validate(inv, "")
		if len(result.Errors) != 0 {
			t.Fatalf("Errors = %v, want none", result.Errors)
		}
		if !hasIssue(result.Warnings, "item_subtotal_drift") {
			t.Errorf("expected item_subtotal_drift warning, got %v", result.Warnings)
		}
	})
}

func TestValidate_DuplicateItemsWithDifferentPrices(t *testing.T) {
	validator := NewValidator(ValidatorConfig{})

	inv := &domain.ExtractedInvoice{
		OrderNumber: "111-2223334-4445556",
		OrderDate:   "2023-12-15",
		Subtotal:    "$249.98",
		Total:       "$249.98",
		Vendor:      domain.Vendor,
		Items: []domain.LineItem{
			{Description: "Wireless Mouse", Quantity: 1, UnitPrice: "$129.99", CatalogID: "B0ABCDEFGH", Currency: "USD"},
			{Description: "Wireless Mouse", Quantity: 1, UnitPrice: "$119.99", CatalogID: "B0ABCDEFGH", Currency: "USD"},
		},
	}

	result := validator.Validate(inv, "")

	if !hasIssue(result.Errors, "duplicate_item_different_prices") {
		t.Fatalf("expected duplicate_item_different_prices error, got %v", result.Errors)
	}
	if result.IsValid {
		t.Error("IsValid = true, want false for conflicting duplicate prices")
	}
	if result.Score != 100-penaltyError-penaltyCriticalExtra {
		t.Errorf("Score = %d, want %d", result.Score, 100-penaltyError-penaltyCriticalExtra)
	}
}

func TestValidate_PriceSanity(t *testing.T) {
	validator := NewValidator(ValidatorConfig{})

	t.Run("extreme unit price is critical", func(t *testing.T) {
		inv := &domain.ExtractedInvoice{
			OrderNumber: "111-2223334-4445556",
			OrderDate:   "2023-12-15",
			Subtotal:    "$15,000.00",
			Total:       "$15,000.00",
			Vendor:      domain.Vendor,
			Items: []domain.LineItem{
				{Description: "Headphones", Quantity: 1, UnitPrice: "$15,000.00", Currency: "USD"},
			},
		}

		result := validator.Validate(inv, "")
		if !hasIssue(result.Errors, "extreme_unit_price") {
			t.Fatalf("expected extreme_unit_price error, got %v", result.Errors)
		}
		if result.IsValid {
			t.Error("IsValid = true, want false")
		}
	})

	t.Run("high unit price is a warning", func(t *testing.T) {
		inv := &domain.ExtractedInvoice{
			OrderNumber: "111-2223334-4445556",
			OrderDate:   "2023-12-15",
			Subtotal:    "$1,500.00",
			Total:       "$1,500.00",
			Vendor:      domain.Vendor,
			Items: []domain.LineItem{
				{Description: "Camera", Quantity: 1, UnitPrice: "$1,500.00", Currency: "USD"},
			},
		}

		result := validator.Validate(inv, "")
		if !hasIssue(result.Warnings, "suspicious_unit_price") {
			t.Fatalf("expected suspicious_unit_price warning, got %v", result.Warnings)
		}
		if !result.IsValid {
			t.Error("IsValid = false, want true for a warning-only finding")
		}
	})
}

func TestValidate_Dates(t *testing.T) {
	validator := NewValidator(ValidatorConfig{})

	t.Run("missing date is a warning", func(t *testing.T) {
		inv := consistentInvoice()
		inv.OrderDate = ""

		result := validator.Validate(inv, "")
		if !hasIssue(result.Warnings, "missing_order_date") {
			t.Errorf("expected missing_order_date warning, got %v", result.Warnings)
		}
	})

	t.Run("epoch placeholder is an error", func(t *testing.T) {
		inv := consistentInvoice()
		inv.OrderDate = "1970-01-01"

		result := validator.Validate(inv, "")
		if !hasIssue(result.Errors, "invalid_order_date") {
			t.Errorf("expected invalid_order_date error, got %v", result.Errors)
		}
		if result.IsValid {
			t.Error("IsValid = true, want false")
		}
	})

	t.Run("pre-marketplace year is a warning", func(t *testing.T) {
		inv := consistentInvoice()
		inv.OrderDate = "1992-05-01"

		result := validator.Validate(inv, "")
		if !hasIssue(result.Warnings, "implausible_order_year") {
			t.Errorf("expected implausible_order_year warning, got %v", result.Warnings)
		}
	})
}

func TestValidate_MixedCurrencies(t *testing.T) {
	validator := NewValidator(ValidatorConfig{})

	inv := consistentInvoice()
	inv.Total = "176,46 €"

	result := validator.Validate(inv, "")
	if !hasIssue(result.Warnings, "mixed_currencies") {
		t.Errorf("expected mixed_currencies warning, got %v", result.Warnings)
	}
}

func TestValidate_Completeness(t *testing.T) {
	validator := NewValidator(ValidatorConfig{})

	t.Run("missing order number costs at least twenty points", func(t *testing.T) {
		inv := consistentInvoice()
		inv.OrderNumber = ""

		result := validator.Validate(inv, "")
		if !hasIssue(result.Errors, "missing_order_number") {
			t.Fatalf("expected missing_order_number error, got %v", result.Errors)
		}
		if result.IsValid {
			t.Error("IsValid = true, want false")
		}
		if result.Score > 80 {
			t.Errorf("Score = %d, want at most 80", result.Score)
		}
	})

	t.Run("subtotal with no items is a warning", func(t *testing.T) {
		inv := consistentInvoice()
		inv.Items = nil

		result := validator.Validate(inv, "")
		if !hasIssue(result.Warnings, "no_items_extracted") {
			t.Errorf("expected no_items_extracted warning, got %v", result.Warnings)
		}
	})
}

func TestValidate_NeverFails(t *testing.T) {
	validator := NewValidator(ValidatorConfig{})

	// A structurally empty invoice must still produce a graded result
	result := validator.Validate(&domain.ExtractedInvoice{}, "")

	if result == nil {
		t.Fatal("Validate() returned nil")
	}
	if result.IsValid {
		t.Error("IsValid = true, want false for an empty invoice")
	}
	if result.Score >= 100 {
		t.Errorf("Score = %d, want below 100", result.Score)
	}
}
