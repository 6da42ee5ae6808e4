package usecase

import (
	"fmt"
	"log"
	"math"
	"regexp"
	"time"

	"github.com/ledgerlens/backend/internal/domain"
)

// Validation tuning defaults (overridable via ValidatorConfig). All of these
// are empirically tuned; see the config package.
const (
	defaultMathTolerance       = 1.00
	defaultMultiShipmentFactor = 4.0
	defaultItemSubtotalTol     = 1.00
	defaultItemSubtotalFloor   = 0.10
	defaultPriceWarn           = 1000.0
	defaultPriceCritical       = 10000.0
	defaultEarliestYear        = 1994
)

// Score penalties: fixed per-issue amounts plus severity adjustments
const (
	penaltyError         = 20
	penaltyCriticalExtra = 10 // on top of penaltyError
	penaltyWarning       = 5
	penaltyLowWarning    = 3 // low-severity warnings cost less
	maxPlausibleTotal    = 1_000_000.0
)

// subtotalMarkerRegex counts subtotal labels across locales; two or more in
// one document means the order shipped in multiple consignments.
var subtotalMarkerRegex = regexp.MustCompile(`(?i)subtotal|zwischensumme|sous-total|subtotale`)

// ValidatorConfig holds tuning for the validation engine
type ValidatorConfig struct {
	MathTolerance           float64
	MultiShipmentMultiplier float64
	ItemSubtotalTolerance   float64
	ItemSubtotalFloor       float64
	PriceWarnThreshold      float64
	PriceCriticalThreshold  float64
	EarliestPlausibleYear   int
	EnableDebugLogging      bool
}

// Validator runs cross-field consistency and data-quality checks. It never
// fails: internal problems degrade to warnings on the result.
type Validator struct {
	mathTolerance      float64
	multiShipmentMult  float64
	itemSubtotalTol    float64
	itemSubtotalFloor  float64
	priceWarn          float64
	priceCritical      float64
	earliestYear       int
	enableDebugLogging bool
}

// NewValidator creates a validator with the given configuration
func NewValidator(config ValidatorConfig) *Validator {
	v := &Validator{
		mathTolerance:      config.MathTolerance,
		multiShipmentMult:  config.MultiShipmentMultiplier,
		itemSubtotalTol:    config.ItemSubtotalTolerance,
		itemSubtotalFloor:  config.ItemSubtotalFloor,
		priceWarn:          config.PriceWarnThreshold,
		priceCritical:      config.PriceCriticalThreshold,
		earliestYear:       config.EarliestPlausibleYear,
		enableDebugLogging: config.EnableDebugLogging,
	}
	if v.mathTolerance <= 0 {
		v.mathTolerance = defaultMathTolerance
	}
	if v.multiShipmentMult < 1 {
		v.multiShipmentMult = defaultMultiShipmentFactor
	}
	if v.itemSubtotalTol <= 0 {
		v.itemSubtotalTol = defaultItemSubtotalTol
	}
	if v.itemSubtotalFloor <= 0 {
		v.itemSubtotalFloor = defaultItemSubtotalFloor
	}
	if v.priceWarn <= 0 {
		v.priceWarn = defaultPriceWarn
	}
	if v.priceCritical <= 0 {
		v.priceCritical = defaultPriceCritical
	}
	if v.earliestYear <= 0 {
		v.earliestYear = defaultEarliestYear
	}
	return v
}

// findings accumulates issues and computes the score
type findings struct {
	warnings      []domain.ValidationIssue
	errors        []domain.ValidationIssue
	penalty       int
	forcedInvalid bool
}

func (f *findings) addError(issueType string, severity domain.Severity, message string, fields ...string) {
	f.errors = append(f.errors, domain.ValidationIssue{
		Type: issueType, Severity: severity, Message: message, Fields: fields,
	})
	f.penalty += penaltyError
	if severity == domain.SeverityCritical {
		f.penalty += penaltyCriticalExtra
	}
}

func (f *findings) addWarning(issueType string, severity domain.Severity, message string, fields ...string) {
	f.warnings = append(f.warnings, domain.ValidationIssue{
		Type: issueType, Severity: severity, Message: message, Fields: fields,
	})
	switch severity {
	case domain.SeverityInfo:
		// informational findings carry no penalty
	case domain.SeverityLow:
		f.penalty += penaltyLowWarning
	default:
		f.penalty += penaltyWarning
	}
}

// Validate runs every check independently and assembles the result. The
// source text is consulted only for multi-shipment detection.
func (v *Validator) Validate(inv *domain.ExtractedInvoice, sourceText string) *domain.ValidationResult {
	f := &findings{}

	checks := []struct {
		name string
		run  func(*domain.ExtractedInvoice, string, *findings)
	}{
		{"math", v.checkMathConsistency},
		{"item_subtotal", v.checkItemSubtotal},
		{"duplicates", v.checkDuplicateItems},
		{"price_sanity", v.checkPriceSanity},
		{"dates", v.checkDateConsistency},
		{"currency", v.checkCurrencyConsistency},
		{"completeness", v.checkCompleteness},
	}

	for _, check := range checks {
		runCheck(check.name, check.run, inv, sourceText, f)
	}

	score := 100 - f.penalty
	if score < 0 {
		score = 0
	}

	result := &domain.ValidationResult{
		Score:    score,
		IsValid:  len(f.errors) == 0 && !f.forcedInvalid,
		Warnings: f.warnings,
		Errors:   f.errors,
	}
	if result.Warnings == nil {
		result.Warnings = []domain.ValidationIssue{}
	}
	if result.Errors == nil {
		result.Errors = []domain.ValidationIssue{}
	}
	result.Summary = fmt.Sprintf("%d error(s), %d warning(s); score %d/100",
		len(result.Errors), len(result.Warnings), result.Score)

	if v.enableDebugLogging {
		log.Printf("[VALIDATE] %s valid=%v", result.Summary, result.IsValid)
	}

	return result
}

// runCheck isolates a single check; a panicking check becomes a warning
// instead of taking the validation down.
func runCheck(name string, run func(*domain.ExtractedInvoice, string, *findings), inv *domain.ExtractedInvoice, sourceText string, f *findings) {
	defer func() {
		if r := recover(); r != nil {
			f.addWarning("validation_internal", domain.SeverityLow,
				fmt.Sprintf("%s check failed internally: %v", name, r))
		}
	}()
	run(inv, sourceText, f)
}

// checkMathConsistency verifies total = subtotal + shipping + tax - discount.
// Multi-shipment orders accumulate per-consignment rounding, so their
// tolerance is widened and the finding downgraded.
func (v *Validator) checkMathConsistency(inv *domain.ExtractedInvoice, sourceText string, f *findings) {
	subtotal, _, okSub := parseAmount(inv.Subtotal)
	total, _, okTot := parseAmount(inv.Total)
	if !okSub || !okTot {
		return
	}

	shipping, _, _ := parseAmount(inv.Shipping)
	tax, _, _ := parseAmount(inv.Tax)
	discount, _, _ := parseAmount(inv.Discount)

	expected := subtotal + shipping + tax - discount
	diff := math.Abs(expected - total)

	tolerance := v.mathTolerance
	severity := domain.SeverityMedium
	if isMultiShipment(sourceText, subtotal, total) {
		tolerance *= v.multiShipmentMult
		severity = domain.SeverityLow
	}

	if diff > tolerance {
		f.addWarning("mathematical_inconsistency", severity,
			fmt.Sprintf("subtotal+shipping+tax-discount = %.2f but total is %.2f", expected, total),
			"subtotal", "shipping", "tax", "total")
	}
}

// isMultiShipment detects orders split across consignments: repeated
// subtotal markers in the source, or a subtotal far above the charged total.
func isMultiShipment(sourceText string, subtotal, total float64) bool {
	if len(subtotalMarkerRegex.FindAllStringIndex(sourceText, 3)) >= 2 {
		return true
	}
	return total > 0 && subtotal > total*1.5
}

// checkItemSubtotal compares the sum of unit price x quantity with the
// stated subtotal.
func (v *Validator) checkItemSubtotal(inv *domain.ExtractedInvoice, _ string, f *findings) {
	subtotal, _, ok := parseAmount(inv.Subtotal)
	if !ok || len(inv.Items) == 0 {
		return
	}

	sum := 0.0
	for _, item := range inv.Items {
		unit, _, ok := parseAmount(item.UnitPrice)
		if !ok {
			// Cannot reconstruct the sum; leave this check to richer input
			return
		}
		qty := item.Quantity
		if qty < 1 {
			qty = 1
		}
		sum += unit * float64(qty)
	}

	diff := math.Abs(sum - subtotal)
	switch {
	case diff > v.itemSubtotalTol:
		if subtotal > 0 && diff > subtotal*0.10 {
			f.addError("item_subtotal_mismatch", domain.SeverityCritical,
				fmt.Sprintf("items sum to %.2f, more than 10%% away from subtotal %.2f", sum, subtotal),
				"items", "subtotal")
			f.forcedInvalid = true
		} else {
			f.addError("item_subtotal_mismatch", domain.SeverityMedium,
				fmt.Sprintf("items sum to %.2f but subtotal is %.2f", sum, subtotal),
				"items", "subtotal")
		}
	case diff > v.itemSubtotalFloor:
		f.addWarning("item_subtotal_drift", domain.SeverityLow,
			fmt.Sprintf("items sum to %.2f, %.2f away from subtotal", sum, diff),
			"items", "subtotal")
	}
}

// checkDuplicateItems requires items sharing a catalog id to agree on unit price
func (v *Validator) checkDuplicateItems(inv *domain.ExtractedInvoice, _ string, f *findings) {
	seen := make(map[string]float64)

	for _, item := range inv.Items {
		if item.CatalogID == "" {
			continue
		}
		unit, _, ok := parseAmount(item.UnitPrice)
		if !ok {
			continue
		}
		if prev, dup := seen[item.CatalogID]; dup {
			if math.Abs(prev-unit) > 0.001 {
				f.addError("duplicate_item_different_prices", domain.SeverityCritical,
					fmt.Sprintf("catalog id %s priced at both %.2f and %.2f", item.CatalogID, prev, unit),
					"items")
				f.forcedInvalid = true
			}
			continue
		}
		seen[item.CatalogID] = unit
	}
}

// checkPriceSanity is the second line of defense against glued-quantity OCR
// artifacts that survived extraction.
func (v *Validator) checkPriceSanity(inv *domain.ExtractedInvoice, _ string, f *findings) {
	for _, item := range inv.Items {
		unit, _, ok := parseAmount(item.UnitPrice)
		if !ok {
			continue
		}
		switch {
		case unit > v.priceCritical:
			f.addError("extreme_unit_price", domain.SeverityCritical,
				fmt.Sprintf("unit price %.2f for %q exceeds the plausible maximum", unit, item.Description),
				"items")
			f.forcedInvalid = true
		case unit > v.priceWarn:
			f.addWarning("suspicious_unit_price", domain.SeverityMedium,
				fmt.Sprintf("unit price %.2f for %q is unusually high", unit, item.Description),
				"items")
		}
	}
}

// checkDateConsistency grades the order date
func (v *Validator) checkDateConsistency(inv *domain.ExtractedInvoice, _ string, f *findings) {
	if inv.OrderDate == "" {
		f.addWarning("missing_order_date", domain.SeverityMedium, "no order date extracted", "orderDate")
		return
	}

	parsed, err := time.Parse("2006-01-02", inv.OrderDate)
	if err != nil || parsed.Year() <= 1970 {
		f.addError("invalid_order_date", domain.SeverityHigh,
			fmt.Sprintf("order date %q is a placeholder or malformed", inv.OrderDate), "orderDate")
		return
	}

	year := parsed.Year()
	if year < v.earliestYear || year > time.Now().Year()+1 {
		f.addWarning("implausible_order_year", domain.SeverityLow,
			fmt.Sprintf("order year %d is outside the plausible range", year), "orderDate")
	}
}

// checkCurrencyConsistency compares currencies across invoice-level fields
// and, separately, across item prices.
func (v *Validator) checkCurrencyConsistency(inv *domain.ExtractedInvoice, _ string, f *findings) {
	invoiceCurrencies := distinctCurrencies(inv.Subtotal, inv.Shipping, inv.Tax, inv.Discount, inv.Total)
	if len(invoiceCurrencies) > 1 {
		f.addWarning("mixed_currencies", domain.SeverityMedium,
			fmt.Sprintf("invoice fields use %d different currencies", len(invoiceCurrencies)),
			"subtotal", "shipping", "tax", "total")
		return
	}

	var itemPrices []string
	for _, item := range inv.Items {
		itemPrices = append(itemPrices, item.UnitPrice)
	}
	if len(distinctCurrencies(itemPrices...)) > 1 {
		f.addWarning("mixed_item_currencies", domain.SeverityInfo,
			"item prices use more than one currency", "items")
	}
}

// distinctCurrencies collects the distinct detected currencies, ignoring
// unmarked amounts
func distinctCurrencies(raws ...string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, raw := range raws {
		if raw == "" {
			continue
		}
		if c := detectCurrency(raw); c != "" && !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// checkCompleteness flags structurally missing or implausible core fields
func (v *Validator) checkCompleteness(inv *domain.ExtractedInvoice, _ string, f *findings) {
	if inv.OrderNumber == "" {
		f.addError("missing_order_number", domain.SeverityHigh, "no order number extracted", "orderNumber")
	}
	if inv.Total == "" {
		f.addError("missing_total", domain.SeverityHigh, "no order total extracted", "total")
	}

	if subtotal, _, ok := parseAmount(inv.Subtotal); ok && subtotal > 0 && len(inv.Items) == 0 {
		f.addWarning("no_items_extracted", domain.SeverityMedium,
			"subtotal present but no line items extracted", "items", "subtotal")
	}

	if total, _, ok := parseAmount(inv.Total); ok && (total <= 0 || total > maxPlausibleTotal) {
		f.addWarning("implausible_total", domain.SeverityLow,
			fmt.Sprintf("order total %.2f is outside the plausible magnitude", total), "total")
	}
}
