package usecase

import (
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/ledgerlens/backend/internal/domain"
)

// Item layout patterns
var (
	usItemHeadRegex     = regexp.MustCompile(`(?i)^\s*(\d+)\s+(?:of:|x)\s*(.+)$`)
	quantityPrefixRegex = regexp.MustCompile(`^\s*(\d+)\s*x\b`)
	// Column runs may arrive collapsed to single spaces, so the row is held
	// together by its distinctive fields, not by the separator width
	euBusinessRowRegex = regexp.MustCompile(`(?m)^\s*(\d+)\s+(.+?)\s+(B0[A-Z0-9]{8})\s+(\d[\d.]*,\d{2}\s?€)\s+(\d[\d.]*,\d{2}\s?€)\s*$`)
)

// itemScanWindow is how many lines below an item anchor are searched for
// prices and catalog ids.
const itemScanWindow = 3

// Extractor turns preprocessed text into an invoice aggregate using the rule
// bank of the routed parser variant. It never fails: fields whose strategies
// all miss are simply absent from the result.
type Extractor struct {
	enableDebugLogging bool
}

// NewExtractor creates an extractor
func NewExtractor(enableDebugLogging bool) *Extractor {
	return &Extractor{enableDebugLogging: enableDebugLogging}
}

// Extract runs every field's ordered strategies; first surviving match wins.
func (e *Extractor) Extract(text string, variant *parserVariant) *domain.ExtractedInvoice {
	inv := &domain.ExtractedInvoice{
		Items:  []domain.LineItem{},
		Vendor: domain.Vendor,
	}

	inv.OrderNumber = extractOrderNumber(text, variant.patterns.orderNumber)
	inv.OrderDate = extractOrderDate(text, variant.patterns.orderDate)
	inv.Subtotal = extractMoneyField(text, variant.patterns.subtotal)
	inv.Shipping = extractMoneyField(text, variant.patterns.shipping)
	inv.Tax = extractMoneyField(text, variant.patterns.tax)
	inv.Total = extractMoneyField(text, variant.patterns.total)
	inv.Discount = extractMoneyField(text, variant.patterns.discount)

	inv.Items = e.extractItems(text, variant.layout)

	// A subtotal missing verbatim is reconstructed from the item totals
	if inv.Subtotal == "" && len(inv.Items) > 0 {
		if sum, currency, ok := sumItemTotals(inv.Items, variant.currency); ok {
			inv.Subtotal = formatAmount(sum, currency)
		}
	}

	if e.enableDebugLogging {
		log.Printf("[EXTRACT] variant=%s order=%q date=%q items=%d total=%q",
			variant.name, inv.OrderNumber, inv.OrderDate, len(inv.Items), inv.Total)
	}

	return inv
}

// extractOrderNumber returns the first candidate that survives shape
// validation. Candidates that merely look close are rejected so a later,
// stricter strategy can still find the real id.
func extractOrderNumber(text string, patterns []*regexp.Regexp) string {
	for _, re := range patterns {
		for _, match := range re.FindAllStringSubmatch(text, 8) {
			if len(match) > 1 && validOrderNumber(match[1]) {
				return match[1]
			}
		}
	}
	return ""
}

// validOrderNumber requires exactly three numeric groups of lengths 3, 7, 7
func validOrderNumber(candidate string) bool {
	parts := strings.Split(candidate, "-")
	if len(parts) != 3 {
		return false
	}
	lengths := []int{3, 7, 7}
	for i, part := range parts {
		if len(part) != lengths[i] {
			return false
		}
		for _, r := range part {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}

// extractOrderDate returns the first candidate that is calendar-valid
func extractOrderDate(text string, strategies []dateStrategy) string {
	for _, strategy := range strategies {
		for _, match := range strategy.re.FindAllStringSubmatch(text, 8) {
			if iso, ok := resolveDate(match, strategy.order); ok {
				return iso
			}
		}
	}
	return ""
}

// extractMoneyField returns the captured amount with its source formatting
func extractMoneyField(text string, patterns []*regexp.Regexp) string {
	for _, re := range patterns {
		if match := re.FindStringSubmatch(text); len(match) > 1 {
			return strings.TrimSpace(match[1])
		}
	}
	return ""
}

// extractItems dispatches on the variant's item layout
func (e *Extractor) extractItems(text string, layout itemLayout) []domain.LineItem {
	switch layout {
	case itemLayoutUS:
		return extractItemsUS(text)
	case itemLayoutEUConsumer:
		return extractItemsEUConsumer(text)
	case itemLayoutEUBusiness:
		return extractItemsEUBusiness(text)
	default:
		return []domain.LineItem{}
	}
}

// extractItemsUS parses "N of: description" blocks with dollar prices on the
// same or following lines.
func extractItemsUS(text string) []domain.LineItem {
	lines := strings.Split(text, "\n")
	items := []domain.LineItem{}

	for i, line := range lines {
		match := usItemHeadRegex.FindStringSubmatch(line)
		if match == nil {
			continue
		}

		item := domain.LineItem{
			Quantity:    atoi(match[1]),
			Description: strings.TrimSpace(match[2]),
		}
		if item.Quantity == 0 {
			item.Quantity = 1
		}

		amounts := windowAmounts(lines, i, usAmountRegex)
		if len(amounts) > 0 {
			item.UnitPrice = amounts[0]
			item.Currency = detectCurrency(amounts[0])
		}
		if len(amounts) > 1 {
			item.TotalPrice = amounts[1]
		} else if item.UnitPrice != "" {
			item.TotalPrice = deriveLineTotal(item.UnitPrice, item.Quantity)
		}

		if id := catalogIDRegex.FindString(windowText(lines, i)); id != "" {
			item.CatalogID = id
		}

		items = append(items, item)
	}

	return items
}

// extractItemsEUConsumer parses the consumer layout: a catalog-id-bearing
// line with the description on or above it, euro amounts on the lines below.
func extractItemsEUConsumer(text string) []domain.LineItem {
	lines := strings.Split(text, "\n")
	items := []domain.LineItem{}

	for i, line := range lines {
		id := catalogIDRegex.FindString(line)
		if id == "" {
			continue
		}

		item := domain.LineItem{Quantity: 1, CatalogID: id}

		desc := strings.TrimSpace(strings.Replace(line, id, "", 1))
		if desc == "" && i > 0 {
			desc = strings.TrimSpace(lines[i-1])
		}
		if qm := quantityPrefixRegex.FindStringSubmatch(desc); qm != nil {
			item.Quantity = atoi(qm[1])
			desc = strings.TrimSpace(desc[len(qm[0]):])
		}
		item.Description = desc

		amounts := windowAmounts(lines, i, euAmountRegex)
		if len(amounts) > 0 {
			unit := amounts[0]
			// Glued-quantity artifact: a unit price that is really the
			// quantity digit fused onto the amount of the adjacent line
			if len(amounts) > 1 {
				if corrected, gluedQty, ok := fixGluedQuantity(unit, amounts[1]); ok {
					unit = corrected
					if item.Quantity == 1 && gluedQty > 0 {
						item.Quantity = gluedQty
					}
				}
			}
			item.UnitPrice = unit
			item.Currency = detectCurrency(unit)
			item.TotalPrice = deriveLineTotal(unit, item.Quantity)
		}

		items = append(items, item)
	}

	return items
}

// extractItemsEUBusiness parses tabular rows: qty, description, catalog id,
// unit price, line total.
func extractItemsEUBusiness(text string) []domain.LineItem {
	items := []domain.LineItem{}

	for _, match := range euBusinessRowRegex.FindAllStringSubmatch(text, -1) {
		qty := atoi(match[1])
		if qty == 0 {
			qty = 1
		}
		items = append(items, domain.LineItem{
			Quantity:    qty,
			Description: strings.TrimSpace(match[2]),
			CatalogID:   match[3],
			UnitPrice:   strings.TrimSpace(match[4]),
			TotalPrice:  strings.TrimSpace(match[5]),
			Currency:    "EUR",
		})
	}

	return items
}

// fixGluedQuantity detects the OCR artifact where the quantity digit fuses
// onto the price ("1176,46" for quantity 1 at "176,46"). The adjacent
// subtotal/total amount disambiguates: if dropping a 1-2 digit prefix from
// the candidate reproduces the adjacent amount exactly, the prefix was the
// quantity and the adjacent amount is the true unit price.
func fixGluedQuantity(candidate, adjacent string) (string, int, bool) {
	candDigits := amountDigits(candidate)
	adjDigits := amountDigits(adjacent)

	// Only suspicious when the integer part is 4+ digits with no grouping
	if strings.Contains(candidate, ".") || len(candDigits) < 6 {
		return "", 0, false
	}
	if len(candDigits) <= len(adjDigits) || !strings.HasSuffix(candDigits, adjDigits) {
		return "", 0, false
	}

	prefix := candDigits[:len(candDigits)-len(adjDigits)]
	if len(prefix) > 2 {
		return "", 0, false
	}

	qty, err := strconv.Atoi(prefix)
	if err != nil || qty == 0 {
		return "", 0, false
	}

	return strings.TrimSpace(adjacent), qty, true
}

// windowAmounts collects formatted amounts on the anchor line and the few
// lines below it, in order of appearance.
func windowAmounts(lines []string, anchor int, re *regexp.Regexp) []string {
	var amounts []string
	for j := anchor; j < len(lines) && j <= anchor+itemScanWindow; j++ {
		for _, m := range re.FindAllString(lines[j], -1) {
			amounts = append(amounts, strings.TrimSpace(m))
		}
	}
	return amounts
}

// windowText joins the anchor line and its scan window
func windowText(lines []string, anchor int) string {
	end := anchor + itemScanWindow + 1
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[anchor:end], "\n")
}

// deriveLineTotal computes quantity x unit price in the unit price's own
// formatting. Quantity 1 passes the unit price through untouched.
func deriveLineTotal(unitPrice string, quantity int) string {
	if quantity <= 1 {
		return unitPrice
	}
	value, currency, ok := parseAmount(unitPrice)
	if !ok {
		return ""
	}
	return formatAmount(value*float64(quantity), currency)
}

// sumItemTotals adds up the parsed line totals. Fails when any line total is
// missing or unparseable, in which case no subtotal is derived.
func sumItemTotals(items []domain.LineItem, fallbackCurrency string) (float64, string, bool) {
	sum := 0.0
	currency := fallbackCurrency

	for _, item := range items {
		raw := item.TotalPrice
		if raw == "" {
			raw = item.UnitPrice
		}
		value, c, ok := parseAmount(raw)
		if !ok {
			return 0, "", false
		}
		if c != "" {
			currency = c
		}
		sum += value
	}

	return sum, currency, true
}
