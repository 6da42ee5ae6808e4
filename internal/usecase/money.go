package usecase

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Amount shapes as they appear in source text, original formatting included.
// Monetary output fields keep whatever shape matched; numeric parsing happens
// only inside validation and consistency logic.
var (
	usAmountRegex = regexp.MustCompile(`\$\s?\d[\d,]*\.\d{2}`)
	euAmountRegex = regexp.MustCompile(`\d[\d. ]*,\d{2}\s?€|€\s?\d[\d. ]*,\d{2}`)
)

// anyAmountPattern accepts every shape, symbol-marked or bare; the minimal
// variant's rule bank embeds it because it cannot assume a locale.
const anyAmountPattern = `\$\s?\d[\d,]*\.\d{2}|\d[\d. ]*,\d{2}\s?€|€\s?\d[\d. ]*,\d{2}|\d[\d,]*\.\d{2}|\d[\d.]*,\d{2}`

// parseAmount reads a locale-formatted monetary string. Returns the numeric
// value, the detected currency code ("" when no symbol is present), and
// whether parsing succeeded.
func parseAmount(raw string) (float64, string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, "", false
	}

	currency := detectCurrency(s)

	// Keep only digits and separators
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	num := strings.Trim(b.String(), ".,")
	if num == "" {
		return 0, currency, false
	}

	lastDot := strings.LastIndex(num, ".")
	lastComma := strings.LastIndex(num, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		// The later separator is the decimal mark, the other groups thousands
		if lastComma > lastDot {
			num = strings.ReplaceAll(num, ".", "")
			num = strings.Replace(num, ",", ".", 1)
		} else {
			num = strings.ReplaceAll(num, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(num, ",") == 1 && len(num)-lastComma == 3 {
			num = strings.Replace(num, ",", ".", 1)
		} else {
			num = strings.ReplaceAll(num, ",", "")
		}
	case lastDot >= 0:
		if strings.Count(num, ".") == 1 && len(num)-lastDot == 3 {
			// already decimal
		} else {
			num = strings.ReplaceAll(num, ".", "")
		}
	}

	value, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, currency, false
	}

	return value, currency, true
}

// detectCurrency identifies the currency of a formatted amount from its
// symbol or code; unmarked amounts yield "".
func detectCurrency(raw string) string {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(raw, "$") || strings.Contains(lower, "usd"):
		return "USD"
	case strings.Contains(raw, "€") || strings.Contains(lower, "eur"):
		return "EUR"
	case strings.Contains(raw, "£") || strings.Contains(lower, "gbp"):
		return "GBP"
	default:
		return ""
	}
}

// formatAmount renders a numeric value in the locale formatting of the given
// currency. Used only for derived fields (e.g. a subtotal reconstructed from
// item totals); extracted fields always keep their source formatting.
func formatAmount(value float64, currency string) string {
	cents := fmt.Sprintf("%.2f", value)
	parts := strings.SplitN(cents, ".", 2)

	switch currency {
	case "EUR":
		return groupThousands(parts[0], ".") + "," + parts[1] + " €"
	case "USD":
		return "$" + groupThousands(parts[0], ",") + "." + parts[1]
	default:
		return cents
	}
}

// groupThousands inserts a separator every three digits from the right
func groupThousands(digits, sep string) string {
	if len(digits) <= 3 {
		return digits
	}
	var groups []string
	for len(digits) > 3 {
		groups = append([]string{digits[len(digits)-3:]}, groups...)
		digits = digits[:len(digits)-3]
	}
	return digits + sep + strings.Join(groups, sep)
}

// amountDigits strips an amount down to its bare digit sequence, for
// comparing two differently formatted amounts
func amountDigits(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
