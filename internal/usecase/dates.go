package usecase

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Per-language month tables, including common abbreviations. All lookups are
// lowercase; accented and unaccented spellings are both present because
// upstream text extraction is inconsistent about diacritics.
var monthTables = map[string]map[string]int{
	"en": {
		"january": 1, "february": 2, "march": 3, "april": 4, "may": 5, "june": 6,
		"july": 7, "august": 8, "september": 9, "october": 10, "november": 11, "december": 12,
		"jan": 1, "feb": 2, "mar": 3, "apr": 4, "jun": 6, "jul": 7, "aug": 8,
		"sep": 9, "sept": 9, "oct": 10, "nov": 11, "dec": 12,
	},
	"de": {
		"januar": 1, "februar": 2, "märz": 3, "maerz": 3, "april": 4, "mai": 5,
		"juni": 6, "juli": 7, "august": 8, "september": 9, "oktober": 10,
		"november": 11, "dezember": 12, "dez": 12, "okt": 10,
	},
	"fr": {
		"janvier": 1, "février": 2, "fevrier": 2, "mars": 3, "avril": 4, "mai": 5,
		"juin": 6, "juillet": 7, "août": 8, "aout": 8, "septembre": 9,
		"octobre": 10, "novembre": 11, "décembre": 12, "decembre": 12,
	},
	"it": {
		"gennaio": 1, "febbraio": 2, "marzo": 3, "aprile": 4, "maggio": 5,
		"giugno": 6, "luglio": 7, "agosto": 8, "settembre": 9, "ottobre": 10,
		"novembre": 11, "dicembre": 12,
	},
	"es": {
		"enero": 1, "febrero": 2, "marzo": 3, "abril": 4, "mayo": 5, "junio": 6,
		"julio": 7, "agosto": 8, "septiembre": 9, "octubre": 10,
		"noviembre": 11, "diciembre": 12,
	},
}

// dateOrder tags how a date strategy's capture groups are arranged
type dateOrder int

const (
	orderMonthNameFirst dateOrder = iota // (month name, day, year)
	orderDayFirstName                    // (day, month name, year)
	orderNumericDMY                      // (day, month, year)
	orderNumericMDY                      // (month, day, year)
	orderISO                             // (year, month, day)
)

// dateStrategy pairs a pattern with the token ordering of its groups
type dateStrategy struct {
	re    *regexp.Regexp
	order dateOrder
}

// Shared date strategies, referenced by the per-locale rule banks
var (
	dateMonthNameFirst = dateStrategy{
		re:    regexp.MustCompile(`(?i)\b(\p{L}+)\.?\s+(\d{1,2}),?\s+(\d{4})\b`),
		order: orderMonthNameFirst,
	}
	dateDayFirstName = dateStrategy{
		// Covers "15. Dezember 2023", "15 décembre 2023", "15 de diciembre de 2023"
		re:    regexp.MustCompile(`(?i)\b(\d{1,2})\.?\s*(?:de\s+)?(\p{L}+)\.?\s*(?:de\s+)?(\d{4})\b`),
		order: orderDayFirstName,
	}
	dateNumericDMY = dateStrategy{
		re:    regexp.MustCompile(`\b(\d{1,2})\.(\d{1,2})\.(\d{4})\b`),
		order: orderNumericDMY,
	}
	dateNumericMDY = dateStrategy{
		re:    regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`),
		order: orderNumericMDY,
	}
	dateISO = dateStrategy{
		re:    regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`),
		order: orderISO,
	}
)

// resolveDate turns a strategy match into a canonical ISO date. A candidate
// whose month word is unknown or whose calendar values are impossible is a
// structural mismatch: the strategy simply did not match.
func resolveDate(match []string, order dateOrder) (string, bool) {
	if len(match) < 4 {
		return "", false
	}

	var year, month, day int
	var ok bool

	switch order {
	case orderMonthNameFirst:
		month, ok = resolveMonth(match[1])
		if !ok {
			return "", false
		}
		day = atoi(match[2])
		year = atoi(match[3])
	case orderDayFirstName:
		day = atoi(match[1])
		month, ok = resolveMonth(match[2])
		if !ok {
			return "", false
		}
		year = atoi(match[3])
	case orderNumericDMY:
		day, month, year = atoi(match[1]), atoi(match[2]), atoi(match[3])
	case orderNumericMDY:
		month, day, year = atoi(match[1]), atoi(match[2]), atoi(match[3])
	case orderISO:
		year, month, day = atoi(match[1]), atoi(match[2]), atoi(match[3])
	}

	if !validDate(year, month, day) {
		return "", false
	}

	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
}

// resolveMonth looks a month word up across every language table
func resolveMonth(word string) (int, bool) {
	lower := strings.ToLower(strings.TrimSuffix(word, "."))
	for _, table := range monthTables {
		if m, ok := table[lower]; ok {
			return m, true
		}
	}
	return 0, false
}

// validDate rejects impossible calendar values, leap years included
func validDate(year, month, day int) bool {
	if year < 1000 || year > 9999 {
		return false
	}
	if month < 1 || month > 12 {
		return false
	}
	return day >= 1 && day <= daysInMonth(year, month)
}

func daysInMonth(year, month int) int {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	default: // February
		if isLeapYear(year) {
			return 29
		}
		return 28
	}
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
