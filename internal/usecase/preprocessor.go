package usecase

import (
	"regexp"
	"strings"

	"github.com/ledgerlens/backend/internal/domain"
)

// Compiled patterns for locale-agnostic text cleanup
var (
	crlfRegex       = regexp.MustCompile(`\r\n?`)
	tabRegex        = regexp.MustCompile(`\t+`)
	multiSpaceRegex = regexp.MustCompile(` {2,}`)
	multiBlankRegex = regexp.MustCompile(`\n{3,}`)
	zeroWidthRegex  = regexp.MustCompile("[\u200b\u200c\u200d\ufeff]")
	ruleNoiseRegex  = regexp.MustCompile(`(?m)^\s*[_\-=]{4,}\s*$`)
)

// Preprocess fixes whitespace and encoding artifacts without any locale
// knowledge. It is a pure function, idempotent, and safe on arbitrary input;
// empty input yields an empty string.
func Preprocess(text string) string {
	if text == "" {
		return ""
	}

	s := crlfRegex.ReplaceAllString(text, "\n")
	s = zeroWidthRegex.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "\u00a0", " ") // NBSP
	s = strings.ReplaceAll(s, "\u202f", " ") // narrow NBSP
	s = tabRegex.ReplaceAllString(s, " ")
	s = ruleNoiseRegex.ReplaceAllString(s, "")
	s = multiSpaceRegex.ReplaceAllString(s, " ")
	s = multiBlankRegex.ReplaceAllString(s, "\n\n")

	// Trim trailing spaces per line
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	s = strings.Join(lines, "\n")

	return strings.TrimSpace(s)
}

// Patterns whose meaning is only unambiguous once the format is known
var (
	// "$ 172.78" -> "$172.78"
	spacedDollarRegex = regexp.MustCompile(`\$\s+(\d)`)
	// "Dec. 15, 2023" -> "Dec 15, 2023"
	abbrevMonthDotRegex = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|jun|jul|aug|sep|sept|oct|nov|dec)\.\s`)
	// "1 176,46" -> "1.176,46": a space inside a comma-decimal number is a
	// thousands group, but only once we know the layout is comma-decimal
	spacedThousandsRegex = regexp.MustCompile(`\b(\d{1,3}) (\d{3}),(\d{2})\b`)
	// "EUR 176,46" / "176,46 EUR" -> "176,46 €"
	eurPrefixRegex = regexp.MustCompile(`(?i)\bEUR\s*(\d[\d.]*,\d{2})`)
	eurSuffixRegex = regexp.MustCompile(`(?i)(\d[\d.]*,\d{2})\s*EUR\b`)
)

// PreprocessForFormat applies numeric and date token normalization that needs
// the resolved format. Unresolved classifications pass through untouched.
func PreprocessForFormat(text string, format domain.Format) string {
	switch format {
	case domain.FormatDomestic:
		s := spacedDollarRegex.ReplaceAllString(text, "$$$1")
		return abbrevMonthDotRegex.ReplaceAllString(s, "$1 ")
	case domain.FormatInternational:
		s := spacedThousandsRegex.ReplaceAllString(text, "$1.$2,$3")
		s = eurPrefixRegex.ReplaceAllString(s, "$1 €")
		return eurSuffixRegex.ReplaceAllString(s, "$1 €")
	default:
		return text
	}
}
