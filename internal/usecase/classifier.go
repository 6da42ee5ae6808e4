package usecase

import (
	"log"
	"regexp"
	"strings"

	"github.com/ledgerlens/backend/internal/domain"
)

// Signature weight tiers. Marketplace anchors are near-decisive, currency
// symbols and layout keywords are supporting evidence, month names are weak.
const (
	weightAnchor   = 40
	weightKeyword  = 25
	weightCurrency = 20
	weightMonth    = 15
)

// Confidence handling defaults (overridable via ClassifierConfig)
const (
	defaultAmbiguityCutoff  = 25
	defaultAmbiguityPenalty = 15
	floorConfidence         = 15 // assigned when no band is reached
	minReducedConfidence    = 5  // ambiguity reduction never goes below this
)

type signature struct {
	token  string
	weight int
}

// domesticSignatures score the amazon.com US English layout.
var domesticSignatures = []signature{
	{"amazon.com", weightAnchor},
	{"grand total", weightKeyword},
	{"order placed", 22},
	{"order total", weightCurrency},
	{"items shipped", weightCurrency},
	{"$", weightCurrency},
	{"usd", weightCurrency},
	{"january", weightMonth}, {"february", weightMonth}, {"march", weightMonth},
	{"april", weightMonth}, {"may", weightMonth}, {"june", weightMonth},
	{"july", weightMonth}, {"august", weightMonth}, {"september", weightMonth},
	{"october", weightMonth}, {"november", weightMonth}, {"december", weightMonth},
}

// internationalSignatures score the amazon.de German layout.
var internationalSignatures = []signature{
	{"amazon.de", weightAnchor},
	{"rechnung", weightKeyword},
	{"bestellung aufgegeben", 22},
	{"gesamtbetrag", 22},
	{"bestellnummer", weightCurrency},
	{"zwischensumme", weightCurrency},
	{"€", weightCurrency},
	{"eur", weightCurrency},
	{"mwst", weightCurrency},
	{"januar", weightMonth}, {"februar", weightMonth}, {"märz", weightMonth},
	{"mai", weightMonth}, {"juni", weightMonth}, {"juli", weightMonth},
	{"oktober", weightMonth}, {"dezember", weightMonth},
}

// Subtype indicator tables, international format only. The decisive invoice
// and VAT-id terms carry larger boosts than ordinary layout vocabulary.
var businessIndicators = []signature{
	{"rechnungsnummer", 25},
	{"ust-idnr", 25},
	{"umsatzsteuer", 20},
	{"netto", 15},
	{"steuersatz", 15},
}

var consumerIndicators = []signature{
	{"bestellübersicht", 20},
	{"geschenkoptionen", 15},
	{"prime", 15},
	{"mein konto", 15},
	{"lieferung an", 15},
}

var (
	catalogIDRegex   = regexp.MustCompile(`\bB0[A-Z0-9]{8}\b`)
	tabularHeadRegex = regexp.MustCompile(`(?im)^.*\b(?:menge|pos\.).*\b(?:preis|betrag).*$`)
)

// ClassifierConfig holds tuning for the format classifier
type ClassifierConfig struct {
	AmbiguityCutoff    int
	AmbiguityPenalty   int
	EnableDebugLogging bool
}

// Classifier picks the invoice layout family and subtype from weighted
// signature scoring. Signature tables are read-only package data, so a single
// Classifier is safe for concurrent use.
type Classifier struct {
	ambiguityCutoff    int
	ambiguityPenalty   int
	enableDebugLogging bool
}

// NewClassifier creates a classifier with the given configuration
func NewClassifier(config ClassifierConfig) *Classifier {
	cutoff := config.AmbiguityCutoff
	if cutoff <= 0 {
		cutoff = defaultAmbiguityCutoff
	}

	penalty := config.AmbiguityPenalty
	if penalty <= 0 {
		penalty = defaultAmbiguityPenalty
	}

	return &Classifier{
		ambiguityCutoff:    cutoff,
		ambiguityPenalty:   penalty,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// Classify scores the text against both signature tables and bands the result.
// Blank input is the one hard failure of the pipeline front end.
func (c *Classifier) Classify(text string) (*domain.FormatClassification, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyInput
	}

	lower := strings.ToLower(text)
	domesticScore := scoreSignatures(lower, domesticSignatures)
	internationalScore := scoreSignatures(lower, internationalSignatures)

	if c.enableDebugLogging {
		log.Printf("[CLASSIFY] domestic=%d international=%d", domesticScore, internationalScore)
	}

	result := &domain.FormatClassification{
		Format:  domain.FormatNone,
		Subtype: domain.SubtypeNone,
		Scores: map[domain.Format]int{
			domain.FormatDomestic:      domesticScore,
			domain.FormatInternational: internationalScore,
		},
	}

	winning, losing := internationalScore, domesticScore
	format := domain.FormatInternational
	if domesticScore > internationalScore {
		// Ties go to international: its anchor token is the strongest signal
		winning, losing = domesticScore, internationalScore
		format = domain.FormatDomestic
	}

	if winning >= c.ambiguityCutoff {
		result.Format = format
	}

	result.Confidence = bandConfidence(winning)
	if result.Format != domain.FormatNone && losing >= c.ambiguityCutoff {
		// Both formats present real evidence; the call is less trustworthy
		result.Confidence -= c.ambiguityPenalty
		if result.Confidence < minReducedConfidence {
			result.Confidence = minReducedConfidence
		}
	}

	result.Quality, result.Action = qualityFor(winning, c.ambiguityCutoff)

	if result.Format == domain.FormatInternational {
		result.Subtype, result.SubtypeDefaulted = c.classifySubtype(lower)
	}

	if c.enableDebugLogging {
		log.Printf("[CLASSIFY] format=%s subtype=%s confidence=%d quality=%s",
			result.Format, result.Subtype, result.Confidence, result.Quality)
	}

	return result, nil
}

// scoreSignatures sums the weight of each distinct token present in the text.
// A token contributes once no matter how often it occurs.
func scoreSignatures(lower string, signatures []signature) int {
	score := 0
	for _, sig := range signatures {
		if strings.Contains(lower, sig.token) {
			score += sig.weight
		}
	}
	return score
}

// bandConfidence maps a raw signature score onto the fixed confidence bands
func bandConfidence(score int) int {
	switch {
	case score >= 100:
		return 100
	case score >= 80:
		return 80
	case score >= 60:
		return 60
	case score >= 40:
		return 40
	case score >= 25:
		return 25
	default:
		return floorConfidence
	}
}

// qualityFor bands the winning score into a quality level and advisory action
func qualityFor(score, cutoff int) (domain.QualityLevel, domain.RecommendedAction) {
	switch {
	case score < cutoff:
		return domain.QualityVeryLow, domain.ActionReject
	case score < 40:
		return domain.QualityLow, domain.ActionReview
	case score < 70:
		return domain.QualityMedium, domain.ActionReview
	default:
		return domain.QualityHigh, domain.ActionAccept
	}
}

// classifySubtype separates business from consumer international invoices.
// Returns the subtype and whether it fell through to the consumer default
// with no positive signal at all.
func (c *Classifier) classifySubtype(lower string) (domain.Subtype, bool) {
	businessScore := scoreSignatures(lower, businessIndicators)
	consumerScore := scoreSignatures(lower, consumerIndicators)

	if c.enableDebugLogging {
		log.Printf("[CLASSIFY] subtype business=%d consumer=%d", businessScore, consumerScore)
	}

	switch {
	case businessScore > consumerScore:
		return domain.SubtypeBusiness, false
	case consumerScore > businessScore:
		return domain.SubtypeConsumer, false
	}

	// Tie (including 0-0): a tabular item header before the first catalog id
	// is the business layout's column listing
	headLoc := tabularHeadRegex.FindStringIndex(lower)
	if headLoc != nil {
		catalogLoc := catalogIDRegex.FindStringIndex(strings.ToUpper(lower))
		if catalogLoc == nil || headLoc[0] < catalogLoc[0] {
			return domain.SubtypeBusiness, false
		}
	}

	return domain.SubtypeConsumer, businessScore == 0 && consumerScore == 0
}
