package usecase

import (
	"strings"

	"github.com/ledgerlens/backend/internal/domain"
)

// languageMarkers are cheap per-language vocabulary probes used only by the
// routing fallback when format classification is unresolved. Padded tokens
// avoid matching inside longer words.
var languageMarkers = map[string][]string{
	"en": {" the ", "order", "total", "shipping", "placed"},
	"de": {" und ", "bestellung", "rechnung", "versand", "gesamtbetrag"},
	"fr": {"commande", "livraison", "montant", " le ", "expédition"},
	"it": {"ordine", "totale", "spedizione", "importo", " della "},
	"es": {"pedido", "envío", "importe", " el ", "fecha"},
}

// detectLanguage picks the language with the most marker hits. Confidence is
// the hit fraction of that language's marker set; zero hits anywhere yields
// language "unknown" with confidence 0.
func detectLanguage(text string) *domain.LanguageDetection {
	lower := " " + strings.ToLower(text) + " "

	best := "unknown"
	bestHits := 0
	bestTotal := 1
	// Stable iteration so equal scores resolve deterministically
	for _, lang := range []string{"en", "de", "fr", "it", "es"} {
		hits := 0
		for _, marker := range languageMarkers[lang] {
			if strings.Contains(lower, marker) {
				hits++
			}
		}
		if hits > bestHits {
			best = lang
			bestHits = hits
			bestTotal = len(languageMarkers[lang])
		}
	}

	if bestHits == 0 {
		return &domain.LanguageDetection{Language: "unknown", Confidence: 0}
	}

	return &domain.LanguageDetection{
		Language:   best,
		Confidence: float64(bestHits) / float64(bestTotal),
	}
}
