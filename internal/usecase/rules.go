package usecase

import "regexp"

// itemLayout selects the line-item parsing control flow. Layouts are the one
// place where locale variants differ structurally rather than by vocabulary,
// so they get real dispatch instead of rule-table data.
type itemLayout int

const (
	itemLayoutNone       itemLayout = iota // minimal extractor: no item parsing
	itemLayoutUS                           // "1 of: ..." blocks with $ prices
	itemLayoutEUConsumer                   // catalog-id line followed by € amount lines
	itemLayoutEUBusiness                   // tabular rows: qty, description, id, unit, total
)

// fieldPatterns are the ordered, most-specific-first strategies for each
// scalar field. The first pattern whose candidate survives shape validation
// wins; later patterns never run.
type fieldPatterns struct {
	orderNumber []*regexp.Regexp
	orderDate   []dateStrategy
	subtotal    []*regexp.Regexp
	shipping    []*regexp.Regexp
	tax         []*regexp.Regexp
	total       []*regexp.Regexp
	discount    []*regexp.Regexp
}

// parserVariant is one entry of the routing table: a rule bank plus the item
// layout it feeds. Variants are read-only package data.
type parserVariant struct {
	name     string
	language string
	currency string // used for derived amounts only
	layout   itemLayout
	patterns fieldPatterns
}

// Loose order-number candidates are accepted by pattern but still go through
// shape validation (3 digit groups of lengths 3-7-7); near-misses fall
// through to the next strategy.
var (
	orderNumberStrictRegex = regexp.MustCompile(`\b(\d{3}-\d{7}-\d{7})\b`)

	orderNumberEN = []*regexp.Regexp{
		regexp.MustCompile(`(?i)order\s*#\s*([\d-]{10,25})`),
		regexp.MustCompile(`(?i)order\s*(?:number|id)\s*:?\s*([\d-]{10,25})`),
		orderNumberStrictRegex,
	}
	orderNumberDE = []*regexp.Regexp{
		regexp.MustCompile(`(?i)bestellnummer\s*:?\s*([\d-]{10,25})`),
		regexp.MustCompile(`(?i)bestellnr\.?\s*:?\s*([\d-]{10,25})`),
		orderNumberStrictRegex,
	}
	orderNumberGeneric = []*regexp.Regexp{orderNumberStrictRegex}
)

// Money label patterns capture the full formatted amount, symbol included
var (
	subtotalEN = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^[^\n]*subtotal[^\n]*?(\$\s?\d[\d,]*\.\d{2})`),
	}
	shippingEN = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^[^\n]*shipping[^\n]*?(\$\s?\d[\d,]*\.\d{2})`),
	}
	taxEN = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^[^\n]*(?:estimated\s+)?tax[^\n]*?(\$\s?\d[\d,]*\.\d{2})`),
	}
	totalEN = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^[^\n]*grand\s+total[^\n]*?(\$\s?\d[\d,]*\.\d{2})`),
		regexp.MustCompile(`(?im)^[^\n]*order\s+total[^\n]*?(\$\s?\d[\d,]*\.\d{2})`),
		// \b keeps the fallback off "Subtotal" lines
		regexp.MustCompile(`(?im)^[^\n]*\btotal[^\n]*?(\$\s?\d[\d,]*\.\d{2})`),
	}
	discountEN = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^[^\n]*(?:promotion|discount|coupon)[^\n]*?-?\s?(\$\s?\d[\d,]*\.\d{2})`),
	}

	euAmountCapture = `(\d[\d.]*,\d{2}\s?€)`

	subtotalDE = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^[^\n]*zwischensumme[^\n]*?` + euAmountCapture),
	}
	shippingDE = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^[^\n]*(?:verpackung\s*(?:&|und)\s*versand|versandkosten)[^\n]*?` + euAmountCapture),
	}
	taxDE = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^[^\n]*(?:mwst|ust|umsatzsteuer)[^\n]*?` + euAmountCapture),
	}
	totalDE = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^[^\n]*(?:gesamtbetrag|gesamtsumme)[^\n]*?` + euAmountCapture),
		// \b keeps the fallback off "Zwischensumme" lines
		regexp.MustCompile(`(?im)^[^\n]*\bsumme[^\n]*?` + euAmountCapture),
	}
	discountDE = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^[^\n]*(?:gutschein|rabatt|aktion)[^\n]*?-?\s?` + euAmountCapture),
	}
)

// Primary variants, selected by a resolved format classification
var (
	variantDomesticConsumer = &parserVariant{
		name:     "domestic-consumer",
		language: "en",
		currency: "USD",
		layout:   itemLayoutUS,
		patterns: fieldPatterns{
			orderNumber: orderNumberEN,
			orderDate: []dateStrategy{
				{re: regexp.MustCompile(`(?i)order\s+placed:?\s+(\p{L}+)\.?\s+(\d{1,2}),?\s+(\d{4})`), order: orderMonthNameFirst},
				dateMonthNameFirst,
				dateNumericMDY,
				dateISO,
			},
			subtotal: subtotalEN,
			shipping: shippingEN,
			tax:      taxEN,
			total:    totalEN,
			discount: discountEN,
		},
	}

	variantInternationalBusiness = &parserVariant{
		name:     "international-business",
		language: "de",
		currency: "EUR",
		layout:   itemLayoutEUBusiness,
		patterns: fieldPatterns{
			orderNumber: orderNumberDE,
			orderDate: []dateStrategy{
				{re: regexp.MustCompile(`(?i)rechnungsdatum:?\s*(\d{1,2})\.?\s*(\p{L}+)\.?\s*(\d{4})`), order: orderDayFirstName},
				{re: regexp.MustCompile(`(?i)rechnungsdatum:?\s*(\d{1,2})\.(\d{1,2})\.(\d{4})`), order: orderNumericDMY},
				dateDayFirstName,
				dateNumericDMY,
				dateISO,
			},
			subtotal: subtotalDE,
			shipping: shippingDE,
			tax:      taxDE,
			total:    totalDE,
			discount: discountDE,
		},
	}

	variantInternationalConsumer = &parserVariant{
		name:     "international-consumer",
		language: "de",
		currency: "EUR",
		layout:   itemLayoutEUConsumer,
		patterns: fieldPatterns{
			orderNumber: orderNumberDE,
			orderDate: []dateStrategy{
				{re: regexp.MustCompile(`(?i)bestellung\s+aufgegeben\s+am:?\s*(\d{1,2})\.?\s*(\p{L}+)\.?\s*(\d{4})`), order: orderDayFirstName},
				dateDayFirstName,
				dateNumericDMY,
				dateISO,
			},
			subtotal: subtotalDE,
			shipping: shippingDE,
			tax:      taxDE,
			total:    totalDE,
			discount: discountDE,
		},
	}
)

// Legacy per-language variants, reached only through the language-detection
// fallback when format classification is unresolved. They carry broader but
// less specific rule sets than the format variants.
var (
	legacyVariantEN = &parserVariant{
		name:     "legacy-en",
		language: "en",
		currency: "USD",
		layout:   itemLayoutUS,
		patterns: variantDomesticConsumer.patterns,
	}

	legacyVariantDE = &parserVariant{
		name:     "legacy-de",
		language: "de",
		currency: "EUR",
		layout:   itemLayoutEUConsumer,
		patterns: variantInternationalConsumer.patterns,
	}

	legacyVariantFR = &parserVariant{
		name:     "legacy-fr",
		language: "fr",
		currency: "EUR",
		layout:   itemLayoutEUConsumer,
		patterns: fieldPatterns{
			orderNumber: append([]*regexp.Regexp{
				regexp.MustCompile(`(?i)commande\s*(?:n[o°]\.?)?\s*:?\s*([\d-]{10,25})`),
			}, orderNumberGeneric...),
			orderDate: []dateStrategy{dateDayFirstName, dateNumericDMY, dateISO},
			subtotal: []*regexp.Regexp{
				regexp.MustCompile(`(?im)^[^\n]*sous-total[^\n]*?` + euAmountCapture),
			},
			shipping: []*regexp.Regexp{
				regexp.MustCompile(`(?im)^[^\n]*livraison[^\n]*?` + euAmountCapture),
			},
			tax: []*regexp.Regexp{
				regexp.MustCompile(`(?im)^[^\n]*tva[^\n]*?` + euAmountCapture),
			},
			total: []*regexp.Regexp{
				regexp.MustCompile(`(?im)^[^\n]*montant\s+total[^\n]*?` + euAmountCapture),
				// line-start anchor keeps the fallback off "Sous-total" lines
				regexp.MustCompile(`(?im)^total\b[^\n]*?` + euAmountCapture),
			},
		},
	}

	legacyVariantIT = &parserVariant{
		name:     "legacy-it",
		language: "it",
		currency: "EUR",
		layout:   itemLayoutEUConsumer,
		patterns: fieldPatterns{
			orderNumber: append([]*regexp.Regexp{
				regexp.MustCompile(`(?i)ordine\s*(?:n\.?)?\s*:?\s*([\d-]{10,25})`),
			}, orderNumberGeneric...),
			orderDate: []dateStrategy{dateDayFirstName, dateNumericDMY, dateISO},
			subtotal: []*regexp.Regexp{
				regexp.MustCompile(`(?im)^[^\n]*subtotale[^\n]*?` + euAmountCapture),
			},
			shipping: []*regexp.Regexp{
				regexp.MustCompile(`(?im)^[^\n]*spedizione[^\n]*?` + euAmountCapture),
			},
			tax: []*regexp.Regexp{
				regexp.MustCompile(`(?im)^[^\n]*iva[^\n]*?` + euAmountCapture),
			},
			total: []*regexp.Regexp{
				regexp.MustCompile(`(?im)^[^\n]*\btotale[^\n]*?` + euAmountCapture),
			},
		},
	}

	legacyVariantES = &parserVariant{
		name:     "legacy-es",
		language: "es",
		currency: "EUR",
		layout:   itemLayoutEUConsumer,
		patterns: fieldPatterns{
			orderNumber: append([]*regexp.Regexp{
				regexp.MustCompile(`(?i)pedido\s*(?:n[o°]\.?)?\s*:?\s*([\d-]{10,25})`),
			}, orderNumberGeneric...),
			orderDate: []dateStrategy{dateDayFirstName, dateNumericDMY, dateISO},
			subtotal: []*regexp.Regexp{
				regexp.MustCompile(`(?im)^[^\n]*subtotal[^\n]*?` + euAmountCapture),
			},
			shipping: []*regexp.Regexp{
				regexp.MustCompile(`(?im)^[^\n]*env[ií]o[^\n]*?` + euAmountCapture),
			},
			tax: []*regexp.Regexp{
				regexp.MustCompile(`(?im)^[^\n]*iva[^\n]*?` + euAmountCapture),
			},
			total: []*regexp.Regexp{
				regexp.MustCompile(`(?im)^[^\n]*\btotal\b[^\n]*?` + euAmountCapture),
			},
		},
	}
)

// variantMinimal is the last-resort extractor: bare structural patterns, no
// locale assumptions, no item parsing.
var variantMinimal = &parserVariant{
	name:   "minimal",
	layout: itemLayoutNone,
	patterns: fieldPatterns{
		orderNumber: orderNumberGeneric,
		orderDate:   []dateStrategy{dateISO, dateNumericDMY, dateNumericMDY, dateMonthNameFirst, dateDayFirstName},
		total: []*regexp.Regexp{
			regexp.MustCompile(`(?im)^[^\n]*\btotal[^\n]*?(` + anyAmountPattern + `)`),
		},
	},
}

// routeKey addresses the single routing table. Fallback order is documented
// in the orchestrator: exact format route, then detected language, then the
// minimal variant.
type routeKey struct {
	format  string
	subtype string
}

// formatRoutes resolves a (format, subtype) pair to its dedicated variant.
// Subtype only differentiates the international format.
var formatRoutes = map[routeKey]*parserVariant{
	{format: "domestic", subtype: "consumer"}:      variantDomesticConsumer,
	{format: "domestic", subtype: "business"}:      variantDomesticConsumer,
	{format: "domestic", subtype: "none"}:          variantDomesticConsumer,
	{format: "international", subtype: "business"}: variantInternationalBusiness,
	{format: "international", subtype: "consumer"}: variantInternationalConsumer,
	{format: "international", subtype: "none"}:     variantInternationalConsumer,
}

// languageRoutes resolves the legacy fallback when the classifier gave no
// format. Keyed by detected language.
var languageRoutes = map[string]*parserVariant{
	"en": legacyVariantEN,
	"de": legacyVariantDE,
	"fr": legacyVariantFR,
	"it": legacyVariantIT,
	"es": legacyVariantES,
}
