package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerlens/backend/internal/domain"
	"github.com/ledgerlens/backend/internal/metrics"
)

// scalarFields is the denominator of the field success rate
const scalarFields = 6 // orderNumber, orderDate, subtotal, shipping, tax, total

// ParseServiceConfig aggregates the stage configurations
type ParseServiceConfig struct {
	Classifier ClassifierConfig
	Validator  ValidatorConfig
	Recovery   RecoveryConfig

	CacheTTL           time.Duration
	EnableDebugLogging bool
}

// ParseService orchestrates the pipeline: preprocess, classify, route,
// extract, validate, and on failure hand over to the recovery controller.
// It implements domain.InvoiceParser.
type ParseService struct {
	classifier *Classifier
	validator  *Validator
	recovery   *RecoveryController
	extractor  *Extractor

	cache      domain.ResultCache   // optional
	textSource domain.TextExtractor // optional, needed only for ParseDocument
	metrics    *metrics.Metrics     // nil is a no-op

	cacheTTL           time.Duration
	enableDebugLogging bool
}

// NewParseService creates the pipeline orchestrator. cache, textSource and m
// may each be nil; the corresponding capability is then disabled.
func NewParseService(config ParseServiceConfig, cache domain.ResultCache, textSource domain.TextExtractor, m *metrics.Metrics) *ParseService {
	cacheTTL := config.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	return &ParseService{
		classifier:         NewClassifier(config.Classifier),
		validator:          NewValidator(config.Validator),
		recovery:           NewRecoveryController(config.Recovery),
		extractor:          NewExtractor(config.EnableDebugLogging),
		cache:              cache,
		textSource:         textSource,
		metrics:            m,
		cacheTTL:           cacheTTL,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// ParseInvoice runs the full pipeline on raw invoice text. It returns a
// degraded-but-usable result instead of an error when recovery salvages
// enough; only unrecoverable documents fail, wrapped in ErrUnparseable.
func (s *ParseService) ParseInvoice(ctx context.Context, rawText string, opts domain.ParseOptions) (result *domain.ExtractedInvoice, err error) {
	start := time.Now()
	debug := opts.Debug || s.enableDebugLogging

	// Panics anywhere in the stages become a recovery attempt, never a crash
	defer func() {
		if r := recover(); r != nil {
			result, err = s.handleFailure(rawText, fmt.Errorf("pipeline panic: %v", r), start)
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stages := make(map[string]float64)

	stageStart := time.Now()
	cleaned := Preprocess(rawText)
	stages["preprocess"] = millisSince(stageStart)

	if cleaned == "" {
		return s.handleFailure(rawText, domain.ErrEmptyInput, start)
	}

	key := cacheKey(cleaned)
	if cached := s.cacheLookup(ctx, key); cached != nil {
		if debug {
			log.Printf("[PARSE] cache hit key=%s", key[:12])
		}
		return cached, nil
	}

	stageStart = time.Now()
	classification, err := s.classifier.Classify(cleaned)
	stages["classify"] = millisSince(stageStart)
	if err != nil {
		return s.handleFailure(cleaned, err, start)
	}

	stageStart = time.Now()
	prepped := PreprocessForFormat(cleaned, classification.Format)
	stages["format_preprocess"] = millisSince(stageStart)

	variant, detection := routeVariant(classification, prepped)
	if debug {
		log.Printf("[PARSE] routed format=%s subtype=%s variant=%s",
			classification.Format, classification.Subtype, variant.name)
	}

	stageStart = time.Now()
	inv := s.extractor.Extract(prepped, variant)
	stages["extract"] = millisSince(stageStart)

	stageStart = time.Now()
	validation := s.validator.Validate(inv, prepped)
	stages["validate"] = millisSince(stageStart)

	inv.FormatClassification = classification
	inv.LanguageDetection = detection
	inv.Validation = validation
	inv.ProcessingMetadata = domain.ProcessingMetadata{
		DocumentID:    uuid.NewString(),
		ParserVariant: variant.name,
		ProcessedAt:   time.Now().UTC(),
	}
	inv.PerformanceMetrics = domain.PerformanceMetrics{
		StageMillis:      stages,
		TotalMillis:      millisSince(start),
		FieldSuccessRate: fieldSuccessRate(inv),
	}

	// Only clean results are worth replaying from cache
	if s.cache != nil && validation.IsValid {
		if cacheErr := s.cache.Set(ctx, key, inv, s.cacheTTL); cacheErr != nil && debug {
			log.Printf("[PARSE] cache store failed: %v", cacheErr)
		}
	}

	s.metrics.ObserveParse(string(classification.Format), "ok", time.Since(start).Seconds())

	return inv, nil
}

// ParseDocument extracts text from an upstream document handle and parses it.
// Upstream read failures are treated as critical, so they cannot produce a
// degraded result.
func (s *ParseService) ParseDocument(ctx context.Context, handle string, opts domain.ParseOptions) (*domain.ExtractedInvoice, error) {
	if s.textSource == nil {
		return nil, fmt.Errorf("%w: no text extractor configured", domain.ErrUnreadableDocument)
	}

	start := time.Now()
	text, err := s.textSource.ExtractText(ctx, handle)
	if err != nil {
		return s.handleFailure("", fmt.Errorf("%w: %v", domain.ErrUnreadableDocument, err), start)
	}

	return s.ParseInvoice(ctx, text, opts)
}

// handleFailure is the single failure funnel: categorize, attempt recovery,
// and either return the salvaged partial or surface ErrUnparseable.
func (s *ParseService) handleFailure(text string, cause error, start time.Time) (*domain.ExtractedInvoice, error) {
	record, partial := s.recovery.Recover(text, cause)
	s.metrics.ObserveRecovery(string(record.Category))
	s.metrics.ObserveParse("none", "recovered", time.Since(start).Seconds())

	if partial == nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnparseable, cause)
	}

	partial.Recovery = record
	partial.Validation = s.validator.Validate(partial, text)
	partial.ProcessingMetadata = domain.ProcessingMetadata{
		DocumentID:    uuid.NewString(),
		ParserVariant: "recovery",
		ProcessedAt:   time.Now().UTC(),
	}
	partial.PerformanceMetrics = domain.PerformanceMetrics{
		StageMillis:      map[string]float64{"recovery": millisSince(start)},
		TotalMillis:      millisSince(start),
		FieldSuccessRate: fieldSuccessRate(partial),
	}

	return partial, nil
}

// routeVariant resolves the parser variant. Fallback order: exact format
// route, then the detected language's legacy variant, then the minimal one.
// Language detection runs only on the fallback path and its outcome is
// reported on the result.
func routeVariant(classification *domain.FormatClassification, text string) (*parserVariant, *domain.LanguageDetection) {
	if classification.Format != domain.FormatNone {
		key := routeKey{format: string(classification.Format), subtype: string(classification.Subtype)}
		if variant, ok := formatRoutes[key]; ok {
			return variant, nil
		}
	}

	detection := detectLanguage(text)
	if detection.Confidence > 0 {
		if variant, ok := languageRoutes[detection.Language]; ok {
			return variant, detection
		}
	}

	return variantMinimal, detection
}

// cacheLookup returns a cached result marked as a cache hit, or nil
func (s *ParseService) cacheLookup(ctx context.Context, key string) *domain.ExtractedInvoice {
	if s.cache == nil {
		return nil
	}
	cached, err := s.cache.Get(ctx, key)
	if err != nil || cached == nil {
		return nil
	}

	s.metrics.ObserveCacheHit()

	hit := *cached
	hit.ProcessingMetadata.CacheHit = true
	return &hit
}

// cacheKey hashes the normalized text so formatting noise upstream of the
// preprocessor cannot split cache entries
func cacheKey(cleaned string) string {
	sum := sha256.Sum256([]byte(cleaned))
	return hex.EncodeToString(sum[:])
}

// fieldSuccessRate is the extracted fraction of the scalar top-level fields
func fieldSuccessRate(inv *domain.ExtractedInvoice) float64 {
	extracted := 0
	for _, field := range []string{inv.OrderNumber, inv.OrderDate, inv.Subtotal, inv.Shipping, inv.Tax, inv.Total} {
		if field != "" {
			extracted++
		}
	}
	return float64(extracted) / float64(scalarFields)
}

func millisSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000.0
}
