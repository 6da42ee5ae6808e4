package main

import (
	"fmt"
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/ledgerlens/backend/config"
	httpDelivery "github.com/ledgerlens/backend/internal/delivery/http"
	"github.com/ledgerlens/backend/internal/domain"
	"github.com/ledgerlens/backend/internal/infrastructure/cache"
	"github.com/ledgerlens/backend/internal/infrastructure/textextract"
	"github.com/ledgerlens/backend/internal/metrics"
	"github.com/ledgerlens/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg.Server.Environment)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting LedgerLens backend",
		zap.String("version", "1.0.0"),
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.Duration("cache_ttl", cfg.Cache.TTL),
	)

	// Infrastructure dependencies
	resultCache := cache.NewMemoryCache()
	textSource := buildTextSource(cfg, logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	pipelineMetrics := metrics.New(registry)

	// Pipeline orchestrator
	parseService := usecase.NewParseService(
		usecase.ParseServiceConfig{
			Classifier: usecase.ClassifierConfig{
				AmbiguityCutoff:    cfg.Pipeline.AmbiguityCutoff,
				AmbiguityPenalty:   cfg.Pipeline.AmbiguityPenalty,
				EnableDebugLogging: cfg.Pipeline.EnableDebugLogging,
			},
			Validator: usecase.ValidatorConfig{
				MathTolerance:           cfg.Pipeline.MathTolerance,
				MultiShipmentMultiplier: cfg.Pipeline.MultiShipmentMultiplier,
				ItemSubtotalTolerance:   cfg.Pipeline.ItemSubtotalTolerance,
				ItemSubtotalFloor:       cfg.Pipeline.ItemSubtotalFloor,
				PriceWarnThreshold:      cfg.Pipeline.PriceWarnThreshold,
				PriceCriticalThreshold:  cfg.Pipeline.PriceCriticalThreshold,
				EarliestPlausibleYear:   cfg.Pipeline.EarliestPlausibleYear,
				EnableDebugLogging:      cfg.Pipeline.EnableDebugLogging,
			},
			Recovery: usecase.RecoveryConfig{
				MinUsableConfidence: cfg.Pipeline.MinUsableConfidence,
				EnableDebugLogging:  cfg.Pipeline.EnableDebugLogging,
			},
			CacheTTL:           cfg.Cache.TTL,
			EnableDebugLogging: cfg.Pipeline.EnableDebugLogging,
		},
		resultCache,
		textSource,
		pipelineMetrics,
	)

	// HTTP surface
	handler := httpDelivery.NewHandler(parseService)
	router := httpDelivery.SetupRouter(cfg, handler, logger, registry)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Info("server listening", zap.String("addr", addr))

	if err := router.Run(addr); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

// buildTextSource wires the configured document source, or none
func buildTextSource(cfg *config.Config, logger *zap.Logger) domain.TextExtractor {
	switch cfg.Documents.Source {
	case "file":
		logger.Info("document source: local files", zap.String("root", cfg.Documents.Root))
		return textextract.NewFileExtractor(cfg.Documents.Root)
	case "ocr":
		if cfg.Documents.BaseURL == "" {
			logger.Warn("document source ocr selected but no base URL configured; parse-file disabled")
			return nil
		}
		logger.Info("document source: OCR service", zap.String("base_url", cfg.Documents.BaseURL))
		return textextract.NewHTTPExtractor(cfg.Documents.APIKey, cfg.Documents.BaseURL)
	default:
		logger.Info("document source disabled; parse-file endpoint will reject requests")
		return nil
	}
}

func newLogger(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
