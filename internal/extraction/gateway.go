// Package extraction implements the gateway between the processing cycle
// and the external LLM extractor. The gateway owns the contract logic:
// input preparation, the extraction timeout, and the classification of
// every call into exactly one of success, fallback-required, or fatal.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"startask/internal/domain"
	"startask/internal/mail"
	"startask/internal/platform/logger"
	"startask/internal/taxonomy"
)

// Input is what an extractor receives for one item. LabelCatalog lists the
// approved label ids so the extractor only proposes registry members.
type Input struct {
	Body         string
	Subject      string
	Sender       string
	LabelCatalog string
}

// Extractor is the LLM boundary. Implementations live in
// internal/platform/gemini and internal/platform/openai.
type Extractor interface {
	// Extract derives a structured task proposal from the input.
	// Implementations return the sentinel errors of this package
	// (ErrUnavailable, ErrUnauthenticated, ErrUnparseable) so the gateway
	// can classify failures.
	Extract(ctx context.Context, input Input) (*domain.ExtractionResult, error)
}

// GatewayConfig holds the gateway's contract parameters.
type GatewayConfig struct {
	// Timeout bounds one extraction call. Exceeding it yields a
	// fallback-required outcome, never a fatal one.
	Timeout time.Duration

	// MaxBodyRunes caps the body length handed to the extractor.
	MaxBodyRunes int

	// ForbiddenEnvVars lists environment variables whose presence is a
	// fatal misconfiguration. Checked on every call so a credential
	// appearing mid-run is caught at the next item, not the next restart.
	ForbiddenEnvVars []string
}

// Gateway classifies extractor calls into routing outcomes.
type Gateway struct {
	extractor  Extractor
	normalizer *taxonomy.Normalizer
	cfg        GatewayConfig
	logger     *slog.Logger

	// lookupEnv is swappable for tests; defaults to os.LookupEnv.
	lookupEnv func(string) (string, bool)
}

// NewGateway creates a Gateway. extractor and normalizer are required.
func NewGateway(extractor Extractor, normalizer *taxonomy.Normalizer, cfg GatewayConfig, log *slog.Logger) (*Gateway, error) {
	if extractor == nil {
		return nil, errors.New("extractor cannot be nil")
	}
	if normalizer == nil {
		return nil, errors.New("normalizer cannot be nil")
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	if log == nil {
		log = slog.Default()
	}

	return &Gateway{
		extractor:  extractor,
		normalizer: normalizer,
		cfg:        cfg,
		logger:     log.With(slog.String("component", "extraction_gateway")),
		lookupEnv:  os.LookupEnv,
	}, nil
}

// CheckEnvironment returns ErrForbiddenCredential if any configured
// forbidden environment variable is set. The processing cycle calls it at
// cycle start; the gateway repeats the check on every extraction.
func (g *Gateway) CheckEnvironment() error {
	for _, name := range g.cfg.ForbiddenEnvVars {
		if _, set := g.lookupEnv(name); set {
			return fmt.Errorf("%w: %s must not be set", ErrForbiddenCredential, name)
		}
	}
	return nil
}

// Extract runs one item through the extractor and classifies the result.
func (g *Gateway) Extract(ctx context.Context, item domain.Item) Outcome {
	log := logger.FromContextOrDefault(ctx, g.logger)

	if err := g.CheckEnvironment(); err != nil {
		return Fatal(err)
	}

	input := Input{
		Body:         mail.TruncateBody(item.Body, g.cfg.MaxBodyRunes),
		Subject:      item.Subject,
		Sender:       item.Sender,
		LabelCatalog: g.normalizer.Registry().PromptCatalog(),
	}

	callCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	result, err := g.extractor.Extract(callCtx, input)
	if err != nil {
		if errors.Is(err, ErrForbiddenCredential) {
			return Fatal(err)
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			log.Warn("extraction timed out",
				slog.String("item_id", item.ID),
				slog.Duration("timeout", g.cfg.Timeout))
			return Fallback("extraction timed out")
		}

		log.Warn("extraction failed, routing to review",
			slog.String("item_id", item.ID),
			slog.String("error", err.Error()))
		return Fallback(err.Error())
	}

	if result == nil || result.TaskTitle == "" {
		return Fallback("extractor returned no task title")
	}

	// If no proposed label survives registry filtering, substitute the
	// safe-default pair rather than failing the item.
	if !g.anyRegistryValid(result.LabelIDs) {
		defaultDuration, defaultContext := g.normalizer.DefaultPair()
		log.Debug("no registry-valid labels proposed, substituting defaults",
			slog.String("item_id", item.ID))
		result.LabelIDs = []string{defaultDuration, defaultContext}
	}

	return Success(result)
}

func (g *Gateway) anyRegistryValid(ids []string) bool {
	registry := g.normalizer.Registry()
	for _, id := range ids {
		if registry.Contains(id) {
			return true
		}
	}
	return false
}
