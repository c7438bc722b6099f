// Package gemini implements the extraction.Extractor interface using
// Google's Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"google.golang.org/genai"

	"startask/internal/config"
	"startask/internal/domain"
	"startask/internal/extraction"
	"startask/internal/platform/logger"
)

// Extractor calls the Gemini API and parses its output into extraction
// results. Failures map onto the extraction package's sentinel errors so
// the gateway can classify them.
type Extractor struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// Ensure Extractor implements the extraction.Extractor interface
var _ extraction.Extractor = (*Extractor)(nil)

// NewExtractor creates a Gemini-backed extractor from the extraction
// configuration. The context is used for client initialization only.
func NewExtractor(ctx context.Context, cfg config.ExtractionConfig, log *slog.Logger) (*Extractor, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", extraction.ErrInvalidConfig)
	}
	if cfg.GeminiModel == "" {
		return nil, fmt.Errorf("%w: gemini model name cannot be empty", extraction.ErrInvalidConfig)
	}
	if log == nil {
		log = slog.Default()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", extraction.ErrInvalidConfig, err)
	}

	return &Extractor{
		client: client,
		model:  cfg.GeminiModel,
		logger: log.With(slog.String("component", "gemini_extractor")),
	}, nil
}

// Extract implements extraction.Extractor.
func (e *Extractor) Extract(ctx context.Context, input extraction.Input) (*domain.ExtractionResult, error) {
	log := logger.FromContextOrDefault(ctx, e.logger)

	prompt, err := extraction.BuildPrompt(input)
	if err != nil {
		return nil, err
	}

	log.Debug("calling Gemini API",
		slog.String("model", e.model),
		slog.Int("prompt_length", len(prompt)))

	resp, err := e.client.Models.GenerateContent(ctx, e.model, genai.Text(prompt), nil)
	if err != nil {
		return nil, classifyAPIError(err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no content generated", extraction.ErrUnparseable)
	}
	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return nil, fmt.Errorf("%w: content blocked by safety filters", extraction.ErrUnparseable)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("%w: empty response text", extraction.ErrUnparseable)
	}

	return extraction.ParseResult(text)
}

// classifyAPIError maps Gemini API failures onto the extraction sentinels.
func classifyAPIError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", extraction.ErrUnauthenticated, err)
		default:
			return fmt.Errorf("%w: %v", extraction.ErrUnavailable, err)
		}
	}

	return fmt.Errorf("%w: %v", extraction.ErrUnavailable, err)
}
