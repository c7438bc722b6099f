// Package openai implements the extraction.Extractor interface using the
// OpenAI Responses API. It is the alternate provider; selection happens in
// configuration, and both providers send the identical prompt.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"

	"startask/internal/config"
	"startask/internal/domain"
	"startask/internal/extraction"
	"startask/internal/platform/logger"
)

const instructions = "You turn starred emails into actionable tasks. " +
	"Respond with a single JSON object and nothing else."

// Extractor calls the OpenAI Responses API and parses its output into
// extraction results. Failures map onto the extraction package's sentinel
// errors so the gateway can classify them.
type Extractor struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// Ensure Extractor implements the extraction.Extractor interface
var _ extraction.Extractor = (*Extractor)(nil)

// NewExtractor creates an OpenAI-backed extractor from the extraction
// configuration.
func NewExtractor(cfg config.ExtractionConfig, log *slog.Logger) (*Extractor, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("%w: openai API key cannot be empty", extraction.ErrInvalidConfig)
	}
	if cfg.OpenAIModel == "" {
		return nil, fmt.Errorf("%w: openai model name cannot be empty", extraction.ErrInvalidConfig)
	}
	if log == nil {
		log = slog.Default()
	}

	client := openai.NewClient(option.WithAPIKey(cfg.OpenAIAPIKey))
	return &Extractor{
		client: &client,
		model:  cfg.OpenAIModel,
		logger: log.With(slog.String("component", "openai_extractor")),
	}, nil
}

// Extract implements extraction.Extractor.
func (e *Extractor) Extract(ctx context.Context, input extraction.Input) (*domain.ExtractionResult, error) {
	log := logger.FromContextOrDefault(ctx, e.logger)

	prompt, err := extraction.BuildPrompt(input)
	if err != nil {
		return nil, err
	}

	log.Debug("calling OpenAI Responses API",
		slog.String("model", e.model),
		slog.Int("prompt_length", len(prompt)))

	resp, err := e.client.Responses.New(ctx, responses.ResponseNewParams{
		Model:        e.model,
		Instructions: param.NewOpt(instructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
	})
	if err != nil {
		return nil, classifyAPIError(err)
	}

	text := resp.OutputText()
	if text == "" {
		return nil, fmt.Errorf("%w: empty response text", extraction.ErrUnparseable)
	}

	return extraction.ParseResult(text)
}

// classifyAPIError maps OpenAI API failures onto the extraction sentinels.
func classifyAPIError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", extraction.ErrUnauthenticated, err)
		default:
			return fmt.Errorf("%w: %v", extraction.ErrUnavailable, err)
		}
	}

	return fmt.Errorf("%w: %v", extraction.ErrUnavailable, err)
}
