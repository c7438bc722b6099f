package extraction

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"startask/internal/domain"
	"startask/internal/taxonomy"
)

// mockExtractor implements Extractor for gateway tests.
type mockExtractor struct {
	result    *domain.ExtractionResult
	err       error
	delay     time.Duration
	lastInput Input
}

func (m *mockExtractor) Extract(ctx context.Context, input Input) (*domain.ExtractionResult, error) {
	m.lastInput = input
	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.delay):
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func newTestGateway(t *testing.T, extractor Extractor, cfg GatewayConfig) *Gateway {
	t.Helper()

	normalizer, err := taxonomy.NewNormalizer(
		taxonomy.NewDefaultRegistry(),
		taxonomy.DefaultDurationID,
		taxonomy.DefaultContextID,
	)
	require.NoError(t, err)

	if cfg.Timeout == 0 {
		cfg.Timeout = time.Second
	}

	gateway, err := NewGateway(extractor, normalizer, cfg, nil)
	require.NoError(t, err)
	return gateway
}

func TestNewGateway(t *testing.T) {
	t.Run("nil_extractor_rejected", func(t *testing.T) {
		normalizer, err := taxonomy.NewNormalizer(
			taxonomy.NewDefaultRegistry(), taxonomy.DefaultDurationID, taxonomy.DefaultContextID)
		require.NoError(t, err)

		_, err = NewGateway(nil, normalizer, GatewayConfig{Timeout: time.Second}, nil)
		assert.Error(t, err)
	})

	t.Run("zero_timeout_rejected", func(t *testing.T) {
		normalizer, err := taxonomy.NewNormalizer(
			taxonomy.NewDefaultRegistry(), taxonomy.DefaultDurationID, taxonomy.DefaultContextID)
		require.NoError(t, err)

		_, err = NewGateway(&mockExtractor{}, normalizer, GatewayConfig{}, nil)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestGatewayExtractSuccess(t *testing.T) {
	extractor := &mockExtractor{
		result: &domain.ExtractionResult{
			TaskTitle: "Renew passport before trip",
			LabelIDs:  []string{"ctx-errands"},
			DueHint:   "Friday",
		},
	}
	gateway := newTestGateway(t, extractor, GatewayConfig{MaxBodyRunes: 5})

	item := domain.Item{
		ID:      "a1",
		Sender:  "gov@example.com",
		Subject: "Renew passport",
		Body:    "...due Friday...",
	}
	outcome := gateway.Extract(context.Background(), item)

	require.Equal(t, KindSuccess, outcome.Kind)
	assert.Equal(t, "Renew passport before trip", outcome.Result.TaskTitle)
	assert.Equal(t, []string{"ctx-errands"}, outcome.Result.LabelIDs)

	// Body is truncated and the label catalog is attached before the call.
	assert.Equal(t, "...du", extractor.lastInput.Body)
	assert.True(t, strings.Contains(extractor.lastInput.LabelCatalog, "ctx-errands"))
}

func TestGatewayExtractClassification(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind OutcomeKind
	}{
		{name: "unavailable_routes_to_fallback", err: ErrUnavailable, wantKind: KindFallbackRequired},
		{name: "unauthenticated_routes_to_fallback", err: ErrUnauthenticated, wantKind: KindFallbackRequired},
		{name: "unparseable_routes_to_fallback", err: ErrUnparseable, wantKind: KindFallbackRequired},
		{name: "forbidden_credential_is_fatal", err: ErrForbiddenCredential, wantKind: KindFatal},
		{name: "arbitrary_error_routes_to_fallback", err: errors.New("socket closed"), wantKind: KindFallbackRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateway := newTestGateway(t, &mockExtractor{err: tt.err}, GatewayConfig{})

			outcome := gateway.Extract(context.Background(), domain.Item{ID: "a1"})

			assert.Equal(t, tt.wantKind, outcome.Kind)
			if tt.wantKind == KindFatal {
				assert.ErrorIs(t, outcome.Err, ErrForbiddenCredential)
			} else {
				assert.NotEmpty(t, outcome.Reason)
			}
		})
	}
}

func TestGatewayExtractTimeoutIsFallbackNeverFatal(t *testing.T) {
	extractor := &mockExtractor{
		delay:  200 * time.Millisecond,
		result: &domain.ExtractionResult{TaskTitle: "too late"},
	}
	gateway := newTestGateway(t, extractor, GatewayConfig{Timeout: 20 * time.Millisecond})

	outcome := gateway.Extract(context.Background(), domain.Item{ID: "a1"})

	require.Equal(t, KindFallbackRequired, outcome.Kind)
	assert.Equal(t, "extraction timed out", outcome.Reason)
}

func TestGatewayExtractEmptyTitleFallsBack(t *testing.T) {
	gateway := newTestGateway(t, &mockExtractor{result: &domain.ExtractionResult{}}, GatewayConfig{})

	outcome := gateway.Extract(context.Background(), domain.Item{ID: "a1"})

	assert.Equal(t, KindFallbackRequired, outcome.Kind)
}

func TestGatewayExtractSubstitutesDefaultPair(t *testing.T) {
	tests := []struct {
		name   string
		labels []string
		want   []string
	}{
		{
			name:   "no_labels_at_all",
			labels: nil,
			want:   []string{taxonomy.DefaultDurationID, taxonomy.DefaultContextID},
		},
		{
			name:   "only_invalid_labels",
			labels: []string{"not-a-label", "also-not"},
			want:   []string{taxonomy.DefaultDurationID, taxonomy.DefaultContextID},
		},
		{
			name:   "one_valid_label_kept_as_proposed",
			labels: []string{"not-a-label", "thm-money"},
			want:   []string{"not-a-label", "thm-money"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractor := &mockExtractor{
				result: &domain.ExtractionResult{TaskTitle: "Pay invoice", LabelIDs: tt.labels},
			}
			gateway := newTestGateway(t, extractor, GatewayConfig{})

			outcome := gateway.Extract(context.Background(), domain.Item{ID: "a1"})

			require.Equal(t, KindSuccess, outcome.Kind)
			assert.Equal(t, tt.want, outcome.Result.LabelIDs)
		})
	}
}

func TestGatewayForbiddenEnvVarIsFatal(t *testing.T) {
	gateway := newTestGateway(t, &mockExtractor{
		result: &domain.ExtractionResult{TaskTitle: "t"},
	}, GatewayConfig{ForbiddenEnvVars: []string{"STARTASK_FORBIDDEN_TEST_VAR"}})

	gateway.lookupEnv = func(name string) (string, bool) {
		return "secret", name == "STARTASK_FORBIDDEN_TEST_VAR"
	}

	require.ErrorIs(t, gateway.CheckEnvironment(), ErrForbiddenCredential)

	outcome := gateway.Extract(context.Background(), domain.Item{ID: "a1"})
	require.Equal(t, KindFatal, outcome.Kind)
	assert.ErrorIs(t, outcome.Err, ErrForbiddenCredential)
}
