package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func newTestNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	n, err := NewNormalizer(NewDefaultRegistry(), DefaultDurationID, DefaultContextID)
	require.NoError(t, err)
	return n
}

func TestNewNormalizer(t *testing.T) {
	registry := NewDefaultRegistry()

	tests := []struct {
		name            string
		defaultDuration string
		defaultContext  string
		wantErr         error
	}{
		{
			name:            "valid_defaults",
			defaultDuration: "dur-15m",
			defaultContext:  "ctx-computer",
		},
		{
			name:            "unknown_duration_default",
			defaultDuration: "dur-2d",
			defaultContext:  "ctx-computer",
			wantErr:         ErrDefaultNotInRegistry,
		},
		{
			name:            "duration_default_from_wrong_category",
			defaultDuration: "ctx-home",
			defaultContext:  "ctx-computer",
			wantErr:         ErrDefaultWrongCategory,
		},
		{
			name:            "context_default_from_wrong_category",
			defaultDuration: "dur-15m",
			defaultContext:  "thm-admin",
			wantErr:         ErrDefaultWrongCategory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := NewNormalizer(registry, tt.defaultDuration, tt.defaultContext)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, n)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, n)
		})
	}
}

func TestNormalize(t *testing.T) {
	n := newTestNormalizer(t)

	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{
			name:  "empty_input_gets_defaults",
			input: nil,
			want:  []string{"dur-15m", "ctx-computer"},
		},
		{
			name:  "all_invalid_ids_dropped_then_defaults",
			input: []string{"bogus", "also-bogus"},
			want:  []string{"dur-15m", "ctx-computer"},
		},
		{
			name:  "context_only_gets_default_duration_appended",
			input: []string{"ctx-errands"},
			want:  []string{"ctx-errands", "dur-15m"},
		},
		{
			name:  "duration_only_gets_default_context_appended",
			input: []string{"dur-1h"},
			want:  []string{"dur-1h", "ctx-computer"},
		},
		{
			name:  "multiple_durations_keep_first_by_original_order",
			input: []string{"dur-1h", "ctx-home", "dur-5m", "dur-deep"},
			want:  []string{"dur-1h", "ctx-home"},
		},
		{
			name:  "duplicates_removed_preserving_first_occurrence",
			input: []string{"ctx-home", "thm-admin", "ctx-home", "thm-admin", "dur-5m"},
			want:  []string{"ctx-home", "thm-admin", "dur-5m"},
		},
		{
			name:  "valid_mixed_set_untouched",
			input: []string{"dur-deep", "ctx-computer", "thm-work", "hor-week"},
			want:  []string{"dur-deep", "ctx-computer", "thm-work", "hor-week"},
		},
		{
			name:  "invalid_interleaved_ids_dropped_in_place",
			input: []string{"junk", "ctx-phone", "nope", "dur-5m"},
			want:  []string{"ctx-phone", "dur-5m"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Normalize(tt.input)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	n := newTestNormalizer(t)
	input := []string{"dur-1h", "dur-5m", "ctx-home"}

	n.Normalize(input)

	assert.Equal(t, []string{"dur-1h", "dur-5m", "ctx-home"}, input)
}

// TestNormalizeTotality property-tests the cardinality guarantees over
// arbitrary input sequences, mixing registry ids with junk.
func TestNormalizeTotality(t *testing.T) {
	n := newTestNormalizer(t)
	registry := n.Registry()
	pool := append(registry.IDs(), "junk", "", "DUR-5M", "ctx_errands")

	rapid.Check(t, func(rt *rapid.T) {
		input := rapid.SliceOfN(rapid.SampledFrom(pool), 0, 32).Draw(rt, "input")

		got := n.Normalize(input)

		durations := 0
		contexts := 0
		seen := make(map[string]struct{}, len(got))
		for _, id := range got {
			cat, ok := registry.CategoryOf(id)
			if !ok {
				rt.Fatalf("normalized output contains non-registry id %q", id)
			}
			if _, dup := seen[id]; dup {
				rt.Fatalf("normalized output contains duplicate id %q", id)
			}
			seen[id] = struct{}{}
			switch cat {
			case CategoryDuration:
				durations++
			case CategoryContext:
				contexts++
			}
		}

		if durations != 1 {
			rt.Fatalf("want exactly one duration id, got %d in %v", durations, got)
		}
		if contexts < 1 {
			rt.Fatalf("want at least one context id, got none in %v", got)
		}
	})
}
