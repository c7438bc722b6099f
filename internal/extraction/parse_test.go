package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstJSONObject(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    string
		wantErr bool
	}{
		{
			name: "bare_object",
			text: `{"task":"Renew passport"}`,
			want: `{"task":"Renew passport"}`,
		},
		{
			name: "object_inside_markdown_fence",
			text: "Here you go:\n```json\n{\"task\":\"Renew passport\"}\n```\nanything else?",
			want: `{"task":"Renew passport"}`,
		},
		{
			name: "object_with_surrounding_prose",
			text: `Sure! The extracted task is {"task":"Pay invoice","labels":["thm-money"]} — let me know.`,
			want: `{"task":"Pay invoice","labels":["thm-money"]}`,
		},
		{
			name: "first_of_two_objects_wins",
			text: `{"task":"first"} {"task":"second"}`,
			want: `{"task":"first"}`,
		},
		{
			name: "braces_inside_string_values",
			text: `{"task":"fix {placeholder} bug","notes":"see \"spec\""}`,
			want: `{"task":"fix {placeholder} bug","notes":"see \"spec\""}`,
		},
		{
			name: "nested_objects",
			text: `prefix {"task":"t","meta":{"a":1}} suffix`,
			want: `{"task":"t","meta":{"a":1}}`,
		},
		{
			name: "unbalanced_prefix_skipped",
			text: `{oops {"task":"t"}`,
			want: `{"task":"t"}`,
		},
		{
			name:    "no_object_at_all",
			text:    "I could not find a task in this email.",
			wantErr: true,
		},
		{
			name:    "never_closed_object",
			text:    `{"task":"t"`,
			wantErr: true,
		},
		{
			name:    "empty_input",
			text:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FirstJSONObject(tt.text)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrUnparseable)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseResult(t *testing.T) {
	t.Run("full_result", func(t *testing.T) {
		raw := "```json\n" +
			`{"task":"Renew passport before trip","labels":["ctx-errands"],"notes":"bring photos","dueString":"Friday"}` +
			"\n```"

		result, err := ParseResult(raw)
		require.NoError(t, err)
		assert.Equal(t, "Renew passport before trip", result.TaskTitle)
		assert.Equal(t, []string{"ctx-errands"}, result.LabelIDs)
		assert.Equal(t, "bring photos", result.Notes)
		assert.Equal(t, "Friday", result.DueHint)
	})

	t.Run("optional_fields_absent", func(t *testing.T) {
		result, err := ParseResult(`{"task":"Pay invoice","labels":[]}`)
		require.NoError(t, err)
		assert.Empty(t, result.LabelIDs)
		assert.Empty(t, result.Notes)
		assert.Empty(t, result.DueHint)
	})

	t.Run("blank_task_title_rejected", func(t *testing.T) {
		_, err := ParseResult(`{"task":"   ","labels":["ctx-home"]}`)
		assert.ErrorIs(t, err, ErrUnparseable)
	})

	t.Run("schema_mismatch_rejected", func(t *testing.T) {
		_, err := ParseResult(`{"task":123}`)
		assert.ErrorIs(t, err, ErrUnparseable)
	})
}
