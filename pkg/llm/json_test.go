package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
		wantErr  bool
	}{
		{
			name:     "bare array",
			response: `[{"methodId": "m1", "agrees": true}]`,
			want:     `[{"methodId": "m1", "agrees": true}]`,
		},
		{
			name:     "markdown fenced",
			response: "Here you go:\n```json\n{\"agrees\": true}\n```\n",
			want:     `{"agrees": true}`,
		},
		{
			name:     "leading think block",
			response: "<think>the index already covers it</think>\n[{\"agrees\": false}]",
			want:     `[{"agrees": false}]`,
		},
		{
			name:     "braces inside strings",
			response: `{"note": "pattern {x} and [y]"}`,
			want:     `{"note": "pattern {x} and [y]"}`,
		},
		{
			name:     "no json at all",
			response: "I cannot help with that.",
			wantErr:  true,
		},
		{
			name:     "unbalanced",
			response: `{"agrees": true`,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.response)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseJSONResponse(t *testing.T) {
	verdicts, err := ParseJSONResponse[[]Verdict]("prose before\n[{\"methodId\": \"m1\", \"agrees\": true}]")
	require.NoError(t, err)
	require.Len(t, verdicts, 1)
	assert.Equal(t, "m1", verdicts[0].MethodID)

	_, err = ParseJSONResponse[[]Verdict](`{"methodId": "m1"}`)
	require.Error(t, err)
}
