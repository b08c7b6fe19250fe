package note

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayakoji/noteshare/store"
)

func TestCompileFilter(t *testing.T) {
	tests := []struct {
		name        string
		expression  string
		expectError bool
	}{
		{
			name:       "Visibility comparison",
			expression: `visibility == "PUBLIC"`,
		},
		{
			name:       "Tag membership and pin state",
			expression: `pinned && "物理" in tags`,
		},
		{
			name:       "Content search with timestamp bound",
			expression: `content.contains("慣性") && created_ts > 1700000000`,
		},
		{
			name:        "Syntax error",
			expression:  `visibility ==`,
			expectError: true,
		},
		{
			name:        "Unknown variable",
			expression:  `owner == 1`,
			expectError: true,
		},
		{
			name:        "Non-boolean result",
			expression:  `1 + 1`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileFilter(tt.expression)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFilterMatch(t *testing.T) {
	n := &store.Note{
		CreatorID:  7,
		Visibility: store.VisibilityPublic,
		Pinned:     true,
		CreatedTs:  1750000000,
		Title:      "力学の基礎",
		Content:    "#物理 慣性の法則について",
	}
	tags := []string{"物理"}

	tests := []struct {
		name       string
		expression string
		want       bool
	}{
		{
			name:       "Matching visibility",
			expression: `visibility == "PUBLIC"`,
			want:       true,
		},
		{
			name:       "Non-matching creator",
			expression: `creator_id == 8`,
			want:       false,
		},
		{
			name:       "Tag membership",
			expression: `"物理" in tags`,
			want:       true,
		},
		{
			name:       "Combined expression",
			expression: `pinned && title.contains("力学") && created_ts > 1700000000`,
			want:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, err := CompileFilter(tt.expression)
			require.NoError(t, err)

			got, err := filter.Match(n, tags)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilterMatchNilTags(t *testing.T) {
	filter, err := CompileFilter(`"物理" in tags`)
	require.NoError(t, err)

	got, err := filter.Match(&store.Note{}, nil)
	require.NoError(t, err)
	assert.False(t, got)
}
