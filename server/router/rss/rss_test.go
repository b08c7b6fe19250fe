package rss

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ayakoji/noteshare/internal/profile"
	"github.com/ayakoji/noteshare/store"
)

func TestGenerateFeed(t *testing.T) {
	service := NewRSSService(&profile.Profile{InstanceURL: "https://notes.example.com"}, nil)

	notes := []*store.Note{
		{
			UID:       "abc123",
			Title:     "熱力学 第一法則",
			Content:   "# 熱力学 第一法則\n\nエネルギー保存の法則とは、エネルギーの総量は変化しないという法則である。",
			CreatedTs: 1700000000,
		},
		{
			UID:       "def456",
			Content:   "タイトルのないノート。",
			CreatedTs: 1700000100,
		},
	}

	rss, err := service.generateFeed("https://notes.example.com", "https://notes.example.com/explore", "Explore", notes)
	require.NoError(t, err)

	require.Contains(t, rss, "<rss")
	require.Contains(t, rss, "<title>Explore</title>")
	require.Contains(t, rss, "<title>熱力学 第一法則</title>")
	require.Contains(t, rss, "https://notes.example.com/n/abc123")
	require.Contains(t, rss, "https://notes.example.com/n/def456")
	// Markdown bodies are rendered to HTML and escaped inside the XML.
	require.Contains(t, rss, "&lt;h1&gt;")
}

func TestGenerateFeedEmpty(t *testing.T) {
	service := NewRSSService(&profile.Profile{}, nil)

	rss, err := service.generateFeed("http://localhost:8081", "http://localhost:8081/explore", "Explore", nil)
	require.NoError(t, err)
	require.Contains(t, rss, "<rss")
}

func TestFeedItemTitle(t *testing.T) {
	tests := []struct {
		name string
		note *store.Note
		want string
	}{
		{
			name: "stored title wins",
			note: &store.Note{Title: "力学", Content: "# 運動方程式"},
			want: "力学",
		},
		{
			name: "derived from content",
			note: &store.Note{Content: "# 運動方程式\n\n本文"},
			want: "運動方程式",
		},
		{
			name: "empty note",
			note: &store.Note{},
			want: "Untitled note",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, feedItemTitle(tt.note))
		})
	}
}
