package webmeta

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name            string
		html            string
		wantTitle       string
		wantDescription string
		wantImage       string
	}{
		{
			name:      "Title tag",
			html:      `<html><head><title>物理ノート</title></head><body></body></html>`,
			wantTitle: "物理ノート",
		},
		{
			name: "Meta description",
			html: `<html><head><title>t</title>` +
				`<meta name="description" content="力学のまとめ"></head></html>`,
			wantTitle:       "t",
			wantDescription: "力学のまとめ",
		},
		{
			name: "Open Graph fallbacks",
			html: `<html><head>` +
				`<meta property="og:title" content="OGタイトル">` +
				`<meta property="og:description" content="OG説明">` +
				`<meta property="og:image" content="https://example.com/a.png">` +
				`</head></html>`,
			wantTitle:       "OGタイトル",
			wantDescription: "OG説明",
			wantImage:       "https://example.com/a.png",
		},
		{
			name: "Title tag wins over og:title",
			html: `<html><head><title>本来のタイトル</title>` +
				`<meta property="og:title" content="OGタイトル"></head></html>`,
			wantTitle: "本来のタイトル",
		},
		{
			name: "No metadata",
			html: `<html><body><p>hello</p></body></html>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, err := parse(strings.NewReader(tt.html))
			if err != nil {
				t.Fatalf("parse() error = %v", err)
			}
			if meta.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", meta.Title, tt.wantTitle)
			}
			if meta.Description != tt.wantDescription {
				t.Errorf("Description = %q, want %q", meta.Description, tt.wantDescription)
			}
			if meta.Image != tt.wantImage {
				t.Errorf("Image = %q, want %q", meta.Image, tt.wantImage)
			}
		})
	}
}

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/page":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(`<html><head><title>テストページ</title></head></html>`))
		case "/plain":
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte("not html"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	ctx := context.Background()

	meta, err := Fetch(ctx, server.URL+"/page")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if meta.Title != "テストページ" {
		t.Errorf("Title = %q, want テストページ", meta.Title)
	}

	if _, err := Fetch(ctx, server.URL+"/plain"); err == nil {
		t.Errorf("Fetch() on non-HTML page expected error, got nil")
	}
	if _, err := Fetch(ctx, server.URL+"/missing"); err == nil {
		t.Errorf("Fetch() on 404 expected error, got nil")
	}
	if _, err := Fetch(ctx, "ftp://example.com/x"); err == nil {
		t.Errorf("Fetch() with ftp scheme expected error, got nil")
	}
}
