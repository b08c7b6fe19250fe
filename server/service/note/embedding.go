package note

import (
	"strings"

	"github.com/ayakoji/noteshare/store"
)

// EmbeddingText is the canonical text a note is embedded from. The title is
// prepended so short notes keep their heading context, and markup is
// stripped because formatting carries no meaning for similarity.
func EmbeddingText(n *store.Note) string {
	body := PlainText(n.Content)
	title := strings.TrimSpace(n.Title)
	if title == "" || strings.HasPrefix(body, title) {
		return body
	}
	return title + "\n" + body
}
