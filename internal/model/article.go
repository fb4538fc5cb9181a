package model

import (
	"strings"
	"time"
)

// Article is re-derived on every aggregation pass and never persisted.
// Overlay state references it by ID only.
type Article struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Link      string     `json:"link"`
	Snippet   string     `json:"snippet"`
	Published *time.Time `json:"published,omitempty"`
	Source    string     `json:"source"`
	ImageURL  string     `json:"imageUrl,omitempty"`
}

// ArticleID derives a stable identity for a feed item: feed-provided guid
// first, then the item link, then a composite of title and the raw
// publication date string. The composite can collide for same-titled,
// same-dated items across feeds; that limitation is accepted.
func ArticleID(guid, link, title, published string) string {
	if g := strings.TrimSpace(guid); g != "" {
		return g
	}
	if l := strings.TrimSpace(link); l != "" {
		return l
	}
	return strings.TrimSpace(title) + "|" + strings.TrimSpace(published)
}
