// Package parse normalizes RSS 2.0 and Atom documents into the canonical
// article model.
package parse

import (
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"

	"newsdeck/internal/model"
)

// Error reports a document that could not be parsed as RSS or Atom.
type Error struct {
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("parse feed: %v", e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Parse converts a raw feed document into articles. feedTitle becomes each
// article's Source; feedURL is the fallback base for resolving relative
// image URLs when the document carries no site link.
func Parse(raw, feedTitle, feedURL string) ([]model.Article, error) {
	parser := gofeed.NewParser()
	feed, err := parser.ParseString(raw)
	if err != nil {
		return nil, &Error{Cause: err}
	}

	base := strings.TrimSpace(feed.Link)
	if base == "" {
		base = feedURL
	}

	articles := make([]model.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		articles = append(articles, itemToArticle(item, feedTitle, base))
	}
	return articles, nil
}

func itemToArticle(item *gofeed.Item, feedTitle, base string) model.Article {
	article := model.Article{
		Title:  strings.TrimSpace(item.Title),
		Link:   strings.TrimSpace(item.Link),
		Source: feedTitle,
	}

	body := item.Description
	if body == "" {
		body = item.Content
	}
	article.Snippet = Snippet(body)

	// pubDate / published map to PublishedParsed, updated to UpdatedParsed.
	if item.PublishedParsed != nil {
		t := item.PublishedParsed.UTC()
		article.Published = &t
	} else if item.UpdatedParsed != nil {
		t := item.UpdatedParsed.UTC()
		article.Published = &t
	}

	rawDate := item.Published
	if rawDate == "" {
		rawDate = item.Updated
	}
	article.ID = model.ArticleID(item.GUID, article.Link, article.Title, rawDate)

	article.ImageURL = extractImage(item, base)

	return article
}
