package service

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"newsdeck/internal/logger"
	"newsdeck/internal/model"
	"newsdeck/internal/parse"
)

// maxConcurrentFetches bounds in-flight pipelines per aggregation pass.
const maxConcurrentFetches = 10

// Fetcher retrieves a raw feed document.
type Fetcher interface {
	Fetch(ctx context.Context, feedURL string) (string, error)
}

// AggregateResult is one pass over all configured feeds: the merged
// article list plus the titles of feeds that failed. Partial failure is
// the normal operating mode.
type AggregateResult struct {
	Articles []model.Article
	Errors   []string
}

// Aggregator fans out fetch+parse across all feeds and merges the results
// into one ordered, de-duplicated collection.
type Aggregator interface {
	Aggregate(ctx context.Context, feeds []model.Feed) (AggregateResult, error)
}

type aggregator struct {
	fetcher    Fetcher
	generation atomic.Int64
}

func NewAggregator(fetcher Fetcher) Aggregator {
	return &aggregator{fetcher: fetcher}
}

// Aggregate runs one pass. Each feed's failure is recorded by title and
// never aborts sibling pipelines. Output order is deterministic for fixed
// inputs regardless of network completion order: sorted by publish date
// descending with undated articles last, then de-duplicated by article id
// keeping the first occurrence. A run superseded by a newer one before it
// finishes returns ErrSuperseded; when every feed fails the pass returns
// ErrAllFeedsFailed instead of per-feed errors.
func (a *aggregator) Aggregate(ctx context.Context, feeds []model.Feed) (AggregateResult, error) {
	if len(feeds) == 0 {
		return AggregateResult{}, nil
	}

	gen := a.generation.Add(1)

	fetched := make([][]model.Article, len(feeds))
	failed := make([]bool, len(feeds))

	g := new(errgroup.Group)
	g.SetLimit(maxConcurrentFetches)
	for i, feed := range feeds {
		g.Go(func() error {
			raw, err := a.fetcher.Fetch(ctx, feed.URL)
			if err != nil {
				logger.Warn("feed fetch failed", "module", "service", "action", "aggregate", "resource", "feed", "result", "failed", "feed", feed.Title, "error", err)
				failed[i] = true
				return nil
			}
			articles, err := parse.Parse(raw, feed.Title, feed.URL)
			if err != nil {
				logger.Warn("feed parse failed", "module", "service", "action", "aggregate", "resource", "feed", "result", "failed", "feed", feed.Title, "error", err)
				failed[i] = true
				return nil
			}
			fetched[i] = articles
			return nil
		})
	}
	_ = g.Wait()

	if a.generation.Load() != gen {
		return AggregateResult{}, ErrSuperseded
	}

	var result AggregateResult
	for i := range feeds {
		if failed[i] {
			result.Errors = append(result.Errors, feeds[i].Title)
			continue
		}
		result.Articles = append(result.Articles, fetched[i]...)
	}

	if len(result.Errors) == len(feeds) {
		return AggregateResult{}, ErrAllFeedsFailed
	}

	sortArticles(result.Articles)
	result.Articles = dedupeArticles(result.Articles)

	logger.Info("aggregation completed", "module", "service", "action", "aggregate", "resource", "feed", "result", "ok", "articles", len(result.Articles), "failed_feeds", len(result.Errors))
	return result, nil
}

// sortArticles orders by publish date descending; a nil date compares as
// epoch zero and sorts last.
func sortArticles(articles []model.Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		return articleTime(articles[i]).After(articleTime(articles[j]))
	})
}

func articleTime(a model.Article) time.Time {
	if a.Published == nil {
		return time.Unix(0, 0)
	}
	return *a.Published
}

// dedupeArticles keeps the first occurrence of each id after sorting, so
// the most recent copy wins when multiple feeds emit the same id.
func dedupeArticles(articles []model.Article) []model.Article {
	seen := make(map[string]bool, len(articles))
	deduped := articles[:0]
	for _, article := range articles {
		if seen[article.ID] {
			continue
		}
		seen[article.ID] = true
		deduped = append(deduped, article)
	}
	return deduped
}
