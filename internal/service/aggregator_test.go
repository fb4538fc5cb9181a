package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"newsdeck/internal/model"
	"newsdeck/internal/service"
)

type fetcherFunc func(ctx context.Context, feedURL string) (string, error)

func (f fetcherFunc) Fetch(ctx context.Context, feedURL string) (string, error) {
	return f(ctx, feedURL)
}

// rssDoc builds an RSS document; each item spec is "guid|title|pubDate"
// where guid or pubDate may be empty.
func rssDoc(title string, items ...[3]string) string {
	doc := `<?xml version="1.0"?><rss version="2.0"><channel><title>` + title + `</title><link>https://example.com</link>`
	for i, item := range items {
		doc += `<item><title>` + item[1] + `</title><link>https://example.com/` + title + fmt.Sprint(i) + `</link>`
		if item[0] != "" {
			doc += `<guid>` + item[0] + `</guid>`
		}
		if item[2] != "" {
			doc += `<pubDate>` + item[2] + `</pubDate>`
		}
		doc += `</item>`
	}
	return doc + `</channel></rss>`
}

func rfc1123(t time.Time) string {
	return t.UTC().Format("Mon, 02 Jan 2006 15:04:05") + " GMT"
}

func TestAggregator_EmptyFeedSet(t *testing.T) {
	var calls atomic.Int32
	agg := service.NewAggregator(fetcherFunc(func(ctx context.Context, feedURL string) (string, error) {
		calls.Add(1)
		return "", errors.New("should not be called")
	}))

	result, err := agg.Aggregate(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, result.Articles)
	require.Empty(t, result.Errors)
	require.Zero(t, calls.Load())
}

func TestAggregator_PartialFailure(t *testing.T) {
	now := time.Now()
	good := rssDoc("good",
		[3]string{"g1", "A", rfc1123(now)},
		[3]string{"g2", "B", rfc1123(now.Add(-time.Hour))},
		[3]string{"g3", "C", rfc1123(now.Add(-2 * time.Hour))},
		[3]string{"g4", "D", rfc1123(now.Add(-3 * time.Hour))},
		[3]string{"g5", "E", rfc1123(now.Add(-4 * time.Hour))},
	)

	agg := service.NewAggregator(fetcherFunc(func(ctx context.Context, feedURL string) (string, error) {
		if feedURL == "https://bad.example.com/rss" {
			return "", errors.New("HTTP 500")
		}
		return good, nil
	}))

	feeds := []model.Feed{
		{ID: "1", URL: "https://good.example.com/rss", Title: "Good Feed"},
		{ID: "2", URL: "https://bad.example.com/rss", Title: "Bad Feed"},
	}
	result, err := agg.Aggregate(context.Background(), feeds)
	require.NoError(t, err)
	require.Len(t, result.Articles, 5)
	require.Equal(t, []string{"Bad Feed"}, result.Errors)
}

func TestAggregator_ParseFailureIsolated(t *testing.T) {
	agg := service.NewAggregator(fetcherFunc(func(ctx context.Context, feedURL string) (string, error) {
		if feedURL == "https://broken.example.com/rss" {
			return "not a feed at all", nil
		}
		return rssDoc("ok", [3]string{"x1", "X", rfc1123(time.Now())}), nil
	}))

	feeds := []model.Feed{
		{ID: "1", URL: "https://ok.example.com/rss", Title: "OK"},
		{ID: "2", URL: "https://broken.example.com/rss", Title: "Broken"},
	}
	result, err := agg.Aggregate(context.Background(), feeds)
	require.NoError(t, err)
	require.Len(t, result.Articles, 1)
	require.Equal(t, []string{"Broken"}, result.Errors)
}

func TestAggregator_TotalFailure(t *testing.T) {
	agg := service.NewAggregator(fetcherFunc(func(ctx context.Context, feedURL string) (string, error) {
		return "", errors.New("connection refused")
	}))

	feeds := []model.Feed{
		{ID: "1", URL: "https://a.example.com/rss", Title: "A"},
		{ID: "2", URL: "https://b.example.com/rss", Title: "B"},
	}
	_, err := agg.Aggregate(context.Background(), feeds)
	require.ErrorIs(t, err, service.ErrAllFeedsFailed)
}

func TestAggregator_DedupeByID(t *testing.T) {
	now := time.Now()
	agg := service.NewAggregator(fetcherFunc(func(ctx context.Context, feedURL string) (string, error) {
		return rssDoc("f", [3]string{"shared-guid", "Same Story", rfc1123(now)}), nil
	}))

	feeds := []model.Feed{
		{ID: "1", URL: "https://one.example.com/rss", Title: "One"},
		{ID: "2", URL: "https://two.example.com/rss", Title: "Two"},
	}
	result, err := agg.Aggregate(context.Background(), feeds)
	require.NoError(t, err)
	require.Len(t, result.Articles, 1)
	require.Equal(t, "shared-guid", result.Articles[0].ID)
}

func TestAggregator_OrderingWithMissingDates(t *testing.T) {
	now := time.Now()
	doc := rssDoc("f",
		[3]string{"old", "Old", rfc1123(now.Add(-48 * time.Hour))},
		[3]string{"undated", "Undated", ""},
		[3]string{"new", "New", rfc1123(now)},
		[3]string{"mid", "Mid", rfc1123(now.Add(-24 * time.Hour))},
	)
	agg := service.NewAggregator(fetcherFunc(func(ctx context.Context, feedURL string) (string, error) {
		return doc, nil
	}))

	result, err := agg.Aggregate(context.Background(), []model.Feed{{ID: "1", URL: "https://f.example.com/rss", Title: "F"}})
	require.NoError(t, err)
	require.Len(t, result.Articles, 4)
	require.Equal(t, "new", result.Articles[0].ID)
	require.Equal(t, "mid", result.Articles[1].ID)
	require.Equal(t, "old", result.Articles[2].ID)
	require.Equal(t, "undated", result.Articles[3].ID)
	require.Nil(t, result.Articles[3].Published)
}

func TestAggregator_StaleRunSuperseded(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	doc := rssDoc("f", [3]string{"a", "A", rfc1123(time.Now())})

	agg := service.NewAggregator(fetcherFunc(func(ctx context.Context, feedURL string) (string, error) {
		if feedURL == "https://slow.example.com/rss" {
			close(entered)
			<-release
		}
		return doc, nil
	}))

	slowErr := make(chan error, 1)
	go func() {
		_, err := agg.Aggregate(context.Background(), []model.Feed{{ID: "1", URL: "https://slow.example.com/rss", Title: "Slow"}})
		slowErr <- err
	}()
	<-entered

	// A newer run starts and finishes while the first is still in flight.
	result, err := agg.Aggregate(context.Background(), []model.Feed{{ID: "2", URL: "https://fast.example.com/rss", Title: "Fast"}})
	require.NoError(t, err)
	require.Len(t, result.Articles, 1)

	close(release)
	require.ErrorIs(t, <-slowErr, service.ErrSuperseded)
}
