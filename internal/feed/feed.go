package feed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/matheuskafuri/kyou/internal/upstream"
)

// DefaultLimit is the number of headlines kept from a feed.
const DefaultLimit = 5

// Item is a single headline.
type Item struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	PubDate string `json:"pub_date"`
}

// Getter downloads a document body.
type Getter interface {
	Get(ctx context.Context, source, url string) ([]byte, error)
}

// Fetcher downloads an RSS feed and extracts its first headlines.
type Fetcher struct {
	getter Getter
	limit  int
}

func NewFetcher(getter Getter, limit int) *Fetcher {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Fetcher{getter: getter, limit: limit}
}

func (f *Fetcher) Fetch(ctx context.Context, url string) ([]Item, error) {
	body, err := f.getter.Get(ctx, "news", url)
	if err != nil {
		return nil, err
	}
	items, err := Parse(bytes.NewReader(body), f.limit)
	if err != nil {
		return nil, &upstream.FetchError{Source: "news", URL: url, Err: fmt.Errorf("%w: %v", upstream.ErrMalformed, err)}
	}
	return items, nil
}

// Parse reads an RSS/Atom document and returns at most limit items in feed
// order.
func Parse(r io.Reader, limit int) ([]Item, error) {
	feed, err := gofeed.NewParser().Parse(r)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, min(limit, len(feed.Items)))
	for _, it := range feed.Items {
		if len(items) >= limit {
			break
		}
		items = append(items, Item{
			Title:   normalizeText(it.Title),
			Link:    normalizeText(it.Link),
			PubDate: normalizeText(it.Published),
		})
	}
	return items, nil
}

// normalizeText turns full-width spaces into regular ones, collapses
// whitespace runs and trims.
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\u3000", " ")
	return strings.Join(strings.Fields(s), " ")
}
