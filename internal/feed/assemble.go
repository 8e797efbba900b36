// Package feed assembles per-author RSS documents from scholar search
// results.
package feed

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/feeds"
	"go.uber.org/zap"

	"scholarfeed/internal/scholar"
)

// Searcher returns publication records for a query, most relevant first.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]scholar.Record, error)
}

// Assembler builds serialized RSS documents for scholar usernames.
type Assembler struct {
	searcher Searcher
	limit    int
	now      func() time.Time
	log      *zap.Logger
}

// NewAssembler creates an Assembler querying at most limit records per feed.
func NewAssembler(searcher Searcher, limit int, log *zap.Logger) *Assembler {
	return &Assembler{searcher: searcher, limit: limit, now: time.Now, log: log}
}

// Assemble queries username's publications and renders them as RSS XML.
// A search failure yields no partial output; an empty result set still
// yields a valid, empty channel.
func (a *Assembler) Assemble(ctx context.Context, username string) (string, error) {
	query := fmt.Sprintf("author:%q", username)

	results, err := a.searcher.Search(ctx, query, a.limit)
	if err != nil {
		return "", fmt.Errorf("scholar search for %q: %w", username, err)
	}

	a.log.Info("assembling feed",
		zap.String("username", username),
		zap.Int("results", len(results)),
	)

	now := a.now().Format(time.RFC1123Z)
	channel := &feeds.RssFeed{
		Title:         fmt.Sprintf("%s scientific publications", username),
		Link:          defaultBaseLink + "?" + url.Values{"q": {query}}.Encode(),
		Description:   fmt.Sprintf("An RSS feed for %s scientific publications. Parsed from Google Scholar.", username),
		Language:      "en-US",
		Copyright:     "© Google Scholar",
		Generator:     "scholarfeed",
		Docs:          "https://cyber.harvard.edu/rss/rss.html",
		Ttl:           60,
		Category:      "Scientific Research",
		PubDate:       now,
		LastBuildDate: now,
		TextInput: &feeds.RssTextInput{
			Title:       "Google Scholar",
			Description: "Search Google Scholar",
			Name:        "q",
			Link:        defaultBaseLink,
		},
	}

	for _, r := range results {
		item := &feeds.RssItem{
			Title:       r.Title,
			Link:        r.Link,
			Author:      r.Author,
			Description: r.Venue,
			PubDate:     r.Year,
			Source:      normalizeSourceURL(r.Domain),
		}
		if r.Abstract != "" {
			item.Content = &feeds.RssContent{Content: r.Abstract}
		}
		channel.Items = append(channel.Items, item)
	}

	return feeds.ToXML(channel)
}

const defaultBaseLink = "https://scholar.google.com/scholar"

// normalizeSourceURL makes a source domain read as a hostname: bare labels
// like "examplecom" get a ".com" suffix, dotted domains pass through.
func normalizeSourceURL(domain string) string {
	if domain == "" || strings.Contains(domain, ".") {
		return domain
	}
	return domain + ".com"
}
