// Package scholar scrapes Google Scholar result pages into publication
// records.
package scholar

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const defaultBaseURL = "https://scholar.google.com/scholar"

// Record is one publication row from a result page.
type Record struct {
	Title    string
	Author   string
	Link     string
	Abstract string
	Year     string
	Venue    string
	Domain   string
}

// Fetcher issues outbound GET requests.
type Fetcher interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}

// Client queries Google Scholar over HTTP.
type Client struct {
	fetcher Fetcher
	baseURL string
	log     *zap.Logger
}

// NewClient returns a Client scraping baseURL; an empty baseURL selects the
// public Scholar endpoint.
func NewClient(fetcher Fetcher, baseURL string, log *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{fetcher: fetcher, baseURL: baseURL, log: log}
}

// Search runs query against Scholar and returns up to limit records in
// result order. A limit of zero means no bound beyond what the page carries.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Record, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("hl", "en")
	if limit > 0 {
		params.Set("num", strconv.Itoa(limit))
	}

	c.log.Debug("querying scholar", zap.String("query", query), zap.Int("limit", limit))

	resp, err := c.fetcher.Get(ctx, c.baseURL+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("scholar request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scholar returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse scholar response: %w", err)
	}

	var records []Record
	doc.Find("div.gs_r.gs_or").Each(func(_ int, sel *goquery.Selection) {
		if limit > 0 && len(records) >= limit {
			return
		}
		rec := parseResult(sel)
		if rec.Title == "" {
			return
		}
		records = append(records, rec)
	})

	c.log.Debug("scholar results", zap.Int("count", len(records)))
	return records, nil
}

func parseResult(sel *goquery.Selection) Record {
	var rec Record

	titleLink := sel.Find("h3.gs_rt a").First()
	rec.Title = strings.TrimSpace(titleLink.Text())
	rec.Link, _ = titleLink.Attr("href")
	rec.Abstract = strings.TrimSpace(sel.Find("div.gs_rs").First().Text())

	// The byline reads "A Author, B Author - Venue, 2021 - example.com".
	parts := strings.Split(strings.TrimSpace(sel.Find("div.gs_a").First().Text()), " - ")
	if len(parts) > 0 {
		rec.Author = strings.TrimSpace(parts[0])
	}
	if len(parts) > 1 {
		rec.Venue, rec.Year = splitVenueYear(strings.TrimSpace(parts[1]))
	}
	if len(parts) > 2 {
		rec.Domain = strings.TrimSpace(parts[len(parts)-1])
	}
	return rec
}

// splitVenueYear separates "Journal of Computing, 2021" into its venue and
// year; a bare "2021" counts as a year with no venue.
func splitVenueYear(s string) (venue, year string) {
	if i := strings.LastIndex(s, ","); i >= 0 {
		return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:])
	}
	if len(s) == 4 && isDigits(s) {
		return "", s
	}
	return s, ""
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
