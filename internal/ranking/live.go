// Package ranking supplies change-percent market rankings, either scraped
// from a public ranking page or derived from a configured universe.
package ranking

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"momentum-trading-bot/internal/logger"
	"momentum-trading-bot/internal/types"
)

// MaxRankCount bounds a ranking request.
const MaxRankCount = 200

// RankSource describes one ranking page and the selectors that locate its
// table rows and cells.
type RankSource struct {
	Name      string
	URL       string
	Selectors RowSelectors
	RateLimit time.Duration
}

// RowSelectors are CSS selectors for one ranking-table row.
type RowSelectors struct {
	Row           string
	Code          string
	StockName     string
	ChangePercent string
	Volume        string
}

// LiveScraper fetches the day's top movers from a ranking page.
type LiveScraper struct {
	source  RankSource
	timeout time.Duration
}

// NewLiveScraper returns a scraper against the default ranking source.
func NewLiveScraper(timeout time.Duration) *LiveScraper {
	return &LiveScraper{
		source:  defaultSource(),
		timeout: timeout,
	}
}

func defaultSource() RankSource {
	return RankSource{
		Name: "YahooTW",
		URL:  "https://tw.stock.yahoo.com/rank/change-up",
		Selectors: RowSelectors{
			Row:           "li.List\\(n\\)",
			Code:          "span.Fz\\(14px\\)",
			StockName:     "div.Lh\\(20px\\)",
			ChangePercent: "span.Fw\\(600\\)",
			Volume:        "span.Fz\\(16px\\)",
		},
		RateLimit: 2 * time.Second,
	}
}

// ChangePercentRank scrapes up to count entries, best movers first.
func (s *LiveScraper) ChangePercentRank(ctx context.Context, count int) ([]types.RankEntry, error) {
	if count < 0 || count > MaxRankCount {
		return nil, fmt.Errorf("ranking: count must be within [0, %d], got %d", MaxRankCount, count)
	}
	if count == 0 {
		return nil, nil
	}

	logger.Info(ctx, "Fetching change-percent ranking", "source", s.source.Name, "count", count)

	entries := []types.RankEntry{}

	c := colly.NewCollector(
		colly.AllowedDomains(hostOf(s.source.URL)),
		colly.MaxDepth(1),
		colly.Async(false),
	)
	c.SetRequestTimeout(s.timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	})

	c.OnHTML(s.source.Selectors.Row, func(e *colly.HTMLElement) {
		if len(entries) >= count {
			return
		}
		entry, err := ParseRow(e.DOM, s.source.Selectors)
		if err != nil {
			logger.Warn(ctx, "Skipping unparsable ranking row", "error", err)
			return
		}
		entries = append(entries, entry)
	})

	c.OnError(func(r *colly.Response, err error) {
		logger.ErrorWithErr(ctx, "Ranking scrape error", err, "source", s.source.Name, "url", r.Request.URL.String())
	})

	if err := c.Visit(s.source.URL); err != nil {
		return nil, fmt.Errorf("failed to visit %s: %w", s.source.URL, err)
	}
	c.Wait()

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ChangePercent > entries[j].ChangePercent
	})
	if len(entries) > count {
		entries = entries[:count]
	}

	logger.Info(ctx, "Ranking fetch completed", "source", s.source.Name, "entries", len(entries))
	return entries, nil
}

// ParseRow extracts one ranking entry from a table row. A row without a
// stock code or a readable change percent is rejected; a missing volume
// cell degrades to zero.
func ParseRow(row *goquery.Selection, sels RowSelectors) (types.RankEntry, error) {
	code := strings.TrimSpace(row.Find(sels.Code).First().Text())
	if code == "" {
		return types.RankEntry{}, fmt.Errorf("ranking: row has no stock code")
	}

	changeText := strings.TrimSpace(row.Find(sels.ChangePercent).First().Text())
	change, err := ParseChangePercent(changeText)
	if err != nil {
		return types.RankEntry{}, fmt.Errorf("ranking: row %s: %w", code, err)
	}

	volume, err := ParseVolume(strings.TrimSpace(row.Find(sels.Volume).Last().Text()))
	if err != nil {
		volume = 0
	}

	return types.RankEntry{
		Code:          code,
		Name:          strings.TrimSpace(row.Find(sels.StockName).First().Text()),
		ChangePercent: change,
		Volume:        volume,
	}, nil
}

// ParseChangePercent parses ranking-page change text like "+3.25%" or
// "▲6.12%" into a float.
func ParseChangePercent(raw string) (float64, error) {
	cleaned := strings.NewReplacer("%", "", "+", "", "▲", "", "▼", "-", ",", "").Replace(raw)
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0, fmt.Errorf("ranking: empty change percent")
	}
	return strconv.ParseFloat(cleaned, 64)
}

// ParseVolume parses share-volume text like "12,345,678" into an int64.
func ParseVolume(raw string) (int64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" || cleaned == "-" {
		return 0, fmt.Errorf("ranking: empty volume")
	}
	return strconv.ParseInt(cleaned, 10, 64)
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
