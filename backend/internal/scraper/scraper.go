package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"pydata-graph/backend/pkg/errors"
	"pydata-graph/backend/pkg/logger"
)

// ScrapedWebsite is the cleaned-up content of one web page.
type ScrapedWebsite struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Scraper fetches readable page content, preferring the Jina reader
// service and falling back to direct HTML extraction.
type Scraper struct {
	readerBaseURL string
	httpClient    *http.Client
	logger        *zap.Logger
}

// NewScraper creates a new scraper. readerBaseURL may be empty, in which
// case only direct extraction is available.
func NewScraper(readerBaseURL string) *Scraper {
	return &Scraper{
		readerBaseURL: readerBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.Get(),
	}
}

// Scrape fetches a page through the Jina reader, which returns
// pre-extracted JSON content.
func (s *Scraper) Scrape(ctx context.Context, pageURL string) (*ScrapedWebsite, error) {
	if s.readerBaseURL == "" {
		return s.ScrapeDirect(ctx, pageURL)
	}

	readerURL := fmt.Sprintf("%s/%s", s.readerBaseURL, pageURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, readerURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-No-Cache", "true")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewScrapeFailed(pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.NewScrapeFailed(pageURL, fmt.Errorf("reader returned %s", resp.Status))
	}

	var envelope struct {
		Data ScrapedWebsite `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, errors.NewScrapeFailed(pageURL, fmt.Errorf("failed to decode reader response: %w", err))
	}

	s.logger.Debug("Scraped website via reader",
		zap.String("url", pageURL),
		zap.Int("content_length", len(envelope.Data.Content)),
	)
	return &envelope.Data, nil
}

// ScrapeDirect fetches the page itself and extracts the title and
// paragraph text from the HTML.
func (s *Scraper) ScrapeDirect(ctx context.Context, pageURL string) (*ScrapedWebsite, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "text/html")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewScrapeFailed(pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.NewScrapeFailed(pageURL, fmt.Errorf("unexpected status %s", resp.Status))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, errors.NewScrapeFailed(pageURL, fmt.Errorf("failed to parse HTML: %w", err))
	}

	doc.Find("script, style, nav, footer").Remove()

	var paragraphs []string
	doc.Find("h1, h2, h3, p, li").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text != "" {
			paragraphs = append(paragraphs, text)
		}
	})

	site := &ScrapedWebsite{
		Title:   strings.TrimSpace(doc.Find("title").First().Text()),
		URL:     pageURL,
		Content: strings.Join(paragraphs, "\n"),
	}

	s.logger.Debug("Scraped website directly",
		zap.String("url", pageURL),
		zap.Int("content_length", len(site.Content)),
	)
	return site, nil
}
