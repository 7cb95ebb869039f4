package source

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/khanhnv2901/moodscan/internal/domain/snapshot"
	"github.com/khanhnv2901/moodscan/internal/domain/vulnerability"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// AdvisoryScraper builds the official corpus from the security advisory pages.
type AdvisoryScraper struct {
	client  Doer
	baseURL string
	limiter *rate.Limiter
	logger  *zap.SugaredLogger
}

// NewAdvisoryScraper creates a scraper for the listing at baseURL, fetching at most
// ratePerSecond pages per second.
func NewAdvisoryScraper(client Doer, baseURL string, ratePerSecond int, logger *zap.SugaredLogger) *AdvisoryScraper {
	if baseURL == "" {
		baseURL = DefaultAdvisoriesURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if ratePerSecond <= 0 {
		ratePerSecond = 5
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &AdvisoryScraper{
		client:  client,
		baseURL: baseURL,
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), 1),
		logger:  logger,
	}
}

// PageURL returns the address of listing page i (zero based).
func (s *AdvisoryScraper) PageURL(i int) string {
	return s.baseURL + "index.php?o=3&p=" + strconv.Itoa(i)
}

// Fetch scrapes every listing page and returns the advisories in page order.
func (s *AdvisoryScraper) Fetch(ctx context.Context, progress snapshot.ProgressFunc) ([]vulnerability.Record, error) {
	pages, err := s.pageCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("retrieve security pages count: %w", err)
	}
	s.logger.Debugw("scraping security advisories", "pages", pages)

	records := make([]vulnerability.Record, 0)
	for i := 0; i < pages; i++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		page, err := s.get(ctx, s.PageURL(i))
		if err != nil {
			return nil, fmt.Errorf("scrape page %d: %w", i+1, err)
		}
		records = append(records, s.parsePage(page, s.PageURL(i))...)

		if progress != nil {
			progress(i+1, pages)
		}
	}
	return records, nil
}

func (s *AdvisoryScraper) pageCount(ctx context.Context) (int, error) {
	doc, err := s.get(ctx, s.baseURL)
	if err != nil {
		return 0, err
	}
	raw, ok := doc.Find("li.page-item.disabled[data-page-number]").First().Attr("data-page-number")
	if !ok {
		return 0, fmt.Errorf("pager not found on %s", s.baseURL)
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid page count %q", raw)
	}
	return n, nil
}

func (s *AdvisoryScraper) get(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	body, err := fetch(ctx, s.client, req)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(bytes.NewReader(body))
}

func (s *AdvisoryScraper) parsePage(doc *goquery.Document, pageURL string) []vulnerability.Record {
	var records []vulnerability.Record
	doc.Find("article").Each(func(_ int, article *goquery.Selection) {
		rows := article.Find("table").First().Find("tr")
		if rows.Length() == 0 {
			return
		}

		title := strings.TrimSpace(article.Find("h3.h6").First().Text())
		affected, ok := tableValue(rows, "versions affected")
		if !ok {
			s.logger.Debugw("advisory without affected versions skipped", "title", title)
			return
		}

		cves := []string{vulnerability.NoIdentifier}
		if text, ok := tableValue(rows, "cve identifier"); ok {
			cves = vulnerability.ParseCVEs(text)
		} else if text, ok := tableValue(rows, "issue no"); ok {
			cves = vulnerability.ParseCVEs(text)
		}

		id, _ := article.Attr("id")
		records = append(records, vulnerability.NewRecord(title, cves, strings.TrimSpace(affected), pageURL+"#"+id))
	})
	return records
}

// tableValue returns the second cell of the first row whose label cell contains label.
func tableValue(rows *goquery.Selection, label string) (string, bool) {
	var (
		value string
		found bool
	)
	rows.EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		cells := tr.Find("td")
		if cells.Length() < 2 {
			return true
		}
		if strings.Contains(strings.ToLower(cells.Eq(0).Text()), label) {
			value = cells.Eq(1).Text()
			found = true
			return false
		}
		return true
	})
	return value, found
}
