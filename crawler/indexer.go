package crawler

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"blocket-watcher/models"
	"blocket-watcher/utils"
)

// Index-page selectors. These track the upstream site's markup and must be
// kept in sync with it.
const (
	selIndexRow    = "article.item_row"
	selIndexLink   = "a.item_link"
	selIndexPrice  = "p.list_price"
	selIndexRooms  = ".li_detail_params.rooms"
	selIndexSize   = ".li_detail_params.size"
	selIndexArea   = ".address"
	selIndexListed = "time.jlist_date"
)

var digitsRegexp = regexp.MustCompile(`\d+`)

// indexURL builds the index-page URL for page. The price ceiling and region
// are applied at the source as request parameters, never re-filtered here.
func (c *Crawler) indexURL(page int) string {
	q := url.Values{}
	q.Set("mre", strconv.Itoa(c.cfg.PriceCeiling))
	q.Set("o", strconv.Itoa(page))
	return fmt.Sprintf("%s/bostad/uthyres/%s?%s", c.cfg.BaseURL, c.cfg.Region, q.Encode())
}

// FetchIndexPage fetches one listing-index page and extracts the stubs
// visible on it. Fields not shown on the index page stay zero until the
// detail fetcher fills them in.
func (c *Crawler) FetchIndexPage(ctx context.Context, page int) ([]*models.ListingStub, error) {
	body, err := c.getPage(ctx, c.indexURL(page))
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("crawler: parse index page %d: %w", page, err)
	}

	now := time.Now()
	var stubs []*models.ListingStub

	doc.Find(selIndexRow).Each(func(_ int, row *goquery.Selection) {
		link := row.Find(selIndexLink).First()
		href, ok := link.Attr("href")
		if !ok || href == "" {
			return
		}
		if strings.HasPrefix(href, "/") {
			href = c.cfg.BaseURL + href
		}

		stubs = append(stubs, &models.ListingStub{
			URL:      href,
			Title:    normalizeSpace(link.Text()),
			Rent:     parseRent(row.Find(selIndexPrice).First().Text()),
			Rooms:    normalizeSpace(row.Find(selIndexRooms).First().Text()),
			Size:     normalizeSpace(row.Find(selIndexSize).First().Text()),
			Location: normalizeSpace(row.Find(selIndexArea).First().Text()),
			ListedAt: utils.ParseListedAt(row.Find(selIndexListed).First().Text(), now),
		})
	})

	c.logger.Debug("Index page %d yielded %d stubs", page, len(stubs))
	return stubs, nil
}

// FetchAllIndexPages walks the index until the configured page limit, or
// until a page comes back empty when no limit is set. With a limit the
// pages are fetched through the executor in waves; page order is preserved
// either way. Duplicate URLs across pages are dropped.
func (c *Crawler) FetchAllIndexPages(ctx context.Context) ([]*models.ListingStub, error) {
	var pages [][]*models.ListingStub
	seen := utils.NewURLSet()

	if c.cfg.MaxPages > 0 {
		tasks := make([]utils.Task[[]*models.ListingStub], c.cfg.MaxPages)
		for i := range tasks {
			page := i + 1
			tasks[i] = func() ([]*models.ListingStub, error) {
				return c.FetchIndexPage(ctx, page)
			}
		}

		for i, o := range utils.RunInWaves(tasks, c.cfg.IndexWaveSize) {
			if o.Err != nil {
				c.logger.Warn("Index page %d failed: %v", i+1, o.Err)
				continue
			}
			pages = append(pages, o.Value)
		}
	} else {
		for page := 1; ; page++ {
			stubs, err := c.FetchIndexPage(ctx, page)
			if err != nil {
				return flattenUnique(pages, seen), err
			}
			if len(stubs) == 0 {
				c.logger.Info("Index page %d empty, stopping", page)
				break
			}
			pages = append(pages, stubs)
		}
	}

	all := flattenUnique(pages, seen)
	c.logger.Info("Index walk complete: %d stubs", len(all))
	return all, nil
}

func flattenUnique(pages [][]*models.ListingStub, seen *utils.URLSet) []*models.ListingStub {
	var all []*models.ListingStub
	for _, page := range pages {
		for _, stub := range page {
			if seen.Add(stub.URL) {
				all = append(all, stub)
			}
		}
	}
	return all
}

// parseRent extracts a monthly rent in whole kronor from strings like
// "7 500 kr/mån". Missing or unparsable prices yield 0.
func parseRent(raw string) int {
	digits := strings.Join(digitsRegexp.FindAllString(raw, -1), "")
	if digits == "" {
		return 0
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

// normalizeSpace trims the string and collapses internal whitespace runs.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
