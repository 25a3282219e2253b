package crawler

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"blocket-watcher/models"
	"blocket-watcher/utils"
)

// Detail-page selectors and markers. Like the index selectors, these track
// the upstream site's markup.
const (
	selDetailOwner   = "h2.h4"
	selDetailBody    = ".object-text"
	selDetailImage   = `meta[property="og:image"]`
	selDetailHeading = "h3"

	addressHeading = "adress"
	notFoundMarker = "Hittade inte annonsen"
)

var (
	ownerPrefixRegexp = regexp.MustCompile(`(?i)uthyres av:\s*`)
	brRegexp          = regexp.MustCompile(`(?i)<br\s*/?>`)
	multiSpaceRegexp  = regexp.MustCompile(` +`)
	multiLineRegexp   = regexp.MustCompile(`\n+`)
	homeTypeRegexp    = regexp.MustCompile(`(?i)bostadstyp:?\s*`)
	// telMarkerRegexp matches the widgets the site renders when the ad
	// carries a phone number; checked before the reveal service is called.
	telMarkerRegexp = regexp.MustCompile(`(?i)phonenumber-btn|show-phonenumber`)
	// disclaimerRegexp matches the map-accuracy boilerplate that shares a
	// section with the address line.
	disclaimerRegexp = regexp.MustCompile(`(?i)kartan visar områdets ungefärliga position`)
)

// FetchDetail fetches the detail page behind stub and merges the parsed
// fields with the stub's index data. Parse misses degrade to empty fields;
// only the page fetch itself can fail the listing.
func (c *Crawler) FetchDetail(ctx context.Context, stub *models.ListingStub) (*models.Listing, error) {
	raw, err := c.getPage(ctx, stub.URL)
	if err != nil {
		return nil, err
	}

	listing, err := c.parseDetailPage(raw)
	if err != nil {
		return nil, err
	}
	stub.Merge(listing)

	if !listing.Disabled && c.phones != nil && telMarkerRegexp.MatchString(raw) {
		listing.Phone = c.phones.GetPhoneNumber(ctx, stub.URL)
	}

	return listing, nil
}

// FetchManyDetails runs FetchDetail over all stubs through the executor.
// The outcome slice matches the stub slice by position even though
// individual fetches finish out of order; a failed fetch occupies its own
// index without affecting the rest.
func (c *Crawler) FetchManyDetails(ctx context.Context, stubs []*models.ListingStub) []utils.Outcome[*models.Listing] {
	tasks := make([]utils.Task[*models.Listing], len(stubs))
	for i := range tasks {
		stub := stubs[i]
		tasks[i] = func() (*models.Listing, error) {
			return c.FetchDetail(ctx, stub)
		}
	}

	c.logger.Info("Fetching %d detail pages in waves of %d", len(stubs), c.cfg.DetailWaveSize)
	outcomes := utils.RunInWaves(tasks, c.cfg.DetailWaveSize)

	failed := 0
	for _, o := range outcomes {
		if o.Failed() {
			failed++
		}
	}
	if failed > 0 {
		c.logger.Warn("%d of %d detail fetches failed", failed, len(stubs))
	}
	return outcomes
}

// parseDetailPage extracts the owner, body, images, address and home type
// from a raw detail-page document.
func (c *Crawler) parseDetailPage(raw string) (*models.Listing, error) {
	// Line-break markup becomes paragraph breaks before parsing; stray
	// CR/LF/tab noise becomes plain spaces.
	cleaned := strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ", "\t", " ").Replace(raw)
	cleaned = brRegexp.ReplaceAllString(cleaned, "\n\n")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(cleaned))
	if err != nil {
		return nil, fmt.Errorf("crawler: parse detail page: %w", err)
	}

	listing := &models.Listing{
		Owner:    parseOwner(doc),
		Body:     parseBody(doc),
		Images:   parseImages(doc),
		Address:  parseAddress(doc),
		HomeType: parseHomeType(doc),
		Disabled: strings.Contains(raw, notFoundMarker),
	}
	return listing, nil
}

func parseOwner(doc *goquery.Document) string {
	owner := doc.Find(selDetailOwner).First().Text()
	owner = ownerPrefixRegexp.ReplaceAllString(owner, "")
	return strings.TrimSpace(owner)
}

func parseBody(doc *goquery.Document) string {
	body := doc.Find(selDetailBody).Text()
	body = multiSpaceRegexp.ReplaceAllString(body, " ")
	body = multiLineRegexp.ReplaceAllString(body, "\n\n")
	return strings.TrimSpace(body)
}

func parseImages(doc *goquery.Document) []string {
	var images []string
	doc.Find(selDetailImage).Each(func(_ int, meta *goquery.Selection) {
		if src, ok := meta.Attr("content"); ok && src != "" {
			images = append(images, src)
		}
	})
	return images
}

// parseAddress takes the first text line under the address heading that is
// not the map disclaimer.
func parseAddress(doc *goquery.Document) string {
	var address string
	doc.Find(selDetailHeading).EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if !strings.EqualFold(strings.TrimSpace(h.Text()), addressHeading) {
			return true
		}
		h.NextAll().EachWithBreak(func(_ int, sib *goquery.Selection) bool {
			text := normalizeSpace(sib.Text())
			if text == "" || disclaimerRegexp.MatchString(text) {
				return true
			}
			address = text
			return false
		})
		return false
	})
	return address
}

// parseHomeType reads the home-type label, capitalizes the first letter and
// strips internal whitespace so "lägenhet" and "Lägenhet " compare equal.
func parseHomeType(doc *goquery.Document) string {
	var homeType string
	doc.Find("dt").EachWithBreak(func(_ int, dt *goquery.Selection) bool {
		if !strings.EqualFold(strings.TrimSpace(dt.Text()), "bostadstyp") {
			return true
		}
		homeType = dt.Next().Text()
		return false
	})
	if homeType == "" {
		return ""
	}

	homeType = homeTypeRegexp.ReplaceAllString(homeType, "")
	homeType = strings.Join(strings.Fields(homeType), "")
	runes := []rune(homeType)
	if len(runes) > 0 {
		runes[0] = unicode.ToUpper(runes[0])
	}
	return string(runes)
}
