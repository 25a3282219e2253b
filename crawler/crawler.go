package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"blocket-watcher/config"
	"blocket-watcher/utils"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// PhoneRevealer resolves the advertiser's phone number for a detail page.
// Implementations must treat every failure as "no number available";
// a missing phone never fails the enclosing detail fetch.
type PhoneRevealer interface {
	GetPhoneNumber(ctx context.Context, detailURL string) string
}

// Crawler walks the listing index and fetches detail pages.
type Crawler struct {
	cfg    *config.Config
	logger *utils.Logger
	client *http.Client
	phones PhoneRevealer
}

// New creates a ready-to-use Crawler. phones may be nil, in which case no
// phone numbers are resolved.
func New(cfg *config.Config, logger *utils.Logger, phones PhoneRevealer) *Crawler {
	return &Crawler{
		cfg:    cfg,
		logger: logger.Named("crawler"),
		client: &http.Client{Timeout: 30 * time.Second},
		phones: phones,
	}
}

// getPage fetches url and returns the response body as a string.
func (c *Crawler) getPage(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("crawler: build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Connection", "keep-alive")

	res, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("crawler: get %s: %w", url, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", fmt.Errorf("crawler: get %s: status %d", url, res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("crawler: read %s: %w", url, err)
	}
	return string(body), nil
}
