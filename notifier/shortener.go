package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"blocket-watcher/utils"
)

const defaultShortenEndpoint = "https://api-ssl.bitly.com/v3/shorten"

// Shortener shrinks listing URLs for SMS messages through a Bitly-style
// shorten API. Shortening is best-effort: any failure, and a missing token,
// fall back to the original URL.
type Shortener struct {
	endpoint string
	token    string
	client   *http.Client
	logger   *utils.Logger
}

// NewShortener creates a Shortener; an empty token disables it.
func NewShortener(token string, logger *utils.Logger) *Shortener {
	return &Shortener{
		endpoint: defaultShortenEndpoint,
		token:    token,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger.Named("shortener"),
	}
}

type shortenResponse struct {
	Data struct {
		URL string `json:"url"`
	} `json:"data"`
	StatusCode int `json:"status_code"`
}

// Shorten returns a short URL for longURL, or longURL itself when the
// shortener is unconfigured or the request fails.
func (s *Shortener) Shorten(ctx context.Context, longURL string) string {
	if s.token == "" {
		return longURL
	}

	q := url.Values{}
	q.Set("access_token", s.token)
	q.Set("longUrl", longURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s?%s", s.endpoint, q.Encode()), nil)
	if err != nil {
		return longURL
	}

	res, err := s.client.Do(req)
	if err != nil {
		s.logger.Debug("Shorten %s failed: %v", longURL, err)
		return longURL
	}
	defer res.Body.Close()

	var parsed shortenResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil || parsed.Data.URL == "" {
		s.logger.Debug("Shorten %s: unusable response", longURL)
		return longURL
	}

	return parsed.Data.URL
}
