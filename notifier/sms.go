package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"blocket-watcher/config"
	"blocket-watcher/models"
	"blocket-watcher/utils"
)

// GatewaySMS sends listing alerts through an HTTP SMS gateway. Listing URLs
// are shortened first so the message fits in one segment.
type GatewaySMS struct {
	url       string
	token     string
	from      string
	client    *http.Client
	shortener *Shortener
	logger    *utils.Logger
}

// NewGatewaySMS creates the SMS channel. With no gateway URL or token
// configured the channel reports itself disabled.
func NewGatewaySMS(cfg *config.Config, shortener *Shortener, logger *utils.Logger) *GatewaySMS {
	return &GatewaySMS{
		url:       cfg.SMSGatewayURL,
		token:     cfg.SMSGatewayToken,
		from:      cfg.SMSFrom,
		client:    &http.Client{Timeout: 15 * time.Second},
		shortener: shortener,
		logger:    logger.Named("sms"),
	}
}

// Enabled reports whether the gateway is configured.
func (g *GatewaySMS) Enabled() bool {
	return g.url != "" && g.token != ""
}

// SendSMS delivers one listing to one recipient.
func (g *GatewaySMS) SendSMS(ctx context.Context, recipient *models.Recipient, listing *models.Listing) error {
	payload := map[string]string{
		"from":    g.from,
		"to":      recipient.Tel,
		"message": g.message(ctx, listing),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("sms: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("sms: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.token)

	res, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms: send to %s: %w", recipient.Tel, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("sms: gateway returned status %d for %s", res.StatusCode, recipient.Tel)
	}

	g.logger.Debug("Sent SMS about %s to %s", listing.URL, recipient.Tel)
	return nil
}

func (g *GatewaySMS) message(ctx context.Context, listing *models.Listing) string {
	url := listing.URL
	if g.shortener != nil {
		url = g.shortener.Shorten(ctx, listing.URL)
	}

	if listing.Rent > 0 {
		return fmt.Sprintf("%s, %d kr/mån. %s", listing.Title, listing.Rent, url)
	}
	return fmt.Sprintf("%s. %s", listing.Title, url)
}
