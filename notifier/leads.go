package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"blocket-watcher/config"
	"blocket-watcher/models"
	"blocket-watcher/utils"
)

var (
	// mobileRegexp matches Swedish mobile numbers; the lead service only
	// accepts those.
	mobileRegexp = regexp.MustCompile(`^(\+46|0|46)7`)
	// ownerDenyRegexp matches agency owners whose listings are not
	// forwarded.
	ownerDenyRegexp = regexp.MustCompile(`(?i)samtrygg|renthia`)
	// excludedHomeType is the one home-type category the lead service does
	// not take.
	excludedHomeTypeRegexp = regexp.MustCompile(`(?i)fritidsboende`)

	leadingIntRegexp = regexp.MustCompile(`\d+`)
)

// LeadForwarder posts qualifying listings to a third-party lead service.
// The integration is optional twice over: with no access token the whole
// step short-circuits, and without the notify flag it runs dry, logging
// what it would have sent. Neither mode touches per-recipient opt-ins.
type LeadForwarder struct {
	url      string
	token    string
	notify   bool
	waveSize int
	client   *http.Client
	logger   *utils.Logger
}

// NewLeadForwarder creates a LeadForwarder from configuration.
func NewLeadForwarder(cfg *config.Config, logger *utils.Logger) *LeadForwarder {
	return &LeadForwarder{
		url:      cfg.LeadServiceURL,
		token:    cfg.LeadToken,
		notify:   cfg.LeadNotify,
		waveSize: cfg.DispatchWaveSize,
		client:   &http.Client{Timeout: 15 * time.Second},
		logger:   logger.Named("leads"),
	}
}

// leadPayload is the lead service's wire format.
type leadPayload struct {
	PhoneNumber  string   `json:"phoneNumber"`
	Rent         int      `json:"rent,omitempty"`
	RoomCount    int      `json:"roomCount,omitempty"`
	SquareMeters int      `json:"squareMeters,omitempty"`
	Address      string   `json:"address,omitempty"`
	Description  string   `json:"description,omitempty"`
	Shared       bool     `json:"shared"`
	HomeType     string   `json:"homeType,omitempty"`
	ImageUrls    []string `json:"imageUrls"`
}

// ShouldForward gates one listing: holiday homes, denylisted agency owners
// and non-mobile numbers are all excluded.
func ShouldForward(l *models.Listing) bool {
	if l.HomeType != "" && excludedHomeTypeRegexp.MatchString(l.HomeType) {
		return false
	}
	if ownerDenyRegexp.MatchString(l.Owner) {
		return false
	}
	return mobileRegexp.MatchString(l.Phone)
}

// Forward filters listings through the gate and posts the qualifiers. The
// input slice is always returned unchanged so the step composes into the
// pipeline as a pass-through. Per-listing failures are captured, never
// retried and never escalated.
func (f *LeadForwarder) Forward(ctx context.Context, listings []*models.Listing) []*models.Listing {
	if f.token == "" {
		f.logger.Info("No lead service token configured, skipping lead forwarding")
		return listings
	}

	var qualified []*models.Listing
	for _, l := range listings {
		if ShouldForward(l) {
			qualified = append(qualified, l)
		}
	}
	if len(qualified) == 0 {
		return listings
	}

	if !f.notify {
		f.logger.Info("Dry run: would have forwarded %d listing(s) to the lead service", len(qualified))
		for _, l := range qualified {
			f.logger.Info("Dry run: %s", l.URL)
		}
		return listings
	}

	f.logger.Info("Forwarding %d listing(s) to the lead service", len(qualified))

	tasks := make([]utils.Task[struct{}], len(qualified))
	for i := range tasks {
		l := qualified[i]
		tasks[i] = func() (struct{}, error) {
			return struct{}{}, f.post(ctx, l)
		}
	}

	failed := 0
	for i, o := range utils.RunInWaves(tasks, f.waveSize) {
		if o.Failed() {
			failed++
			f.logger.Warn("Lead forward failed for %s: %v", qualified[i].URL, o.Err)
		}
	}
	if failed > 0 {
		f.logger.Warn("%d of %d lead forwards failed", failed, len(qualified))
	}

	return listings
}

func (f *LeadForwarder) post(ctx context.Context, l *models.Listing) error {
	payload := leadPayload{
		PhoneNumber:  l.Phone,
		Rent:         l.Rent,
		RoomCount:    leadingInt(l.Rooms),
		SquareMeters: leadingInt(l.Size),
		Address:      l.Address,
		Description:  l.Body,
		Shared:       l.Classification.Shared,
		HomeType:     l.HomeType,
		ImageUrls:    l.Images,
	}
	if payload.ImageUrls == nil {
		payload.ImageUrls = []string{}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("leads: marshal %s: %w", l.URL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("leads: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Access-Token", f.token)

	res, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("leads: post %s: %w", l.URL, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("leads: service returned status %d for %s", res.StatusCode, l.URL)
	}
	return nil
}

// leadingInt pulls the first integer out of strings like "2 rum" or
// "24 m²"; 0 when there is none.
func leadingInt(s string) int {
	m := leadingIntRegexp.FindString(s)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}
