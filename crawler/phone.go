package crawler

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"blocket-watcher/config"
	"blocket-watcher/utils"
)

const (
	phoneButtonSel = "#show-phonenumber"
	phoneLabelSel  = "#show-phonenumber .button-label"
)

// ChromePhoneRevealer resolves phone numbers by driving a headless browser
// against the mobile site, where the number sits behind a reveal button that
// only renders with scripting enabled.
type ChromePhoneRevealer struct {
	cfg    *config.Config
	logger *utils.Logger
}

// NewChromePhoneRevealer creates a revealer using the configured browser
// binary, falling back to whatever Chrome/Chromium is on the system.
func NewChromePhoneRevealer(cfg *config.Config, logger *utils.Logger) *ChromePhoneRevealer {
	return &ChromePhoneRevealer{cfg: cfg, logger: logger.Named("phone")}
}

// GetPhoneNumber navigates to the mobile version of detailURL, clicks the
// reveal button and reads the number. Every failure path resolves to an
// empty string; the caller treats that as "no number".
func (r *ChromePhoneRevealer) GetPhoneNumber(ctx context.Context, detailURL string) string {
	mobileURL := strings.Replace(detailURL, "://www.", "://m.", 1)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)
	if bin := findChromeBinary(r.cfg.ChromeBin); bin != "" {
		opts = append(opts, chromedp.ExecPath(bin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	runCtx, cancelTimeout := context.WithTimeout(browserCtx, 45*time.Second)
	defer cancelTimeout()

	var number string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(mobileURL),
		chromedp.WaitVisible(phoneButtonSel, chromedp.ByQuery),
		chromedp.Click(phoneButtonSel, chromedp.ByQuery),
		chromedp.Text(phoneLabelSel, &number, chromedp.ByQuery),
	)
	if err != nil {
		r.logger.Debug("No phone number revealed at %s: %v", mobileURL, err)
		return ""
	}

	number = strings.TrimSpace(number)
	if number != "" {
		r.logger.Info("Found phone number at %s", mobileURL)
	}
	return number
}

// findChromeBinary locates a Chrome/Chromium binary, preferring the
// configured path.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
