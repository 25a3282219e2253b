package notifier

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	"blocket-watcher/config"
	"blocket-watcher/models"
	"blocket-watcher/utils"
)

// SMTPEmail sends one digest email per recipient covering all their matched
// listings in a run.
type SMTPEmail struct {
	dialer *gomail.Dialer
	from   string
	host   string
	logger *utils.Logger
}

// NewSMTPEmail creates the email channel. With no SMTP host configured the
// channel reports itself disabled.
func NewSMTPEmail(cfg *config.Config, logger *utils.Logger) *SMTPEmail {
	var dialer *gomail.Dialer
	if cfg.SMTPHost != "" {
		dialer = gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	}
	return &SMTPEmail{
		dialer: dialer,
		from:   cfg.SMTPFrom,
		host:   cfg.SMTPHost,
		logger: logger.Named("email"),
	}
}

// Enabled reports whether an SMTP host is configured.
func (e *SMTPEmail) Enabled() bool {
	return e.dialer != nil
}

// SendEmail delivers the listing digest to one recipient.
func (e *SMTPEmail) SendEmail(_ context.Context, recipient *models.Recipient, listings []*models.Listing) error {
	m := gomail.NewMessage()
	m.SetHeader("From", e.from)
	m.SetHeader("To", recipient.Email)
	m.SetHeader("Subject", subject(len(listings)))
	m.SetBody("text/plain", digestBody(recipient, listings))

	if err := e.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("email: send to %s: %w", recipient.Email, err)
	}

	e.logger.Debug("Sent digest of %d listings to %s", len(listings), recipient.Email)
	return nil
}

func subject(count int) string {
	if count == 1 {
		return "1 ny bostad matchar din bevakning"
	}
	return fmt.Sprintf("%d nya bostäder matchar din bevakning", count)
}

func digestBody(recipient *models.Recipient, listings []*models.Listing) string {
	var b strings.Builder
	if recipient.Name != "" {
		fmt.Fprintf(&b, "Hej %s!\n\n", recipient.Name)
	}
	b.WriteString("Följande bostäder matchar din bevakning:\n\n")

	for _, l := range listings {
		fmt.Fprintf(&b, "- %s", l.Title)
		if l.Rent > 0 {
			fmt.Fprintf(&b, " (%d kr/mån)", l.Rent)
		}
		if l.Location != "" {
			fmt.Fprintf(&b, ", %s", l.Location)
		}
		fmt.Fprintf(&b, "\n  %s\n", l.URL)
	}
	return b.String()
}
