package notifier

import (
	"context"
	"fmt"

	"blocket-watcher/models"
	"blocket-watcher/services"
	"blocket-watcher/utils"
)

// SMSSender delivers one listing to one recipient over SMS.
type SMSSender interface {
	Enabled() bool
	SendSMS(ctx context.Context, recipient *models.Recipient, listing *models.Listing) error
}

// EmailSender delivers a digest of listings to one recipient.
type EmailSender interface {
	Enabled() bool
	SendEmail(ctx context.Context, recipient *models.Recipient, listings []*models.Listing) error
}

// Notifier matches listings to recipients and dispatches over every channel
// each recipient is eligible for. Channel eligibility: SMS needs a phone
// contact and the SMS opt-in, email needs an address and the email opt-in;
// both can apply to the same recipient independently.
type Notifier struct {
	matcher  *services.Matcher
	sms      SMSSender
	email    EmailSender
	waveSize int
	logger   *utils.Logger
}

// DispatchReport summarizes one dispatch cycle.
type DispatchReport struct {
	Recipients int
	SMSSent    int
	SMSFailed  int
	EmailSent  int
	EmailFailed int
}

// New creates a Notifier. Either sender may be disabled; its channel then
// short-circuits as a logged no-op.
func New(matcher *services.Matcher, sms SMSSender, email EmailSender, waveSize int, logger *utils.Logger) *Notifier {
	return &Notifier{
		matcher:  matcher,
		sms:      sms,
		email:    email,
		waveSize: waveSize,
		logger:   logger.Named("notifier"),
	}
}

// dispatchTask labels a queued send so failures can be counted per channel.
type dispatchTask struct {
	channel string // "sms" or "email"
	run     utils.Task[struct{}]
}

// Notify matches listings against the recipients' profiles and fans the
// resulting SMS and email sends out through the executor in one combined
// batch. A failure on one channel for one recipient never blocks others.
func (n *Notifier) Notify(ctx context.Context, recipients []*models.Recipient, listings []*models.Listing) DispatchReport {
	var report DispatchReport
	if len(listings) == 0 || len(recipients) == 0 {
		return report
	}

	targets := n.matcher.MatchInterests(recipients, listings)
	report.Recipients = len(targets)
	if len(targets) == 0 {
		n.logger.Info("No recipients matched, nothing to dispatch")
		return report
	}

	if !n.sms.Enabled() {
		n.logger.Info("SMS channel not configured, skipping SMS dispatch")
	}
	if !n.email.Enabled() {
		n.logger.Info("Email channel not configured, skipping email dispatch")
	}

	var queue []dispatchTask
	for _, target := range targets {
		recipient := target.Recipient

		if n.sms.Enabled() && recipient.NotifySMS && recipient.Tel != "" {
			// One SMS per matched listing.
			for _, listing := range target.Listings {
				listing := listing
				queue = append(queue, dispatchTask{channel: "sms", run: func() (struct{}, error) {
					return struct{}{}, n.sms.SendSMS(ctx, recipient, listing)
				}})
			}
		}

		if n.email.Enabled() && recipient.NotifyEmail && recipient.Email != "" {
			listings := target.Listings
			queue = append(queue, dispatchTask{channel: "email", run: func() (struct{}, error) {
				return struct{}{}, n.email.SendEmail(ctx, recipient, listings)
			}})
		}
	}

	if len(queue) == 0 {
		n.logger.Info("No eligible channels among %d matched recipients", len(targets))
		return report
	}

	tasks := make([]utils.Task[struct{}], len(queue))
	for i, q := range queue {
		tasks[i] = q.run
	}

	n.logger.Info("Dispatching %d notifications in waves of %d", len(tasks), n.waveSize)
	outcomes := utils.RunInWaves(tasks, n.waveSize)

	for i, o := range outcomes {
		switch {
		case queue[i].channel == "sms" && o.Failed():
			report.SMSFailed++
			n.logger.Warn("SMS dispatch failed: %v", o.Err)
		case queue[i].channel == "sms":
			report.SMSSent++
		case o.Failed():
			report.EmailFailed++
			n.logger.Warn("Email dispatch failed: %v", o.Err)
		default:
			report.EmailSent++
		}
	}

	n.logger.Info("Dispatch done: %d sms ok, %d sms failed, %d email ok, %d email failed",
		report.SMSSent, report.SMSFailed, report.EmailSent, report.EmailFailed)
	return report
}

// disabledChannel is what callers plug in for a channel with no transport
// configured at all.
type disabledChannel struct{}

// Disabled returns a sender usable for both channels that is never eligible.
func Disabled() interface {
	SMSSender
	EmailSender
} {
	return disabledChannel{}
}

func (disabledChannel) Enabled() bool { return false }

func (disabledChannel) SendSMS(context.Context, *models.Recipient, *models.Listing) error {
	return fmt.Errorf("sms channel disabled")
}

func (disabledChannel) SendEmail(context.Context, *models.Recipient, []*models.Listing) error {
	return fmt.Errorf("email channel disabled")
}
