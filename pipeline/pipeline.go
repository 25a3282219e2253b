package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"blocket-watcher/config"
	"blocket-watcher/crawler"
	"blocket-watcher/models"
	"blocket-watcher/notifier"
	"blocket-watcher/services"
	"blocket-watcher/storage"
	"blocket-watcher/utils"
)

// Pipeline wires the four stages together: crawl, classify, reconcile,
// notify. One Run is one complete batch over the source site; failures are
// accumulated along the way and the run always completes.
type Pipeline struct {
	cfg        *config.Config
	crawler    *crawler.Crawler
	classifier *services.Classifier
	reconciler *services.Reconciler
	notifier   *notifier.Notifier
	leads      *notifier.LeadForwarder
	recipients storage.RecipientStore
	logger     *utils.Logger
}

// RunReport aggregates what one pipeline run saw and did.
type RunReport struct {
	RunID          string
	Started        time.Time
	Duration       time.Duration
	Stubs          int
	DetailFailures int
	Reconciled     services.ReconcileReport
	Dispatched     notifier.DispatchReport
}

// New assembles a Pipeline from its stages.
func New(
	cfg *config.Config,
	cr *crawler.Crawler,
	cl *services.Classifier,
	rec *services.Reconciler,
	not *notifier.Notifier,
	leads *notifier.LeadForwarder,
	recipients storage.RecipientStore,
	logger *utils.Logger,
) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		crawler:    cr,
		classifier: cl,
		reconciler: rec,
		notifier:   not,
		leads:      leads,
		recipients: recipients,
		logger:     logger.Named("pipeline"),
	}
}

// Run executes one full crawl-to-notify batch.
func (p *Pipeline) Run(ctx context.Context) (*RunReport, error) {
	report := &RunReport{
		RunID:   uuid.NewString(),
		Started: time.Now(),
	}
	defer func() { report.Duration = time.Since(report.Started) }()

	p.logger.Info("Run %s starting", report.RunID)

	stubs, err := p.crawler.FetchAllIndexPages(ctx)
	report.Stubs = len(stubs)
	if len(stubs) == 0 {
		if err != nil {
			return report, fmt.Errorf("pipeline: index walk: %w", err)
		}
		p.logger.Info("Run %s: index empty, nothing to do", report.RunID)
		return report, nil
	}
	if err != nil {
		// Partial index results are still worth processing.
		p.logger.Warn("Run %s: index walk incomplete: %v", report.RunID, err)
	}

	var listings []*models.Listing
	for i, o := range p.crawler.FetchManyDetails(ctx, stubs) {
		if o.Failed() {
			report.DetailFailures++
			p.logger.Warn("Run %s: detail fetch failed for %s: %v", report.RunID, stubs[i].URL, o.Err)
			continue
		}
		listings = append(listings, o.Value)
	}

	p.classifier.ClassifyAll(listings)

	report.Reconciled = p.reconciler.Reconcile(ctx, listings)

	fresh := report.Reconciled.Fresh
	if len(fresh) == 0 {
		p.logger.Info("Run %s: nothing new to notify about", report.RunID)
		return report, nil
	}

	recipients, err := p.recipients.ListActive(ctx)
	if err != nil {
		p.logger.Error("Run %s: listing recipients: %v", report.RunID, err)
	} else {
		report.Dispatched = p.notifier.Notify(ctx, recipients, fresh)
	}

	p.leads.Forward(ctx, fresh)

	p.logger.Info("Run %s done in %s: %d stubs, %d detail failures, %d new, %d updated",
		report.RunID, time.Since(report.Started).Round(time.Millisecond),
		report.Stubs, report.DetailFailures,
		report.Reconciled.Created, report.Reconciled.Updated)
	return report, nil
}
