package services

import (
	"context"
	"time"

	"blocket-watcher/models"
	"blocket-watcher/storage"
	"blocket-watcher/utils"
)

// Reconciler decides, per incoming listing, whether it is new, changed or
// identical to the stored record, and owns the create/update/soft-delete
// lifecycle. The store itself is the sole authority for "does this listing
// already exist".
type Reconciler struct {
	store  storage.ListingStore
	logger *utils.Logger
	now    func() time.Time
}

// ReconcileReport summarizes one reconciliation batch.
type ReconcileReport struct {
	Created   int
	Updated   int
	Unchanged int
	Removed   int
	Failed    int

	// Fresh holds the listings that were created or materially changed this
	// run; these are the only ones worth notifying about.
	Fresh []*models.Listing
}

// NewReconciler creates a Reconciler backed by store.
func NewReconciler(store storage.ListingStore, logger *utils.Logger) *Reconciler {
	return &Reconciler{store: store, logger: logger.Named("reconciler"), now: time.Now}
}

// Reconcile processes the batch one listing at a time. Store failures are
// counted and logged, never escalated; the batch always runs to completion.
func (r *Reconciler) Reconcile(ctx context.Context, incoming []*models.Listing) ReconcileReport {
	var report ReconcileReport

	for _, listing := range incoming {
		if err := r.reconcileOne(ctx, listing, &report); err != nil {
			report.Failed++
			r.logger.Error("Reconcile %s: %v", listing.URL, err)
		}
	}

	r.logger.Info("Reconciled %d listings: %d new, %d updated, %d unchanged, %d removed, %d failed",
		len(incoming), report.Created, report.Updated, report.Unchanged, report.Removed, report.Failed)
	return report
}

func (r *Reconciler) reconcileOne(ctx context.Context, incoming *models.Listing, report *ReconcileReport) error {
	stored, err := r.store.FindByURL(ctx, incoming.URL)
	if err != nil {
		return err
	}

	now := r.now()

	if stored == nil {
		incoming.CreatedAt = now
		incoming.ModifiedAt = now
		incoming.Active = !incoming.Disabled
		if incoming.Disabled {
			incoming.RemovedAt = &now
		}
		if _, err := r.store.Upsert(ctx, incoming); err != nil {
			return err
		}
		report.Created++
		if !incoming.Disabled {
			report.Fresh = append(report.Fresh, incoming)
		}
		return nil
	}

	if incoming.Disabled {
		// Source reports the ad gone. The transition is one-way: RemovedAt
		// is set once and the record is never resurrected automatically.
		if stored.RemovedAt != nil {
			report.Unchanged++
			return nil
		}
		stored.Disabled = true
		stored.Active = false
		stored.RemovedAt = &now
		stored.ModifiedAt = now
		if _, err := r.store.Upsert(ctx, stored); err != nil {
			return err
		}
		report.Removed++
		return nil
	}

	if !listingChanged(stored, incoming) {
		report.Unchanged++
		return nil
	}

	applyChanges(stored, incoming)
	stored.ModifiedAt = now
	if _, err := r.store.Upsert(ctx, stored); err != nil {
		return err
	}
	report.Updated++
	report.Fresh = append(report.Fresh, stored)
	return nil
}

// listingChanged compares the stored record against the incoming crawl
// field by field. The comparison is tolerant: a zero incoming value means
// the crawl simply did not see that field and never counts as a change.
// Images compare as sets, dates by instant, classification tag by tag.
// Lifecycle fields (CreatedAt, ModifiedAt, RemovedAt, Active, Disabled)
// are excluded.
func listingChanged(stored, incoming *models.Listing) bool {
	if stringChanged(stored.Title, incoming.Title) ||
		stringChanged(stored.Owner, incoming.Owner) ||
		stringChanged(stored.Body, incoming.Body) ||
		stringChanged(stored.Size, incoming.Size) ||
		stringChanged(stored.Rooms, incoming.Rooms) ||
		stringChanged(stored.Location, incoming.Location) ||
		stringChanged(stored.Address, incoming.Address) ||
		stringChanged(stored.Phone, incoming.Phone) ||
		stringChanged(stored.HomeType, incoming.HomeType) {
		return true
	}
	if incoming.Rent != 0 && incoming.Rent != stored.Rent {
		return true
	}
	if !incoming.ListedAt.IsZero() && !incoming.ListedAt.Equal(stored.ListedAt) {
		return true
	}
	if imageSetChanged(stored.Images, incoming.Images) {
		return true
	}
	if incoming.Classification != stored.Classification {
		return true
	}
	return false
}

func stringChanged(stored, incoming string) bool {
	return incoming != "" && incoming != stored
}

// imageSetChanged compares image lists by symmetric set difference; order
// carries no meaning on the source site.
func imageSetChanged(stored, incoming []string) bool {
	if len(incoming) == 0 {
		return false
	}
	if len(stored) != len(incoming) {
		return true
	}
	set := make(map[string]struct{}, len(stored))
	for _, img := range stored {
		set[img] = struct{}{}
	}
	for _, img := range incoming {
		if _, ok := set[img]; !ok {
			return true
		}
	}
	return false
}

// applyChanges overwrites the stored record's comparable fields with the
// incoming values, keeping stored data where the crawl saw nothing.
func applyChanges(stored, incoming *models.Listing) {
	overwrite := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	overwrite(&stored.Title, incoming.Title)
	overwrite(&stored.Owner, incoming.Owner)
	overwrite(&stored.Body, incoming.Body)
	overwrite(&stored.Size, incoming.Size)
	overwrite(&stored.Rooms, incoming.Rooms)
	overwrite(&stored.Location, incoming.Location)
	overwrite(&stored.Address, incoming.Address)
	overwrite(&stored.Phone, incoming.Phone)
	overwrite(&stored.HomeType, incoming.HomeType)

	if incoming.Rent != 0 {
		stored.Rent = incoming.Rent
	}
	if !incoming.ListedAt.IsZero() {
		stored.ListedAt = incoming.ListedAt
	}
	if len(incoming.Images) > 0 {
		stored.Images = incoming.Images
	}
	stored.Classification = incoming.Classification
}
