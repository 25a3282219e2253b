package services

import (
	"blocket-watcher/models"
	"blocket-watcher/utils"
)

// Matcher pairs recipients with the listings that fit their interest
// profiles. Recipients with zero matching listings are dropped so nobody
// ever receives an empty notification.
type Matcher struct {
	logger *utils.Logger
}

// NewMatcher creates a Matcher.
func NewMatcher(logger *utils.Logger) *Matcher {
	return &Matcher{logger: logger.Named("matcher")}
}

// MatchInterests returns one NotifyTarget per recipient with at least one
// matching listing.
func (m *Matcher) MatchInterests(recipients []*models.Recipient, listings []*models.Listing) []models.NotifyTarget {
	var targets []models.NotifyTarget

	for _, recipient := range recipients {
		var matched []*models.Listing
		for _, listing := range listings {
			if Matches(&recipient.Profile, listing) {
				matched = append(matched, listing)
			}
		}
		if len(matched) == 0 {
			continue
		}
		targets = append(targets, models.NotifyTarget{Recipient: recipient, Listings: matched})
	}

	m.logger.Info("Matched %d of %d recipients against %d listings",
		len(targets), len(recipients), len(listings))
	return targets
}

// Matches applies one recipient's profile to one listing. All expressed
// criteria must hold: rent ceiling, location pattern, listing-date window
// and every tri-state tag preference. Unset criteria never filter.
func Matches(p *models.InterestProfile, l *models.Listing) bool {
	if p.MaxRent > 0 && l.Rent > p.MaxRent {
		return false
	}

	if re := p.LocationRegexp(); re != nil && !re.MatchString(l.Location) {
		return false
	}

	if p.PeriodMin != nil || p.PeriodMax != nil {
		if l.ListedAt.IsZero() {
			return false
		}
		if p.PeriodMin != nil && l.ListedAt.Before(*p.PeriodMin) {
			return false
		}
		if p.PeriodMax != nil && l.ListedAt.After(*p.PeriodMax) {
			return false
		}
	}

	return tagAllowed(p.Girls, l.Classification.Girls) &&
		tagAllowed(p.Commuters, l.Classification.Commuters) &&
		tagAllowed(p.Shared, l.Classification.Shared) &&
		tagAllowed(p.Swap, l.Classification.Swap) &&
		tagAllowed(p.NoKitchen, l.Classification.NoKitchen)
}

// tagAllowed applies one tri-state preference: nil is don't-care, true
// requires the tag, false excludes listings where the tag is set.
func tagAllowed(pref *bool, tag bool) bool {
	if pref == nil {
		return true
	}
	if *pref {
		return tag
	}
	return !tag
}
