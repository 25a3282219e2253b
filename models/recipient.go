package models

import (
	"regexp"
	"time"
)

// InterestProfile holds one recipient's matching criteria. The tag
// preferences are tri-state: nil means don't care, true requires the tag,
// false excludes listings where the tag is set.
type InterestProfile struct {
	MaxRent         int    // 0 means no ceiling
	LocationPattern string // case-insensitive regex, empty means any
	PeriodMin       *time.Time
	PeriodMax       *time.Time

	Girls     *bool
	Commuters *bool
	Shared    *bool
	Swap      *bool
	NoKitchen *bool
}

// Recipient is a person interested in listings, with channel addresses and
// per-channel opt-ins. Recipient storage itself is owned elsewhere; the
// pipeline only reads these.
type Recipient struct {
	ID          int64
	Name        string
	Email       string
	Tel         string
	NotifySMS   bool
	NotifyEmail bool
	Profile     InterestProfile
}

// NotifyTarget pairs one recipient with the listings that matched their
// profile during a single dispatch cycle. It is never persisted.
type NotifyTarget struct {
	Recipient *Recipient
	Listings  []*Listing
}

// LocationRegexp compiles the profile's location pattern, or returns nil
// when no pattern is set or it does not compile.
func (p *InterestProfile) LocationRegexp() *regexp.Regexp {
	if p.LocationPattern == "" {
		return nil
	}
	re, err := regexp.Compile("(?i)" + p.LocationPattern)
	if err != nil {
		return nil
	}
	return re
}
