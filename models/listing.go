package models

import "time"

// ListingStub holds the fields visible on a listing-index page. Stubs only
// live for the duration of one pipeline run; the detail fetcher merges each
// stub into a full Listing.
type ListingStub struct {
	URL      string
	Title    string
	Rent     int
	Rooms    string
	Size     string
	Location string
	ListedAt time.Time
}

// Listing is the durable rental-ad record. URL is the natural key: re-crawling
// the same URL must update the same logical record, never create a duplicate.
type Listing struct {
	ID       int64
	URL      string
	Title    string
	Owner    string
	Body     string
	Images   []string
	Rent     int
	Rooms    string
	Size     string
	Location string
	Address  string
	Phone    string
	HomeType string
	ListedAt time.Time

	Classification Classification

	CreatedAt  time.Time
	ModifiedAt time.Time
	RemovedAt  *time.Time
	Active     bool
	Disabled   bool
}

// Classification is the fixed set of derived boolean tags. It is recomputed
// from the source text on every crawl and never hand-edited.
type Classification struct {
	Girls     bool
	Commuters bool
	Shared    bool
	Swap      bool
	NoKitchen bool
}

// Merge copies the index-page fields of the stub onto the listing.
func (s *ListingStub) Merge(l *Listing) {
	l.URL = s.URL
	l.Title = s.Title
	l.Rent = s.Rent
	l.Rooms = s.Rooms
	l.Size = s.Size
	l.Location = s.Location
	l.ListedAt = s.ListedAt
}
