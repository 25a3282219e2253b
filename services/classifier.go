package services

import (
	"regexp"

	"blocket-watcher/models"
)

// Classification patterns. Each tag is evaluated independently against both
// the body and the title; either field matching sets the tag. The rules mix
// Swedish and English terms because the source site carries both.
//
// The shared-room rule is the richest one: bare "rum" appears in many ads
// that are not shared, so it only counts when followed within a short
// window by a rent/letting word (or preceded by one).
var (
	// Gendered-audience terms.
	girlsRegexp = regexp.MustCompile(`(?i)tjej|kvinn|flick|girl|wom(a|e)n`)

	// Weekly/commuter-lodging terms.
	commutersRegexp = regexp.MustCompile(`(?i)pendlare|veckopendlare`)

	// Shared-room, roommate and sublet terms.
	sharedRegexp = regexp.MustCompile(`(?i)dela|del (i|med)|delas med|dela en|uthyrningsdel|inneboende` +
		`|rum.{1,15}(i|till)|rum.{1,20}hyr|hyr.{1,15}möblerat.{1,10}rum|hyr.{1,20}rum` +
		`|room|mate|share (an|a)|a room|room.{1,40}for rent|rent.{1,15}room| room is|furnished room`)

	// Apartment-swap / exchange-required terms.
	swapRegexp = regexp.MustCompile(`(?i)byte|bytes ?krav`)

	// Explicit kitchen-access-denial terms.
	noKitchenRegexp = regexp.MustCompile(`(?i)kök saknas|inget kök| (ej|ingen).{1,15}tillgång.{1,15}kök|ej kök|no( | access.{1,5})kitchen`)
)

// classificationRules maps each tag to its pattern and the setter applied
// when the pattern matches title or body.
var classificationRules = []struct {
	name    string
	pattern *regexp.Regexp
	set     func(*models.Classification)
}{
	{"girls", girlsRegexp, func(c *models.Classification) { c.Girls = true }},
	{"commuters", commutersRegexp, func(c *models.Classification) { c.Commuters = true }},
	{"shared", sharedRegexp, func(c *models.Classification) { c.Shared = true }},
	{"swap", swapRegexp, func(c *models.Classification) { c.Swap = true }},
	{"noKitchen", noKitchenRegexp, func(c *models.Classification) { c.NoKitchen = true }},
}

// Classifier derives a listing's boolean tags from its free text. It is
// pure, deterministic and total: text matching no rule yields all-false
// tags, never an error.
type Classifier struct{}

// NewClassifier creates a Classifier.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify recomputes the listing's classification from its title and body
// and returns the same listing.
func (cl *Classifier) Classify(listing *models.Listing) *models.Listing {
	var tags models.Classification
	for _, rule := range classificationRules {
		if rule.pattern.MatchString(listing.Body) || rule.pattern.MatchString(listing.Title) {
			rule.set(&tags)
		}
	}
	listing.Classification = tags
	return listing
}

// ClassifyAll classifies every listing in place and returns the slice.
func (cl *Classifier) ClassifyAll(listings []*models.Listing) []*models.Listing {
	for _, l := range listings {
		cl.Classify(l)
	}
	return listings
}
