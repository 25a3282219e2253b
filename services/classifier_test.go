package services

import (
	"testing"

	"blocket-watcher/models"
)

func TestClassifyNoTriggerTermsYieldsAllFalse(t *testing.T) {
	cl := NewClassifier()
	l := cl.Classify(&models.Listing{
		Title: "Stor etta nära centrum",
		Body:  "Ljus och fin bostad med balkong.",
	})

	if l.Classification != (models.Classification{}) {
		t.Errorf("expected all-false tags, got %+v", l.Classification)
	}
}

func TestClassifyTags(t *testing.T) {
	tests := []struct {
		name  string
		title string
		body  string
		want  models.Classification
	}{
		{
			name: "girls from body",
			body: "Uthyres endast till tjej eller kvinna.",
			want: models.Classification{Girls: true},
		},
		{
			name: "commuters",
			body: "Perfekt för veckopendlare.",
			want: models.Classification{Commuters: true},
		},
		{
			name: "shared via inneboende",
			body: "Söker inneboende till stor lägenhet.",
			want: models.Classification{Shared: true},
		},
		{
			name: "shared in english",
			body: "Furnished room for rent in central flat.",
			want: models.Classification{Shared: true},
		},
		{
			name: "swap",
			body: "Endast byte mot tvåa i innerstan.",
			want: models.Classification{Swap: true},
		},
		{
			name: "no kitchen",
			body: "Inget kök finns i bostaden.",
			want: models.Classification{NoKitchen: true},
		},
		{
			name: "tags are independent",
			body: "Rum uthyres till tjej, inget kök.",
			want: models.Classification{Girls: true, Shared: true, NoKitchen: true},
		},
	}

	cl := NewClassifier()
	for _, tt := range tests {
		got := cl.Classify(&models.Listing{Title: tt.title, Body: tt.body}).Classification
		if got != tt.want {
			t.Errorf("%s: got %+v, want %+v", tt.name, got, tt.want)
		}
	}
}

func TestClassifySharedFromTitleOnly(t *testing.T) {
	cl := NewClassifier()
	l := cl.Classify(&models.Listing{
		Title: "Rum finns att hyra",
		Body:  "Ljus och fin bostad.",
	})

	if !l.Classification.Shared {
		t.Error("shared phrase in title alone should set shared=true")
	}
}

func TestClassifyIsIdempotent(t *testing.T) {
	cl := NewClassifier()
	l := &models.Listing{Title: "Rum finns att hyra", Body: "Söker inneboende, helst tjej."}

	once := cl.Classify(l).Classification
	twice := cl.Classify(cl.Classify(l)).Classification
	if once != twice {
		t.Errorf("classification not idempotent: %+v vs %+v", once, twice)
	}
}

func TestClassifyAllMirrorsInput(t *testing.T) {
	cl := NewClassifier()
	in := []*models.Listing{
		{Body: "Söker inneboende."},
		{Body: "Vanlig lägenhet."},
	}

	out := cl.ClassifyAll(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(out))
	}
	if !out[0].Classification.Shared || out[1].Classification.Shared {
		t.Errorf("unexpected tags: %+v, %+v", out[0].Classification, out[1].Classification)
	}
}
