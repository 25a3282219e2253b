package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"blocket-watcher/models"
	"blocket-watcher/utils"
)

const detailPageFixture = `<html>
<head>
  <meta property="og:image" content="https://img.example/1.jpg" />
  <meta property="og:image" content="https://img.example/2.jpg" />
</head>
<body>
  <h2 class="h4">Uthyres av: Anna Andersson</h2>
  <dl>
    <dt>Bostadstyp</dt>
    <dd>lägenhet</dd>
  </dl>
  <div class="object-text">Rum   finns<br /><br />att    hyra i  Solna.</div>
  <h3>Adress</h3>
  <p>Kartan visar områdets ungefärliga position</p>
  <p>Solnavägen 12</p>
</body>
</html>`

type fakeRevealer struct {
	number string
	calls  int
}

func (f *fakeRevealer) GetPhoneNumber(context.Context, string) string {
	f.calls++
	return f.number
}

func TestFetchDetailParsesFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, detailPageFixture)
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL), utils.NewLogger(), nil)
	stub := &models.ListingStub{URL: srv.URL + "/annons/1", Title: "Rum i Solna", Rent: 4500}

	listing, err := c.FetchDetail(context.Background(), stub)
	if err != nil {
		t.Fatal(err)
	}

	if listing.Owner != "Anna Andersson" {
		t.Errorf("owner: got %q", listing.Owner)
	}
	if listing.HomeType != "Lägenhet" {
		t.Errorf("home type: got %q, want Lägenhet", listing.HomeType)
	}
	if listing.Address != "Solnavägen 12" {
		t.Errorf("address: got %q, disclaimer must be skipped", listing.Address)
	}
	if len(listing.Images) != 2 || listing.Images[0] != "https://img.example/1.jpg" {
		t.Errorf("images: got %v", listing.Images)
	}
	if listing.Disabled {
		t.Error("listing should not be disabled")
	}

	// Index fields merge onto the parsed listing.
	if listing.URL != stub.URL || listing.Title != "Rum i Solna" || listing.Rent != 4500 {
		t.Errorf("stub fields not merged: %+v", listing)
	}
}

func TestFetchDetailNormalizesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, detailPageFixture)
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL), utils.NewLogger(), nil)
	listing, err := c.FetchDetail(context.Background(), &models.ListingStub{URL: srv.URL + "/annons/1"})
	if err != nil {
		t.Fatal(err)
	}

	want := "Rum finns\n\natt hyra i Solna."
	if listing.Body != want {
		t.Errorf("body: got %q, want %q", listing.Body, want)
	}
}

func TestFetchDetailNotFoundMarker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "<html><body><h1>Hittade inte annonsen</h1></body></html>")
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL), utils.NewLogger(), nil)
	listing, err := c.FetchDetail(context.Background(), &models.ListingStub{URL: srv.URL + "/annons/gone"})
	if err != nil {
		t.Fatal(err)
	}
	if !listing.Disabled {
		t.Error("not-found marker should flag the listing disabled")
	}
}

func TestFetchDetailPhoneReveal(t *testing.T) {
	withMarker := strings.Replace(detailPageFixture, "</body>",
		`<button class="phonenumber-btn">Visa telefonnummer</button></body>`, 1)

	var page string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, page)
	}))
	defer srv.Close()

	revealer := &fakeRevealer{number: "+46701234567"}
	c := New(testConfig(srv.URL), utils.NewLogger(), revealer)

	// Page without the marker: the revealer is never consulted.
	page = detailPageFixture
	listing, err := c.FetchDetail(context.Background(), &models.ListingStub{URL: srv.URL + "/annons/1"})
	if err != nil {
		t.Fatal(err)
	}
	if revealer.calls != 0 || listing.Phone != "" {
		t.Errorf("revealer consulted without marker: calls=%d phone=%q", revealer.calls, listing.Phone)
	}

	// Page with the marker: the revealed number lands on the listing.
	page = withMarker
	listing, err = c.FetchDetail(context.Background(), &models.ListingStub{URL: srv.URL + "/annons/1"})
	if err != nil {
		t.Fatal(err)
	}
	if revealer.calls != 1 || listing.Phone != "+46701234567" {
		t.Errorf("phone reveal: calls=%d phone=%q", revealer.calls, listing.Phone)
	}
}

func TestFetchManyDetailsKeepsOrderAndIsolatesFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/broken") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, detailPageFixture)
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL), utils.NewLogger(), nil)
	stubs := []*models.ListingStub{
		{URL: srv.URL + "/annons/a", Title: "A"},
		{URL: srv.URL + "/annons/broken", Title: "B"},
		{URL: srv.URL + "/annons/c", Title: "C"},
	}

	outcomes := c.FetchManyDetails(context.Background(), stubs)
	if len(outcomes) != 3 {
		t.Fatalf("outcomes: got %d, want 3", len(outcomes))
	}

	if outcomes[0].Failed() || outcomes[0].Value.Title != "A" {
		t.Errorf("outcome 0: %+v", outcomes[0])
	}
	if !outcomes[1].Failed() {
		t.Error("outcome 1 should carry the transport failure")
	}
	if outcomes[2].Failed() || outcomes[2].Value.Title != "C" {
		t.Errorf("outcome 2: %+v", outcomes[2])
	}
}
