package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"blocket-watcher/config"
	"blocket-watcher/utils"
)

const indexRowTemplate = `
<article class="item_row">
  <a class="item_link" href="%s">%s</a>
  <p class="list_price">%s</p>
  <div class="li_detail_params rooms">%s</div>
  <div class="li_detail_params size">%s</div>
  <div class="address">%s</div>
  <time class="jlist_date">%s</time>
</article>`

func indexRow(href, title, price, rooms, size, area, listed string) string {
	return fmt.Sprintf(indexRowTemplate, href, title, price, rooms, size, area, listed)
}

func indexPage(rows ...string) string {
	page := "<html><body>"
	for _, r := range rows {
		page += r
	}
	return page + "</body></html>"
}

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		BaseURL:        baseURL,
		Region:         "stockholm",
		PriceCeiling:   8000,
		IndexWaveSize:  2,
		DetailWaveSize: 50,
	}
}

func TestFetchIndexPageExtractsStubs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("mre"); got != "8000" {
			t.Errorf("price ceiling param: got %q, want 8000", got)
		}
		fmt.Fprint(w, indexPage(
			indexRow("/annons/1", "Rum finns att hyra", "4 500 kr/mån", "1 rum", "18 m²", "Solna", "Idag 14:02"),
			indexRow("/annons/2", "Stor tvåa", "7 200 kr/mån", "2 rum", "54 m²", "Bromma", "5 aug 09:30"),
		))
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL), utils.NewLogger(), nil)
	stubs, err := c.FetchIndexPage(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(stubs) != 2 {
		t.Fatalf("stubs: got %d, want 2", len(stubs))
	}

	first := stubs[0]
	if first.URL != srv.URL+"/annons/1" {
		t.Errorf("url: got %q", first.URL)
	}
	if first.Title != "Rum finns att hyra" {
		t.Errorf("title: got %q", first.Title)
	}
	if first.Rent != 4500 {
		t.Errorf("rent: got %d, want 4500", first.Rent)
	}
	if first.Location != "Solna" {
		t.Errorf("location: got %q", first.Location)
	}
	if first.ListedAt.IsZero() {
		t.Error("listed date should parse")
	}
}

func TestFetchAllIndexPagesStopsOnEmptyPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("o") {
		case "1":
			fmt.Fprint(w, indexPage(
				indexRow("/annons/1", "Etta", "6 000 kr/mån", "1 rum", "30 m²", "Solna", "Idag 10:00"),
			))
		case "2":
			fmt.Fprint(w, indexPage(
				indexRow("/annons/2", "Tvåa", "7 000 kr/mån", "2 rum", "50 m²", "Täby", "Igår 19:12"),
			))
		default:
			fmt.Fprint(w, indexPage())
		}
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL), utils.NewLogger(), nil)
	stubs, err := c.FetchAllIndexPages(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(stubs) != 2 {
		t.Errorf("stubs: got %d, want 2", len(stubs))
	}
}

func TestFetchAllIndexPagesWithPageLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("o")
		// The same ad appears on consecutive pages as listings shift
		// around; it must only be reported once.
		fmt.Fprint(w, indexPage(
			indexRow("/annons/page-"+page, "Annons "+page, "5 000 kr/mån", "1 rum", "25 m²", "Solna", "Idag 08:00"),
			indexRow("/annons/shared", "Återkommande annons", "5 500 kr/mån", "1 rum", "25 m²", "Solna", "Idag 08:00"),
		))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxPages = 3

	c := New(cfg, utils.NewLogger(), nil)
	stubs, err := c.FetchAllIndexPages(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	// 3 unique per-page ads plus the duplicate counted once.
	if len(stubs) != 4 {
		t.Errorf("stubs: got %d, want 4", len(stubs))
	}
}

func TestFetchIndexPageTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL), utils.NewLogger(), nil)
	if _, err := c.FetchIndexPage(context.Background(), 1); err == nil {
		t.Error("expected error for 503 index page")
	}
}

func TestParseRent(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"4 500 kr/mån", 4500},
		{"12 000 kr/mån", 12000},
		{"", 0},
		{"Pris saknas", 0},
	}
	for _, tt := range tests {
		if got := parseRent(tt.raw); got != tt.want {
			t.Errorf("parseRent(%q) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}
