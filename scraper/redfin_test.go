package scraper

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/gvsturm-ai/rental-hunter/models"
)

func newTestRedfinSource() *RedfinSource {
	return NewRedfinSource(redfinSite(), testCriteria(), testFetcher())
}

func TestRedfinParseGIS(t *testing.T) {
	body := loadFixture(t, "redfin_gis.json")
	if !bytes.HasPrefix(body, redfinPrefix) {
		t.Fatal("fixture lost its anti-hijacking prefix")
	}

	homes, err := parseRedfinGIS(body)
	if err != nil {
		t.Fatalf("parseRedfinGIS: %v", err)
	}
	if len(homes) != 3 {
		t.Fatalf("got %d homes, want 3", len(homes))
	}

	s := newTestRedfinSource()
	listings := s.toListings(homes)

	// The third home has no street line and must be dropped.
	if len(listings) != 2 {
		t.Fatalf("got %d listings, want 2", len(listings))
	}

	first := listings[0]
	if first.Source != models.SourceRedfin {
		t.Errorf("Source = %q, want %q", first.Source, models.SourceRedfin)
	}
	if first.Address != "700 Snell Isle Blvd NE" {
		t.Errorf("Address = %q", first.Address)
	}
	if first.City != "St. Petersburg" || first.State != "FL" || first.Zip != "33704" {
		t.Errorf("location = %s, %s %s", first.City, first.State, first.Zip)
	}
	if first.Price != 5800 {
		t.Errorf("Price = %d, want 5800", first.Price)
	}
	if first.SqFt == nil || *first.SqFt != 2650 {
		t.Errorf("SqFt = %v, want 2650", first.SqFt)
	}
	if first.Beds == nil || *first.Beds != 4 {
		t.Errorf("Beds = %v, want 4", first.Beds)
	}
	if first.PropertyType != models.PropertyHouse {
		t.Errorf("PropertyType = %q, want house", first.PropertyType)
	}
	wantURL := "https://www.redfin.com/FL/St-Petersburg/700-Snell-Isle-Blvd-NE-33704/home/46000000"
	if first.URL != wantURL {
		t.Errorf("URL = %q, want %q", first.URL, wantURL)
	}
	if first.ListingID != "190000001" {
		t.Errorf("ListingID = %q", first.ListingID)
	}
	if first.PhotoURL != "https://ssl.cdn-redfin.com/photo/1.jpg" {
		t.Errorf("PhotoURL = %q", first.PhotoURL)
	}

	// Second home uses the alternate price and sqft field shapes.
	second := listings[1]
	if second.Price != 2400 {
		t.Errorf("second Price = %d, want 2400", second.Price)
	}
	if second.SqFt == nil || *second.SqFt != 1200 {
		t.Errorf("second SqFt = %v, want 1200", second.SqFt)
	}
	if second.PropertyType != models.PropertyHouse {
		t.Errorf("second PropertyType = %q, want house (uipt-scoped query)", second.PropertyType)
	}
}

func TestRedfinParseGISWithoutPrefix(t *testing.T) {
	body := bytes.TrimPrefix(loadFixture(t, "redfin_gis.json"), redfinPrefix)

	homes, err := parseRedfinGIS(body)
	if err != nil {
		t.Fatalf("parseRedfinGIS: %v", err)
	}
	if len(homes) != 3 {
		t.Errorf("got %d homes, want 3", len(homes))
	}
}

func TestExtractRedfinHomes(t *testing.T) {
	page := []byte(`<html><body><script>
window.__reactServerState = {"InitialContext":{"payload":{"homes": [
  {"streetLine":{"value":"123 Test St"},"city":"St. Petersburg","state":"FL",
   "zip":"33701","priceInfo":{"amount":3300},"beds":3,"baths":2,
   "sqFt":{"value":1700},"url":"/FL/St-Petersburg/123-Test-St/home/1"}
], "searchMedian":{}}}};
</script></body></html>`)

	homes := extractRedfinHomes(page)
	if len(homes) != 1 {
		t.Fatalf("got %d homes, want 1", len(homes))
	}
	if homes[0].StreetLine.Value != "123 Test St" {
		t.Errorf("street = %q", homes[0].StreetLine.Value)
	}
	if numberToInt(homes[0].PriceInfo.Amount) != 3300 {
		t.Errorf("price = %s", homes[0].PriceInfo.Amount)
	}

	if got := extractRedfinHomes([]byte("<html>nothing embedded</html>")); got != nil {
		t.Errorf("expected nil without marker, got %d homes", len(got))
	}
}

func TestNumberToInt(t *testing.T) {
	tests := []struct {
		n    json.Number
		want int
	}{
		{"", 0},
		{"2400", 2400},
		{"2650.0", 2650},
		{"garbage", 0},
	}

	for _, tt := range tests {
		if got := numberToInt(tt.n); got != tt.want {
			t.Errorf("numberToInt(%q) = %d, want %d", tt.n, got, tt.want)
		}
	}
}
