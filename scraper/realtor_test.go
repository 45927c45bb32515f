package scraper

import (
	"fmt"
	"testing"

	"github.com/gvsturm-ai/rental-hunter/models"
)

func newTestRealtorSource() *RealtorSource {
	return NewRealtorSource(realtorSite(), testCriteria(), testFetcher())
}

func TestRealtorParseNextData(t *testing.T) {
	s := newTestRealtorSource()

	listings, err := s.parseNextData(loadFixture(t, "realtor_next_data.json"))
	if err != nil {
		t.Fatalf("parseNextData: %v", err)
	}

	// The third property has no street line and must be dropped.
	if len(listings) != 2 {
		t.Fatalf("got %d listings, want 2", len(listings))
	}

	first := listings[0]
	if first.Source != models.SourceRealtor {
		t.Errorf("Source = %q, want %q", first.Source, models.SourceRealtor)
	}
	if first.Address != "100 Elm St" {
		t.Errorf("Address = %q, want %q", first.Address, "100 Elm St")
	}
	if first.City != "Saint Petersburg" || first.State != "FL" || first.Zip != "33701" {
		t.Errorf("location = %s, %s %s", first.City, first.State, first.Zip)
	}
	if first.Price != 3200 {
		t.Errorf("Price = %d, want 3200", first.Price)
	}
	if first.Beds == nil || *first.Beds != 3 {
		t.Errorf("Beds = %v, want 3", first.Beds)
	}
	if first.Baths == nil || *first.Baths != 2 {
		t.Errorf("Baths = %v, want 2", first.Baths)
	}
	if first.SqFt == nil || *first.SqFt != 1850 {
		t.Errorf("SqFt = %v, want 1850", first.SqFt)
	}
	if first.PropertyType != models.PropertyHouse {
		t.Errorf("PropertyType = %q, want house", first.PropertyType)
	}
	wantURL := "https://www.realtor.com/realestateandhomes-detail/100-Elm-St_Saint-Petersburg_FL_33701_M1234567890"
	if first.URL != wantURL {
		t.Errorf("URL = %q, want %q", first.URL, wantURL)
	}
	if first.ListingID != "M1234567890" {
		t.Errorf("ListingID = %q", first.ListingID)
	}
	if first.PhotoURL != "https://ap.rdcpix.com/abc123-m0.jpg" {
		t.Errorf("PhotoURL = %q", first.PhotoURL)
	}

	second := listings[1]
	if second.PropertyType != models.PropertyCondo {
		t.Errorf("second PropertyType = %q, want condo", second.PropertyType)
	}
	if second.SqFt != nil {
		t.Errorf("second SqFt = %d, want nil", *second.SqFt)
	}
	if second.PhotoURL != "https://ap.rdcpix.com/def456-m0.jpg" {
		t.Errorf("second PhotoURL = %q", second.PhotoURL)
	}
}

func TestRealtorParseCardsFallback(t *testing.T) {
	s := newTestRealtorSource()

	listings, err := s.parseSearchPage(loadFixture(t, "realtor_cards.html"))
	if err != nil {
		t.Fatalf("parseSearchPage: %v", err)
	}

	// The third card has no price and must be dropped.
	if len(listings) != 2 {
		t.Fatalf("got %d listings, want 2", len(listings))
	}

	first := listings[0]
	if first.Address != "300 Beach Dr" {
		t.Errorf("Address = %q, want %q", first.Address, "300 Beach Dr")
	}
	if first.Price != 4500 {
		t.Errorf("Price = %d, want 4500", first.Price)
	}
	if first.Zip != "33701" {
		t.Errorf("Zip = %q, want 33701", first.Zip)
	}
	if first.SqFt == nil || *first.SqFt != 2100 {
		t.Errorf("SqFt = %v, want 2100", first.SqFt)
	}
	if first.City != "St Petersburg" || first.State != "FL" {
		t.Errorf("card listings should inherit the search location, got %s %s", first.City, first.State)
	}
	if first.PropertyType != models.PropertyHouse {
		t.Errorf("PropertyType = %q, want house", first.PropertyType)
	}
	wantURL := "https://www.realtor.com/realestateandhomes-detail/300-Beach-Dr_Saint-Petersburg_FL_33701"
	if first.URL != wantURL {
		t.Errorf("URL = %q, want %q", first.URL, wantURL)
	}
}

func TestRealtorPrefersNextDataOverCards(t *testing.T) {
	s := newTestRealtorSource()

	page := fmt.Sprintf(`<html><body>
<script id="__NEXT_DATA__" type="application/json">%s</script>
<div data-testid="property-card">
  <a href="/realestateandhomes-detail/card-only"><span>$1,234/mo</span></a>
  <div data-testid="card-address-1">999 Card Only St, Saint Petersburg, FL 33701</div>
</div>
</body></html>`, loadFixture(t, "realtor_next_data.json"))

	listings, err := s.parseSearchPage([]byte(page))
	if err != nil {
		t.Fatalf("parseSearchPage: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("got %d listings, want 2 from __NEXT_DATA__", len(listings))
	}
	for _, l := range listings {
		if l.Address == "999 Card Only St" {
			t.Fatal("card fallback ran despite usable __NEXT_DATA__")
		}
	}
}

func TestRealtorParseNextDataGarbage(t *testing.T) {
	s := newTestRealtorSource()

	if _, err := s.parseNextData([]byte("not json")); err == nil {
		t.Error("expected error for malformed JSON")
	}

	listings, err := s.parseNextData([]byte(`{"props":{"pageProps":{}}}`))
	if err != nil {
		t.Fatalf("parseNextData: %v", err)
	}
	if len(listings) != 0 {
		t.Errorf("got %d listings from empty page props, want 0", len(listings))
	}
}
