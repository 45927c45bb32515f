package services

import (
	"testing"

	"github.com/gvsturm-ai/rental-hunter/models"
)

func intPtr(v int) *int { return &v }

func testListing(pt models.PropertyType, sqft *int, price int) *models.Listing {
	return &models.Listing{
		Source:       models.SourceRealtor,
		Address:      "100 Elm St",
		City:         "St Petersburg",
		State:        "FL",
		Price:        price,
		SqFt:         sqft,
		PropertyType: pt,
	}
}

func TestFilterMatches(t *testing.T) {
	criteria := models.DefaultCriteria()
	f := NewFilter(&criteria)

	tests := []struct {
		name    string
		listing *models.Listing
		want    bool
	}{
		{"house at both boundaries", testListing(models.PropertyHouse, intPtr(1500), 7000), true},
		{"house well inside", testListing(models.PropertyHouse, intPtr(2400), 3200), true},
		{"condo rejected", testListing(models.PropertyCondo, intPtr(2000), 2000), false},
		{"apartment rejected", testListing(models.PropertyApartment, intPtr(2000), 2000), false},
		{"townhouse rejected", testListing(models.PropertyTownhouse, intPtr(2000), 2000), false},
		{"unknown type rejected conservatively", testListing(models.PropertyUnknown, intPtr(2000), 2000), false},
		{"one sqft under minimum", testListing(models.PropertyHouse, intPtr(1499), 2000), false},
		{"missing sqft rejected", testListing(models.PropertyHouse, nil, 2000), false},
		{"zero sqft rejected", testListing(models.PropertyHouse, intPtr(0), 2000), false},
		{"negative sqft rejected", testListing(models.PropertyHouse, intPtr(-10), 2000), false},
		{"one dollar over ceiling", testListing(models.PropertyHouse, intPtr(1500), 7001), false},
		{"zero price rejected", testListing(models.PropertyHouse, intPtr(1500), 0), false},
		{"negative price rejected", testListing(models.PropertyHouse, intPtr(1500), -100), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Matches(tt.listing); got != tt.want {
				t.Errorf("Matches() = %v; want %v", got, tt.want)
			}
		})
	}
}
