package scraper

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/gvsturm-ai/rental-hunter/config"
	"github.com/gvsturm-ai/rental-hunter/httputil"
	"github.com/gvsturm-ai/rental-hunter/models"
	"github.com/gvsturm-ai/rental-hunter/storage"
)

// ErrFetch marks a per-source network or markup failure. The scan
// skips the source and continues with the others.
var ErrFetch = errors.New("fetch failed")

// Source adapts one listing site to the common Listing shape. Each
// adapter queries the configured city, so geography is settled before
// listings reach the filter.
type Source interface {
	ID() models.Source
	FetchListings(ctx context.Context) ([]models.Listing, error)
}

// NewSources builds the three site adapters in the deterministic order
// scans process them: realtor, zillow, redfin.
func NewSources(cfg *config.Config, clients *httputil.Clients, archive *storage.PageArchive) []Source {
	f := &fetcher{
		client:    clients.Scraping,
		userAgent: cfg.UserAgent,
		archive:   archive,
	}

	return []Source{
		NewRealtorSource(cfg.Sites["realtor"], &cfg.Criteria, f),
		NewZillowSource(cfg.Sites["zillow"], &cfg.Criteria, f),
		NewRedfinSource(cfg.Sites["redfin"], &cfg.Criteria, f),
	}
}

// mapPropertyType translates a source-native type label. An empty
// label means the source didn't say; since every adapter queries
// houses only, that defaults to house. Anything unrecognized is
// unknown and the filter rejects it.
func mapPropertyType(raw string) models.PropertyType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return models.PropertyHouse
	case "house", "single_family", "single_family_home", "singlefamily", "single family":
		return models.PropertyHouse
	case "condo", "condos", "condominium":
		return models.PropertyCondo
	case "apartment", "apartments", "multi_family":
		return models.PropertyApartment
	case "townhouse", "townhome", "townhomes", "townhouses":
		return models.PropertyTownhouse
	default:
		return models.PropertyUnknown
	}
}

var (
	priceRegex = regexp.MustCompile(`\$([0-9][0-9,]*)`)
	sqftRegex  = regexp.MustCompile(`([0-9][0-9,]*)\s*(?:sq\s?ft|sqft)`)
	zipRegex   = regexp.MustCompile(`\b(\d{5})\b`)
)

// parseDollars extracts the first dollar amount from card text.
func parseDollars(text string) int {
	m := priceRegex.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	return parseDigits(m[1])
}

// parseCardSqFt extracts a square-footage figure from card text.
func parseCardSqFt(text string) *int {
	m := sqftRegex.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return nil
	}
	v := parseDigits(m[1])
	if v <= 0 {
		return nil
	}
	return &v
}

func parseDigits(s string) int {
	var result int
	for _, c := range s {
		if c >= '0' && c <= '9' {
			result = result*10 + int(c-'0')
		}
	}
	return result
}

func intPtr(v int) *int { return &v }
