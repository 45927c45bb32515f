package models

import (
	"fmt"
	"strings"
)

// Source identifies which site produced a listing.
type Source string

const (
	SourceRealtor Source = "realtor"
	SourceZillow  Source = "zillow"
	SourceRedfin  Source = "redfin"
)

// AllSources returns the sources in the order scans process them.
func AllSources() []Source {
	return []Source{SourceRealtor, SourceZillow, SourceRedfin}
}

// PropertyType classifies a rental unit.
type PropertyType string

const (
	PropertyHouse     PropertyType = "house"
	PropertyCondo     PropertyType = "condo"
	PropertyApartment PropertyType = "apartment"
	PropertyTownhouse PropertyType = "townhouse"
	PropertyUnknown   PropertyType = "unknown"
)

// Listing represents one rental advertisement as reported by a source.
// Constructed fresh each scan and never mutated afterwards.
type Listing struct {
	Source       Source       `json:"source"`
	Address      string       `json:"address"` // street line as displayed by the source
	City         string       `json:"city"`
	State        string       `json:"state"`
	Zip          string       `json:"zip"`
	Price        int          `json:"price"` // monthly rent, whole dollars
	Beds         *int         `json:"beds"`
	Baths        *float64     `json:"baths"`
	SqFt         *int         `json:"sqft"` // nil when the source doesn't report it
	PropertyType PropertyType `json:"property_type"`
	URL          string       `json:"url"`
	ListingID    string       `json:"listing_id"` // source-native ID, may be empty
	PhotoURL     string       `json:"photo_url"`
}

// FormatAlert renders the listing as a Telegram Markdown message.
func (l *Listing) FormatAlert() string {
	var b strings.Builder

	b.WriteString("*NEW RENTAL LISTING*\n\n")
	fmt.Fprintf(&b, "*%s*\n", l.Address)
	fmt.Fprintf(&b, "%s, %s %s\n\n", l.City, l.State, l.Zip)
	fmt.Fprintf(&b, "*$%s/month*\n", formatThousands(l.Price))

	var details []string
	if l.Beds != nil {
		details = append(details, fmt.Sprintf("%d bed", *l.Beds))
	}
	if l.Baths != nil {
		details = append(details, fmt.Sprintf("%s bath", formatBaths(*l.Baths)))
	}
	if l.SqFt != nil {
		details = append(details, fmt.Sprintf("%s sqft", formatThousands(*l.SqFt)))
	}
	if len(details) > 0 {
		b.WriteString(strings.Join(details, " | "))
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\nSource: %s\n", titleCase(string(l.Source)))
	fmt.Fprintf(&b, "[View Listing](%s)", l.URL)

	return b.String()
}

func formatThousands(n int) string {
	s := fmt.Sprintf("%d", n)
	if n < 0 {
		return s
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	return strings.Join(parts, ",")
}

func formatBaths(b float64) string {
	s := fmt.Sprintf("%.1f", b)
	s = strings.TrimSuffix(s, ".0")
	return s
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
