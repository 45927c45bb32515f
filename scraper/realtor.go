package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/gvsturm-ai/rental-hunter/config"
	"github.com/gvsturm-ai/rental-hunter/models"
)

// RealtorSource scrapes Realtor.com rental search results. The page is
// a Next.js app, so the primary path is the __NEXT_DATA__ JSON blob;
// when that is missing or reshaped, property cards in the markup are
// parsed as a degraded fallback.
type RealtorSource struct {
	site     *config.SiteConfig
	criteria *models.SearchCriteria
	fetch    *fetcher
}

func NewRealtorSource(site *config.SiteConfig, criteria *models.SearchCriteria, f *fetcher) *RealtorSource {
	return &RealtorSource{site: site, criteria: criteria, fetch: f}
}

func (s *RealtorSource) ID() models.Source {
	return models.SourceRealtor
}

func (s *RealtorSource) FetchListings(ctx context.Context) ([]models.Listing, error) {
	url := fmt.Sprintf("%s/%s/type-single-family-home/price-na-%d/sqft-%d-na",
		s.site.Endpoints["search"], s.criteria.LocationSlug,
		s.criteria.MaxPrice, s.criteria.MinSqFt)

	body, err := s.fetch.get(ctx, s.ID(), url, "")
	if err != nil {
		return nil, err
	}

	return s.parseSearchPage(body)
}

func (s *RealtorSource) parseSearchPage(body []byte) ([]models.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: realtor: parse html: %v", ErrFetch, err)
	}

	if raw := doc.Find("script#__NEXT_DATA__").Text(); raw != "" {
		listings, err := s.parseNextData([]byte(raw))
		if err != nil {
			log.Printf("[realtor] __NEXT_DATA__ parse error: %v", err)
		} else if len(listings) > 0 {
			return listings, nil
		}
	}

	return s.parseCards(doc), nil
}

type realtorNextData struct {
	Props struct {
		PageProps struct {
			Properties    []realtorProperty `json:"properties"`
			SearchResults struct {
				Properties []realtorProperty `json:"properties"`
				HomeSearch struct {
					Properties []realtorProperty `json:"properties"`
				} `json:"home_search"`
			} `json:"searchResults"`
			PageData struct {
				SearchResults struct {
					Properties []realtorProperty `json:"properties"`
				} `json:"searchResults"`
			} `json:"pageData"`
		} `json:"pageProps"`
	} `json:"props"`
}

type realtorProperty struct {
	PropertyID   string   `json:"property_id"`
	Permalink    string   `json:"permalink"`
	ListPrice    *float64 `json:"list_price"`
	Price        *float64 `json:"price"`
	ListPriceMin *float64 `json:"list_price_min"`
	Location     struct {
		Address struct {
			Line       string `json:"line"`
			City       string `json:"city"`
			StateCode  string `json:"state_code"`
			PostalCode string `json:"postal_code"`
		} `json:"address"`
	} `json:"location"`
	Description struct {
		Beds  *int     `json:"beds"`
		Baths *float64 `json:"baths"`
		Sqft  *int     `json:"sqft"`
		Type  string   `json:"type"`
	} `json:"description"`
	Photos []struct {
		Href string `json:"href"`
	} `json:"photos"`
	PrimaryPhoto struct {
		Href string `json:"href"`
	} `json:"primary_photo"`
}

// parseNextData walks the candidate result paths Realtor.com has been
// seen to use. The shape changes across deploys.
func (s *RealtorSource) parseNextData(data []byte) ([]models.Listing, error) {
	var nd realtorNextData
	if err := json.Unmarshal(data, &nd); err != nil {
		return nil, err
	}

	pp := nd.Props.PageProps
	var props []realtorProperty
	switch {
	case len(pp.Properties) > 0:
		props = pp.Properties
	case len(pp.SearchResults.HomeSearch.Properties) > 0:
		props = pp.SearchResults.HomeSearch.Properties
	case len(pp.SearchResults.Properties) > 0:
		props = pp.SearchResults.Properties
	case len(pp.PageData.SearchResults.Properties) > 0:
		props = pp.PageData.SearchResults.Properties
	}

	var listings []models.Listing
	for _, p := range props {
		if l, ok := s.toListing(&p); ok {
			listings = append(listings, l)
		}
	}
	return listings, nil
}

func (s *RealtorSource) toListing(p *realtorProperty) (models.Listing, bool) {
	addr := p.Location.Address
	if addr.Line == "" || addr.City == "" {
		return models.Listing{}, false
	}

	price := 0
	for _, candidate := range []*float64{p.ListPrice, p.Price, p.ListPriceMin} {
		if candidate != nil && *candidate > 0 {
			price = int(*candidate)
			break
		}
	}
	if price == 0 {
		return models.Listing{}, false
	}

	url := ""
	switch {
	case p.Permalink != "":
		url = s.site.Endpoints["detail"] + "/" + p.Permalink
	case p.PropertyID != "":
		url = s.site.Endpoints["detail"] + "/" + p.PropertyID
	}

	photo := p.PrimaryPhoto.Href
	if len(p.Photos) > 0 && p.Photos[0].Href != "" {
		photo = p.Photos[0].Href
	}

	return models.Listing{
		Source:       models.SourceRealtor,
		Address:      addr.Line,
		City:         addr.City,
		State:        addr.StateCode,
		Zip:          addr.PostalCode,
		Price:        price,
		Beds:         p.Description.Beds,
		Baths:        p.Description.Baths,
		SqFt:         p.Description.Sqft,
		PropertyType: mapPropertyType(p.Description.Type),
		URL:          url,
		ListingID:    p.PropertyID,
		PhotoURL:     photo,
	}, true
}

// parseCards is the markup fallback: less data per listing, but some
// coverage when the embedded JSON disappears.
func (s *RealtorSource) parseCards(doc *goquery.Document) []models.Listing {
	var listings []models.Listing

	doc.Find(`div[data-testid="property-card"]`).Each(func(_ int, card *goquery.Selection) {
		address := strings.TrimSpace(card.Find(`[data-testid^="card-address"]`).Text())
		if address == "" {
			return
		}

		text := card.Text()
		price := parseDollars(text)
		if price == 0 {
			return
		}

		url := ""
		if href, ok := card.Find(`a[href^="/realestateandhomes-detail/"]`).Attr("href"); ok {
			url = "https://www.realtor.com" + href
		}

		street := address
		zip := ""
		if parts := strings.Split(address, ","); len(parts) > 1 {
			street = strings.TrimSpace(parts[0])
			if m := zipRegex.FindString(parts[len(parts)-1]); m != "" {
				zip = m
			}
		}

		listings = append(listings, models.Listing{
			Source:       models.SourceRealtor,
			Address:      street,
			City:         s.criteria.City,
			State:        s.criteria.State,
			Zip:          zip,
			Price:        price,
			SqFt:         parseCardSqFt(text),
			PropertyType: models.PropertyHouse, // search URL is house-scoped
			URL:          url,
		})
	})

	if len(listings) > 0 {
		log.Printf("[realtor] parsed %d listings via HTML fallback", len(listings))
	}
	return listings
}
