package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/gvsturm-ai/rental-hunter/config"
	"github.com/gvsturm-ai/rental-hunter/models"
)

// RedfinSource scrapes Redfin via its stingray GIS API, which returns
// JSON with a `{}&&` anti-hijacking prefix. The rendered search page
// is the fallback when the API is unavailable.
type RedfinSource struct {
	site     *config.SiteConfig
	criteria *models.SearchCriteria
	fetch    *fetcher
}

func NewRedfinSource(site *config.SiteConfig, criteria *models.SearchCriteria, f *fetcher) *RedfinSource {
	return &RedfinSource{site: site, criteria: criteria, fetch: f}
}

func (s *RedfinSource) ID() models.Source {
	return models.SourceRedfin
}

func (s *RedfinSource) FetchListings(ctx context.Context) ([]models.Listing, error) {
	listings, err := s.fetchGIS(ctx)
	if err == nil && len(listings) > 0 {
		return listings, nil
	}
	if err != nil {
		log.Printf("[redfin] GIS API failed, trying search page: %v", err)
	}

	return s.fetchSearchPage(ctx)
}

func (s *RedfinSource) fetchGIS(ctx context.Context) ([]models.Listing, error) {
	params := url.Values{}
	params.Set("al", "1")
	params.Set("include_nearby_homes", "true")
	params.Set("isRentals", "true")
	params.Set("num_homes", strconv.Itoa(s.site.MaxResults))
	params.Set("ord", "days-on-redfin-asc")
	params.Set("page_number", "1")
	params.Set("region_id", strconv.Itoa(s.site.RegionID))
	params.Set("region_type", strconv.Itoa(s.site.RegionType))
	params.Set("sf", "1,2,5,6,7")
	params.Set("status", "9") // active rentals
	params.Set("uipt", "1")  // single family homes
	params.Set("v", "8")

	body, err := s.fetch.get(ctx, s.ID(),
		s.site.Endpoints["gis"]+"?"+params.Encode(), "application/json")
	if err != nil {
		return nil, err
	}

	homes, err := parseRedfinGIS(body)
	if err != nil {
		return nil, fmt.Errorf("%w: redfin: %v", ErrFetch, err)
	}
	return s.toListings(homes), nil
}

type redfinHome struct {
	StreetLine struct {
		Value string `json:"value"`
	} `json:"streetLine"`
	City      string      `json:"city"`
	State     string      `json:"state"`
	Zip       json.Number `json:"zip"`
	PriceInfo struct {
		Amount json.Number `json:"amount"`
	} `json:"priceInfo"`
	Price struct {
		Value json.Number `json:"value"`
	} `json:"price"`
	Beds  *float64 `json:"beds"`
	Baths *float64 `json:"baths"`
	SqFt  struct {
		Value *float64 `json:"value"`
	} `json:"sqFt"`
	SqftInfo struct {
		Amount json.Number `json:"amount"`
	} `json:"sqftInfo"`
	URL       string      `json:"url"`
	ListingID json.Number `json:"listingId"`
	Photos    struct {
		PrimaryPhotoURL struct {
			Value string `json:"value"`
		} `json:"primaryPhotoUrl"`
	} `json:"photos"`
	PropertyTypeName string `json:"propertyTypeName"`
}

var redfinPrefix = []byte("{}&&")

func parseRedfinGIS(body []byte) ([]redfinHome, error) {
	body = bytes.TrimPrefix(body, redfinPrefix)

	var resp struct {
		Homes []redfinHome `json:"homes"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	return resp.Homes, nil
}

func (s *RedfinSource) toListings(homes []redfinHome) []models.Listing {
	var listings []models.Listing
	for i := range homes {
		if l, ok := s.toListing(&homes[i]); ok {
			listings = append(listings, l)
		}
	}
	return listings
}

func (s *RedfinSource) toListing(h *redfinHome) (models.Listing, bool) {
	street := h.StreetLine.Value
	if street == "" {
		return models.Listing{}, false
	}

	price := numberToInt(h.PriceInfo.Amount)
	if price == 0 {
		price = numberToInt(h.Price.Value)
	}
	if price == 0 {
		return models.Listing{}, false
	}

	city := h.City
	if city == "" {
		city = s.criteria.City
	}
	state := h.State
	if state == "" {
		state = s.criteria.State
	}

	var sqft *int
	if h.SqFt.Value != nil && *h.SqFt.Value > 0 {
		sqft = intPtr(int(*h.SqFt.Value))
	} else if v := numberToInt(h.SqftInfo.Amount); v > 0 {
		sqft = intPtr(v)
	}

	var beds *int
	if h.Beds != nil {
		beds = intPtr(int(*h.Beds))
	}

	listingURL := ""
	if h.URL != "" {
		listingURL = "https://www.redfin.com" + h.URL
	}

	return models.Listing{
		Source:       models.SourceRedfin,
		Address:      street,
		City:         city,
		State:        state,
		Zip:          h.Zip.String(),
		Price:        price,
		Beds:         beds,
		Baths:        h.Baths,
		SqFt:         sqft,
		PropertyType: mapPropertyType(h.PropertyTypeName),
		URL:          listingURL,
		ListingID:    h.ListingID.String(),
		PhotoURL:     h.Photos.PrimaryPhotoURL.Value,
	}, true
}

func (s *RedfinSource) fetchSearchPage(ctx context.Context) ([]models.Listing, error) {
	body, err := s.fetch.get(ctx, s.ID(), s.site.Endpoints["search"], "")
	if err != nil {
		return nil, err
	}

	// The page embeds server state containing the same homes array the
	// API serves; look for it before falling back to markup.
	if homes := extractRedfinHomes(body); len(homes) > 0 {
		return s.toListings(homes), nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: redfin: parse html: %v", ErrFetch, err)
	}
	return s.parseCards(doc), nil
}

var homesMarker = []byte(`"homes":`)

func extractRedfinHomes(body []byte) []redfinHome {
	idx := bytes.Index(body, homesMarker)
	if idx < 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(body[idx+len(homesMarker):]))
	var homes []redfinHome
	if err := dec.Decode(&homes); err != nil {
		log.Printf("[redfin] embedded homes decode error: %v", err)
		return nil
	}
	return homes
}

func (s *RedfinSource) parseCards(doc *goquery.Document) []models.Listing {
	var listings []models.Listing

	doc.Find(`div[class*="HomeCard"]`).Each(func(_ int, card *goquery.Selection) {
		address := strings.TrimSpace(card.Find(`[class*="homeAddress"]`).Text())
		if address == "" {
			return
		}

		text := card.Text()
		price := parseDollars(text)
		if price == 0 {
			return
		}

		url := ""
		if href, ok := card.Find(`a[href^="/FL/"]`).Attr("href"); ok {
			url = "https://www.redfin.com" + href
		}

		zip := zipRegex.FindString(address)
		street := address
		if parts := strings.Split(address, ","); len(parts) > 1 {
			street = strings.TrimSpace(parts[0])
		}

		listings = append(listings, models.Listing{
			Source:       models.SourceRedfin,
			Address:      street,
			City:         s.criteria.City,
			State:        s.criteria.State,
			Zip:          zip,
			Price:        price,
			SqFt:         parseCardSqFt(text),
			PropertyType: models.PropertyHouse, // uipt=1 scopes the query
			URL:          url,
		})
	})

	if len(listings) > 0 {
		log.Printf("[redfin] parsed %d listings via HTML fallback", len(listings))
	}
	return listings
}

func numberToInt(n json.Number) int {
	if n == "" {
		return 0
	}
	if i, err := n.Int64(); err == nil {
		return int(i)
	}
	if f, err := n.Float64(); err == nil {
		return int(f)
	}
	return 0
}
