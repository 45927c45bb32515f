package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/gvsturm-ai/rental-hunter/config"
	"github.com/gvsturm-ai/rental-hunter/models"
)

// ZillowSource scrapes Zillow rental search results. Filters are
// encoded into the searchQueryState query parameter; results come back
// embedded in the page as JSON.
type ZillowSource struct {
	site     *config.SiteConfig
	criteria *models.SearchCriteria
	fetch    *fetcher
}

func NewZillowSource(site *config.SiteConfig, criteria *models.SearchCriteria, f *fetcher) *ZillowSource {
	return &ZillowSource{site: site, criteria: criteria, fetch: f}
}

func (s *ZillowSource) ID() models.Source {
	return models.SourceZillow
}

func (s *ZillowSource) FetchListings(ctx context.Context) ([]models.Listing, error) {
	searchURL, err := s.buildSearchURL()
	if err != nil {
		return nil, fmt.Errorf("%w: zillow: build url: %v", ErrFetch, err)
	}

	body, err := s.fetch.get(ctx, s.ID(), searchURL, "")
	if err != nil {
		return nil, err
	}

	return s.parseSearchPage(body)
}

func (s *ZillowSource) buildSearchURL() (string, error) {
	boolFilter := func(v bool) map[string]bool { return map[string]bool{"value": v} }

	queryState := map[string]any{
		"pagination":   map[string]any{},
		"isMapVisible": false,
		"filterState": map[string]any{
			"isForRent":             boolFilter(true),
			"isForSaleByAgent":      boolFilter(false),
			"isForSaleByOwner":      boolFilter(false),
			"isNewConstruction":     boolFilter(false),
			"isComingSoon":          boolFilter(false),
			"isAuction":             boolFilter(false),
			"isForSaleForeclosure":  boolFilter(false),
			"isAllHomes":            boolFilter(true),
			"isApartmentOrCondo":    boolFilter(false),
			"isTownhouse":           boolFilter(false),
			"isManufactured":        boolFilter(false),
			"isApartment":           boolFilter(false),
			"isCondo":               boolFilter(false),
			"monthlyPayment":        map[string]int{"max": s.criteria.MaxPrice},
			"sqft":                  map[string]int{"min": s.criteria.MinSqFt},
		},
		"isListVisible": true,
	}

	encoded, err := json.Marshal(queryState)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s/%s/rentals/?searchQueryState=%s",
		s.site.Endpoints["search"], s.criteria.LocationSlug,
		url.QueryEscape(string(encoded))), nil
}

func (s *ZillowSource) parseSearchPage(body []byte) ([]models.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: zillow: parse html: %v", ErrFetch, err)
	}

	if raw := doc.Find("script#__NEXT_DATA__").Text(); raw != "" {
		if results, err := parseZillowNextData([]byte(raw)); err != nil {
			log.Printf("[zillow] __NEXT_DATA__ parse error: %v", err)
		} else if len(results) > 0 {
			return s.toListings(results), nil
		}
	}

	if results := extractListResults(body); len(results) > 0 {
		return s.toListings(results), nil
	}

	return s.parseCards(doc), nil
}

type zillowResult struct {
	Zpid             json.Number     `json:"zpid"`
	Address          string          `json:"address"`
	DetailURL        string          `json:"detailUrl"`
	ImgSrc           string          `json:"imgSrc"`
	UnformattedPrice *float64        `json:"unformattedPrice"`
	Price            json.RawMessage `json:"price"` // number or "$4,400/mo"
	Beds             *float64        `json:"beds"`
	Baths            *float64        `json:"baths"`
	Area             *float64        `json:"area"`
	HdpData          struct {
		HomeInfo struct {
			StreetAddress string      `json:"streetAddress"`
			City          string      `json:"city"`
			State         string      `json:"state"`
			Zipcode       string      `json:"zipcode"`
			LivingArea    *float64    `json:"livingArea"`
			HomeType      string      `json:"homeType"`
		} `json:"homeInfo"`
	} `json:"hdpData"`
	CarouselPhotos []struct {
		URL string `json:"url"`
	} `json:"carouselPhotos"`
}

func parseZillowNextData(data []byte) ([]zillowResult, error) {
	var nd struct {
		Props struct {
			PageProps struct {
				SearchPageState struct {
					Cat1 struct {
						SearchResults struct {
							ListResults []zillowResult `json:"listResults"`
						} `json:"searchResults"`
					} `json:"cat1"`
				} `json:"searchPageState"`
				InitialData struct {
					SearchResults struct {
						ListResults []zillowResult `json:"listResults"`
					} `json:"searchResults"`
				} `json:"initialData"`
			} `json:"pageProps"`
		} `json:"props"`
	}
	if err := json.Unmarshal(data, &nd); err != nil {
		return nil, err
	}

	if results := nd.Props.PageProps.SearchPageState.Cat1.SearchResults.ListResults; len(results) > 0 {
		return results, nil
	}
	return nd.Props.PageProps.InitialData.SearchResults.ListResults, nil
}

var listResultsMarker = []byte(`"listResults":`)

// extractListResults pulls the first listResults array embedded
// anywhere in the page. Zillow moves this blob between script tags
// across deploys; decoding from the marker onward sidesteps the
// surrounding structure entirely.
func extractListResults(body []byte) []zillowResult {
	idx := bytes.Index(body, listResultsMarker)
	if idx < 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(body[idx+len(listResultsMarker):]))
	var results []zillowResult
	if err := dec.Decode(&results); err != nil {
		log.Printf("[zillow] listResults decode error: %v", err)
		return nil
	}
	return results
}

var zillowAddrRegex = regexp.MustCompile(`^(.+?),\s*(.+?),\s*([A-Z]{2})\s*(\d{5})?`)

func (s *ZillowSource) toListings(results []zillowResult) []models.Listing {
	var listings []models.Listing
	for i := range results {
		if l, ok := s.toListing(&results[i]); ok {
			listings = append(listings, l)
		}
	}
	return listings
}

func (s *ZillowSource) toListing(r *zillowResult) (models.Listing, bool) {
	info := r.HdpData.HomeInfo

	street := info.StreetAddress
	city := info.City
	state := info.State
	zip := info.Zipcode

	if street == "" && r.Address != "" {
		street = r.Address
		city = s.criteria.City
		state = s.criteria.State
		if m := zillowAddrRegex.FindStringSubmatch(r.Address); m != nil {
			street = m[1]
			city = m[2]
			state = m[3]
			zip = m[4]
		}
	}
	if street == "" {
		return models.Listing{}, false
	}

	price := 0
	if r.UnformattedPrice != nil && *r.UnformattedPrice > 0 {
		price = int(*r.UnformattedPrice)
	} else {
		price = parseRawPrice(r.Price)
	}
	if price == 0 {
		return models.Listing{}, false
	}

	sqft := r.Area
	if sqft == nil {
		sqft = info.LivingArea
	}
	var sqftInt *int
	if sqft != nil && *sqft > 0 {
		sqftInt = intPtr(int(*sqft))
	}

	var beds *int
	if r.Beds != nil {
		beds = intPtr(int(*r.Beds))
	}

	detailURL := r.DetailURL
	if detailURL != "" && !strings.HasPrefix(detailURL, "http") {
		detailURL = s.site.Endpoints["search"] + detailURL
	}
	if detailURL == "" && r.Zpid.String() != "" {
		detailURL = fmt.Sprintf("%s/homedetails/%s_zpid/", s.site.Endpoints["search"], r.Zpid.String())
	}

	photo := r.ImgSrc
	if photo == "" && len(r.CarouselPhotos) > 0 {
		photo = r.CarouselPhotos[0].URL
	}

	return models.Listing{
		Source:       models.SourceZillow,
		Address:      street,
		City:         city,
		State:        state,
		Zip:          zip,
		Price:        price,
		Beds:         beds,
		Baths:        r.Baths,
		SqFt:         sqftInt,
		PropertyType: mapPropertyType(info.HomeType),
		URL:          detailURL,
		ListingID:    r.Zpid.String(),
		PhotoURL:     photo,
	}, true
}

// parseRawPrice handles the price field being either a bare number or
// a display string like "$4,400/mo".
func parseRawPrice(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return int(num)
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return parseDigits(str)
	}
	return 0
}

func (s *ZillowSource) parseCards(doc *goquery.Document) []models.Listing {
	var listings []models.Listing

	doc.Find(`article[data-test="property-card"]`).Each(func(_ int, card *goquery.Selection) {
		address := strings.TrimSpace(card.Find("address").Text())
		if address == "" {
			return
		}

		text := card.Text()
		price := parseDollars(text)
		if price == 0 {
			return
		}

		url := ""
		if href, ok := card.Find(`a[href*="/homedetails/"]`).Attr("href"); ok {
			if strings.HasPrefix(href, "http") {
				url = href
			} else {
				url = s.site.Endpoints["search"] + href
			}
		}

		street := address
		city := s.criteria.City
		state := s.criteria.State
		zip := ""
		if m := zillowAddrRegex.FindStringSubmatch(address); m != nil {
			street = m[1]
			city = m[2]
			state = m[3]
			zip = m[4]
		}

		listings = append(listings, models.Listing{
			Source:       models.SourceZillow,
			Address:      street,
			City:         city,
			State:        state,
			Zip:          zip,
			Price:        price,
			SqFt:         parseCardSqFt(text),
			PropertyType: models.PropertyHouse, // filterState excludes everything else
			URL:          url,
		})
	})

	if len(listings) > 0 {
		log.Printf("[zillow] parsed %d listings via HTML fallback", len(listings))
	}
	return listings
}
