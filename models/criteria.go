package models

// SearchCriteria is the static filter configuration for a hunt.
// Immutable for the process lifetime.
type SearchCriteria struct {
	City         string
	State        string
	LocationSlug string // URL-friendly form, e.g. "st-petersburg-fl"
	MinSqFt      int
	MaxPrice     int
	AllowedTypes []PropertyType
}

// DefaultCriteria returns the built-in St. Petersburg house hunt.
func DefaultCriteria() SearchCriteria {
	return SearchCriteria{
		City:         "St Petersburg",
		State:        "FL",
		LocationSlug: "st-petersburg-fl",
		MinSqFt:      1500,
		MaxPrice:     7000,
		AllowedTypes: []PropertyType{PropertyHouse},
	}
}

// AllowsType reports whether the criteria admit the given property type.
// Unknown is never admitted implicitly.
func (c *SearchCriteria) AllowsType(pt PropertyType) bool {
	for _, t := range c.AllowedTypes {
		if t == pt {
			return true
		}
	}
	return false
}
