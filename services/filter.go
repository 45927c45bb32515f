package services

import (
	"github.com/gvsturm-ai/rental-hunter/models"
)

// Filter applies the static search criteria to scraped listings.
// Geography is not re-checked here: each source adapter queries the
// configured city already.
type Filter struct {
	criteria *models.SearchCriteria
}

// NewFilter creates a Filter over the given criteria.
func NewFilter(criteria *models.SearchCriteria) *Filter {
	return &Filter{criteria: criteria}
}

// Matches reports whether a listing satisfies every criterion.
// Missing square footage rejects: cannot verify means exclude.
// Zero or negative price/footage is invalid data and rejects.
func (f *Filter) Matches(l *models.Listing) bool {
	if !f.criteria.AllowsType(l.PropertyType) {
		return false
	}
	if l.SqFt == nil || *l.SqFt <= 0 || *l.SqFt < f.criteria.MinSqFt {
		return false
	}
	if l.Price <= 0 || l.Price > f.criteria.MaxPrice {
		return false
	}
	return true
}
