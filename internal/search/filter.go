// Package search holds the pure listing filter predicates: free-text query
// matching, tag filters, and review rating aggregation. This package is the
// single place the filter rules are defined; the repository layer translates
// the same rules to SQL for paginated queries and must stay in lockstep.
package search

import (
	"strings"

	"cozystay/internal/models"
)

// Displayed filter tags. Only luxury and budget carry a price rule; the
// remaining three are labels with no predicate wired up and therefore match
// no listing. That mirrors the shipped product behavior and is flagged in
// DESIGN.md as a likely defect rather than an intentional contract.
const (
	TagLuxury      = "luxury"
	TagBudget      = "budget"
	TagPool        = "pool"
	TagBeachfront  = "beachfront"
	TagPetFriendly = "pet-friendly"
)

const (
	// LuxuryPriceFloor is the exclusive lower price bound for the luxury tag.
	LuxuryPriceFloor = 2000
	// BudgetPriceCeiling is the exclusive upper price bound for the budget tag.
	BudgetPriceCeiling = 1000
)

// PriceRule is a half-open price constraint attached to a tag. A zero bound
// means the side is unconstrained.
type PriceRule struct {
	Above float64 // matches when price > Above
	Below float64 // matches when price < Below
}

// TagPriceRule returns the price rule for a tag, and whether the tag has one.
// Tags without a rule (including unknown tags) match nothing.
func TagPriceRule(tag string) (PriceRule, bool) {
	switch tag {
	case TagLuxury:
		return PriceRule{Above: LuxuryPriceFloor}, true
	case TagBudget:
		return PriceRule{Below: BudgetPriceCeiling}, true
	default:
		return PriceRule{}, false
	}
}

func (r PriceRule) matches(price float64) bool {
	if r.Above > 0 && !(price > r.Above) {
		return false
	}
	if r.Below > 0 && !(price < r.Below) {
		return false
	}
	return true
}

// MatchesQuery reports whether the listing's title, country or location
// contains the query as a case-insensitive substring. An empty query matches
// every listing.
func MatchesQuery(l *models.Listing, query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(l.Title), query) ||
		strings.Contains(strings.ToLower(l.Country), query) ||
		strings.Contains(strings.ToLower(l.Location), query)
}

// MatchesTags reports whether the listing satisfies the selected tag set.
// An empty set matches every listing; otherwise the listing must satisfy at
// least one selected tag's rule.
func MatchesTags(l *models.Listing, tags []string) bool {
	if len(tags) == 0 {
		return true
	}
	for _, tag := range tags {
		rule, ok := TagPriceRule(tag)
		if ok && rule.matches(l.Price) {
			return true
		}
	}
	return false
}

// Filter applies query and tag matching to an in-memory listing slice,
// preserving order.
func Filter(listings []*models.Listing, query string, tags []string) []*models.Listing {
	out := make([]*models.Listing, 0, len(listings))
	for _, l := range listings {
		if MatchesQuery(l, query) && MatchesTags(l, tags) {
			out = append(out, l)
		}
	}
	return out
}

// AverageRating returns the arithmetic mean of the review ratings, or nil
// when there are no reviews to average. A nil result is rendered as
// "no rating", never as zero.
func AverageRating(reviews []models.Review) *float64 {
	if len(reviews) == 0 {
		return nil
	}
	var total float64
	for _, r := range reviews {
		total += float64(r.Rating)
	}
	avg := total / float64(len(reviews))
	return &avg
}
