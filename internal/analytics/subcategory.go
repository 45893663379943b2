package analytics

import (
	"strings"

	"paycycle/internal/core"
)

// SubcategoryMatcher infers a subcategory label for a transaction that has
// none. It returns "" when nothing matches.
type SubcategoryMatcher interface {
	Match(tx core.TransactionRecord) string
}

// MatcherFunc adapts a function to SubcategoryMatcher.
type MatcherFunc func(tx core.TransactionRecord) string

func (f MatcherFunc) Match(tx core.TransactionRecord) string { return f(tx) }

// KeywordRule assigns Label when any keyword occurs in the merchant name or
// description. Matching is case-insensitive substring matching.
type KeywordRule struct {
	Label    string
	Keywords []string
}

// KeywordMatcher evaluates rules in order; the first hit wins.
type KeywordMatcher struct {
	rules []KeywordRule
}

// NewKeywordMatcher creates a matcher with custom rules.
func NewKeywordMatcher(rules []KeywordRule) *KeywordMatcher {
	return &KeywordMatcher{rules: rules}
}

// DefaultMatcher is a best-effort English keyword list.
func DefaultMatcher() *KeywordMatcher {
	return NewKeywordMatcher(defaultKeywordRules())
}

func (m *KeywordMatcher) Match(tx core.TransactionRecord) string {
	merchant := strings.ToLower(tx.Merchant)
	desc := strings.ToLower(tx.Description)
	for _, rule := range m.rules {
		for _, kw := range rule.Keywords {
			kw = strings.ToLower(kw)
			if strings.Contains(merchant, kw) || strings.Contains(desc, kw) {
				return rule.Label
			}
		}
	}
	return ""
}

func defaultKeywordRules() []KeywordRule {
	return []KeywordRule{
		{Label: "Coffee", Keywords: []string{"coffee", "cafe", "starbucks", "espresso"}},
		{Label: "Fast Food", Keywords: []string{"mcdonald", "burger", "kfc", "pizza", "subway", "domino"}},
		{Label: "Food Delivery", Keywords: []string{"uber eats", "ubereats", "deliveroo", "doordash", "menulog", "grubhub"}},
		{Label: "Restaurants", Keywords: []string{"restaurant", "bistro", "sushi", "grill", "diner", "eatery"}},
		{Label: "Bars", Keywords: []string{"bar ", "pub", "brewery", "tavern", "liquor"}},
		{Label: "Groceries", Keywords: []string{"woolworths", "coles", "aldi", "grocery", "supermarket", "market", "kroger", "walmart"}},
		{Label: "Rideshare", Keywords: []string{"uber", "lyft", "taxi", "didi"}},
		{Label: "Fuel", Keywords: []string{"shell", "bp ", "caltex", "fuel", "petrol", "gas station"}},
		{Label: "Public Transport", Keywords: []string{"metro", "train", "bus ", "opal", "transit"}},
		{Label: "Streaming", Keywords: []string{"netflix", "spotify", "disney", "hulu", "youtube", "prime video"}},
		{Label: "Gaming", Keywords: []string{"steam", "playstation", "xbox", "nintendo"}},
		{Label: "Movies", Keywords: []string{"cinema", "movie", "theatre", "hoyts"}},
		{Label: "Clothing", Keywords: []string{"zara", "h&m", "uniqlo", "clothing", "apparel", "shoes"}},
		{Label: "Electronics", Keywords: []string{"apple", "jb hi-fi", "best buy", "electronics"}},
		{Label: "Online Shopping", Keywords: []string{"amazon", "ebay", "etsy", "aliexpress"}},
		{Label: "Pharmacy", Keywords: []string{"pharmacy", "chemist", "cvs", "walgreens"}},
		{Label: "Fitness", Keywords: []string{"gym", "fitness", "yoga", "pilates"}},
	}
}
