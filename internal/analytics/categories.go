package analytics

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"paycycle/internal/classify"
	"paycycle/internal/core"
)

const (
	Uncategorized    = "Uncategorized"
	OtherSubcategory = "Other"
)

type (
	SubcategoryBreakdown struct {
		Name       string  `json:"name"`
		Amount     float64 `json:"amount"`
		Percentage float64 `json:"percentage"`
		Count      int     `json:"count"`
		Inferred   bool    `json:"inferred"`
	}

	CategoryBreakdown struct {
		Category      string                 `json:"category"`
		Amount        float64                `json:"amount"`
		Percentage    float64                `json:"percentage"`
		Count         int                    `json:"count"`
		Subcategories []SubcategoryBreakdown `json:"subcategories"`
	}
)

type groupAcc struct {
	name     string
	amount   decimal.Decimal
	count    int
	inferred bool
	children map[string]*groupAcc
}

func newGroup(name string) *groupAcc {
	return &groupAcc{name: name, amount: decimal.Zero, children: map[string]*groupAcc{}}
}

// categoryStats keeps the full-precision category totals insights are
// derived from.
type categoryStats struct {
	total  decimal.Decimal
	groups map[string]*groupAcc
}

// Categories groups the discretionary records of txs by category and
// subcategory. A missing subcategory is inferred by matcher, falling back to
// "Other". Percentages of categories are of the overall total; those of
// subcategories are of their category.
func Categories(txs []core.TransactionRecord, matcher SubcategoryMatcher) []CategoryBreakdown {
	return collectCategories(txs, matcher).report()
}

func collectCategories(txs []core.TransactionRecord, matcher SubcategoryMatcher) *categoryStats {
	if matcher == nil {
		matcher = DefaultMatcher()
	}
	s := &categoryStats{total: decimal.Zero, groups: map[string]*groupAcc{}}

	for _, tx := range txs {
		if classify.Classify(tx) != classify.Discretionary {
			continue
		}
		name := strings.TrimSpace(tx.Category)
		if name == "" {
			name = Uncategorized
		}
		g, ok := s.groups[name]
		if !ok {
			g = newGroup(name)
			s.groups[name] = g
		}

		sub, inferred := strings.TrimSpace(tx.Subcategory), false
		if sub == "" {
			sub, inferred = matcher.Match(tx), true
			if sub == "" {
				sub = OtherSubcategory
			}
		}
		c, ok := g.children[sub]
		if !ok {
			c = newGroup(sub)
			c.inferred = inferred
			g.children[sub] = c
		}

		s.total = s.total.Add(tx.Amount)
		g.amount = g.amount.Add(tx.Amount)
		g.count++
		c.amount = c.amount.Add(tx.Amount)
		c.count++
		c.inferred = c.inferred && inferred
	}
	return s
}

func (s *categoryStats) share(g *groupAcc) decimal.Decimal {
	return core.Percent(g.amount, s.total)
}

func (s *categoryStats) report() []CategoryBreakdown {
	out := make([]CategoryBreakdown, 0, len(s.groups))
	for _, g := range sortGroups(s.groups) {
		subs := make([]SubcategoryBreakdown, 0, len(g.children))
		for _, c := range sortGroups(g.children) {
			subs = append(subs, SubcategoryBreakdown{
				Name:       c.name,
				Amount:     core.Report(c.amount),
				Percentage: core.Report(core.Percent(c.amount, g.amount)),
				Count:      c.count,
				Inferred:   c.inferred,
			})
		}
		out = append(out, CategoryBreakdown{
			Category:      g.name,
			Amount:        core.Report(g.amount),
			Percentage:    core.Report(s.share(g)),
			Count:         g.count,
			Subcategories: subs,
		})
	}
	return out
}

// sortGroups orders by amount descending, then name.
func sortGroups(m map[string]*groupAcc) []*groupAcc {
	out := make([]*groupAcc, 0, len(m))
	for _, g := range m {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].amount.Cmp(out[j].amount); c != 0 {
			return c > 0
		}
		return out[i].name < out[j].name
	})
	return out
}
