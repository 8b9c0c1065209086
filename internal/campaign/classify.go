package campaign

import "strings"

// industryKeywords maps profile-text keywords to an industry label. Order
// matters: the first industry with a keyword hit wins, so more specific
// industries come first.
var industryKeywords = []struct {
	industry string
	keywords []string
}{
	{"saas", []string{"saas", "software", "cloud", "platform", "api"}},
	{"ecommerce", []string{"ecommerce", "e-commerce", "shop", "retail", "store", "marketplace"}},
	{"finance", []string{"finance", "fintech", "bank", "insurance", "payments", "lending"}},
	{"healthcare", []string{"health", "medical", "clinic", "pharma", "wellness"}},
	{"real_estate", []string{"real estate", "property", "realty", "inmobiliaria"}},
	{"manufacturing", []string{"manufactur", "factory", "industrial", "fabrica"}},
	{"education", []string{"education", "school", "training", "academy", "course"}},
	{"hospitality", []string{"hotel", "restaurant", "tourism", "travel", "hospitality"}},
}

// DefaultIndustry is used when no keyword matches a company profile.
const DefaultIndustry = "general"

// ClassifyIndustry derives an industry label from free-form company profile
// text by keyword lookup. Matching is case-insensitive substring; ties break
// toward the more specific industry listed first.
func ClassifyIndustry(profile string) string {
	text := strings.ToLower(profile)
	for _, entry := range industryKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(text, kw) {
				return entry.industry
			}
		}
	}
	return DefaultIndustry
}
