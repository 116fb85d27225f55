package resume

// CompanyResearch is the company profile the research service derives from a
// job description.
type CompanyResearch struct {
	CompanyOverview     string `json:"company_overview"`
	MarketCustomers     string `json:"market_customers"`
	KeyProducts         string `json:"key_products"`
	CultureValues       string `json:"culture_values"`
	IndustryCompetition string `json:"industry_competition"`
	GrowthOpportunities string `json:"growth_opportunities"`
	AdditionalInsights  string `json:"additional_insights"`
}

// Sections returns the non-empty sections as title/text pairs in display order.
func (r *CompanyResearch) Sections() [][2]string {
	if r == nil {
		return nil
	}

	all := [][2]string{
		{"Company overview", r.CompanyOverview},
		{"Market & customers", r.MarketCustomers},
		{"Key products", r.KeyProducts},
		{"Culture & values", r.CultureValues},
		{"Industry & competition", r.IndustryCompetition},
		{"Growth & opportunities", r.GrowthOpportunities},
		{"Additional insights", r.AdditionalInsights},
	}

	sections := make([][2]string, 0, len(all))
	for _, s := range all {
		if s[1] != "" {
			sections = append(sections, s)
		}
	}
	return sections
}
