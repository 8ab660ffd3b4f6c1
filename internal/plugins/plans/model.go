// Package plans is the plan picker shown after registration. Only the free
// plan can be chosen for now; paid plans are listed as coming soon.
package plans

// Feature is one line of a plan's feature list.
type Feature struct {
	Text     string
	Included bool
}

// Plan is one card on the picker.
type Plan struct {
	ID          string
	Name        string
	Price       string
	Period      string
	Description string
	Badge       string
	Note        string
	Available   bool
	Features    []Feature
}

// Catalog is the fixed list of plans in display order.
var Catalog = []Plan{
	{
		ID: "free", Name: "Free", Price: "$0", Period: "forever",
		Description: "Perfect for exploring AI cost optimization",
		Available:   true,
		Features: []Feature{
			{"Track up to $1,000/month AI spend", true},
			{"Basic cost analytics dashboard", true},
			{"Email alerts for budget limits", true},
			{"3 AI provider integrations", true},
			{"Community support", true},
			{"Advanced analytics", false},
			{"Custom alerts & automations", false},
			{"Team collaboration", false},
			{"Priority support", false},
		},
	},
	{
		ID: "professional", Name: "Professional", Price: "$49", Period: "per month",
		Description: "Coming soon - Advanced AI cost optimization",
		Badge:       "Coming Soon",
		Note:        "Demo Mode - Not Available Yet",
		Features: []Feature{
			{"Unlimited AI spend tracking", true},
			{"Advanced analytics & insights", true},
			{"Intelligent cost optimization", true},
			{"Unlimited provider integrations", true},
			{"Custom alerts & automations", true},
			{"Team collaboration (up to 10 members)", true},
			{"API access", true},
			{"Priority email support", true},
			{"Dedicated account manager", false},
		},
	},
	{
		ID: "enterprise", Name: "Enterprise", Price: "Custom", Period: "pricing",
		Description: "Coming soon - For large organizations",
		Badge:       "Coming Soon",
		Note:        "Demo Mode - Not Available Yet",
		Features: []Feature{
			{"Everything in Professional", true},
			{"Unlimited team members", true},
			{"Advanced security controls", true},
			{"Custom integrations", true},
			{"Dedicated account manager", true},
			{"SLA guarantees", true},
			{"On-premise deployment", true},
			{"24/7 phone & chat support", true},
			{"Custom onboarding", true},
		},
	},
}

// find returns the catalog entry with id.
func find(id string) (Plan, bool) {
	for _, p := range Catalog {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}
