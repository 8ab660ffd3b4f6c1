// Package dashboard renders the signed-in overview: 30-day usage, budget
// status and connected provider keys.
package dashboard

import (
	"github.com/keyxmakerx/costpilot/internal/apiclient"
)

// alertPercentage is the share of the monthly budget above which the
// overview shows a budget alert.
const alertPercentage = 80

// Overview is everything the dashboard shows. Sections whose request failed
// are left empty; the page still renders.
type Overview struct {
	Analytics *apiclient.AnalyticsResponse
	Budgets   []apiclient.BudgetStatus
	Keys      []apiclient.APIKey
}

// Summary returns the usage totals, zero when analytics did not load.
func (o Overview) Summary() apiclient.UsageSummary {
	if o.Analytics == nil {
		return apiclient.UsageSummary{}
	}
	return o.Analytics.Summary
}

// ActiveKeys counts the active provider keys.
func (o Overview) ActiveKeys() int {
	n := 0
	for _, k := range o.Keys {
		if k.IsActive {
			n++
		}
	}
	return n
}

// BudgetAlert returns the monthly budget when more than alertPercentage of
// it is used, or nil.
func (o Overview) BudgetAlert() *apiclient.BudgetStatus {
	for i := range o.Budgets {
		b := &o.Budgets[i]
		if b.PeriodType == "monthly" && b.PercentageUsed > alertPercentage {
			return b
		}
	}
	return nil
}

// maxDailyCost is the scale of the daily usage bars.
func (o Overview) maxDailyCost() float64 {
	var m float64
	if o.Analytics == nil {
		return m
	}
	for _, d := range o.Analytics.DailyUsage {
		if d.Cost > m {
			m = d.Cost
		}
	}
	return m
}
