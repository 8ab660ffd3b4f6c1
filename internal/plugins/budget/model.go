// Package budget lets a user set spending limits per period and shows the
// current spend against each of them. Enforcement happens in the cost API.
package budget

import (
	"strconv"
	"strings"

	"github.com/keyxmakerx/costpilot/internal/apiclient"
	"github.com/keyxmakerx/costpilot/internal/validate"
)

// defaultAlertThreshold is the pre-filled alert percentage.
const defaultAlertThreshold = 80

// BudgetForm is the create-budget form. Numbers stay strings until
// validated so a bad entry can be shown back as typed.
type BudgetForm struct {
	PeriodType       string `form:"period_type"`
	LimitAmount      string `form:"limit_amount"`
	AlertThreshold   string `form:"alert_threshold"`
	EnableAlerts     string `form:"enable_alerts"`
	EnableAutoCutoff string `form:"enable_auto_cutoff"`
}

// newForm returns the form as first shown.
func newForm() BudgetForm {
	return BudgetForm{
		PeriodType:     "monthly",
		AlertThreshold: strconv.Itoa(defaultAlertThreshold),
		EnableAlerts:   "on",
	}
}

// parse validates the form and converts it to the API request.
func (f *BudgetForm) parse() (apiclient.BudgetCreate, validate.Errors) {
	errs := validate.Errors{}
	f.LimitAmount = strings.TrimSpace(f.LimitAmount)
	f.AlertThreshold = strings.TrimSpace(f.AlertThreshold)

	errs.OneOf("period_type", f.PeriodType, apiclient.BudgetPeriods, "Choose a budget period")

	limit, err := strconv.ParseFloat(f.LimitAmount, 64)
	if err != nil || limit <= 0 {
		errs.Add("limit_amount", "Limit must be a positive amount")
	}

	threshold := float64(defaultAlertThreshold)
	if f.AlertThreshold != "" {
		threshold, err = strconv.ParseFloat(f.AlertThreshold, 64)
		if err != nil || threshold < 0 || threshold > 100 {
			errs.Add("alert_threshold", "Alert threshold must be between 0 and 100")
		}
	}

	alerts := f.EnableAlerts != ""
	cutoff := f.EnableAutoCutoff != ""
	return apiclient.BudgetCreate{
		PeriodType:       f.PeriodType,
		LimitAmount:      limit,
		AlertThreshold:   &threshold,
		EnableAlerts:     &alerts,
		EnableAutoCutoff: &cutoff,
	}, errs
}

// Row joins a budget setting with the current spend for its period.
type Row struct {
	Setting apiclient.BudgetSetting
	Status  *apiclient.BudgetStatus
}

// rows pairs each setting with the status of the same period. Statuses are
// only reported for active budgets, so inactive rows have none.
func rows(settings []apiclient.BudgetSetting, statuses []apiclient.BudgetStatus) []Row {
	out := make([]Row, 0, len(settings))
	for _, s := range settings {
		r := Row{Setting: s}
		if s.IsActive {
			for i := range statuses {
				if statuses[i].PeriodType == s.PeriodType {
					r.Status = &statuses[i]
					break
				}
			}
		}
		out = append(out, r)
	}
	return out
}

// withAlertsToggled returns the update request that flips alerts on s and
// keeps everything else.
func withAlertsToggled(s apiclient.BudgetSetting) apiclient.BudgetCreate {
	threshold := s.AlertThreshold
	alerts := !s.EnableAlerts
	cutoff := s.EnableAutoCutoff
	return apiclient.BudgetCreate{
		PeriodType:       s.PeriodType,
		LimitAmount:      s.LimitAmount,
		AlertThreshold:   &threshold,
		EnableAlerts:     &alerts,
		EnableAutoCutoff: &cutoff,
	}
}

func findSetting(settings []apiclient.BudgetSetting, id int64) (apiclient.BudgetSetting, bool) {
	for _, s := range settings {
		if s.ID == id {
			return s, true
		}
	}
	return apiclient.BudgetSetting{}, false
}
