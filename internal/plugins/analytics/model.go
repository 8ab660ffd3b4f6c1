// Package analytics is the detailed usage view: daily trends, cost-saving
// recommendations, the model price list and a cost comparison calculator.
package analytics

import (
	"sort"
	"strconv"
	"strings"

	"github.com/keyxmakerx/costpilot/internal/apiclient"
	"github.com/keyxmakerx/costpilot/internal/format"
	"github.com/keyxmakerx/costpilot/internal/validate"
)

// Periods are the selectable trend windows in days.
var Periods = []int{7, 30, 90}

// maxTokens bounds the calculator inputs.
const maxTokens = 10_000_000

// parsePeriod returns the requested window, or the default when the query
// value is missing or not one of Periods.
func parsePeriod(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return apiclient.DefaultPeriodDays
	}
	for _, p := range Periods {
		if n == p {
			return n
		}
	}
	return apiclient.DefaultPeriodDays
}

// Report is the analytics page. Sections that failed to load are nil.
type Report struct {
	Days            int
	Trends          *apiclient.UsageTrends
	Recommendations *apiclient.RecommendationsResponse
	Pricing         []apiclient.ModelPricing
}

// WeekOverWeek compares the cost of the last seven days of the trend with
// the seven days before. ok is false with less than two weeks of data.
func (r Report) WeekOverWeek() (change float64, ok bool) {
	if r.Trends == nil || len(r.Trends.DailyTrends) < 14 {
		return 0, false
	}
	days := r.Trends.DailyTrends
	var current, previous float64
	for _, d := range days[len(days)-7:] {
		current += d.Cost
	}
	for _, d := range days[len(days)-14 : len(days)-7] {
		previous += d.Cost
	}
	return format.PercentageChange(current, previous), true
}

// CompareForm is the cost calculator input.
type CompareForm struct {
	PromptTokens     string   `query:"prompt_tokens"`
	CompletionTokens string   `query:"completion_tokens"`
	Providers        []string `query:"providers"`
}

func newCompareForm() CompareForm {
	return CompareForm{PromptTokens: "1000", CompletionTokens: "500"}
}

// parse validates the calculator input.
func (f *CompareForm) parse() (prompt, completion int, providers string, errs validate.Errors) {
	errs = validate.Errors{}
	prompt = parseTokens(errs, "prompt_tokens", f.PromptTokens)
	completion = parseTokens(errs, "completion_tokens", f.CompletionTokens)
	if errs.OK() && prompt == 0 && completion == 0 {
		errs.Add("prompt_tokens", "Enter at least one token count")
	}

	var chosen []string
	for _, p := range f.Providers {
		if errs.OneOf("providers", p, apiclient.Providers, "Unknown provider") {
			chosen = append(chosen, p)
		}
	}
	return prompt, completion, strings.Join(chosen, ","), errs
}

func parseTokens(errs validate.Errors, field, s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > maxTokens {
		errs.Add(field, "Enter a whole number between 0 and 10,000,000")
		return 0
	}
	return n
}

// ComparisonRow is one model in the calculator result.
type ComparisonRow struct {
	Provider string
	Model    string
	apiclient.ModelCost
}

// flatten turns the provider → model map into rows, cheapest first. Ties
// are ordered by provider and model so the table is stable.
func flatten(cmp apiclient.CostComparison) []ComparisonRow {
	var rows []ComparisonRow
	for provider, models := range cmp {
		for model, cost := range models {
			rows = append(rows, ComparisonRow{Provider: provider, Model: model, ModelCost: cost})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Cost != b.Cost {
			return a.Cost < b.Cost
		}
		if a.Provider != b.Provider {
			return a.Provider < b.Provider
		}
		return a.Model < b.Model
	})
	return rows
}

// Comparison is the calculator state: the submitted form, its errors and,
// once run, the result rows or an error message.
type Comparison struct {
	Form    CompareForm
	Errors  validate.Errors
	Rows    []ComparisonRow
	Message string
	Ran     bool
}
