package analytics

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyxmakerx/costpilot/internal/apiclient"
	"github.com/keyxmakerx/costpilot/internal/notify"
	"github.com/keyxmakerx/costpilot/internal/testutil"
)

func newHarness(t *testing.T) *testutil.Harness {
	t.Helper()
	h := testutil.New(t)
	RegisterRoutes(h.Group, NewHandler())
	h.SignIn(t, "a@x.com")
	return h
}

func ptr[T any](v T) *T { return &v }

// --- Model ---

func TestParsePeriod(t *testing.T) {
	assert.Equal(t, 7, parsePeriod("7"))
	assert.Equal(t, 90, parsePeriod("90"))
	assert.Equal(t, apiclient.DefaultPeriodDays, parsePeriod("365"))
	assert.Equal(t, apiclient.DefaultPeriodDays, parsePeriod(""))
}

func TestWeekOverWeek(t *testing.T) {
	days := make([]apiclient.TrendDay, 14)
	for i := range days {
		days[i].Cost = 1
		if i >= 7 {
			days[i].Cost = 2
		}
	}
	r := Report{Trends: &apiclient.UsageTrends{DailyTrends: days}}
	change, ok := r.WeekOverWeek()
	require.True(t, ok)
	assert.InDelta(t, 100.0, change, 0.001)

	r.Trends.DailyTrends = days[:13]
	_, ok = r.WeekOverWeek()
	assert.False(t, ok)
}

func TestCompareForm_Parse(t *testing.T) {
	f := CompareForm{PromptTokens: "1000", CompletionTokens: "", Providers: []string{"openai", "anthropic"}}
	prompt, completion, providers, errs := f.parse()
	require.True(t, errs.OK())
	assert.Equal(t, 1000, prompt)
	assert.Equal(t, 0, completion)
	assert.Equal(t, "openai,anthropic", providers)

	f = CompareForm{PromptTokens: "0", CompletionTokens: "0"}
	_, _, _, errs = f.parse()
	assert.Equal(t, "Enter at least one token count", errs.Get("prompt_tokens"))

	f = CompareForm{PromptTokens: "-1", CompletionTokens: "abc", Providers: []string{"cohere"}}
	_, _, _, errs = f.parse()
	assert.NotEmpty(t, errs.Get("prompt_tokens"))
	assert.NotEmpty(t, errs.Get("completion_tokens"))
	assert.Equal(t, "Unknown provider", errs.Get("providers"))
}

func TestFlatten_CheapestFirst(t *testing.T) {
	rows := flatten(apiclient.CostComparison{
		"openai":    {"gpt-4o": {Cost: 0.05}, "gpt-4o-mini": {Cost: 0.001}},
		"anthropic": {"claude-haiku": {Cost: 0.001}},
	})
	require.Len(t, rows, 3)
	assert.Equal(t, "claude-haiku", rows[0].Model, "ties break on provider")
	assert.Equal(t, "gpt-4o-mini", rows[1].Model)
	assert.Equal(t, "gpt-4o", rows[2].Model)
}

// --- Handlers ---

func TestShow(t *testing.T) {
	h := newHarness(t)
	h.API.Handle("GET /analytics/usage-trends", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "7", r.URL.Query().Get("days"))
		testutil.WriteJSON(w, http.StatusOK, apiclient.UsageTrends{
			DailyTrends: []apiclient.TrendDay{{Date: "2025-03-01", Requests: 10, Cost: 1.5, AvgLatencyMS: 420.5}},
			Summary:     apiclient.TrendSummary{CostTrend: "increasing", CostChangePercent: 12.5, TotalDays: 7},
		})
	})
	h.API.JSON("GET /analytics/recommendations", http.StatusOK, apiclient.RecommendationsResponse{
		Recommendations: []apiclient.Recommendation{{
			Title: "Switch <script>alert(1)</script>models", Description: "Use a cheaper model",
			PotentialSavings: ptr(12.0), Confidence: 0.8, Priority: "high",
		}},
		TotalPotentialSavings: 12,
	})
	h.API.JSON("GET /admin/model-pricing", http.StatusOK, []apiclient.ModelPricing{
		{Provider: "openai", ModelName: "gpt-4o", PromptPricePer1KTokens: 0.005, IsActive: true, MaxTokens: ptr(int64(128000))},
		{Provider: "openai", ModelName: "retired", IsActive: false},
	})

	rec := h.Get("/analytics?days=7")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "increasing")
	assert.Contains(t, body, "+12.5%")
	assert.Contains(t, body, "420.5 ms")
	assert.Contains(t, body, "Switch models")
	assert.NotContains(t, body, "alert(1)")
	assert.Contains(t, body, "Confidence 80%")
	assert.Contains(t, body, "128,000")
	assert.NotContains(t, body, "retired")
	assert.Contains(t, body, `class="tab active" href="/analytics?days=7"`)
	assert.Empty(t, h.Notifications())
}

func TestShow_PartialFailure(t *testing.T) {
	h := newHarness(t)
	h.API.JSON("GET /analytics/usage-trends", http.StatusOK, apiclient.UsageTrends{})
	h.API.JSON("GET /analytics/recommendations", http.StatusInternalServerError, map[string]string{})
	h.API.JSON("GET /admin/model-pricing", http.StatusOK, []apiclient.ModelPricing{})

	rec := h.Get("/analytics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No recommendations right now")
	assert.Equal(t, []string{"Failed to load analytics"}, h.Notifications()[notify.SeverityError])
}

func TestCompare_HTMX(t *testing.T) {
	h := newHarness(t)
	h.API.Handle("GET /analytics/cost-comparison", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "2000", q.Get("prompt_tokens"))
		assert.Equal(t, "100", q.Get("completion_tokens"))
		assert.Equal(t, "anthropic", q.Get("providers"))
		testutil.WriteJSON(w, http.StatusOK, apiclient.CostComparison{
			"anthropic": {"claude-sonnet": {Cost: 0.0075, Pricing: apiclient.ModelRate{PromptPer1K: 0.003, CompletionPer1K: 0.015}}},
		})
	})

	rec := h.Do(testutil.Request{
		Method: http.MethodGet,
		Path:   "/analytics/compare?prompt_tokens=2000&completion_tokens=100&providers=anthropic",
		HTMX:   true,
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.NotContains(t, body, "<html")
	assert.Contains(t, body, "claude-sonnet")
	assert.Contains(t, body, "$0.0075")
	assert.Contains(t, body, `value="anthropic" checked`)
}

func TestCompare_InvalidInputSkipsAPI(t *testing.T) {
	h := newHarness(t)
	h.API.Handle("GET /analytics/cost-comparison", func(w http.ResponseWriter, r *http.Request) {
		t.Error("api must not be called")
	})

	rec := h.Get("/analytics/compare?prompt_tokens=lots")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Enter a whole number between 0 and 10,000,000")
	assert.Contains(t, rec.Body.String(), "Back to analytics")
}

func TestCompare_APIErrorShownInline(t *testing.T) {
	h := newHarness(t)
	h.API.JSON("GET /analytics/cost-comparison", http.StatusUnprocessableEntity, map[string]any{
		"detail": []map[string]string{{"msg": "prompt_tokens too large"}},
	})

	rec := h.Do(testutil.Request{Method: http.MethodGet, Path: "/analytics/compare?prompt_tokens=5", HTMX: true})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "prompt_tokens too large")
}
