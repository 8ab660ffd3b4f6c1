package apiclient

// Wire types of the cost API. Field names follow the API's snake_case JSON.
// Timestamps are kept as the strings the API sends; format.Date renders them.

// Plan tiers known to the API.
const (
	PlanFree       = "free"
	PlanBasic      = "basic"
	PlanPremium    = "premium"
	PlanEnterprise = "enterprise"
)

// Providers an API key can belong to.
var Providers = []string{"openai", "anthropic", "azure"}

// User is the API's view of the signed-in account.
type User struct {
	ID         int64  `json:"id"`
	Email      string `json:"email"`
	FullName   string `json:"full_name,omitempty"`
	IsVerified bool   `json:"is_verified"`
	Plan       string `json:"plan"`
	CreatedAt  string `json:"created_at"`
	IsActive   bool   `json:"is_active"`
}

// ProfileUpdate is the body of PUT /auth/me. Nil fields are left unchanged.
type ProfileUpdate struct {
	Email    *string `json:"email,omitempty"`
	FullName *string `json:"full_name,omitempty"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
}

// PlanSelection is the response of POST /auth/select-plan.
type PlanSelection struct {
	Message string `json:"message"`
	Plan    string `json:"plan"`
}

// PlanUpgrade is the response of POST /admin/account/upgrade-plan.
type PlanUpgrade struct {
	Message string `json:"message"`
	NewPlan string `json:"new_plan"`
	Note    string `json:"note,omitempty"`
}

// MessageResponse is the generic {"message": ...} acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// APIKey is a stored provider key. The secret itself is never returned.
type APIKey struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Provider   string `json:"provider"`
	IsActive   bool   `json:"is_active"`
	CreatedAt  string `json:"created_at"`
	LastUsedAt string `json:"last_used_at,omitempty"`
}

// APIKeyCreate is the body of POST /proxy/api-keys.
type APIKeyCreate struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
	APIKey   string `json:"api_key"`
	TeamID   *int64 `json:"team_id,omitempty"`
}

// UsageSummary totals usage over a period.
type UsageSummary struct {
	TotalRequests int64   `json:"total_requests"`
	TotalTokens   int64   `json:"total_tokens"`
	TotalCost     float64 `json:"total_cost"`
	PeriodStart   string  `json:"period_start"`
	PeriodEnd     string  `json:"period_end"`
}

// DailyUsage is one day of usage.
type DailyUsage struct {
	Date     string  `json:"date"`
	Requests int64   `json:"requests"`
	Tokens   int64   `json:"tokens"`
	Cost     float64 `json:"cost"`
}

// ModelBreakdown is usage attributed to one model.
type ModelBreakdown struct {
	Model      string  `json:"model"`
	Provider   string  `json:"provider"`
	Requests   int64   `json:"requests"`
	Tokens     int64   `json:"tokens"`
	Cost       float64 `json:"cost"`
	Percentage float64 `json:"percentage"`
}

// ProviderBreakdown is usage attributed to one provider.
type ProviderBreakdown struct {
	Provider   string  `json:"provider"`
	Requests   int64   `json:"requests"`
	Tokens     int64   `json:"tokens"`
	Cost       float64 `json:"cost"`
	Percentage float64 `json:"percentage"`
}

// AnalyticsResponse is returned by GET /analytics/usage-summary.
type AnalyticsResponse struct {
	Summary           UsageSummary        `json:"summary"`
	DailyUsage        []DailyUsage        `json:"daily_usage"`
	ModelBreakdown    []ModelBreakdown    `json:"model_breakdown"`
	ProviderBreakdown []ProviderBreakdown `json:"provider_breakdown"`
}

// BudgetSetting is a configured spending limit.
type BudgetSetting struct {
	ID               int64   `json:"id"`
	PeriodType       string  `json:"period_type"`
	LimitAmount      float64 `json:"limit_amount"`
	AlertThreshold   float64 `json:"alert_threshold"`
	EnableAlerts     bool    `json:"enable_alerts"`
	EnableAutoCutoff bool    `json:"enable_auto_cutoff"`
	ScopeType        string  `json:"scope_type"`
	ScopeID          *int64  `json:"scope_id,omitempty"`
	IsActive         bool    `json:"is_active"`
	CreatedAt        string  `json:"created_at"`
	UpdatedAt        string  `json:"updated_at,omitempty"`
}

// BudgetCreate is the body of POST and PUT /admin/budget-settings.
type BudgetCreate struct {
	PeriodType       string   `json:"period_type"`
	LimitAmount      float64  `json:"limit_amount"`
	AlertThreshold   *float64 `json:"alert_threshold,omitempty"`
	EnableAlerts     *bool    `json:"enable_alerts,omitempty"`
	EnableAutoCutoff *bool    `json:"enable_auto_cutoff,omitempty"`
}

// BudgetPeriods are the period types the API accepts.
var BudgetPeriods = []string{"daily", "weekly", "monthly"}

// BudgetStatus is the spend against one active budget.
type BudgetStatus struct {
	CurrentSpend   float64 `json:"current_spend"`
	BudgetLimit    float64 `json:"budget_limit"`
	PercentageUsed float64 `json:"percentage_used"`
	PeriodType     string  `json:"period_type"`
	PeriodStart    string  `json:"period_start"`
	PeriodEnd      string  `json:"period_end"`
	IsOverBudget   bool    `json:"is_over_budget"`
	AlertsEnabled  bool    `json:"alerts_enabled"`
}

// Recommendation is one cost-saving suggestion.
type Recommendation struct {
	Type             string   `json:"type"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	PotentialSavings *float64 `json:"potential_savings,omitempty"`
	Confidence       float64  `json:"confidence"`
	ActionRequired   string   `json:"action_required"`
	Priority         string   `json:"priority"`
}

// RecommendationsResponse is returned by GET /analytics/recommendations.
type RecommendationsResponse struct {
	Recommendations       []Recommendation `json:"recommendations"`
	TotalPotentialSavings float64          `json:"total_potential_savings"`
}

// ModelRate is the per-1k-token price pair used in cost comparisons.
type ModelRate struct {
	PromptPer1K     float64 `json:"prompt_price_per_1k"`
	CompletionPer1K float64 `json:"completion_price_per_1k"`
}

// ModelCost is the estimated cost of one model for a comparison request.
type ModelCost struct {
	Cost    float64   `json:"cost"`
	Pricing ModelRate `json:"pricing"`
}

// CostComparison maps provider → model → estimated cost.
type CostComparison map[string]map[string]ModelCost

// TrendDay is one day in a usage trend.
type TrendDay struct {
	Date         string  `json:"date"`
	Requests     int64   `json:"requests"`
	Tokens       int64   `json:"tokens"`
	Cost         float64 `json:"cost"`
	AvgLatencyMS float64 `json:"avg_latency_ms"`
}

// TrendSummary describes the direction of recent spend.
type TrendSummary struct {
	CostTrend         string  `json:"cost_trend"`
	CostChangePercent float64 `json:"cost_change_percent"`
	TotalDays         int     `json:"total_days"`
}

// UsageTrends is returned by GET /analytics/usage-trends.
type UsageTrends struct {
	DailyTrends []TrendDay   `json:"daily_trends"`
	Summary     TrendSummary `json:"summary"`
}

// ModelPricing is one entry of the model price list.
type ModelPricing struct {
	ID                         int64    `json:"id"`
	Provider                   string   `json:"provider"`
	ModelName                  string   `json:"model_name"`
	PromptPricePer1KTokens     float64  `json:"prompt_price_per_1k_tokens"`
	CompletionPricePer1KTokens float64  `json:"completion_price_per_1k_tokens"`
	PricePerRequest            *float64 `json:"price_per_request,omitempty"`
	PricePerImage              *float64 `json:"price_per_image,omitempty"`
	PricePerMinute             *float64 `json:"price_per_minute,omitempty"`
	Description                string   `json:"description,omitempty"`
	MaxTokens                  *int64   `json:"max_tokens,omitempty"`
	SupportsStreaming          bool     `json:"supports_streaming"`
	IsActive                   bool     `json:"is_active"`
	CreatedAt                  string   `json:"created_at"`
	UpdatedAt                  string   `json:"updated_at,omitempty"`
}

// UsageTotals is a request/token/cost triple.
type UsageTotals struct {
	Requests int64   `json:"requests"`
	Tokens   int64   `json:"tokens"`
	Cost     float64 `json:"cost"`
}

// AccountStats is returned by GET /admin/account/usage-stats.
type AccountStats struct {
	CurrentMonth  UsageTotals `json:"current_month"`
	AllTime       UsageTotals `json:"all_time"`
	ActiveAPIKeys int64       `json:"active_api_keys"`
	Plan          string      `json:"plan"`
	MemberSince   string      `json:"member_since"`
}

// HealthStatus is returned by GET /health.
type HealthStatus struct {
	Status         string `json:"status"`
	Environment    string `json:"environment"`
	Database       string `json:"database,omitempty"`
	DatabaseURLSet bool   `json:"database_url_set"`
}
