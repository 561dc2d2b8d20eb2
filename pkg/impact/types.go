// Package impact computes environmental and financial impact of rescued
// food and tracks user gamification state derived from it.
package impact

import "time"

// IngredientInput is a single ingredient to score.
type IngredientInput struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit,omitempty"`
}

// IngredientImpact is the scored result for one ingredient.
type IngredientImpact struct {
	Name          string  `json:"name"`
	Quantity      float64 `json:"quantity"`
	Unit          string  `json:"unit"`
	WeightKG      float64 `json:"weight_kg"`
	CostUSD       float64 `json:"cost_usd"`
	CO2KG         float64 `json:"co2_kg"`
	FoundInLookup bool    `json:"found_in_lookup"`
}

// Totals aggregates impact across ingredients or events.
type Totals struct {
	WastePreventedKG float64 `json:"waste_prevented_kg"`
	MoneySavedUSD    float64 `json:"money_saved_usd"`
	CO2AvoidedKG     float64 `json:"co2_avoided_kg"`
}

// Event is a logged impact event.
type Event struct {
	ID          string            `json:"id"`
	UserID      string            `json:"user_id"`
	Source      string            `json:"source"`
	SourceID    string            `json:"source_id,omitempty"`
	Ingredients []IngredientInput `json:"ingredients,omitempty"`
	WasteKG     float64           `json:"total_waste_kg"`
	CostUSD     float64           `json:"total_cost_usd"`
	CO2KG       float64           `json:"total_co2_kg"`
	CreatedAt   time.Time         `json:"created_at"`
}

// EarnedBadge records a tier the user holds for one badge type.
type EarnedBadge struct {
	Tier     string    `json:"tier"`
	EarnedAt time.Time `json:"earned_at"`
}

// GamificationRecord is the per-user denormalized gamification row.
type GamificationRecord struct {
	UserID           string
	CurrentStreak    int
	LongestStreak    int
	LastActiveDate   *time.Time
	WeeklyGoalKG     float64
	WeeklyProgressKG float64
	WeekStartDate    time.Time
	TotalWasteKG     float64
	TotalCostUSD     float64
	TotalCO2KG       float64
	TotalEvents      int
	TotalShared      int
	Badges           map[string]EarnedBadge
}

// StreakInfo describes the user's activity streak.
type StreakInfo struct {
	Current       int        `json:"current"`
	Longest       int        `json:"longest"`
	LastActive    *time.Time `json:"last_active,omitempty"`
	IsActiveToday bool       `json:"is_active_today"`
}

// Badge is a badge with display metadata and progress toward the next tier.
type Badge struct {
	Type              string     `json:"type"`
	Tier              string     `json:"tier"`
	Name              string     `json:"name"`
	Description       string     `json:"description"`
	EarnedAt          *time.Time `json:"earned_at,omitempty"`
	Progress          *float64   `json:"progress,omitempty"`
	NextTierThreshold *float64   `json:"next_tier_threshold,omitempty"`
}

// WeeklyProgress tracks progress against the weekly waste goal.
type WeeklyProgress struct {
	CurrentKG  float64   `json:"current_kg"`
	GoalKG     float64   `json:"goal_kg"`
	Percentage float64   `json:"percentage"`
	WeekStart  time.Time `json:"week_start"`
}

// GamificationState is the full gamification view for a user.
type GamificationState struct {
	UserID            string         `json:"user_id"`
	Streak            StreakInfo     `json:"streak"`
	Badges            []Badge        `json:"badges"`
	WeeklyGoal        WeeklyProgress `json:"weekly_goal"`
	NextBadgeProgress *Badge         `json:"next_badge_progress,omitempty"`
}

// GamificationUpdate is the lightweight feedback returned after an event.
type GamificationUpdate struct {
	Streak            int            `json:"streak"`
	IsNewStreakRecord bool           `json:"is_new_streak_record"`
	NewBadges         []Badge        `json:"new_badges"`
	WeeklyProgress    WeeklyProgress `json:"weekly_progress"`
}

// PeriodSummary aggregates impact over a date range.
type PeriodSummary struct {
	Period     string     `json:"period"`
	WasteKG    float64    `json:"waste_kg"`
	MoneyUSD   float64    `json:"money_usd"`
	CO2KG      float64    `json:"co2_kg"`
	EventCount int        `json:"event_count"`
	StartDate  *time.Time `json:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
}

// WeeklySummary compares this week against last week and all time.
type WeeklySummary struct {
	UserID     string             `json:"user_id"`
	ThisWeek   PeriodSummary      `json:"this_week"`
	LastWeek   PeriodSummary      `json:"last_week"`
	AllTime    PeriodSummary      `json:"all_time"`
	WeeklyGoal WeeklyProgress     `json:"weekly_goal"`
	Comparison map[string]float64 `json:"comparison"`
}
