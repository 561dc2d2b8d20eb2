package impact

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// DefaultWeeklyGoalKG is the initial weekly waste-prevention goal.
const DefaultWeeklyGoalKG = 2.0

const (
	TierBronze = "bronze"
	TierSilver = "silver"
	TierGold   = "gold"
)

const (
	BadgeWasteSaver    = "waste_saver"
	BadgeMoneySaver    = "money_saver"
	BadgeCarbonHero    = "carbon_hero"
	BadgeStreakMaster  = "streak_master"
	BadgeRecipeChef    = "recipe_chef"
	BadgeCommunityHero = "community_hero"
)

var tierOrder = map[string]int{TierBronze: 0, TierSilver: 1, TierGold: 2}

var tiers = []string{TierBronze, TierSilver, TierGold}

// badgeTypes is ordered for deterministic listings.
var badgeTypes = []string{
	BadgeWasteSaver, BadgeMoneySaver, BadgeCarbonHero,
	BadgeStreakMaster, BadgeRecipeChef, BadgeCommunityHero,
}

var badgeThresholds = map[string]map[string]float64{
	BadgeWasteSaver:    {TierBronze: 5.0, TierSilver: 25.0, TierGold: 100.0},
	BadgeMoneySaver:    {TierBronze: 50.0, TierSilver: 250.0, TierGold: 1000.0},
	BadgeCarbonHero:    {TierBronze: 10.0, TierSilver: 50.0, TierGold: 200.0},
	BadgeStreakMaster:  {TierBronze: 7, TierSilver: 30, TierGold: 100},
	BadgeRecipeChef:    {TierBronze: 5, TierSilver: 25, TierGold: 100},
	BadgeCommunityHero: {TierBronze: 3, TierSilver: 15, TierGold: 50},
}

var badgeNames = map[string]string{
	BadgeWasteSaver:    "Food Saver",
	BadgeMoneySaver:    "Penny Pincher",
	BadgeCarbonHero:    "Climate Guardian",
	BadgeStreakMaster:  "Streak Master",
	BadgeRecipeChef:    "Home Chef",
	BadgeCommunityHero: "Community Hero",
}

var badgeDescriptions = map[string]map[string]string{
	BadgeWasteSaver: {
		TierBronze: "Prevented 5kg of food waste",
		TierSilver: "Prevented 25kg of food waste",
		TierGold:   "Prevented 100kg of food waste - Food Waste Champion!",
	},
	BadgeMoneySaver: {
		TierBronze: "Saved $50 on groceries",
		TierSilver: "Saved $250 on groceries",
		TierGold:   "Saved $1000 on groceries - Budget Master!",
	},
	BadgeCarbonHero: {
		TierBronze: "Avoided 10kg of CO₂ emissions",
		TierSilver: "Avoided 50kg of CO₂ emissions",
		TierGold:   "Avoided 200kg of CO₂ emissions - Planet Protector!",
	},
	BadgeStreakMaster: {
		TierBronze: "Maintained a 7-day streak",
		TierSilver: "Maintained a 30-day streak",
		TierGold:   "Maintained a 100-day streak - Unstoppable!",
	},
	BadgeRecipeChef: {
		TierBronze: "Made 5 recipes",
		TierSilver: "Made 25 recipes",
		TierGold:   "Made 100 recipes - Master Chef!",
	},
	BadgeCommunityHero: {
		TierBronze: "Shared 3 food items",
		TierSilver: "Shared 15 food items",
		TierGold:   "Shared 50 food items - Neighborhood Hero!",
	},
}

// ErrStoreRequired is returned when a Service is built without a store.
var ErrStoreRequired = errors.New("impact: store is required")

// Config holds Service configuration.
type Config struct {
	Store  Store
	Logger zerolog.Logger
}

// Service combines the calculator, gamification and aggregation logic
// over a Store.
type Service struct {
	store Store
	calc  *Calculator
	log   zerolog.Logger

	now func() time.Time
}

// NewService creates a Service.
func NewService(config Config) (*Service, error) {
	if config.Store == nil {
		return nil, ErrStoreRequired
	}
	return &Service{
		store: config.Store,
		calc:  NewCalculator(),
		log:   config.Logger,
		now:   time.Now,
	}, nil
}

// Calculator returns the underlying pure calculator.
func (s *Service) Calculator() *Calculator {
	return s.calc
}

func (s *Service) today() time.Time {
	return dateOnly(s.now().UTC())
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// weekStart returns the Monday of the week containing t, at midnight UTC.
func weekStart(t time.Time) time.Time {
	d := dateOnly(t)
	daysSinceMonday := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -daysSinceMonday)
}

func sameDay(a, b time.Time) bool {
	return dateOnly(a).Equal(dateOnly(b))
}

// ensureRecord loads the user's gamification record, creating a fresh
// one when none exists.
func (s *Service) ensureRecord(ctx context.Context, userID string) (*GamificationRecord, error) {
	record, err := s.store.GetGamification(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load gamification record: %w", err)
	}
	if record != nil {
		return record, nil
	}

	record = &GamificationRecord{
		UserID:        userID,
		WeeklyGoalKG:  DefaultWeeklyGoalKG,
		WeekStartDate: weekStart(s.today()),
		Badges:        map[string]EarnedBadge{},
	}
	if err := s.store.SaveGamification(ctx, record); err != nil {
		return nil, fmt.Errorf("create gamification record: %w", err)
	}
	return record, nil
}

// UpdateStreak advances the user's streak for today's activity. A last
// active date of yesterday extends the streak, today leaves it alone,
// anything else resets it to 1. Returns the streak and whether it is a
// new personal record.
func (s *Service) UpdateStreak(ctx context.Context, userID string) (int, bool, error) {
	record, err := s.ensureRecord(ctx, userID)
	if err != nil {
		return 0, false, err
	}

	today := s.today()
	yesterday := today.AddDate(0, 0, -1)

	switch {
	case record.LastActiveDate != nil && sameDay(*record.LastActiveDate, today):
		return record.CurrentStreak, false, nil
	case record.LastActiveDate != nil && sameDay(*record.LastActiveDate, yesterday):
		record.CurrentStreak++
	default:
		record.CurrentStreak = 1
	}

	isNewRecord := record.CurrentStreak > record.LongestStreak
	if isNewRecord {
		record.LongestStreak = record.CurrentStreak
	}
	record.LastActiveDate = &today

	if err := s.store.SaveGamification(ctx, record); err != nil {
		return 0, false, fmt.Errorf("save streak: %w", err)
	}
	return record.CurrentStreak, isNewRecord, nil
}

// badgeValue returns the user's current value for a badge type.
func badgeValue(record *GamificationRecord, badgeType string) float64 {
	switch badgeType {
	case BadgeWasteSaver:
		return record.TotalWasteKG
	case BadgeMoneySaver:
		return record.TotalCostUSD
	case BadgeCarbonHero:
		return record.TotalCO2KG
	case BadgeStreakMaster:
		return float64(record.CurrentStreak)
	case BadgeRecipeChef:
		return float64(record.TotalEvents)
	case BadgeCommunityHero:
		return float64(record.TotalShared)
	}
	return 0
}

// AwardBadges checks thresholds against the user's totals and persists
// any newly earned tiers. Every tier passed since the previously held
// one is reported.
func (s *Service) AwardBadges(ctx context.Context, userID string) ([]Badge, error) {
	record, err := s.ensureRecord(ctx, userID)
	if err != nil {
		return nil, err
	}
	if record.Badges == nil {
		record.Badges = map[string]EarnedBadge{}
	}

	now := s.now().UTC()
	var newBadges []Badge

	for _, badgeType := range badgeTypes {
		value := badgeValue(record, badgeType)
		heldOrder := -1
		if held, ok := record.Badges[badgeType]; ok {
			heldOrder = tierOrder[held.Tier]
		}

		for _, tier := range tiers {
			threshold := badgeThresholds[badgeType][tier]
			if value < threshold || tierOrder[tier] <= heldOrder {
				continue
			}
			earnedAt := now
			newBadges = append(newBadges, Badge{
				Type:        badgeType,
				Tier:        tier,
				Name:        badgeNames[badgeType],
				Description: badgeDescriptions[badgeType][tier],
				EarnedAt:    &earnedAt,
			})
			record.Badges[badgeType] = EarnedBadge{Tier: tier, EarnedAt: now}
		}
	}

	if len(newBadges) > 0 {
		if err := s.store.SaveGamification(ctx, record); err != nil {
			return nil, fmt.Errorf("save badges: %w", err)
		}
		s.log.Info().Str("user_id", userID).Int("count", len(newBadges)).Msg("badges awarded")
	}
	return newBadges, nil
}

// State returns the full gamification view for a user.
func (s *Service) State(ctx context.Context, userID string) (*GamificationState, error) {
	record, err := s.ensureRecord(ctx, userID)
	if err != nil {
		return nil, err
	}

	today := s.today()

	streak := StreakInfo{
		Current:       record.CurrentStreak,
		Longest:       record.LongestStreak,
		LastActive:    record.LastActiveDate,
		IsActiveToday: record.LastActiveDate != nil && sameDay(*record.LastActiveDate, today),
	}

	var badges []Badge
	for _, badgeType := range badgeTypes {
		held, ok := record.Badges[badgeType]
		if !ok {
			continue
		}
		badge := Badge{
			Type:        badgeType,
			Tier:        held.Tier,
			Name:        badgeNames[badgeType],
			Description: badgeDescriptions[badgeType][held.Tier],
		}
		if !held.EarnedAt.IsZero() {
			earnedAt := held.EarnedAt
			badge.EarnedAt = &earnedAt
		}
		if next, ok := nextTier(held.Tier); ok {
			threshold := badgeThresholds[badgeType][next]
			progress := min(100, round1(badgeValue(record, badgeType)/threshold*100))
			badge.Progress = &progress
			badge.NextTierThreshold = &threshold
		}
		badges = append(badges, badge)
	}

	return &GamificationState{
		UserID:            userID,
		Streak:            streak,
		Badges:            badges,
		WeeklyGoal:        s.weeklyProgress(record),
		NextBadgeProgress: nextBadgeProgress(record),
	}, nil
}

// nextBadgeProgress finds the unearned tier the user is closest to.
func nextBadgeProgress(record *GamificationRecord) *Badge {
	var best *Badge
	bestProgress := 0.0

	for _, badgeType := range badgeTypes {
		heldOrder := -1
		if held, ok := record.Badges[badgeType]; ok {
			heldOrder = tierOrder[held.Tier]
		}
		value := badgeValue(record, badgeType)

		for _, tier := range tiers[heldOrder+1:] {
			threshold := badgeThresholds[badgeType][tier]
			if value >= threshold {
				continue
			}
			progress := value / threshold * 100
			if progress > bestProgress {
				bestProgress = progress
				rounded := round1(progress)
				t := threshold
				best = &Badge{
					Type:              badgeType,
					Tier:              tier,
					Name:              badgeNames[badgeType],
					Description:       badgeDescriptions[badgeType][tier],
					Progress:          &rounded,
					NextTierThreshold: &t,
				}
			}
			break
		}
	}
	return best
}

func nextTier(tier string) (string, bool) {
	switch tier {
	case TierBronze:
		return TierSilver, true
	case TierSilver:
		return TierGold, true
	}
	return "", false
}

func (s *Service) weeklyProgress(record *GamificationRecord) WeeklyProgress {
	goal := record.WeeklyGoalKG
	if goal <= 0 {
		goal = DefaultWeeklyGoalKG
	}
	current := record.WeeklyProgressKG
	if !sameDay(record.WeekStartDate, weekStart(s.today())) {
		current = 0
	}
	return WeeklyProgress{
		CurrentKG:  round4(current),
		GoalKG:     goal,
		Percentage: round1(current / goal * 100),
		WeekStart:  weekStart(s.today()),
	}
}

// RecordActivity applies an impact event to the user's gamification
// state: streak, totals, weekly progress and badges. Returns the
// lightweight update used for immediate feedback.
func (s *Service) RecordActivity(ctx context.Context, userID string, totals Totals) (*GamificationUpdate, error) {
	streak, isNewRecord, err := s.UpdateStreak(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.addTotals(ctx, userID, totals); err != nil {
		return nil, err
	}

	newBadges, err := s.AwardBadges(ctx, userID)
	if err != nil {
		return nil, err
	}
	if newBadges == nil {
		newBadges = []Badge{}
	}

	record, err := s.ensureRecord(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &GamificationUpdate{
		Streak:            streak,
		IsNewStreakRecord: isNewRecord,
		NewBadges:         newBadges,
		WeeklyProgress:    s.weeklyProgress(record),
	}, nil
}

// RecordShare counts a community fridge share toward the community hero
// badge and returns any newly earned badges.
func (s *Service) RecordShare(ctx context.Context, userID string) ([]Badge, error) {
	record, err := s.ensureRecord(ctx, userID)
	if err != nil {
		return nil, err
	}
	record.TotalShared++
	if err := s.store.SaveGamification(ctx, record); err != nil {
		return nil, fmt.Errorf("save share count: %w", err)
	}
	return s.AwardBadges(ctx, userID)
}

// addTotals increments the user's all-time totals and weekly progress,
// resetting the weekly counter when the ISO week rolled over.
func (s *Service) addTotals(ctx context.Context, userID string, totals Totals) error {
	record, err := s.ensureRecord(ctx, userID)
	if err != nil {
		return err
	}

	currentWeek := weekStart(s.today())
	if !sameDay(record.WeekStartDate, currentWeek) {
		record.WeeklyProgressKG = 0
	}

	record.TotalWasteKG += totals.WastePreventedKG
	record.TotalCostUSD += totals.MoneySavedUSD
	record.TotalCO2KG += totals.CO2AvoidedKG
	record.TotalEvents++
	record.WeeklyProgressKG += totals.WastePreventedKG
	record.WeekStartDate = currentWeek

	if err := s.store.SaveGamification(ctx, record); err != nil {
		return fmt.Errorf("save totals: %w", err)
	}
	return nil
}

// WeeklyGoal returns the user's weekly goal in kg.
func (s *Service) WeeklyGoal(ctx context.Context, userID string) (float64, error) {
	record, err := s.store.GetGamification(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("load gamification record: %w", err)
	}
	if record == nil || record.WeeklyGoalKG <= 0 {
		return DefaultWeeklyGoalKG, nil
	}
	return record.WeeklyGoalKG, nil
}

// SetWeeklyGoal updates the user's weekly goal.
func (s *Service) SetWeeklyGoal(ctx context.Context, userID string, goalKG float64) error {
	if goalKG <= 0 {
		return fmt.Errorf("impact: weekly goal must be positive, got %v", goalKG)
	}
	record, err := s.ensureRecord(ctx, userID)
	if err != nil {
		return err
	}
	record.WeeklyGoalKG = goalKG
	if err := s.store.SaveGamification(ctx, record); err != nil {
		return fmt.Errorf("save weekly goal: %w", err)
	}
	return nil
}
