package impact

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// LogEvent calculates totals for the ingredients, persists the event,
// and folds it into the user's gamification state.
func (s *Service) LogEvent(ctx context.Context, userID, source, sourceID string, ingredients []IngredientInput) (*Event, *GamificationUpdate, error) {
	totals, _ := s.calc.CalculateTotal(ingredients)

	event := &Event{
		UserID:      userID,
		Source:      source,
		SourceID:    sourceID,
		Ingredients: ingredients,
		WasteKG:     totals.WastePreventedKG,
		CostUSD:     totals.MoneySavedUSD,
		CO2KG:       totals.CO2AvoidedKG,
		CreatedAt:   s.now().UTC(),
	}
	id, err := s.store.InsertEvent(ctx, event)
	if err != nil {
		return nil, nil, fmt.Errorf("insert impact event: %w", err)
	}
	event.ID = id

	update, err := s.RecordActivity(ctx, userID, totals)
	if err != nil {
		return nil, nil, err
	}
	return event, update, nil
}

// PeriodSummary aggregates the user's events over [start, end] inclusive
// of the end date.
func (s *Service) PeriodSummary(ctx context.Context, userID string, start, end time.Time, periodName string) (*PeriodSummary, error) {
	startDay := dateOnly(start)
	endExclusive := dateOnly(end).AddDate(0, 0, 1)

	events, err := s.store.EventsBetween(ctx, userID, startDay, endExclusive)
	if err != nil {
		return nil, fmt.Errorf("query events for %s: %w", periodName, err)
	}

	var waste, cost, co2 float64
	for _, e := range events {
		waste += e.WasteKG
		cost += e.CostUSD
		co2 += e.CO2KG
	}

	endDay := dateOnly(end)
	return &PeriodSummary{
		Period:     periodName,
		WasteKG:    round4(waste),
		MoneyUSD:   round2(cost),
		CO2KG:      round4(co2),
		EventCount: len(events),
		StartDate:  &startDay,
		EndDate:    &endDay,
	}, nil
}

// AllTimeTotals reads the denormalized gamification record, falling back
// to scanning events when the user has no record yet.
func (s *Service) AllTimeTotals(ctx context.Context, userID string) (*PeriodSummary, error) {
	record, err := s.store.GetGamification(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load gamification record: %w", err)
	}
	if record != nil {
		return &PeriodSummary{
			Period:     "all_time",
			WasteKG:    record.TotalWasteKG,
			MoneyUSD:   record.TotalCostUSD,
			CO2KG:      record.TotalCO2KG,
			EventCount: record.TotalEvents,
		}, nil
	}

	events, err := s.store.EventsBetween(ctx, userID, time.Time{}, s.now().UTC().AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("scan events: %w", err)
	}
	var waste, cost, co2 float64
	for _, e := range events {
		waste += e.WasteKG
		cost += e.CostUSD
		co2 += e.CO2KG
	}
	return &PeriodSummary{
		Period:     "all_time",
		WasteKG:    round4(waste),
		MoneyUSD:   round2(cost),
		CO2KG:      round4(co2),
		EventCount: len(events),
	}, nil
}

// WeeklySummary builds the this-week / last-week / all-time comparison.
// The three period queries run concurrently.
func (s *Service) WeeklySummary(ctx context.Context, userID string) (*WeeklySummary, error) {
	today := s.today()
	thisWeekStart := weekStart(today)
	lastWeekStart := thisWeekStart.AddDate(0, 0, -7)
	thisWeekEnd := thisWeekStart.AddDate(0, 0, 6)
	lastWeekEnd := lastWeekStart.AddDate(0, 0, 6)

	var thisWeek, lastWeek, allTime *PeriodSummary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		thisWeek, err = s.PeriodSummary(gctx, userID, thisWeekStart, thisWeekEnd, "this_week")
		return err
	})
	g.Go(func() error {
		var err error
		lastWeek, err = s.PeriodSummary(gctx, userID, lastWeekStart, lastWeekEnd, "last_week")
		return err
	})
	g.Go(func() error {
		var err error
		allTime, err = s.AllTimeTotals(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	goal, err := s.WeeklyGoal(ctx, userID)
	if err != nil {
		return nil, err
	}

	comparison := map[string]float64{}
	if lastWeek.WasteKG > 0 {
		comparison["waste_kg_change"] = round1((thisWeek.WasteKG - lastWeek.WasteKG) / lastWeek.WasteKG * 100)
	}
	if lastWeek.MoneyUSD > 0 {
		comparison["money_usd_change"] = round1((thisWeek.MoneyUSD - lastWeek.MoneyUSD) / lastWeek.MoneyUSD * 100)
	}
	if lastWeek.CO2KG > 0 {
		comparison["co2_kg_change"] = round1((thisWeek.CO2KG - lastWeek.CO2KG) / lastWeek.CO2KG * 100)
	}

	percentage := 0.0
	if goal > 0 {
		percentage = round1(thisWeek.WasteKG / goal * 100)
	}

	return &WeeklySummary{
		UserID:   userID,
		ThisWeek: *thisWeek,
		LastWeek: *lastWeek,
		AllTime:  *allTime,
		WeeklyGoal: WeeklyProgress{
			CurrentKG:  thisWeek.WasteKG,
			GoalKG:     goal,
			Percentage: percentage,
			WeekStart:  thisWeekStart,
		},
		Comparison: comparison,
	}, nil
}

// History returns the user's most recent impact events.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 10
	}
	events, err := s.store.RecentEvents(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent events: %w", err)
	}
	return events, nil
}
