package impact

import (
	"context"
	"testing"
	"time"
)

func TestLogEvent_PersistsAndUpdatesGamification(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	svc := newTestService(t, store, now)
	ctx := context.Background()

	event, update, err := svc.LogEvent(ctx, "user_1", "recipe", "rec_1", []IngredientInput{
		{Name: "tomato", Quantity: 2, Unit: "pieces"},
	})
	if err != nil {
		t.Fatalf("LogEvent: %v", err)
	}
	if event.ID == "" {
		t.Error("event ID empty")
	}
	if event.WasteKG != 0.3 {
		t.Errorf("event waste = %v, want 0.3", event.WasteKG)
	}
	if update.Streak != 1 {
		t.Errorf("streak = %d, want 1", update.Streak)
	}
	if update.WeeklyProgress.CurrentKG != 0.3 {
		t.Errorf("weekly progress = %v, want 0.3", update.WeeklyProgress.CurrentKG)
	}

	record, _ := store.GetGamification(ctx, "user_1")
	if record.TotalEvents != 1 {
		t.Errorf("total events = %d, want 1", record.TotalEvents)
	}
}

func TestWeeklySummary_ComparesPeriods(t *testing.T) {
	store := newFakeStore()
	// Wednesday
	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	svc := newTestService(t, store, now)
	ctx := context.Background()

	thisWeek := time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)
	lastWeek := time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC)
	store.InsertEvent(ctx, &Event{UserID: "user_1", WasteKG: 1.0, CostUSD: 4.0, CO2KG: 2.0, CreatedAt: thisWeek})
	store.InsertEvent(ctx, &Event{UserID: "user_1", WasteKG: 2.0, CostUSD: 8.0, CO2KG: 4.0, CreatedAt: lastWeek})
	store.InsertEvent(ctx, &Event{UserID: "user_2", WasteKG: 9.0, CreatedAt: thisWeek})

	summary, err := svc.WeeklySummary(ctx, "user_1")
	if err != nil {
		t.Fatalf("WeeklySummary: %v", err)
	}

	if summary.ThisWeek.WasteKG != 1.0 || summary.ThisWeek.EventCount != 1 {
		t.Errorf("this week = %+v", summary.ThisWeek)
	}
	if summary.LastWeek.WasteKG != 2.0 {
		t.Errorf("last week waste = %v, want 2.0", summary.LastWeek.WasteKG)
	}
	if got := summary.Comparison["waste_kg_change"]; got != -50.0 {
		t.Errorf("waste change = %v, want -50", got)
	}
	if summary.WeeklyGoal.GoalKG != DefaultWeeklyGoalKG {
		t.Errorf("goal = %v, want default", summary.WeeklyGoal.GoalKG)
	}
	if summary.WeeklyGoal.Percentage != 50.0 {
		t.Errorf("goal percentage = %v, want 50", summary.WeeklyGoal.Percentage)
	}
}

func TestWeeklySummary_NoLastWeekOmitsComparison(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	svc := newTestService(t, store, now)
	ctx := context.Background()

	store.InsertEvent(ctx, &Event{UserID: "user_1", WasteKG: 1.0, CreatedAt: now.AddDate(0, 0, -1)})

	summary, err := svc.WeeklySummary(ctx, "user_1")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := summary.Comparison["waste_kg_change"]; ok {
		t.Error("comparison present with empty last week")
	}
}

func TestAllTimeTotals_PrefersDenormalizedRecord(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	svc := newTestService(t, store, now)
	ctx := context.Background()

	store.SaveGamification(ctx, &GamificationRecord{
		UserID:       "user_1",
		TotalWasteKG: 42.0,
		TotalEvents:  7,
	})
	// A stray event that should not be scanned.
	store.InsertEvent(ctx, &Event{UserID: "user_1", WasteKG: 1.0, CreatedAt: now})

	totals, err := svc.AllTimeTotals(ctx, "user_1")
	if err != nil {
		t.Fatal(err)
	}
	if totals.WasteKG != 42.0 || totals.EventCount != 7 {
		t.Errorf("totals = %+v, want denormalized values", totals)
	}
}

func TestAllTimeTotals_FallsBackToEventScan(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	svc := newTestService(t, store, now)
	ctx := context.Background()

	store.InsertEvent(ctx, &Event{UserID: "user_1", WasteKG: 1.5, CostUSD: 3.0, CO2KG: 2.0, CreatedAt: now.AddDate(0, 0, -30)})
	store.InsertEvent(ctx, &Event{UserID: "user_1", WasteKG: 0.5, CostUSD: 1.0, CO2KG: 1.0, CreatedAt: now})

	totals, err := svc.AllTimeTotals(ctx, "user_1")
	if err != nil {
		t.Fatal(err)
	}
	if totals.WasteKG != 2.0 || totals.EventCount != 2 {
		t.Errorf("totals = %+v, want scanned sums", totals)
	}
}

func TestHistory_LimitsAndOrders(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	svc := newTestService(t, store, now)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		store.InsertEvent(ctx, &Event{UserID: "user_1", WasteKG: float64(i), CreatedAt: now.Add(time.Duration(i) * time.Hour)})
	}

	events, err := svc.History(ctx, "user_1", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 3 {
		t.Fatalf("len = %d, want 3", len(events))
	}
	if events[0].WasteKG != 4.0 {
		t.Errorf("newest event waste = %v, want 4.0", events[0].WasteKG)
	}
}
