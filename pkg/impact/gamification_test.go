package impact

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"
)

type fakeStore struct {
	mu      sync.Mutex
	records map[string]*GamificationRecord
	events  []Event
	nextID  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[string]*GamificationRecord{}}
}

func (s *fakeStore) GetGamification(_ context.Context, userID string) (*GamificationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[userID]
	if !ok {
		return nil, nil
	}
	clone := *record
	clone.Badges = make(map[string]EarnedBadge, len(record.Badges))
	for k, v := range record.Badges {
		clone.Badges[k] = v
	}
	return &clone, nil
}

func (s *fakeStore) SaveGamification(_ context.Context, record *GamificationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *record
	s.records[record.UserID] = &clone
	return nil
}

func (s *fakeStore) InsertEvent(_ context.Context, event *Event) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	e := *event
	e.ID = fmt.Sprintf("evt-%d", s.nextID)
	s.events = append(s.events, e)
	return e.ID, nil
}

func (s *fakeStore) EventsBetween(_ context.Context, userID string, start, end time.Time) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, e := range s.events {
		if e.UserID != userID {
			continue
		}
		if e.CreatedAt.Before(start) || !e.CreatedAt.Before(end) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *fakeStore) RecentEvents(_ context.Context, userID string, limit int) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, e := range s.events {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func newTestService(t *testing.T, store Store, now time.Time) *Service {
	t.Helper()
	svc, err := NewService(Config{Store: store})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	svc.now = func() time.Time { return now }
	return svc
}

func TestUpdateStreak_FirstActivityStartsAtOne(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	svc := newTestService(t, newFakeStore(), now)

	streak, isRecord, err := svc.UpdateStreak(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("UpdateStreak: %v", err)
	}
	if streak != 1 || !isRecord {
		t.Errorf("streak = %d record = %v, want 1 true", streak, isRecord)
	}
}

func TestUpdateStreak_SameDayIsNoop(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	store := newFakeStore()
	svc := newTestService(t, store, now)
	ctx := context.Background()

	if _, _, err := svc.UpdateStreak(ctx, "user_1"); err != nil {
		t.Fatal(err)
	}
	streak, isRecord, err := svc.UpdateStreak(ctx, "user_1")
	if err != nil {
		t.Fatal(err)
	}
	if streak != 1 || isRecord {
		t.Errorf("second same-day update: streak = %d record = %v, want 1 false", streak, isRecord)
	}
}

func TestUpdateStreak_ConsecutiveDaysIncrement(t *testing.T) {
	store := newFakeStore()
	day := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		svc := newTestService(t, store, day.AddDate(0, 0, i))
		streak, _, err := svc.UpdateStreak(ctx, "user_1")
		if err != nil {
			t.Fatal(err)
		}
		if streak != i+1 {
			t.Errorf("day %d: streak = %d, want %d", i, streak, i+1)
		}
	}
}

func TestUpdateStreak_GapResetsToOne(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()
	day := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	svc := newTestService(t, store, day)
	if _, _, err := svc.UpdateStreak(ctx, "user_1"); err != nil {
		t.Fatal(err)
	}
	svc = newTestService(t, store, day.AddDate(0, 0, 1))
	if _, _, err := svc.UpdateStreak(ctx, "user_1"); err != nil {
		t.Fatal(err)
	}

	// skip two days
	svc = newTestService(t, store, day.AddDate(0, 0, 4))
	streak, isRecord, err := svc.UpdateStreak(ctx, "user_1")
	if err != nil {
		t.Fatal(err)
	}
	if streak != 1 || isRecord {
		t.Errorf("after gap: streak = %d record = %v, want 1 false", streak, isRecord)
	}

	record, _ := store.GetGamification(ctx, "user_1")
	if record.LongestStreak != 2 {
		t.Errorf("longest streak = %d, want 2", record.LongestStreak)
	}
}

func TestAwardBadges_CrossingMultipleTiersAwardsEach(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	svc := newTestService(t, store, now)
	ctx := context.Background()

	store.SaveGamification(ctx, &GamificationRecord{
		UserID:       "user_1",
		TotalWasteKG: 30, // past bronze and silver in one step
		Badges:       map[string]EarnedBadge{},
	})

	badges, err := svc.AwardBadges(ctx, "user_1")
	if err != nil {
		t.Fatalf("AwardBadges: %v", err)
	}

	var tiers []string
	for _, b := range badges {
		if b.Type == BadgeWasteSaver {
			tiers = append(tiers, b.Tier)
		}
	}
	if len(tiers) != 2 || tiers[0] != TierBronze || tiers[1] != TierSilver {
		t.Errorf("waste saver tiers = %v, want [bronze silver]", tiers)
	}

	record, _ := store.GetGamification(ctx, "user_1")
	if record.Badges[BadgeWasteSaver].Tier != TierSilver {
		t.Errorf("stored tier = %q, want silver", record.Badges[BadgeWasteSaver].Tier)
	}
}

func TestAwardBadges_HeldTierNotReAwarded(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	svc := newTestService(t, store, now)
	ctx := context.Background()

	store.SaveGamification(ctx, &GamificationRecord{
		UserID:       "user_1",
		TotalWasteKG: 6,
		Badges: map[string]EarnedBadge{
			BadgeWasteSaver: {Tier: TierBronze, EarnedAt: now},
		},
	})

	badges, err := svc.AwardBadges(ctx, "user_1")
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range badges {
		if b.Type == BadgeWasteSaver {
			t.Errorf("bronze re-awarded: %+v", b)
		}
	}
}

func TestRecordShare_CountsTowardCommunityHero(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	svc := newTestService(t, store, now)
	ctx := context.Background()

	var earned []Badge
	for i := 0; i < 3; i++ {
		badges, err := svc.RecordShare(ctx, "user_1")
		if err != nil {
			t.Fatalf("RecordShare: %v", err)
		}
		earned = append(earned, badges...)
	}

	found := false
	for _, b := range earned {
		if b.Type == BadgeCommunityHero && b.Tier == TierBronze {
			found = true
		}
	}
	if !found {
		t.Error("community hero bronze not awarded after 3 shares")
	}
}

func TestState_ActiveTodayAndNextBadge(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	svc := newTestService(t, store, now)
	ctx := context.Background()

	today := dateOnly(now)
	store.SaveGamification(ctx, &GamificationRecord{
		UserID:         "user_1",
		CurrentStreak:  3,
		LongestStreak:  5,
		LastActiveDate: &today,
		WeeklyGoalKG:   2.0,
		WeekStartDate:  weekStart(now),
		TotalWasteKG:   4.0, // 80% toward waste saver bronze
		Badges:         map[string]EarnedBadge{},
	})

	state, err := svc.State(ctx, "user_1")
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if !state.Streak.IsActiveToday {
		t.Error("IsActiveToday = false, want true")
	}
	if state.NextBadgeProgress == nil {
		t.Fatal("NextBadgeProgress = nil")
	}
	if state.NextBadgeProgress.Type != BadgeWasteSaver {
		t.Errorf("next badge = %s, want waste_saver", state.NextBadgeProgress.Type)
	}
	if *state.NextBadgeProgress.Progress != 80.0 {
		t.Errorf("next badge progress = %v, want 80", *state.NextBadgeProgress.Progress)
	}
}

func TestWeeklyProgress_ResetsOnWeekRollover(t *testing.T) {
	store := newFakeStore()
	// Monday of one week
	monday := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	svc := newTestService(t, store, monday)
	ctx := context.Background()

	if _, err := svc.RecordActivity(ctx, "user_1", Totals{WastePreventedKG: 1.5}); err != nil {
		t.Fatal(err)
	}
	record, _ := store.GetGamification(ctx, "user_1")
	if record.WeeklyProgressKG != 1.5 {
		t.Fatalf("weekly progress = %v, want 1.5", record.WeeklyProgressKG)
	}

	// next Monday: progress resets before adding
	svc = newTestService(t, store, monday.AddDate(0, 0, 7))
	update, err := svc.RecordActivity(ctx, "user_1", Totals{WastePreventedKG: 0.5})
	if err != nil {
		t.Fatal(err)
	}
	if update.WeeklyProgress.CurrentKG != 0.5 {
		t.Errorf("weekly progress after rollover = %v, want 0.5", update.WeeklyProgress.CurrentKG)
	}
	record, _ = store.GetGamification(ctx, "user_1")
	if record.TotalWasteKG != 2.0 {
		t.Errorf("total waste = %v, want 2.0", record.TotalWasteKG)
	}
}

func TestSetWeeklyGoal(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	svc := newTestService(t, store, now)
	ctx := context.Background()

	if err := svc.SetWeeklyGoal(ctx, "user_1", 5.0); err != nil {
		t.Fatalf("SetWeeklyGoal: %v", err)
	}
	goal, err := svc.WeeklyGoal(ctx, "user_1")
	if err != nil {
		t.Fatal(err)
	}
	if goal != 5.0 {
		t.Errorf("goal = %v, want 5.0", goal)
	}

	if err := svc.SetWeeklyGoal(ctx, "user_1", -1); err == nil {
		t.Error("negative goal accepted")
	}
}

func TestWeeklyGoal_DefaultWithoutRecord(t *testing.T) {
	svc := newTestService(t, newFakeStore(), time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	goal, err := svc.WeeklyGoal(context.Background(), "user_1")
	if err != nil {
		t.Fatal(err)
	}
	if goal != DefaultWeeklyGoalKG {
		t.Errorf("goal = %v, want %v", goal, DefaultWeeklyGoalKG)
	}
}

func TestWeekStart(t *testing.T) {
	cases := []struct {
		in   time.Time
		want time.Time
	}{
		{time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC), time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)}, // Monday
		{time.Date(2025, 3, 12, 12, 0, 0, 0, time.UTC), time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)}, // Wednesday
		{time.Date(2025, 3, 16, 23, 0, 0, 0, time.UTC), time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)}, // Sunday
	}
	for _, tc := range cases {
		if got := weekStart(tc.in); !got.Equal(tc.want) {
			t.Errorf("weekStart(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
