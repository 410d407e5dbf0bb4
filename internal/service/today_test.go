package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/lhuanyu/Sumeru/internal/aggregate"
	"github.com/lhuanyu/Sumeru/internal/model"
	"github.com/lhuanyu/Sumeru/internal/service"
)

func TestListDaySummariesNewestFirstWithTotals(t *testing.T) {
	t.Parallel()
	_, repo := newTestRepo(t)
	ctx := context.Background()

	mustCreate(t, repo, formulaFeed(at(1, 8, 0), 100))
	mustCreate(t, repo, service.CareEventInput{Type: "diaper", Timestamp: at(1, 9, 0), DiaperType: "mixed"})
	mustCreate(t, repo, service.CareEventInput{Type: "sleep", Timestamp: at(1, 13, 0), Duration: time.Hour + 30*time.Second})
	mustCreate(t, repo, service.CareEventInput{Type: "feeding", Timestamp: at(1, 17, 0), FeedType: "solid", FeedMethod: "bottle", SolidG: 30})
	mustCreate(t, repo, formulaFeed(at(2, 7, 0), 150))

	days, err := service.ListDaySummaries(ctx, repo, "", at(2, 20, 0), loc)
	if err != nil {
		t.Fatalf("list day summaries: %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("expected 2 days, got %d", len(days))
	}
	if days[0].Label != "Today" || days[1].Label != "Yesterday" {
		t.Fatalf("unexpected labels %q, %q", days[0].Label, days[1].Label)
	}
	yesterday := days[1]
	if yesterday.FeedingMl != 100 || yesterday.SolidG != 30 || yesterday.FeedingCount != 2 {
		t.Fatalf("unexpected feeding totals: %+v", yesterday)
	}
	if yesterday.DiaperCount != 1 || yesterday.Sleep != "1:00:30" || yesterday.SleepSeconds != 3630 {
		t.Fatalf("unexpected diaper/sleep totals: %+v", yesterday)
	}
	if len(yesterday.Events) != 4 || yesterday.Events[0].Type != "feeding" {
		t.Fatalf("expected newest event first within the day, got %+v", yesterday.Events)
	}

	diapers, err := service.ListDaySummaries(ctx, repo, model.CareDiaper, at(2, 20, 0), loc)
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(diapers) != 1 || diapers[0].DiaperCount != 1 || diapers[0].FeedingMl != 0 {
		t.Fatalf("expected only the diaper day, got %+v", diapers)
	}
}

func TestDaySummaryForEmptyDay(t *testing.T) {
	t.Parallel()
	_, repo := newTestRepo(t)

	mustCreate(t, repo, formulaFeed(at(1, 8, 0), 100))
	day, err := service.DaySummaryFor(context.Background(), repo, at(3, 12, 0), at(5, 9, 0), loc)
	if err != nil {
		t.Fatalf("day summary: %v", err)
	}
	if day.Date != "2026-04-03" || day.Label != "April 3, 2026" {
		t.Fatalf("unexpected day header %q %q", day.Date, day.Label)
	}
	if day.FeedingMl != 0 || len(day.Events) != 0 || day.Sleep != "0:00:00" {
		t.Fatalf("expected zero totals, got %+v", day)
	}
}

func TestDayLabelUsesLocation(t *testing.T) {
	t.Parallel()
	shanghai := time.FixedZone("UTC+8", 8*3600)
	now := time.Date(2026, 4, 2, 1, 0, 0, 0, shanghai)
	// 2026-04-01 18:00 UTC is already April 2 in UTC+8.
	key := aggregate.KeyOf(time.Date(2026, 4, 1, 18, 0, 0, 0, time.UTC), shanghai)
	if got := service.DayLabel(key, now, shanghai); got != "Today" {
		t.Fatalf("expected Today, got %q", got)
	}
}
