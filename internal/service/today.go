package service

import (
	"context"
	"time"

	"github.com/lhuanyu/Sumeru/internal/aggregate"
	"github.com/lhuanyu/Sumeru/internal/model"
	"github.com/lhuanyu/Sumeru/internal/store"
)

// DaySummary is one section of the record list: the day's events and
// the totals shown in its header.
type DaySummary struct {
	Date         string         `json:"date"`
	Label        string         `json:"label"`
	FeedingMl    int            `json:"feeding_ml"`
	SolidG       int            `json:"solid_g"`
	FeedingCount int            `json:"feeding_count"`
	DiaperCount  int            `json:"diaper_count"`
	SleepSeconds int64          `json:"sleep_seconds"`
	Sleep        string         `json:"sleep"`
	Events       []EventPayload `json:"events"`
}

// DayLabel names a day relative to now: Today, Yesterday, or the date.
func DayLabel(day aggregate.DayKey, now time.Time, loc *time.Location) string {
	today := aggregate.KeyOf(now, loc)
	if day == today {
		return "Today"
	}
	if day == aggregate.KeyOf(today.Start(loc).AddDate(0, 0, -1), loc) {
		return "Yesterday"
	}
	return day.Start(loc).Format("January 2, 2006")
}

func summarizeDay(key aggregate.DayKey, events []model.CareEvent, now time.Time, loc *time.Location) DaySummary {
	sleep := aggregate.SleepDurationForDay(events)
	return DaySummary{
		Date:         key.String(),
		Label:        DayLabel(key, now, loc),
		FeedingMl:    aggregate.FeedingTotalForDay(events),
		SolidG:       aggregate.SolidTotalForDay(events),
		FeedingCount: len(aggregate.FilterByType(events, model.CareFeeding)),
		DiaperCount:  aggregate.DiaperCountForDay(events),
		SleepSeconds: int64(sleep / time.Second),
		Sleep:        aggregate.FormatClock(sleep),
		Events:       PayloadsFromEvents(events),
	}
}

// SummarizeDays groups events newest day first after applying the type
// filter. Events keep their input order inside a day.
func SummarizeDays(events []model.CareEvent, filter model.CareType, now time.Time, loc *time.Location) []DaySummary {
	buckets := aggregate.Buckets(aggregate.FilterByType(events, filter), loc)
	out := make([]DaySummary, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, summarizeDay(b.Key, b.Events, now, loc))
	}
	return out
}

func ListDaySummaries(ctx context.Context, repo store.Repository, filter model.CareType, now time.Time, loc *time.Location) ([]DaySummary, error) {
	events, err := repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return SummarizeDays(events, filter, now, loc), nil
}

// DaySummaryFor is the summary of the single day containing date. A day
// without events yields zero totals.
func DaySummaryFor(ctx context.Context, repo store.Repository, date, now time.Time, loc *time.Location) (DaySummary, error) {
	events, err := repo.ListAll(ctx)
	if err != nil {
		return DaySummary{}, err
	}
	key := aggregate.KeyOf(date, loc)
	return summarizeDay(key, aggregate.GroupByDay(events, loc)[key], now, loc), nil
}
