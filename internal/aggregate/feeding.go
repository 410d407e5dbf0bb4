package aggregate

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lhuanyu/Sumeru/internal/model"
)

// DefaultChartDays is the multi-day window used when none is configured.
const DefaultChartDays = 7

type RangeMode int

const (
	// MultiDay shows one bar group per day over a rolling window.
	MultiDay RangeMode = iota
	// SinglePeriod shows individual feedings over the last 24 hours.
	SinglePeriod
)

func (m RangeMode) String() string {
	if m == SinglePeriod {
		return "24h"
	}
	return "days"
}

type TimeRange struct {
	Mode RangeMode
	Days int
}

func LastNDays(n int) TimeRange {
	if n <= 0 {
		n = DefaultChartDays
	}
	return TimeRange{Mode: MultiDay, Days: n}
}

func Last24Hours() TimeRange {
	return TimeRange{Mode: SinglePeriod}
}

// ParseTimeRange accepts "days", "Nd" or "24h". days is used for the
// plain "days" form.
func ParseTimeRange(value string, days int) (TimeRange, error) {
	v := strings.TrimSpace(strings.ToLower(value))
	switch v {
	case "", "days", "day":
		return LastNDays(days), nil
	case "24h", "hours", "24hours":
		return Last24Hours(), nil
	}
	if strings.HasSuffix(v, "d") {
		n, err := strconv.Atoi(strings.TrimSuffix(v, "d"))
		if err == nil && n > 0 {
			return LastNDays(n), nil
		}
	}
	return TimeRange{}, fmt.Errorf("invalid time range %q (expected days, Nd, or 24h)", value)
}

func (r TimeRange) String() string {
	if r.Mode == SinglePeriod {
		return "last 24 hours"
	}
	return fmt.Sprintf("last %d days", r.Days)
}

// Period is a half-open interval [Start, End).
type Period struct {
	Start time.Time
	End   time.Time
}

func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// Period resolves the range against now. The multi-day window ends at
// the next local midnight; the 24-hour window includes now itself.
func (r TimeRange) Period(now time.Time, loc *time.Location) Period {
	if r.Mode == SinglePeriod {
		return Period{Start: now.Add(-24 * time.Hour), End: now.Add(time.Nanosecond)}
	}
	days := r.Days
	if days <= 0 {
		days = DefaultChartDays
	}
	today := StartOfDay(now, loc)
	return Period{Start: today.AddDate(0, 0, -(days - 1)), End: today.AddDate(0, 0, 1)}
}

// FeedingRun is a maximal same-day stretch of consecutive feedings.
type FeedingRun struct {
	Key    uuid.UUID
	Day    DayKey
	Events []model.CareEvent
}

func (r FeedingRun) Total() int {
	return FeedingTotalForDay(r.Events)
}

// FeedingGroups maps the ID of the last event of each run to the run.
type FeedingGroups map[uuid.UUID][]model.CareEvent

func (g FeedingGroups) Total(id uuid.UUID) (int, bool) {
	run, ok := g[id]
	if !ok {
		return 0, false
	}
	return FeedingTotalForDay(run), true
}

// SortedFeedings keeps feeding events and orders them oldest first.
func SortedFeedings(events []model.CareEvent) []model.CareEvent {
	out := FilterByType(events, model.CareFeeding)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// FeedingRuns splits a timestamp-sorted feeding sequence at every
// calendar-day transition. Concatenating the runs yields the input.
func FeedingRuns(feedings []model.CareEvent, loc *time.Location) []FeedingRun {
	runs := make([]FeedingRun, 0)
	var current []model.CareEvent
	flush := func() {
		if len(current) == 0 {
			return
		}
		last := current[len(current)-1]
		runs = append(runs, FeedingRun{Key: last.ID, Day: KeyOf(last.Timestamp, loc), Events: current})
		current = nil
	}
	for _, e := range feedings {
		if n := len(current); n > 0 && KeyOf(current[n-1].Timestamp, loc) != KeyOf(e.Timestamp, loc) {
			flush()
		}
		current = append(current, e)
	}
	flush()
	return runs
}

// ConsecutiveFeedingGroups indexes FeedingRuns by their last event. Events
// must carry distinct IDs.
func ConsecutiveFeedingGroups(feedings []model.CareEvent, loc *time.Location) FeedingGroups {
	runs := FeedingRuns(feedings, loc)
	out := make(FeedingGroups, len(runs))
	for _, r := range runs {
		out[r.Key] = r.Events
	}
	return out
}

// TotalAmount is the day's running total for the last feeding of a run in
// multi-day mode, and the event's own amount otherwise.
func TotalAmount(e model.CareEvent, groups FeedingGroups, mode RangeMode) int {
	if mode == MultiDay {
		if total, ok := groups.Total(e.ID); ok {
			return total
		}
	}
	return e.FeedingAmount()
}

// AverageAmount is the mean per day (multi-day) or per feeding (24h).
// It returns 0 when there is nothing to average.
func AverageAmount(events []model.CareEvent, groups FeedingGroups, mode RangeMode) int {
	if mode == MultiDay {
		if len(groups) == 0 {
			return 0
		}
		total := 0
		for _, run := range groups {
			total += FeedingTotalForDay(run)
		}
		return total / len(groups)
	}
	total, count := 0, 0
	for _, e := range events {
		if e.Type != model.CareFeeding {
			continue
		}
		total += e.FeedingAmount()
		count++
	}
	if count == 0 {
		return 0
	}
	return total / count
}

// PeriodTotal sums feeding volume inside period. In multi-day mode only
// run keys are counted, each carrying its run total.
func PeriodTotal(events []model.CareEvent, groups FeedingGroups, period Period, mode RangeMode) int {
	total := 0
	for _, e := range events {
		if !period.Contains(e.Timestamp) {
			continue
		}
		if mode == SinglePeriod {
			total += e.FeedingAmount()
			continue
		}
		if _, ok := groups[e.ID]; ok {
			total += TotalAmount(e, groups, mode)
		}
	}
	return total
}

type DayPoint struct {
	Day      DayKey
	Start    time.Time
	AmountMl int
	SolidG   int
	Count    int
}

// DailyFeedingSeries has one point per day of period, zero-filled.
func DailyFeedingSeries(events []model.CareEvent, period Period, loc *time.Location) []DayPoint {
	groups := GroupByDay(FilterByType(events, model.CareFeeding), loc)
	out := make([]DayPoint, 0)
	for day := StartOfDay(period.Start, loc); day.Before(period.End); day = day.AddDate(0, 0, 1) {
		k := KeyOf(day, loc)
		evs := groups[k]
		out = append(out, DayPoint{
			Day:      k,
			Start:    day,
			AmountMl: FeedingTotalForDay(evs),
			SolidG:   SolidTotalForDay(evs),
			Count:    len(evs),
		})
	}
	return out
}

// RollingAverage is the trailing mean of AmountMl over window points.
// Leading points average over however many points exist so far.
func RollingAverage(series []DayPoint, window int) []float64 {
	if window <= 0 {
		window = 1
	}
	out := make([]float64, len(series))
	sum := 0
	for i, p := range series {
		sum += p.AmountMl
		if i >= window {
			sum -= series[i-window].AmountMl
		}
		n := i + 1
		if n > window {
			n = window
		}
		out[i] = float64(sum) / float64(n)
	}
	return out
}
