// Package aggregate turns a snapshot of care events into the per-day and
// per-period views used by the record list and the feeding chart.
//
// Every function is pure: inputs are never modified and results never
// alias the caller's slices.
package aggregate

import (
	"fmt"
	"sort"
	"time"

	"github.com/lhuanyu/Sumeru/internal/model"
)

// DayKey identifies a calendar day in some location.
type DayKey struct {
	Year  int
	Month time.Month
	Day   int
}

func KeyOf(t time.Time, loc *time.Location) DayKey {
	y, m, d := t.In(location(loc)).Date()
	return DayKey{Year: y, Month: m, Day: d}
}

func (k DayKey) Start(loc *time.Location) time.Time {
	return time.Date(k.Year, k.Month, k.Day, 0, 0, 0, 0, location(loc))
}

func (k DayKey) Before(other DayKey) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	if k.Month != other.Month {
		return k.Month < other.Month
	}
	return k.Day < other.Day
}

func (k DayKey) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", k.Year, int(k.Month), k.Day)
}

// StartOfDay is local midnight of the day containing t.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	return KeyOf(t, loc).Start(loc)
}

// DayBucket holds the events of one calendar day in caller order.
type DayBucket struct {
	Key    DayKey
	Start  time.Time
	Events []model.CareEvent
}

// GroupByDay partitions events by the calendar day of their timestamp.
// Within a group the input order is kept.
func GroupByDay(events []model.CareEvent, loc *time.Location) map[DayKey][]model.CareEvent {
	out := make(map[DayKey][]model.CareEvent)
	for _, e := range events {
		k := KeyOf(e.Timestamp, loc)
		out[k] = append(out[k], e)
	}
	return out
}

// Buckets is GroupByDay ordered newest day first.
func Buckets(events []model.CareEvent, loc *time.Location) []DayBucket {
	groups := GroupByDay(events, loc)
	out := make([]DayBucket, 0, len(groups))
	for k, evs := range groups {
		out = append(out, DayBucket{Key: k, Start: k.Start(loc), Events: evs})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[j].Key.Before(out[i].Key)
	})
	return out
}

// FilterByType keeps events of type t. The empty type keeps everything.
func FilterByType(events []model.CareEvent, t model.CareType) []model.CareEvent {
	out := make([]model.CareEvent, 0, len(events))
	for _, e := range events {
		if t == "" || e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// FeedingTotalForDay sums fed volume in ml.
func FeedingTotalForDay(day []model.CareEvent) int {
	total := 0
	for _, e := range day {
		total += e.FeedingAmount()
	}
	return total
}

// SolidTotalForDay sums solid food in grams. It is kept apart from the
// ml total so the two units never mix.
func SolidTotalForDay(day []model.CareEvent) int {
	total := 0
	for _, e := range day {
		if e.Type == model.CareFeeding && e.Feeding != nil {
			total += e.Feeding.SolidGrams()
		}
	}
	return total
}

func DiaperCountForDay(day []model.CareEvent) int {
	n := 0
	for _, e := range day {
		if e.Type == model.CareDiaper {
			n++
		}
	}
	return n
}

func SleepDurationForDay(day []model.CareEvent) time.Duration {
	var total time.Duration
	for _, e := range day {
		if e.Type == model.CareSleep {
			total += e.Duration
		}
	}
	return total
}

// FormatClock renders d as H:MM:SS with hours as the largest unit.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}

func location(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}
