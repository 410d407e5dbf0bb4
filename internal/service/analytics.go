package service

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/lhuanyu/Sumeru/internal/aggregate"
	"github.com/lhuanyu/Sumeru/internal/model"
	"github.com/lhuanyu/Sumeru/internal/store"
)

// DefaultRollingWindow is the rolling-average window in days.
const DefaultRollingWindow = 3

// FeedingBar is one feeding in the chart. In multi-day mode the last
// feeding of each day carries the day's total as its annotation and the
// others carry none.
type FeedingBar struct {
	ID         uuid.UUID `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Day        string    `json:"day"`
	AmountMl   int       `json:"amount_ml"`
	Annotation int       `json:"annotation_ml"`
	Annotated  bool      `json:"annotated"`
	Label      string    `json:"label"`
}

type FeedingDayPoint struct {
	Day            string  `json:"day"`
	AmountMl       int     `json:"amount_ml"`
	SolidG         int     `json:"solid_g"`
	Feedings       int     `json:"feedings"`
	RollingAverage float64 `json:"rolling_average_ml"`
}

type FeedingChartReport struct {
	Range    string            `json:"range"`
	Mode     string            `json:"mode"`
	Start    time.Time         `json:"start"`
	End      time.Time         `json:"end"`
	Bars     []FeedingBar      `json:"bars"`
	Days     []FeedingDayPoint `json:"days,omitempty"`
	Average  int               `json:"average_ml"`
	TotalMl  int               `json:"total_ml"`
	SolidG   int               `json:"solid_g"`
	Feedings int               `json:"feedings"`
	MaxBarMl int               `json:"max_bar_ml"`
}

// FeedingChart builds the chart for r from a snapshot of events.
func FeedingChart(events []model.CareEvent, r aggregate.TimeRange, now time.Time, loc *time.Location) *FeedingChartReport {
	period := r.Period(now, loc)
	inPeriod := make([]model.CareEvent, 0)
	for _, e := range events {
		if period.Contains(e.Timestamp) {
			inPeriod = append(inPeriod, e)
		}
	}
	feedings := aggregate.SortedFeedings(inPeriod)
	groups := aggregate.ConsecutiveFeedingGroups(feedings, loc)

	report := &FeedingChartReport{
		Range:    r.String(),
		Mode:     r.Mode.String(),
		Start:    period.Start,
		End:      period.End,
		Bars:     make([]FeedingBar, 0, len(feedings)),
		Average:  aggregate.AverageAmount(feedings, groups, r.Mode),
		TotalMl:  aggregate.PeriodTotal(feedings, groups, period, r.Mode),
		SolidG:   aggregate.SolidTotalForDay(feedings),
		Feedings: len(feedings),
	}
	for _, e := range feedings {
		_, isKey := groups[e.ID]
		bar := FeedingBar{
			ID:         e.ID,
			Timestamp:  e.Timestamp,
			Day:        aggregate.KeyOf(e.Timestamp, loc).String(),
			AmountMl:   e.FeedingAmount(),
			Annotation: aggregate.TotalAmount(e, groups, r.Mode),
			Annotated:  r.Mode == aggregate.SinglePeriod || isKey,
			Label:      model.DetailSummary(e),
		}
		report.Bars = append(report.Bars, bar)
		if bar.AmountMl > report.MaxBarMl {
			report.MaxBarMl = bar.AmountMl
		}
	}

	if r.Mode == aggregate.MultiDay {
		series := aggregate.DailyFeedingSeries(feedings, period, loc)
		rolling := aggregate.RollingAverage(series, DefaultRollingWindow)
		report.Days = make([]FeedingDayPoint, 0, len(series))
		for i, p := range series {
			report.Days = append(report.Days, FeedingDayPoint{
				Day:            p.Day.String(),
				AmountMl:       p.AmountMl,
				SolidG:         p.SolidG,
				Feedings:       p.Count,
				RollingAverage: math.Round(rolling[i]*10) / 10,
			})
		}
	}
	return report
}

func LoadFeedingChart(ctx context.Context, repo store.Repository, r aggregate.TimeRange, now time.Time, loc *time.Location) (*FeedingChartReport, error) {
	events, err := repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return FeedingChart(events, r, now, loc), nil
}
