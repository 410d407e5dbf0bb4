package sumeru

import (
	"database/sql"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lhuanyu/Sumeru/internal/aggregate"
	"github.com/lhuanyu/Sumeru/internal/service"
	"github.com/lhuanyu/Sumeru/internal/store"
)

const chartBarWidth = 24

var (
	chartRange   string
	chartDays    int
	chartAverage bool
	chartJSON    bool
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Charts over recorded events",
}

var chartFeedingCmd = &cobra.Command{
	Use:   "feeding",
	Short: "Chart feeding volume per feeding",
	Long: `Chart one bar per feeding. Over several days the last feeding of each day is
annotated with the day's total; over the last 24 hours every bar shows its own amount.`,
	Example: `  sumeru chart feeding
  sumeru chart feeding --range 14d
  sumeru chart feeding --range 24h --average=false`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRepo(func(sqldb *sql.DB, repo store.Repository) error {
			prefs, err := loadPreferences(sqldb)
			if err != nil {
				return err
			}
			days := prefs.ChartDays
			if cmd.Flags().Changed("days") {
				days = chartDays
			}
			r, err := aggregate.ParseTimeRange(chartRange, days)
			if err != nil {
				return err
			}
			report, err := service.LoadFeedingChart(cmd.Context(), repo, r, nowFunc(), cfg.Location)
			if err != nil {
				return err
			}
			if chartJSON {
				return printJSON(cmd.OutOrStdout(), report)
			}
			printFeedingChart(cmd.OutOrStdout(), report, chartAverage)
			return nil
		})
	},
}

func printFeedingChart(out io.Writer, r *service.FeedingChartReport, showAverage bool) {
	fmt.Fprintf(out, "Feeding, %s\n", r.Range)
	if len(r.Bars) == 0 {
		fmt.Fprintln(out, "  (no feedings)")
		return
	}
	maxV := r.MaxBarMl
	if showAverage && r.Average > maxV {
		maxV = r.Average
	}
	multiDay := r.Mode == aggregate.MultiDay.String()
	for _, b := range r.Bars {
		label := b.Timestamp.In(cfg.Location).Format("15:04")
		if multiDay {
			label = b.Timestamp.In(cfg.Location).Format("01-02 15:04")
		}
		bar := horizontalBar(b.AmountMl, maxV, chartBarWidth)
		line := fmt.Sprintf("  %-11s %s %d", label, barStyle.Render(fmt.Sprintf("%-*s", chartBarWidth, bar)), b.AmountMl)
		if multiDay && b.Annotated {
			line += "  " + totalStyle.Render(fmt.Sprintf("= %dml", b.Annotation))
		}
		fmt.Fprintln(out, line)
	}
	if showAverage {
		rule := strings.Repeat("-", barCount(r.Average, maxV, chartBarWidth))
		fmt.Fprintf(out, "  %-11s %s %d\n", "average", averageStyle.Render(fmt.Sprintf("%-*s", chartBarWidth, rule)), r.Average)
	}

	per := "per feeding"
	if multiDay {
		per = "per day"
	}
	fmt.Fprintf(out, "Total: %dml over %d feedings | Average: %dml %s", r.TotalMl, r.Feedings, r.Average, per)
	if r.SolidG > 0 {
		fmt.Fprintf(out, " | Solids: %dg", r.SolidG)
	}
	fmt.Fprintln(out)
	if multiDay && len(r.Days) > 1 {
		fmt.Fprintf(out, "Daily trend: %s\n", sparkline(r.Days, func(p service.FeedingDayPoint) float64 { return p.RollingAverage }))
	}
}

func barCount(value, maxV, width int) int {
	if width <= 0 || maxV <= 0 || value <= 0 {
		return 0
	}
	n := int(math.Round(float64(value) / float64(maxV) * float64(width)))
	if n == 0 {
		n = 1
	}
	return n
}

func horizontalBar(value, maxV, width int) string {
	return strings.Repeat("#", barCount(value, maxV, width))
}

func sparkline(series []service.FeedingDayPoint, valueFn func(service.FeedingDayPoint) float64) string {
	if len(series) == 0 {
		return ""
	}
	chars := []rune("._-~=*#@")
	values := make([]float64, 0, len(series))
	minV, maxV := math.Inf(1), math.Inf(-1)
	for _, p := range series {
		v := valueFn(p)
		values = append(values, v)
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
	}
	if maxV == minV {
		return strings.Repeat(string(chars[len(chars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		idx := int(math.Round((v - minV) / (maxV - minV) * float64(len(chars)-1)))
		b.WriteRune(chars[idx])
	}
	return b.String()
}

func init() {
	rootCmd.AddCommand(chartCmd)
	chartCmd.AddCommand(chartFeedingCmd)

	chartFeedingCmd.Flags().StringVar(&chartRange, "range", "days", "Time range: days, Nd (e.g. 14d), or 24h")
	chartFeedingCmd.Flags().IntVar(&chartDays, "days", 0, "Days for --range days (default: stored chart_days)")
	chartFeedingCmd.Flags().BoolVar(&chartAverage, "average", true, "Show the average rule line")
	chartFeedingCmd.Flags().BoolVar(&chartJSON, "json", false, "Output JSON")
}
