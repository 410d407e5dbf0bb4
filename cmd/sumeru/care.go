package sumeru

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lhuanyu/Sumeru/internal/aggregate"
	"github.com/lhuanyu/Sumeru/internal/model"
	"github.com/lhuanyu/Sumeru/internal/service"
	"github.com/lhuanyu/Sumeru/internal/store"
)

var careCmd = &cobra.Command{
	Use:     "care",
	Aliases: []string{"log"},
	Short:   "Record and browse care events",
}

// careFlags are the event fields shared by add and update.
type careFlags struct {
	typ      string
	date     string
	clock    string
	end      string
	duration time.Duration
	note     string

	feedType  string
	method    string
	breastMl  int
	formulaMl int
	solidG    int
	feedNote  string

	diaper  string
	amount  string
	texture string
	color   string
}

func (f *careFlags) bind(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.typ, "type", "", "Event type: feeding, diaper, sleep, bath, or other")
	fl.StringVar(&f.date, "date", "", "Date in YYYY-MM-DD")
	fl.StringVar(&f.clock, "time", "", "Time in HH:MM")
	fl.StringVar(&f.end, "end", "", "End time HH:MM; sets the duration")
	fl.DurationVar(&f.duration, "duration", 0, "Duration, e.g. 45m or 1h30m")
	fl.StringVar(&f.note, "note", "", "Free-text note")
	fl.StringVar(&f.feedType, "feed-type", "", "Feeding type: breast, formula, breast_and_formula, or solid")
	fl.StringVar(&f.method, "method", "", "Feeding method: bottle or breast (default: breast for breast feeds, else bottle)")
	fl.IntVar(&f.breastMl, "breast-ml", 0, "Breast milk amount in ml")
	fl.IntVar(&f.formulaMl, "formula-ml", 0, "Formula amount in ml")
	fl.IntVar(&f.solidG, "solid-g", 0, "Solid food amount in grams")
	fl.StringVar(&f.feedNote, "feed-note", "", "Note attached to the feeding detail")
	fl.StringVar(&f.diaper, "diaper", "", "Diaper type: wet, dirty, mixed, or none")
	fl.StringVar(&f.amount, "amount", "", "Diaper amount: little, normal, or much")
	fl.StringVar(&f.texture, "texture", "", "Stool texture: normal, watery, or solid")
	fl.StringVar(&f.color, "color", "", "Stool color: yellow, green, brown, red, or black")
}

func (f *careFlags) input(ts time.Time) (service.CareEventInput, error) {
	in := service.CareEventInput{
		Type:         f.typ,
		Timestamp:    ts,
		Duration:     f.duration,
		Note:         strings.TrimSpace(f.note),
		FeedType:     f.feedType,
		FeedMethod:   f.method,
		BreastMl:     f.breastMl,
		FormulaMl:    f.formulaMl,
		SolidG:       f.solidG,
		FeedNote:     f.feedNote,
		DiaperType:   f.diaper,
		DiaperAmount: f.amount,
		Texture:      f.texture,
		Color:        f.color,
	}
	if strings.TrimSpace(f.end) != "" {
		end, err := parseEndClock(ts, f.end)
		if err != nil {
			return in, err
		}
		in.EndedAt = &end
	}
	return in, nil
}

// patch collects only the flags the user set. current supplies the start
// time an --end clock is resolved against.
func (f *careFlags) patch(cmd *cobra.Command, current model.CareEvent) (service.CareEventPatch, error) {
	fl := cmd.Flags()
	str := func(name, v string) *string {
		if fl.Changed(name) {
			return &v
		}
		return nil
	}
	num := func(name string, v int) *int {
		if fl.Changed(name) {
			return &v
		}
		return nil
	}
	p := service.CareEventPatch{
		Type:         str("type", f.typ),
		Note:         str("note", f.note),
		FeedType:     str("feed-type", f.feedType),
		FeedMethod:   str("method", f.method),
		BreastMl:     num("breast-ml", f.breastMl),
		FormulaMl:    num("formula-ml", f.formulaMl),
		SolidG:       num("solid-g", f.solidG),
		FeedNote:     str("feed-note", f.feedNote),
		DiaperType:   str("diaper", f.diaper),
		DiaperAmount: str("amount", f.amount),
		Texture:      str("texture", f.texture),
		Color:        str("color", f.color),
	}
	if fl.Changed("date") || fl.Changed("time") {
		ts, err := parseDateTime(f.date, f.clock)
		if err != nil {
			return p, err
		}
		p.Timestamp = &ts
	}
	if fl.Changed("duration") {
		d := f.duration
		p.Duration = &d
	}
	if fl.Changed("end") {
		start := current.Timestamp
		if p.Timestamp != nil {
			start = *p.Timestamp
		}
		end, err := parseEndClock(start, f.end)
		if err != nil {
			return p, err
		}
		p.EndedAt = &end
	}
	return p, nil
}

var (
	addFlags    careFlags
	updateFlags careFlags

	listType string
	listDays int
	listJSON bool
	showJSON bool
)

var careAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a care event",
	Example: `  sumeru care add --type feeding --feed-type formula --formula-ml 120
  sumeru care add --type diaper --diaper dirty --texture watery --color green
  sumeru care add --type sleep --time 13:00 --end 14:30`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ts, err := parseDateTimeOrNow(addFlags.date, addFlags.clock)
		if err != nil {
			return err
		}
		in, err := addFlags.input(ts)
		if err != nil {
			return err
		}
		return withRepo(func(_ *sql.DB, repo store.Repository) error {
			e, err := service.CreateCareEvent(cmd.Context(), repo, in)
			if err != nil {
				return err
			}
			log.Info().Str("id", e.ID.String()).Str("type", string(e.Type)).Msg("care event added")
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s event %s: %s\n", strings.ToLower(e.Type.String()), service.ShortID(e.ID), model.DetailSummary(e))
			return nil
		})
	},
}

var careListCmd = &cobra.Command{
	Use:   "list",
	Short: "List events grouped by day, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRepo(func(sqldb *sql.DB, repo store.Repository) error {
			prefs, err := loadPreferences(sqldb)
			if err != nil {
				return err
			}
			filter := prefs.TypeFilter
			if cmd.Flags().Changed("type") {
				if filter, err = parseTypeFilter(listType); err != nil {
					return err
				}
			}
			now := nowFunc()
			days, err := service.ListDaySummaries(cmd.Context(), repo, filter, now, cfg.Location)
			if err != nil {
				return err
			}
			if listDays > 0 && len(days) > listDays {
				days = days[:listDays]
			}
			if listJSON {
				return printJSON(cmd.OutOrStdout(), days)
			}
			for i, d := range withToday(days, now) {
				if i > 0 {
					fmt.Fprintln(cmd.OutOrStdout())
				}
				printDaySection(cmd.OutOrStdout(), d, now)
			}
			return nil
		})
	},
}

// withToday puts an empty section for today first when nothing was logged
// today.
func withToday(days []service.DaySummary, now time.Time) []service.DaySummary {
	key := aggregate.KeyOf(now, cfg.Location)
	for _, d := range days {
		if d.Date == key.String() {
			return days
		}
	}
	today := service.DaySummary{
		Date:   key.String(),
		Label:  service.DayLabel(key, now, cfg.Location),
		Sleep:  aggregate.FormatClock(0),
		Events: []service.EventPayload{},
	}
	return append([]service.DaySummary{today}, days...)
}

var careShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRepo(func(_ *sql.DB, repo store.Repository) error {
			id, err := service.ResolveEventID(cmd.Context(), repo, args[0])
			if err != nil {
				return err
			}
			e, err := repo.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			if showJSON {
				return printJSON(cmd.OutOrStdout(), service.PayloadFromEvent(e))
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID: %s\n", e.ID)
			fmt.Fprintf(out, "Type: %s\n", e.Type)
			fmt.Fprintf(out, "Time: %s\n", e.Timestamp.In(cfg.Location).Format("2006-01-02 15:04"))
			if e.Duration > 0 {
				fmt.Fprintf(out, "Duration: %s (until %s)\n", aggregate.FormatClock(e.Duration), e.EndedAt().In(cfg.Location).Format("15:04"))
			}
			fmt.Fprintf(out, "Detail: %s\n", model.DetailSummary(e))
			if e.Note != "" {
				fmt.Fprintf(out, "Note: %s\n", e.Note)
			}
			if e.Feeding != nil && e.Feeding.Note != "" {
				fmt.Fprintf(out, "Feeding note: %s\n", e.Feeding.Note)
			}
			fmt.Fprintf(out, "Updated: %s\n", e.UpdatedAt.In(cfg.Location).Format(time.RFC3339))
			return nil
		})
	},
}

var careUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update fields of an event",
	Long:  "Update changes only the flags given. Changing --type replaces the old detail with one built from the detail flags.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRepo(func(_ *sql.DB, repo store.Repository) error {
			ctx := cmd.Context()
			id, err := service.ResolveEventID(ctx, repo, args[0])
			if err != nil {
				return err
			}
			current, err := repo.Get(ctx, id)
			if err != nil {
				return err
			}
			patch, err := updateFlags.patch(cmd, current)
			if err != nil {
				return err
			}
			e, err := service.UpdateCareEvent(ctx, repo, id, patch)
			if err != nil {
				return err
			}
			log.Info().Str("id", e.ID.String()).Msg("care event updated")
			fmt.Fprintf(cmd.OutOrStdout(), "Updated event %s: %s\n", service.ShortID(e.ID), model.DetailSummary(e))
			return nil
		})
	},
}

var careDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete one or more events",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRepo(func(_ *sql.DB, repo store.Repository) error {
			ctx := cmd.Context()
			ids := make([]uuid.UUID, 0, len(args))
			for _, raw := range args {
				id, err := service.ResolveEventID(ctx, repo, raw)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			if err := service.DeleteCareEvents(ctx, repo, ids); err != nil {
				return err
			}
			log.Info().Int("count", len(ids)).Msg("care events deleted")
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d %s\n", len(ids), plural(len(ids), "event", "events"))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(careCmd)
	careCmd.AddCommand(careAddCmd, careListCmd, careShowCmd, careUpdateCmd, careDeleteCmd)

	addFlags.bind(careAddCmd)
	_ = careAddCmd.MarkFlagRequired("type")
	updateFlags.bind(careUpdateCmd)

	careListCmd.Flags().StringVar(&listType, "type", "", "Filter by type, or all (default: stored type_filter)")
	careListCmd.Flags().IntVar(&listDays, "days", 0, "Show at most this many days (0 = all)")
	careListCmd.Flags().BoolVar(&listJSON, "json", false, "Output JSON")
	careShowCmd.Flags().BoolVar(&showJSON, "json", false, "Output JSON")
}
