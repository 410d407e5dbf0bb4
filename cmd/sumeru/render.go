package sumeru

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/lhuanyu/Sumeru/internal/model"
	"github.com/lhuanyu/Sumeru/internal/service"
)

var (
	colorMuted = lipgloss.Color("#6c757d")

	dayHeaderStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle     = lipgloss.NewStyle().Foreground(colorMuted)
	totalStyle     = lipgloss.NewStyle().Bold(true)
	barStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#5f9fb0"))
	averageStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#f39c12"))

	typeStyles = map[model.CareType]lipgloss.Style{
		model.CareFeeding: lipgloss.NewStyle().Foreground(lipgloss.Color("#5f9fb0")).Bold(true),
		model.CareDiaper:  lipgloss.NewStyle().Foreground(lipgloss.Color("#d16d7a")).Bold(true),
		model.CareSleep:   lipgloss.NewStyle().Foreground(lipgloss.Color("#8e7cc3")).Bold(true),
		model.CareBath:    lipgloss.NewStyle().Foreground(lipgloss.Color("#4caf50")).Bold(true),
		model.CareOther:   lipgloss.NewStyle().Foreground(colorMuted).Bold(true),
	}
)

func typeLabel(t string) string {
	ct := model.CareType(t)
	label := fmt.Sprintf("%-8s", ct.String())
	if style, ok := typeStyles[ct]; ok {
		return style.Render(label)
	}
	return label
}

// dayHeader is the section title: the day label, the fed volume, and the
// diaper count, plus solids and sleep when there are any.
func dayHeader(d service.DaySummary) string {
	parts := []string{
		fmt.Sprintf("%dml", d.FeedingMl),
		fmt.Sprintf("%d %s", d.DiaperCount, plural(d.DiaperCount, "diaper", "diapers")),
	}
	if d.SolidG > 0 {
		parts = append(parts, fmt.Sprintf("%dg solids", d.SolidG))
	}
	if d.SleepSeconds > 0 {
		parts = append(parts, "sleep "+d.Sleep)
	}
	return dayHeaderStyle.Render(d.Label) + "  " + mutedStyle.Render(strings.Join(parts, " | "))
}

func printEventRow(out io.Writer, p service.EventPayload, now time.Time) {
	ts := p.Timestamp.In(cfg.Location)
	id := p.ID
	if len(id) > 8 {
		id = id[:8]
	}
	line := fmt.Sprintf("  %s  %s  %s  %s", ts.Format("15:04"), mutedStyle.Render(id), typeLabel(p.Type), p.Detail)
	if p.Note != "" && p.Note != p.Detail {
		line += "  " + mutedStyle.Render("\""+p.Note+"\"")
	}
	line += "  " + mutedStyle.Render(humanize.RelTime(p.Timestamp, now, "ago", "from now"))
	fmt.Fprintln(out, line)
}

func printDaySection(out io.Writer, d service.DaySummary, now time.Time) {
	fmt.Fprintln(out, dayHeader(d))
	if len(d.Events) == 0 {
		fmt.Fprintln(out, "  "+mutedStyle.Render("No records today"))
		return
	}
	for _, p := range d.Events {
		printEventRow(out, p, now)
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
