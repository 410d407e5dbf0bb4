package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lhuanyu/Sumeru/internal/model"
	"github.com/lhuanyu/Sumeru/internal/store"
)

// ExportVersion is written to every JSON export.
const ExportVersion = 1

type FeedingPayload struct {
	Type      string `json:"type"`
	Method    string `json:"method"`
	BreastMl  int    `json:"breast_ml"`
	FormulaMl int    `json:"formula_ml"`
	SolidG    int    `json:"solid_g,omitempty"`
	Note      string `json:"note,omitempty"`
}

type DiaperPayload struct {
	Type    string `json:"type"`
	Amount  string `json:"amount"`
	Texture string `json:"texture,omitempty"`
	Color   string `json:"color,omitempty"`
}

// EventPayload is the wire shape of a care event for export files and the
// JSON API. Summary, Detail, FeedingTotalMl and EndedAt are derived and
// ignored on input.
type EventPayload struct {
	ID              string          `json:"id,omitempty"`
	Type            string          `json:"type"`
	Timestamp       time.Time       `json:"timestamp"`
	DurationSeconds int64           `json:"duration_seconds"`
	Note            string          `json:"note,omitempty"`
	Feeding         *FeedingPayload `json:"feeding,omitempty"`
	Diaper          *DiaperPayload  `json:"diaper,omitempty"`

	Summary        string     `json:"summary,omitempty"`
	Detail         string     `json:"detail,omitempty"`
	FeedingTotalMl int        `json:"feeding_total_ml,omitempty"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

type ExportData struct {
	Version    int            `json:"version"`
	ExportedAt time.Time      `json:"exported_at"`
	Events     []EventPayload `json:"events"`
}

type ImportMode string

const (
	ImportModeFail    ImportMode = "fail"
	ImportModeSkip    ImportMode = "skip"
	ImportModeMerge   ImportMode = "merge"
	ImportModeReplace ImportMode = "replace"
)

type ImportOptions struct {
	Mode   ImportMode
	DryRun bool
}

type ImportReport struct {
	Inserted  int      `json:"inserted"`
	Updated   int      `json:"updated"`
	Skipped   int      `json:"skipped"`
	Deleted   int      `json:"deleted"`
	Conflicts int      `json:"conflicts"`
	Warnings  []string `json:"warnings,omitempty"`
}

var ErrImportConflict = errors.New("import conflicts with existing events")

func PayloadFromEvent(e model.CareEvent) EventPayload {
	p := EventPayload{
		Type:            string(e.Type),
		Timestamp:       e.Timestamp,
		DurationSeconds: int64(e.Duration / time.Second),
		Note:            e.Note,
		Summary:         model.Summary(e),
		Detail:          model.DetailSummary(e),
		FeedingTotalMl:  e.FeedingAmount(),
	}
	if e.ID != uuid.Nil {
		p.ID = e.ID.String()
	}
	if e.Duration > 0 {
		end := e.EndedAt()
		p.EndedAt = &end
	}
	if !e.CreatedAt.IsZero() {
		created := e.CreatedAt
		p.CreatedAt = &created
	}
	if !e.UpdatedAt.IsZero() {
		updated := e.UpdatedAt
		p.UpdatedAt = &updated
	}
	if f := e.Feeding; f != nil {
		p.Feeding = &FeedingPayload{
			Type:      string(f.Type),
			Method:    string(f.Method),
			BreastMl:  f.BreastAmountMl,
			FormulaMl: f.FormulaAmountMl,
			SolidG:    f.SolidAmountG,
			Note:      f.Note,
		}
	}
	if d := e.Diaper; d != nil {
		p.Diaper = &DiaperPayload{
			Type:    string(d.Type),
			Amount:  string(d.Amount),
			Texture: string(d.Texture),
			Color:   string(d.Color),
		}
	}
	return p
}

func PayloadsFromEvents(events []model.CareEvent) []EventPayload {
	out := make([]EventPayload, 0, len(events))
	for _, e := range events {
		out = append(out, PayloadFromEvent(e))
	}
	return out
}

// Event parses and validates the payload. Enum fields must be known
// variants; an empty id stays zero.
func (p EventPayload) Event() (model.CareEvent, error) {
	in := CareEventInput{
		Type:      p.Type,
		Timestamp: p.Timestamp,
		Duration:  time.Duration(p.DurationSeconds) * time.Second,
		Note:      p.Note,
	}
	if f := p.Feeding; f != nil {
		if strings.TrimSpace(f.Type) == "" || strings.TrimSpace(f.Method) == "" {
			return model.CareEvent{}, fmt.Errorf("%w: feeding type and method are required", model.ErrUnknownVariant)
		}
		in.FeedType, in.FeedMethod, in.FeedNote = f.Type, f.Method, f.Note
		in.BreastMl, in.FormulaMl, in.SolidG = f.BreastMl, f.FormulaMl, f.SolidG
	}
	if d := p.Diaper; d != nil {
		if strings.TrimSpace(d.Type) == "" || strings.TrimSpace(d.Amount) == "" {
			return model.CareEvent{}, fmt.Errorf("%w: diaper type and amount are required", model.ErrUnknownVariant)
		}
		in.DiaperType, in.DiaperAmount, in.Texture, in.Color = d.Type, d.Amount, d.Texture, d.Color
	}
	e, err := BuildCareEvent(in)
	if err != nil {
		return model.CareEvent{}, err
	}
	if err := e.Validate(); err != nil {
		return model.CareEvent{}, err
	}
	if strings.TrimSpace(p.ID) != "" {
		id, err := uuid.Parse(strings.TrimSpace(p.ID))
		if err != nil {
			return model.CareEvent{}, fmt.Errorf("invalid event id %q: %w", p.ID, err)
		}
		e.ID = id
	}
	if p.CreatedAt != nil {
		e.CreatedAt = *p.CreatedAt
	}
	return e, nil
}

// ExportDataSnapshot captures every event oldest first.
func ExportDataSnapshot(ctx context.Context, repo store.Repository, now time.Time) (*ExportData, error) {
	events, err := repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("export events: %w", err)
	}
	out := &ExportData{Version: ExportVersion, ExportedAt: now.UTC(), Events: make([]EventPayload, 0, len(events))}
	for i := len(events) - 1; i >= 0; i-- {
		out.Events = append(out.Events, PayloadFromEvent(events[i]))
	}
	return out, nil
}

func DecodeExportJSON(r io.Reader) (*ExportData, error) {
	var data ExportData
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("parse import json: %w", err)
	}
	if data.Version == 0 {
		data.Version = ExportVersion
	}
	if data.Version > ExportVersion {
		return nil, fmt.Errorf("unsupported export version %d (max %d)", data.Version, ExportVersion)
	}
	return &data, nil
}

func ImportDataSnapshot(ctx context.Context, repo store.Repository, data *ExportData) (ImportReport, error) {
	return ImportDataSnapshotWithOptions(ctx, repo, data, ImportOptions{Mode: ImportModeMerge})
}

// ImportDataSnapshotWithOptions validates every payload before writing
// anything. Conflicts are events whose id already exists.
func ImportDataSnapshotWithOptions(ctx context.Context, repo store.Repository, data *ExportData, opts ImportOptions) (ImportReport, error) {
	report := ImportReport{}
	if data == nil {
		return report, fmt.Errorf("import data is required")
	}
	mode, err := normalizeImportMode(opts.Mode)
	if err != nil {
		return report, err
	}

	events := make([]model.CareEvent, 0, len(data.Events))
	seen := make(map[uuid.UUID]int, len(data.Events))
	for i, p := range data.Events {
		e, err := p.Event()
		if err != nil {
			return report, fmt.Errorf("event %d: %w", i+1, err)
		}
		if e.ID != uuid.Nil {
			if prev, dup := seen[e.ID]; dup {
				return report, fmt.Errorf("event %d: duplicate id %s (also event %d)", i+1, e.ID, prev)
			}
			seen[e.ID] = i + 1
		}
		events = append(events, e)
	}

	existing, err := repo.ListAll(ctx)
	if err != nil {
		return report, fmt.Errorf("load existing events: %w", err)
	}
	current := make(map[uuid.UUID]bool, len(existing))
	for _, e := range existing {
		current[e.ID] = true
	}

	if mode == ImportModeReplace {
		report.Deleted = len(existing)
		current = map[uuid.UUID]bool{}
		if !opts.DryRun && len(existing) > 0 {
			ids := make([]uuid.UUID, 0, len(existing))
			for _, e := range existing {
				ids = append(ids, e.ID)
			}
			if err := repo.DeleteMany(ctx, ids); err != nil {
				return report, fmt.Errorf("clear events for replace mode: %w", err)
			}
		}
	}

	for _, e := range events {
		if e.ID != uuid.Nil && current[e.ID] {
			report.Conflicts++
		}
	}
	if mode == ImportModeFail && report.Conflicts > 0 {
		return report, fmt.Errorf("%w: %d event(s)", ErrImportConflict, report.Conflicts)
	}

	for i := range events {
		e := events[i]
		exists := e.ID != uuid.Nil && current[e.ID]
		switch {
		case exists && mode == ImportModeSkip:
			report.Skipped++
			report.Warnings = append(report.Warnings, fmt.Sprintf("skipped existing event %s", e.ID))
			continue
		case exists:
			report.Updated++
			if !opts.DryRun {
				if err := repo.Update(ctx, e); err != nil {
					return report, fmt.Errorf("update event %s: %w", e.ID, err)
				}
			}
		default:
			report.Inserted++
			if !opts.DryRun {
				if err := repo.Insert(ctx, &e); err != nil {
					return report, fmt.Errorf("insert event %d: %w", i+1, err)
				}
			}
		}
	}
	return report, nil
}

func normalizeImportMode(mode ImportMode) (ImportMode, error) {
	switch ImportMode(strings.ToLower(strings.TrimSpace(string(mode)))) {
	case "":
		return ImportModeMerge, nil
	case ImportModeFail:
		return ImportModeFail, nil
	case ImportModeSkip:
		return ImportModeSkip, nil
	case ImportModeMerge:
		return ImportModeMerge, nil
	case ImportModeReplace:
		return ImportModeReplace, nil
	}
	return "", fmt.Errorf("unsupported import mode %q (use fail, skip, merge, or replace)", mode)
}

var csvHeader = []string{
	"id", "type", "timestamp", "duration_seconds", "note",
	"feeding_type", "feeding_method", "breast_ml", "formula_ml", "solid_g", "feeding_note",
	"diaper_type", "diaper_amount", "texture", "color",
}

// WriteEventsCSV writes one row per event with detail columns flattened.
func WriteEventsCSV(w io.Writer, events []EventPayload) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write export csv header: %w", err)
	}
	for _, p := range events {
		record := make([]string, len(csvHeader))
		record[0] = p.ID
		record[1] = p.Type
		record[2] = p.Timestamp.Format(time.RFC3339)
		record[3] = strconv.FormatInt(p.DurationSeconds, 10)
		record[4] = p.Note
		if f := p.Feeding; f != nil {
			record[5] = f.Type
			record[6] = f.Method
			record[7] = strconv.Itoa(f.BreastMl)
			record[8] = strconv.Itoa(f.FormulaMl)
			record[9] = strconv.Itoa(f.SolidG)
			record[10] = f.Note
		}
		if d := p.Diaper; d != nil {
			record[11] = d.Type
			record[12] = d.Amount
			record[13] = d.Texture
			record[14] = d.Color
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write export csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush export csv: %w", err)
	}
	return nil
}

// ReadEventsCSV parses rows written by WriteEventsCSV. Column order comes
// from the header, so reordered files are accepted. Timestamps without a
// zone are read in loc.
func ReadEventsCSV(r io.Reader, loc *time.Location) ([]EventPayload, error) {
	if loc == nil {
		loc = time.Local
	}
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read import csv: %w", err)
	}
	if len(records) <= 1 {
		return nil, fmt.Errorf("import csv contains no data rows")
	}
	index := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		index[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, required := range []string{"type", "timestamp"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("import csv is missing the %q column", required)
		}
	}

	out := make([]EventPayload, 0, len(records)-1)
	for i, row := range records[1:] {
		line := i + 2
		col := func(name string) string {
			if j, ok := index[name]; ok && j < len(row) {
				return strings.TrimSpace(row[j])
			}
			return ""
		}
		num := func(name string) (int, error) {
			v := col(name)
			if v == "" {
				return 0, nil
			}
			n, err := strconv.Atoi(v)
			if err != nil {
				return 0, fmt.Errorf("csv row %d %s: invalid number %q", line, name, v)
			}
			return n, nil
		}

		ts, err := parseCSVTime(col("timestamp"), loc)
		if err != nil {
			return nil, fmt.Errorf("csv row %d timestamp: %w", line, err)
		}
		duration, err := num("duration_seconds")
		if err != nil {
			return nil, err
		}
		p := EventPayload{ID: col("id"), Type: col("type"), Timestamp: ts, DurationSeconds: int64(duration), Note: col("note")}
		if col("feeding_type") != "" {
			f := &FeedingPayload{Type: col("feeding_type"), Method: col("feeding_method"), Note: col("feeding_note")}
			if f.BreastMl, err = num("breast_ml"); err != nil {
				return nil, err
			}
			if f.FormulaMl, err = num("formula_ml"); err != nil {
				return nil, err
			}
			if f.SolidG, err = num("solid_g"); err != nil {
				return nil, err
			}
			p.Feeding = f
		}
		if col("diaper_type") != "" {
			p.Diaper = &DiaperPayload{Type: col("diaper_type"), Amount: col("diaper_amount"), Texture: col("texture"), Color: col("color")}
		}
		out = append(out, p)
	}
	return out, nil
}

func parseCSVTime(value string, loc *time.Location) (t time.Time, err error) {
	layouts := []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02 15:04"}
	for _, l := range layouts {
		if l == time.RFC3339 {
			t, err = time.Parse(l, value)
		} else {
			t, err = time.ParseInLocation(l, value, loc)
		}
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", value)
}
