package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lhuanyu/Sumeru/internal/model"
)

const selectEvents = `
SELECT e.id, e.type, e.occurred_at, e.duration_seconds, e.note, e.created_at, e.updated_at,
       f.feeding_type, f.feeding_method, f.breast_amount_ml, f.formula_amount_ml, f.solid_amount_g, f.note,
       d.diaper_type, d.amount, d.texture, d.color
FROM care_events e
LEFT JOIN feeding_details f ON f.care_event_id = e.id
LEFT JOIN diaper_details d ON d.care_event_id = e.id
`

// SQLite stores events in the care_events table with one optional detail
// row per event. Timestamps are kept as UTC RFC3339 text so that ordering
// by the column is chronological.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db, now: time.Now}
}

func (s *SQLite) Insert(ctx context.Context, e *model.CareEvent) error {
	if e == nil {
		return fmt.Errorf("care event is required")
	}
	if err := e.Validate(); err != nil {
		return err
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	normalize(e)
	now := s.now().UTC().Truncate(time.Second)
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = e.CreatedAt
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var taken int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM care_events WHERE id = ?`, e.ID.String()).Scan(&taken)
	if err != nil {
		return fmt.Errorf("check care event id: %w", err)
	}
	if taken > 0 {
		return fmt.Errorf("%w: %s", ErrConflict, e.ID)
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO care_events(id, type, occurred_at, duration_seconds, note, created_at, updated_at)
VALUES(?, ?, ?, ?, ?, ?, ?)
`, e.ID.String(), string(e.Type), formatTime(e.Timestamp), int64(e.Duration/time.Second), e.Note, formatTime(e.CreatedAt), formatTime(e.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert care event: %w", err)
	}
	if err := writeDetail(ctx, tx, *e); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert tx: %w", err)
	}
	return nil
}

func (s *SQLite) Update(ctx context.Context, e model.CareEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}
	normalize(&e)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
UPDATE care_events
SET type = ?, occurred_at = ?, duration_seconds = ?, note = ?, updated_at = ?
WHERE id = ?
`, string(e.Type), formatTime(e.Timestamp), int64(e.Duration/time.Second), e.Note, formatTime(s.now()), e.ID.String())
	if err != nil {
		return fmt.Errorf("update care event: %w", err)
	}
	if err := requireAffected(res, e.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM feeding_details WHERE care_event_id = ?`, e.ID.String()); err != nil {
		return fmt.Errorf("clear feeding detail: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM diaper_details WHERE care_event_id = ?`, e.ID.String()); err != nil {
		return fmt.Errorf("clear diaper detail: %w", err)
	}
	if err := writeDetail(ctx, tx, e); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update tx: %w", err)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM care_events WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete care event: %w", err)
	}
	return requireAffected(res, id)
}

func (s *SQLite) DeleteMany(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, id := range ids {
		res, err := tx.ExecContext(ctx, `DELETE FROM care_events WHERE id = ?`, id.String())
		if err != nil {
			return fmt.Errorf("delete care event %s: %w", id, err)
		}
		if err := requireAffected(res, id); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete tx: %w", err)
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, id uuid.UUID) (model.CareEvent, error) {
	row := s.db.QueryRowContext(ctx, selectEvents+`WHERE e.id = ?`, id.String())
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CareEvent{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return model.CareEvent{}, err
	}
	return e, nil
}

func (s *SQLite) ListAll(ctx context.Context) ([]model.CareEvent, error) {
	rows, err := s.db.QueryContext(ctx, selectEvents+`ORDER BY e.occurred_at DESC, e.created_at DESC, e.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list care events: %w", err)
	}
	defer rows.Close()

	out := make([]model.CareEvent, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate care events: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (model.CareEvent, error) {
	var (
		idRaw, typ, occurredRaw, note, createdRaw, updatedRaw string
		durationSeconds                                       int64

		feedType, feedMethod, feedNote     sql.NullString
		breastMl, formulaMl, solidG        sql.NullInt64
		diaperType, amount, texture, color sql.NullString
	)
	err := row.Scan(
		&idRaw, &typ, &occurredRaw, &durationSeconds, &note, &createdRaw, &updatedRaw,
		&feedType, &feedMethod, &breastMl, &formulaMl, &solidG, &feedNote,
		&diaperType, &amount, &texture, &color,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.CareEvent{}, err
		}
		return model.CareEvent{}, fmt.Errorf("scan care event: %w", err)
	}

	id, err := uuid.Parse(idRaw)
	if err != nil {
		return model.CareEvent{}, fmt.Errorf("parse care event id %q: %w", idRaw, err)
	}
	e := model.CareEvent{
		ID:       id,
		Type:     model.CareType(typ),
		Duration: time.Duration(durationSeconds) * time.Second,
		Note:     note,
	}
	if e.Timestamp, err = parseTime(occurredRaw); err != nil {
		return model.CareEvent{}, err
	}
	if e.CreatedAt, err = parseTime(createdRaw); err != nil {
		return model.CareEvent{}, err
	}
	if e.UpdatedAt, err = parseTime(updatedRaw); err != nil {
		return model.CareEvent{}, err
	}
	if feedType.Valid {
		e.Feeding = &model.FeedingDetail{
			CareID:          id,
			Type:            model.FeedingType(feedType.String),
			Method:          model.FeedingMethod(feedMethod.String),
			BreastAmountMl:  int(breastMl.Int64),
			FormulaAmountMl: int(formulaMl.Int64),
			SolidAmountG:    int(solidG.Int64),
			Note:            feedNote.String,
		}
	}
	if diaperType.Valid {
		e.Diaper = &model.DiaperDetail{
			CareID:  id,
			Type:    model.DiaperType(diaperType.String),
			Amount:  model.DiaperAmount(amount.String),
			Texture: model.DiaperTexture(texture.String),
			Color:   model.DiaperColor(color.String),
		}
	}
	return e, nil
}

func writeDetail(ctx context.Context, tx *sql.Tx, e model.CareEvent) error {
	if f := e.Feeding; f != nil {
		_, err := tx.ExecContext(ctx, `
INSERT INTO feeding_details(care_event_id, feeding_type, feeding_method, breast_amount_ml, formula_amount_ml, solid_amount_g, note)
VALUES(?, ?, ?, ?, ?, ?, ?)
`, e.ID.String(), string(f.Type), string(f.Method), f.BreastAmountMl, f.FormulaAmountMl, f.SolidAmountG, f.Note)
		if err != nil {
			return fmt.Errorf("insert feeding detail: %w", err)
		}
	}
	if d := e.Diaper; d != nil {
		_, err := tx.ExecContext(ctx, `
INSERT INTO diaper_details(care_event_id, diaper_type, amount, texture, color)
VALUES(?, ?, ?, ?, ?)
`, e.ID.String(), string(d.Type), string(d.Amount), string(d.Texture), string(d.Color))
		if err != nil {
			return fmt.Errorf("insert diaper detail: %w", err)
		}
	}
	return nil
}

func requireAffected(res sql.Result, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// normalize drops the precision the table cannot hold and points detail
// back-references at the event.
func normalize(e *model.CareEvent) {
	e.Timestamp = e.Timestamp.Truncate(time.Second)
	e.Duration = e.Duration.Truncate(time.Second)
	if e.Feeding != nil {
		e.Feeding.CareID = e.ID
	}
	if e.Diaper != nil {
		e.Diaper.CareID = e.ID
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	return t, nil
}
