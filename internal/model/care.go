package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidDetailCombination = errors.New("invalid detail combination")
	ErrNegativeDuration         = errors.New("duration must be >= 0")
	ErrNegativeAmount           = errors.New("amount must be >= 0")
	ErrUnknownVariant           = errors.New("unknown variant")
)

const unknownLabel = "Unknown"

// NewCareEvent builds an event for editing. A missing feeding or diaper
// detail is tolerated here so a form can be filled in progressively;
// Validate enforces it before the event is persisted.
func NewCareEvent(ts time.Time, t CareType, feeding *FeedingDetail, diaper *DiaperDetail, duration time.Duration, note string) (CareEvent, error) {
	e := CareEvent{
		Timestamp: ts,
		Type:      t,
		Duration:  duration,
		Note:      strings.TrimSpace(note),
		Feeding:   feeding,
		Diaper:    diaper,
	}
	if err := e.checkShape(); err != nil {
		return CareEvent{}, err
	}
	return e, nil
}

// Validate is the persistence-time check.
func (e CareEvent) Validate() error {
	if err := e.checkShape(); err != nil {
		return err
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("care event timestamp is required")
	}
	switch e.Type {
	case CareFeeding:
		if e.Feeding == nil {
			return fmt.Errorf("%w: feeding event requires a feeding detail", ErrInvalidDetailCombination)
		}
		if !e.Feeding.Type.Valid() {
			return fmt.Errorf("%w: feeding type %q", ErrUnknownVariant, e.Feeding.Type)
		}
		if !e.Feeding.Method.Valid() {
			return fmt.Errorf("%w: feeding method %q", ErrUnknownVariant, e.Feeding.Method)
		}
	case CareDiaper:
		if e.Diaper == nil {
			return fmt.Errorf("%w: diaper event requires a diaper detail", ErrInvalidDetailCombination)
		}
		if !e.Diaper.Type.Valid() {
			return fmt.Errorf("%w: diaper type %q", ErrUnknownVariant, e.Diaper.Type)
		}
		if !e.Diaper.Amount.Valid() {
			return fmt.Errorf("%w: diaper amount %q", ErrUnknownVariant, e.Diaper.Amount)
		}
		if !e.Diaper.Texture.Valid() {
			return fmt.Errorf("%w: diaper texture %q", ErrUnknownVariant, e.Diaper.Texture)
		}
		if !e.Diaper.Color.Valid() {
			return fmt.Errorf("%w: diaper color %q", ErrUnknownVariant, e.Diaper.Color)
		}
	}
	return nil
}

func (e CareEvent) checkShape() error {
	if !e.Type.Valid() {
		return fmt.Errorf("%w: care type %q", ErrUnknownVariant, e.Type)
	}
	if e.Duration < 0 {
		return ErrNegativeDuration
	}
	if e.Feeding != nil && e.Type != CareFeeding {
		return fmt.Errorf("%w: feeding detail on %s event", ErrInvalidDetailCombination, e.Type)
	}
	if e.Diaper != nil && e.Type != CareDiaper {
		return fmt.Errorf("%w: diaper detail on %s event", ErrInvalidDetailCombination, e.Type)
	}
	if f := e.Feeding; f != nil {
		if f.BreastAmountMl < 0 || f.FormulaAmountMl < 0 || f.SolidAmountG < 0 {
			return ErrNegativeAmount
		}
	}
	return nil
}

// Summary is the short label for the event's type.
func Summary(e CareEvent) string {
	return e.Type.String()
}

// DetailSummary is the longer description shown under the summary.
func DetailSummary(e CareEvent) string {
	switch e.Type {
	case CareFeeding:
		if e.Feeding == nil {
			return unknownLabel
		}
		return e.Feeding.Description()
	case CareDiaper:
		if e.Diaper == nil {
			return unknownLabel
		}
		return e.Diaper.Description()
	case CareSleep, CareBath:
		return fmt.Sprintf("Duration %d minutes", int(e.Duration/time.Minute))
	case CareOther:
		if e.Note == "" {
			return unknownLabel
		}
		return e.Note
	}
	return unknownLabel
}

func (f FeedingDetail) Description() string {
	switch f.Type {
	case FeedBreast:
		s := fmt.Sprintf("%s %dml", f.Type, f.BreastAmountMl)
		if f.Method == MethodBottle {
			s += " (bottle)"
		}
		return s
	case FeedFormula:
		return fmt.Sprintf("%s %dml", f.Type, f.FormulaAmountMl)
	case FeedBreastAndFormula:
		return fmt.Sprintf("%s %dml (%s %dml %s %dml)", f.Type, f.TotalAmount(), FeedBreast, f.BreastAmountMl, FeedFormula, f.FormulaAmountMl)
	case FeedSolid:
		return fmt.Sprintf("%s %dg", f.Type, f.SolidAmountG)
	}
	return unknownLabel
}

// Description names the diaper type, the amount when urine is present,
// and texture and color when stool is present and both are recorded.
func (d DiaperDetail) Description() string {
	parts := []string{d.Type.String()}
	if d.Type.HasUrine() && d.Amount != "" {
		parts = append(parts, d.Amount.String())
	}
	if d.Type.HasStool() && d.Texture != "" && d.Color != "" {
		parts = append(parts, d.Texture.String(), d.Color.String())
	}
	return strings.Join(parts, " ")
}
