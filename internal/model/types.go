package model

import (
	"time"

	"github.com/google/uuid"
)

// CareEvent is one logged occurrence of feeding, diaper change, sleep,
// bath, or other activity. The event owns its detail payload.
type CareEvent struct {
	ID        uuid.UUID
	Timestamp time.Time
	Type      CareType
	Duration  time.Duration
	Note      string
	Feeding   *FeedingDetail
	Diaper    *DiaperDetail
	CreatedAt time.Time
	UpdatedAt time.Time
}

type FeedingDetail struct {
	// CareID points back at the owning event for reverse lookup only.
	CareID          uuid.UUID
	Type            FeedingType
	Method          FeedingMethod
	BreastAmountMl  int
	FormulaAmountMl int
	SolidAmountG    int
	Note            string
}

type DiaperDetail struct {
	CareID  uuid.UUID
	Type    DiaperType
	Amount  DiaperAmount
	Texture DiaperTexture
	Color   DiaperColor
}

// EndedAt is the start time plus the recorded duration.
func (e CareEvent) EndedAt() time.Time {
	return e.Timestamp.Add(e.Duration)
}

// FeedingAmount is the event's own feeding volume in ml, or 0 for
// events without a feeding detail.
func (e CareEvent) FeedingAmount() int {
	if e.Type != CareFeeding || e.Feeding == nil {
		return 0
	}
	return e.Feeding.TotalAmount()
}

// Clone returns a copy that shares no detail pointers with e.
func (e CareEvent) Clone() CareEvent {
	out := e
	if e.Feeding != nil {
		f := *e.Feeding
		out.Feeding = &f
	}
	if e.Diaper != nil {
		d := *e.Diaper
		out.Diaper = &d
	}
	return out
}

// TotalAmount is the fed volume in ml. Solid feedings are measured in
// grams and contribute nothing here; see SolidGrams.
func (f FeedingDetail) TotalAmount() int {
	switch f.Type {
	case FeedBreast:
		return f.BreastAmountMl
	case FeedFormula:
		return f.FormulaAmountMl
	case FeedBreastAndFormula:
		return f.BreastAmountMl + f.FormulaAmountMl
	case FeedSolid:
		return 0
	}
	return 0
}

func (f FeedingDetail) SolidGrams() int {
	if f.Type != FeedSolid {
		return 0
	}
	return f.SolidAmountG
}
