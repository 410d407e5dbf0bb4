package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lhuanyu/Sumeru/internal/aggregate"
	"github.com/lhuanyu/Sumeru/internal/model"
	"github.com/lhuanyu/Sumeru/internal/store"
)

// CareEventInput is the form behind a new event. Only the fields that
// match Type are used; enum fields take their stored names.
type CareEventInput struct {
	Type      string
	Timestamp time.Time
	// EndedAt, when set, wins over Duration.
	EndedAt  *time.Time
	Duration time.Duration
	Note     string

	FeedType     string
	FeedMethod   string
	BreastMl     int
	FormulaMl    int
	SolidG       int
	FeedNote     string
	DiaperType   string
	DiaperAmount string
	Texture      string
	Color        string
}

// BuildCareEvent turns form input into an event with the detail that
// matches its type. A feeding or diaper event with no detail fields at all
// is returned without a detail; Validate rejects it. The result has no ID
// yet.
func BuildCareEvent(in CareEventInput) (model.CareEvent, error) {
	careType, err := model.ParseCareType(in.Type)
	if err != nil {
		return model.CareEvent{}, err
	}
	ts := in.Timestamp
	if ts.IsZero() {
		return model.CareEvent{}, fmt.Errorf("%w: timestamp is required", ErrInvalidInput)
	}
	duration := in.Duration
	if in.EndedAt != nil {
		duration = in.EndedAt.Sub(ts)
	}

	var feeding *model.FeedingDetail
	var diaper *model.DiaperDetail
	switch careType {
	case model.CareFeeding:
		if hasDiaperInput(in) {
			err = fmt.Errorf("%w: feeding events take no diaper fields", model.ErrInvalidDetailCombination)
		} else if hasFeedingInput(in) {
			feeding, err = buildFeeding(in)
		}
	case model.CareDiaper:
		if hasFeedingInput(in) {
			err = fmt.Errorf("%w: diaper events take no feeding fields", model.ErrInvalidDetailCombination)
		} else if hasDiaperInput(in) {
			diaper, err = buildDiaper(in)
		}
	default:
		if hasFeedingInput(in) || hasDiaperInput(in) {
			err = fmt.Errorf("%w: %s events take no feeding or diaper fields", model.ErrInvalidDetailCombination, careType)
		}
	}
	if err != nil {
		return model.CareEvent{}, err
	}
	return model.NewCareEvent(ts, careType, feeding, diaper, duration, in.Note)
}

func buildFeeding(in CareEventInput) (*model.FeedingDetail, error) {
	feedType, err := model.ParseFeedingType(defaultString(in.FeedType, string(model.FeedBreast)))
	if err != nil {
		return nil, err
	}
	method := defaultMethod(feedType)
	if strings.TrimSpace(in.FeedMethod) != "" {
		if method, err = model.ParseFeedingMethod(in.FeedMethod); err != nil {
			return nil, err
		}
	}
	f := &model.FeedingDetail{
		Type:            feedType,
		Method:          method,
		BreastAmountMl:  in.BreastMl,
		FormulaAmountMl: in.FormulaMl,
		SolidAmountG:    in.SolidG,
		Note:            strings.TrimSpace(in.FeedNote),
	}
	if err := validateNonNegativeInt("breast amount", f.BreastAmountMl); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrNegativeAmount, err)
	}
	if err := validateNonNegativeInt("formula amount", f.FormulaAmountMl); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrNegativeAmount, err)
	}
	if err := validateNonNegativeInt("solid amount", f.SolidAmountG); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrNegativeAmount, err)
	}
	return f, nil
}

func buildDiaper(in CareEventInput) (*model.DiaperDetail, error) {
	diaperType, err := model.ParseDiaperType(defaultString(in.DiaperType, string(model.DiaperWet)))
	if err != nil {
		return nil, err
	}
	amount, err := model.ParseDiaperAmount(defaultString(in.DiaperAmount, string(model.AmountNormal)))
	if err != nil {
		return nil, err
	}
	texture, err := model.ParseDiaperTexture(in.Texture)
	if err != nil {
		return nil, err
	}
	color, err := model.ParseDiaperColor(in.Color)
	if err != nil {
		return nil, err
	}
	return &model.DiaperDetail{Type: diaperType, Amount: amount, Texture: texture, Color: color}, nil
}

// defaultMethod is breast for breast feeds and bottle for everything else.
func defaultMethod(t model.FeedingType) model.FeedingMethod {
	if t == model.FeedBreast {
		return model.MethodBreast
	}
	return model.MethodBottle
}

func hasFeedingInput(in CareEventInput) bool {
	return strings.TrimSpace(in.FeedType+in.FeedMethod+in.FeedNote) != "" ||
		in.BreastMl != 0 || in.FormulaMl != 0 || in.SolidG != 0
}

func hasDiaperInput(in CareEventInput) bool {
	return strings.TrimSpace(in.DiaperType+in.DiaperAmount+in.Texture+in.Color) != ""
}

func CreateCareEvent(ctx context.Context, repo store.Repository, in CareEventInput) (model.CareEvent, error) {
	e, err := BuildCareEvent(in)
	if err != nil {
		return model.CareEvent{}, err
	}
	if err := e.Validate(); err != nil {
		return model.CareEvent{}, err
	}
	if err := repo.Insert(ctx, &e); err != nil {
		return model.CareEvent{}, err
	}
	return e, nil
}

// CareEventPatch holds the fields an edit changes; nil means unchanged.
// Changing Type drops the old detail and builds one from the patch.
type CareEventPatch struct {
	Type      *string
	Timestamp *time.Time
	EndedAt   *time.Time
	Duration  *time.Duration
	Note      *string

	FeedType     *string
	FeedMethod   *string
	BreastMl     *int
	FormulaMl    *int
	SolidG       *int
	FeedNote     *string
	DiaperType   *string
	DiaperAmount *string
	Texture      *string
	Color        *string
}

func (p CareEventPatch) empty() bool {
	return p == CareEventPatch{}
}

func UpdateCareEvent(ctx context.Context, repo store.Repository, id uuid.UUID, patch CareEventPatch) (model.CareEvent, error) {
	if patch.empty() {
		return model.CareEvent{}, fmt.Errorf("%w: no fields to update", ErrInvalidInput)
	}
	current, err := repo.Get(ctx, id)
	if err != nil {
		return model.CareEvent{}, err
	}
	in := inputFromEvent(current)
	applyPatch(&in, patch)
	if patch.Type != nil && !strings.EqualFold(strings.TrimSpace(*patch.Type), string(current.Type)) {
		clearOtherDetail(&in)
	}

	next, err := BuildCareEvent(in)
	if err != nil {
		return model.CareEvent{}, err
	}
	next.ID = current.ID
	next.CreatedAt = current.CreatedAt
	if err := next.Validate(); err != nil {
		return model.CareEvent{}, err
	}
	if err := repo.Update(ctx, next); err != nil {
		return model.CareEvent{}, err
	}
	return repo.Get(ctx, id)
}

func inputFromEvent(e model.CareEvent) CareEventInput {
	in := CareEventInput{
		Type:      string(e.Type),
		Timestamp: e.Timestamp,
		Duration:  e.Duration,
		Note:      e.Note,
	}
	if f := e.Feeding; f != nil {
		in.FeedType = string(f.Type)
		in.FeedMethod = string(f.Method)
		in.BreastMl = f.BreastAmountMl
		in.FormulaMl = f.FormulaAmountMl
		in.SolidG = f.SolidAmountG
		in.FeedNote = f.Note
	}
	if d := e.Diaper; d != nil {
		in.DiaperType = string(d.Type)
		in.DiaperAmount = string(d.Amount)
		in.Texture = string(d.Texture)
		in.Color = string(d.Color)
	}
	return in
}

func applyPatch(in *CareEventInput, p CareEventPatch) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setInt := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	setString(&in.Type, p.Type)
	setString(&in.Note, p.Note)
	setString(&in.FeedType, p.FeedType)
	setString(&in.FeedMethod, p.FeedMethod)
	setString(&in.FeedNote, p.FeedNote)
	setString(&in.DiaperType, p.DiaperType)
	setString(&in.DiaperAmount, p.DiaperAmount)
	setString(&in.Texture, p.Texture)
	setString(&in.Color, p.Color)
	setInt(&in.BreastMl, p.BreastMl)
	setInt(&in.FormulaMl, p.FormulaMl)
	setInt(&in.SolidG, p.SolidG)
	if p.Timestamp != nil {
		// a timed event keeps its end time unless the duration is also edited
		if p.Duration == nil && p.EndedAt == nil && in.Duration > 0 {
			end := in.Timestamp.Add(in.Duration)
			if !end.Before(*p.Timestamp) {
				in.Duration = end.Sub(*p.Timestamp)
			}
		}
		in.Timestamp = *p.Timestamp
	}
	if p.Duration != nil {
		in.Duration = *p.Duration
	}
	in.EndedAt = p.EndedAt
}

// clearOtherDetail drops detail fields that came from the previous type
// but were not part of the patch.
func clearOtherDetail(in *CareEventInput) {
	t, err := model.ParseCareType(in.Type)
	if err != nil {
		return
	}
	if t != model.CareFeeding {
		in.FeedType, in.FeedMethod, in.FeedNote = "", "", ""
		in.BreastMl, in.FormulaMl, in.SolidG = 0, 0, 0
	}
	if t != model.CareDiaper {
		in.DiaperType, in.DiaperAmount, in.Texture, in.Color = "", "", "", ""
	}
}

// DeleteCareEvents removes every id or none of them.
func DeleteCareEvents(ctx context.Context, repo store.Repository, ids []uuid.UUID) error {
	switch len(ids) {
	case 0:
		return fmt.Errorf("%w: at least one event id is required", ErrInvalidInput)
	case 1:
		return repo.Delete(ctx, ids[0])
	}
	return repo.DeleteMany(ctx, ids)
}

type CareFilter struct {
	Type  model.CareType
	Limit int
}

// ListCareEvents returns events newest first, filtered and limited.
func ListCareEvents(ctx context.Context, repo store.Repository, f CareFilter) ([]model.CareEvent, error) {
	all, err := repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := aggregate.FilterByType(all, f.Type)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// ResolveEventID accepts a full id or a unique prefix of at least four
// characters, the short form the list view prints.
func ResolveEventID(ctx context.Context, repo store.Repository, raw string) (uuid.UUID, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if id, err := uuid.Parse(raw); err == nil {
		return id, nil
	}
	if len(raw) < 4 {
		return uuid.Nil, fmt.Errorf("%w: event id %q", ErrInvalidInput, raw)
	}
	all, err := repo.ListAll(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	var match uuid.UUID
	n := 0
	for _, e := range all {
		if strings.HasPrefix(e.ID.String(), raw) {
			match = e.ID
			n++
		}
	}
	switch n {
	case 0:
		return uuid.Nil, fmt.Errorf("%w: %s", store.ErrNotFound, raw)
	case 1:
		return match, nil
	}
	return uuid.Nil, fmt.Errorf("%w: event id prefix %q is ambiguous (%d matches)", ErrInvalidInput, raw, n)
}

// ShortID is the prefix printed in tables.
func ShortID(id uuid.UUID) string {
	return id.String()[:8]
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
