package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lhuanyu/Sumeru/internal/model"
)

var at = time.Date(2026, 3, 4, 8, 30, 0, 0, time.Local)

func TestNewCareEventRejectsMismatchedDetail(t *testing.T) {
	t.Parallel()

	_, err := model.NewCareEvent(at, model.CareSleep, &model.FeedingDetail{Type: model.FeedBreast, Method: model.MethodBreast}, nil, 0, "")
	require.ErrorIs(t, err, model.ErrInvalidDetailCombination)

	_, err = model.NewCareEvent(at, model.CareFeeding, nil, &model.DiaperDetail{Type: model.DiaperWet, Amount: model.AmountNormal}, 0, "")
	require.ErrorIs(t, err, model.ErrInvalidDetailCombination)
}

func TestNewCareEventAllowsProvisionalMissingDetail(t *testing.T) {
	t.Parallel()

	e, err := model.NewCareEvent(at, model.CareFeeding, nil, nil, 0, "")
	require.NoError(t, err)
	require.ErrorIs(t, e.Validate(), model.ErrInvalidDetailCombination)
}

func TestNewCareEventRejectsNegativeValues(t *testing.T) {
	t.Parallel()

	_, err := model.NewCareEvent(at, model.CareSleep, nil, nil, -time.Second, "")
	require.ErrorIs(t, err, model.ErrNegativeDuration)

	_, err = model.NewCareEvent(at, model.CareFeeding, &model.FeedingDetail{Type: model.FeedFormula, Method: model.MethodBottle, FormulaAmountMl: -5}, nil, 0, "")
	require.ErrorIs(t, err, model.ErrNegativeAmount)
}

func TestValidateRejectsUnknownVariants(t *testing.T) {
	t.Parallel()

	e := model.CareEvent{Timestamp: at, Type: "nap"}
	require.ErrorIs(t, e.Validate(), model.ErrUnknownVariant)

	e = model.CareEvent{Timestamp: at, Type: model.CareDiaper, Diaper: &model.DiaperDetail{Type: model.DiaperDirty, Amount: model.AmountNormal, Color: "purple"}}
	require.ErrorIs(t, e.Validate(), model.ErrUnknownVariant)
}

func TestFeedingTotalAmountByType(t *testing.T) {
	t.Parallel()

	cases := []struct {
		typ  model.FeedingType
		want int
	}{
		{model.FeedBreast, 60},
		{model.FeedFormula, 90},
		{model.FeedBreastAndFormula, 150},
		{model.FeedSolid, 0},
	}
	for _, tc := range cases {
		f := model.FeedingDetail{Type: tc.typ, BreastAmountMl: 60, FormulaAmountMl: 90, SolidAmountG: 25}
		assert.Equal(t, tc.want, f.TotalAmount(), tc.typ)
	}
	assert.Equal(t, 25, model.FeedingDetail{Type: model.FeedSolid, SolidAmountG: 25}.SolidGrams())
	assert.Equal(t, 0, model.FeedingDetail{Type: model.FeedBreast, SolidAmountG: 25}.SolidGrams())
}

func TestDetailSummary(t *testing.T) {
	t.Parallel()

	feeding := model.CareEvent{Type: model.CareFeeding, Feeding: &model.FeedingDetail{Type: model.FeedBreastAndFormula, Method: model.MethodBottle, BreastAmountMl: 60, FormulaAmountMl: 90}}
	assert.Equal(t, "Breast and Formula 150ml (Breast 60ml Formula 90ml)", model.DetailSummary(feeding))
	assert.Equal(t, "Feeding", model.Summary(feeding))

	sleep := model.CareEvent{Type: model.CareSleep, Duration: 20*time.Minute + 59*time.Second}
	assert.Equal(t, "Duration 20 minutes", model.DetailSummary(sleep))

	assert.Equal(t, "Unknown", model.DetailSummary(model.CareEvent{Type: model.CareOther}))
	assert.Equal(t, "Tummy time", model.DetailSummary(model.CareEvent{Type: model.CareOther, Note: "Tummy time"}))
	assert.Equal(t, "Unknown", model.DetailSummary(model.CareEvent{Type: model.CareDiaper}))
}

func TestDiaperDescription(t *testing.T) {
	t.Parallel()

	wet := model.DiaperDetail{Type: model.DiaperWet, Amount: model.AmountMuch, Texture: model.TextureWatery, Color: model.ColorGreen}
	assert.Equal(t, "Wet Much", wet.Description())

	none := model.DiaperDetail{Type: model.DiaperNone, Amount: model.AmountNormal, Texture: model.TextureWatery, Color: model.ColorGreen}
	assert.Equal(t, "Dry", none.Description())

	dirty := model.DiaperDetail{Type: model.DiaperDirty, Amount: model.AmountNormal, Texture: model.TextureWatery, Color: model.ColorGreen}
	assert.Equal(t, "Dirty Watery Green", dirty.Description())

	mixed := model.DiaperDetail{Type: model.DiaperMixed, Amount: model.AmountLittle, Texture: model.TextureSolid, Color: model.ColorBrown}
	assert.Equal(t, "Wet and Dirty Little Solid Brown", mixed.Description())

	partial := model.DiaperDetail{Type: model.DiaperDirty, Amount: model.AmountNormal, Texture: model.TextureSolid}
	assert.Equal(t, "Dirty", partial.Description())
}

func TestParseEnums(t *testing.T) {
	t.Parallel()

	ct, err := model.ParseCareType(" Feeding ")
	require.NoError(t, err)
	assert.Equal(t, model.CareFeeding, ct)

	ft, err := model.ParseFeedingType("breast-and-formula")
	require.NoError(t, err)
	assert.Equal(t, model.FeedBreastAndFormula, ft)

	_, err = model.ParseDiaperColor("purple")
	require.ErrorIs(t, err, model.ErrUnknownVariant)

	texture, err := model.ParseDiaperTexture("")
	require.NoError(t, err)
	assert.Equal(t, model.DiaperTexture(""), texture)
}

func TestCloneDoesNotShareDetails(t *testing.T) {
	t.Parallel()

	e := model.CareEvent{Type: model.CareFeeding, Feeding: &model.FeedingDetail{Type: model.FeedFormula, FormulaAmountMl: 90}}
	c := e.Clone()
	c.Feeding.FormulaAmountMl = 10
	assert.Equal(t, 90, e.Feeding.FormulaAmountMl)
}
