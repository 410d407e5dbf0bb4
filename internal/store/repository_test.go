package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lhuanyu/Sumeru/internal/db"
	"github.com/lhuanyu/Sumeru/internal/model"
	"github.com/lhuanyu/Sumeru/internal/store"
	"github.com/lhuanyu/Sumeru/internal/store/memory"
)

func newSQLite(t *testing.T) *store.SQLite {
	t.Helper()
	sqldb, err := db.Open(filepath.Join(t.TempDir(), "sumeru.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqldb.Close() })
	require.NoError(t, db.ApplyMigrations(sqldb))
	return store.NewSQLite(sqldb)
}

// forEachRepository runs fn against every Repository implementation.
func forEachRepository(t *testing.T, fn func(t *testing.T, repo store.Repository)) {
	t.Helper()
	t.Run("sqlite", func(t *testing.T) {
		t.Parallel()
		fn(t, newSQLite(t))
	})
	t.Run("memory", func(t *testing.T) {
		t.Parallel()
		fn(t, memory.NewStore())
	})
}

var base = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

func feeding(at time.Time, breast, formula int) model.CareEvent {
	return model.CareEvent{
		Timestamp: at,
		Type:      model.CareFeeding,
		Note:      "left side",
		Feeding: &model.FeedingDetail{
			Type:            model.FeedBreastAndFormula,
			Method:          model.MethodBottle,
			BreastAmountMl:  breast,
			FormulaAmountMl: formula,
			Note:            "warm",
		},
	}
}

func diaperEvent(at time.Time) model.CareEvent {
	return model.CareEvent{
		Timestamp: at,
		Type:      model.CareDiaper,
		Diaper:    &model.DiaperDetail{Type: model.DiaperMixed, Amount: model.AmountMuch, Texture: model.TextureWatery, Color: model.ColorYellow},
	}
}

func assertSameEvent(t *testing.T, want, got model.CareEvent) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.True(t, want.Timestamp.Equal(got.Timestamp), "timestamp %v != %v", want.Timestamp, got.Timestamp)
	assert.Equal(t, want.Type, got.Type)
	assert.Equal(t, want.Duration, got.Duration)
	assert.Equal(t, want.Note, got.Note)
	assert.Equal(t, want.Feeding, got.Feeding)
	assert.Equal(t, want.Diaper, got.Diaper)
}

func TestInsertThenGetRoundTrips(t *testing.T) {
	t.Parallel()
	forEachRepository(t, func(t *testing.T, repo store.Repository) {
		ctx := context.Background()

		e := feeding(base, 60, 90)
		require.NoError(t, repo.Insert(ctx, &e))
		require.NotEqual(t, uuid.Nil, e.ID)
		require.Equal(t, e.ID, e.Feeding.CareID)
		require.False(t, e.CreatedAt.IsZero())

		got, err := repo.Get(ctx, e.ID)
		require.NoError(t, err)
		assertSameEvent(t, e, got)
		assert.Equal(t, 150, got.Feeding.TotalAmount())

		sleep := model.CareEvent{Timestamp: base.Add(time.Hour), Type: model.CareSleep, Duration: 95 * time.Minute}
		require.NoError(t, repo.Insert(ctx, &sleep))
		got, err = repo.Get(ctx, sleep.ID)
		require.NoError(t, err)
		assertSameEvent(t, sleep, got)
		assert.Nil(t, got.Feeding)
		assert.Nil(t, got.Diaper)
	})
}

func TestInsertKeepsProvidedID(t *testing.T) {
	t.Parallel()
	forEachRepository(t, func(t *testing.T, repo store.Repository) {
		ctx := context.Background()
		id := uuid.New()
		e := diaperEvent(base)
		e.ID = id
		require.NoError(t, repo.Insert(ctx, &e))
		assert.Equal(t, id, e.ID)

		dup := diaperEvent(base.Add(time.Hour))
		dup.ID = id
		require.ErrorIs(t, repo.Insert(ctx, &dup), store.ErrConflict)

		got, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.True(t, got.Timestamp.Equal(base), "existing event was overwritten")
	})
}

func TestInsertRejectsInvalidEvents(t *testing.T) {
	t.Parallel()
	forEachRepository(t, func(t *testing.T, repo store.Repository) {
		ctx := context.Background()

		missing := model.CareEvent{Timestamp: base, Type: model.CareFeeding}
		require.ErrorIs(t, repo.Insert(ctx, &missing), model.ErrInvalidDetailCombination)

		mismatched := diaperEvent(base)
		mismatched.Type = model.CareBath
		require.ErrorIs(t, repo.Insert(ctx, &mismatched), model.ErrInvalidDetailCombination)

		all, err := repo.ListAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})
}

func TestListAllNewestFirst(t *testing.T) {
	t.Parallel()
	forEachRepository(t, func(t *testing.T, repo store.Repository) {
		ctx := context.Background()
		for _, offset := range []time.Duration{2 * time.Hour, 0, 26 * time.Hour, time.Hour} {
			e := diaperEvent(base.Add(offset))
			require.NoError(t, repo.Insert(ctx, &e))
		}
		all, err := repo.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 4)
		for i := 1; i < len(all); i++ {
			assert.False(t, all[i].Timestamp.After(all[i-1].Timestamp), "index %d out of order", i)
		}
		assert.True(t, all[0].Timestamp.Equal(base.Add(26*time.Hour)))
	})
}

func TestUpdateReplacesDetail(t *testing.T) {
	t.Parallel()
	forEachRepository(t, func(t *testing.T, repo store.Repository) {
		ctx := context.Background()
		e := feeding(base, 60, 90)
		require.NoError(t, repo.Insert(ctx, &e))

		changed := e.Clone()
		changed.Type = model.CareDiaper
		changed.Feeding = nil
		changed.Diaper = &model.DiaperDetail{Type: model.DiaperWet, Amount: model.AmountLittle}
		changed.Timestamp = base.Add(-time.Hour)
		require.NoError(t, repo.Update(ctx, changed))

		got, err := repo.Get(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, model.CareDiaper, got.Type)
		assert.Nil(t, got.Feeding)
		require.NotNil(t, got.Diaper)
		assert.Equal(t, e.ID, got.Diaper.CareID)
		assert.True(t, got.Timestamp.Equal(base.Add(-time.Hour)))

		ghost := diaperEvent(base)
		ghost.ID = uuid.New()
		require.ErrorIs(t, repo.Update(ctx, ghost), store.ErrNotFound)
	})
}

func TestDeleteAndDeleteMany(t *testing.T) {
	t.Parallel()
	forEachRepository(t, func(t *testing.T, repo store.Repository) {
		ctx := context.Background()
		ids := make([]uuid.UUID, 0, 3)
		for i := 0; i < 3; i++ {
			e := feeding(base.Add(time.Duration(i)*time.Hour), 10, 10)
			require.NoError(t, repo.Insert(ctx, &e))
			ids = append(ids, e.ID)
		}

		require.NoError(t, repo.Delete(ctx, ids[0]))
		_, err := repo.Get(ctx, ids[0])
		require.ErrorIs(t, err, store.ErrNotFound)
		require.ErrorIs(t, repo.Delete(ctx, ids[0]), store.ErrNotFound)

		// one unknown id aborts the whole batch
		require.ErrorIs(t, repo.DeleteMany(ctx, []uuid.UUID{ids[1], uuid.New()}), store.ErrNotFound)
		all, err := repo.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)

		require.NoError(t, repo.DeleteMany(ctx, ids[1:]))
		all, err = repo.ListAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
		require.NoError(t, repo.DeleteMany(ctx, nil))
	})
}

func TestReadsDoNotAliasStoredEvents(t *testing.T) {
	t.Parallel()
	forEachRepository(t, func(t *testing.T, repo store.Repository) {
		ctx := context.Background()
		e := feeding(base, 60, 90)
		require.NoError(t, repo.Insert(ctx, &e))

		e.Feeding.BreastAmountMl = 1
		got, err := repo.Get(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, 60, got.Feeding.BreastAmountMl)

		got.Feeding.BreastAmountMl = 2
		again, err := repo.Get(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, 60, again.Feeding.BreastAmountMl)
	})
}

func TestSQLiteDeleteCascadesDetails(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	sqldb, err := db.Open(filepath.Join(t.TempDir(), "sumeru.db"))
	require.NoError(t, err)
	defer sqldb.Close()
	require.NoError(t, db.ApplyMigrations(sqldb))
	repo := store.NewSQLite(sqldb)

	f := feeding(base, 60, 90)
	d := diaperEvent(base.Add(time.Hour))
	require.NoError(t, repo.Insert(ctx, &f))
	require.NoError(t, repo.Insert(ctx, &d))
	require.NoError(t, repo.DeleteMany(ctx, []uuid.UUID{f.ID, d.ID}))

	var n int
	require.NoError(t, sqldb.QueryRow(`SELECT (SELECT COUNT(1) FROM feeding_details) + (SELECT COUNT(1) FROM diaper_details)`).Scan(&n))
	assert.Zero(t, n)
}

func TestSQLiteTruncatesToWholeSeconds(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newSQLite(t)

	e := model.CareEvent{Timestamp: base.Add(300 * time.Millisecond), Type: model.CareBath, Duration: 10*time.Minute + 400*time.Millisecond}
	require.NoError(t, repo.Insert(ctx, &e))
	got, err := repo.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, got.Timestamp.Equal(base))
	assert.Equal(t, 10*time.Minute, got.Duration)
	assertSameEvent(t, e, got)
}
