package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/psptrack/internal/domain/defect"
	"github.com/rpggio/psptrack/internal/domain/phase"
	"github.com/rpggio/psptrack/internal/repository"
	"github.com/stretchr/testify/require"
)

func newDefect(id, number string) *defect.Defect {
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	return &defect.Defect{
		ID:          id,
		Number:      number,
		Description: "missing return",
		Type:        defect.TypeFunction,
		InjectPhase: phase.Code,
		Location:    defect.Location{Filename: "main.go", Line: 42, Offset: 7},
		Date:        now.Format(defect.DateLayout),
		CreatedAt:   now,
	}
}

func TestDefectRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewDefectRepository(NewTestDB(t))

	d := newDefect("d1", "1")
	require.NoError(t, repo.Create(ctx, d))

	got, err := repo.Get(ctx, "d1")
	require.NoError(t, err)
	require.Equal(t, d.Description, got.Description)
	require.Equal(t, defect.TypeFunction, got.Type)
	require.Equal(t, phase.Code, got.InjectPhase)
	require.Equal(t, phase.None, got.RemovePhase)
	require.Equal(t, d.Location, got.Location)
	require.Equal(t, "2026-03-14", got.Date)
	require.False(t, got.Checked)
	require.True(t, d.CreatedAt.Equal(got.CreatedAt))
}

func TestDefectRepository_CreateDuplicate(t *testing.T) {
	ctx := context.Background()
	repo := NewDefectRepository(NewTestDB(t))

	require.NoError(t, repo.Create(ctx, newDefect("d1", "1")))
	err := repo.Create(ctx, newDefect("d1", "2"))
	require.ErrorIs(t, err, repository.ErrConflict)
}

func TestDefectRepository_GetNotFound(t *testing.T) {
	repo := NewDefectRepository(NewTestDB(t))

	_, err := repo.Get(context.Background(), "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDefectRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo := NewDefectRepository(NewTestDB(t))

	d := newDefect("d1", "1")
	require.NoError(t, repo.Create(ctx, d))

	d.Checked = true
	d.RemovePhase = phase.Test
	require.NoError(t, repo.Update(ctx, d))

	got, err := repo.Get(ctx, "d1")
	require.NoError(t, err)
	require.True(t, got.Checked)
	require.Equal(t, phase.Test, got.RemovePhase)

	err = repo.Update(ctx, newDefect("missing", "9"))
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDefectRepository_AddFixTime(t *testing.T) {
	ctx := context.Background()
	repo := NewDefectRepository(NewTestDB(t))

	d := newDefect("d1", "1")
	require.NoError(t, repo.Create(ctx, d))

	got, err := repo.AddFixTime(ctx, "d1", 1)
	require.NoError(t, err)
	require.Equal(t, int64(1), got.FixTime)
	got, err = repo.AddFixTime(ctx, "d1", 1)
	require.NoError(t, err)
	require.Equal(t, int64(2), got.FixTime)

	// Checked defects do not accrue
	got.Checked = true
	require.NoError(t, repo.Update(ctx, got))
	got, err = repo.AddFixTime(ctx, "d1", 1)
	require.NoError(t, err)
	require.Equal(t, int64(2), got.FixTime)

	_, err = repo.AddFixTime(ctx, "missing", 1)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDefectRepository_ListAndCount(t *testing.T) {
	ctx := context.Background()
	repo := NewDefectRepository(NewTestDB(t))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, count)

	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, repo.Create(ctx, newDefect(id, id)))
	}

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, "c", list[0].ID)
	require.Equal(t, "a", list[1].ID)
	require.Equal(t, "b", list[2].ID)

	count, err = repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, count)
}
