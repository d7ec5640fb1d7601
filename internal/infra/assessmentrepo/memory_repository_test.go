package assessmentrepo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/mens-health/internal/domain/healthfn"
)

func TestMemoryRepository_ListNewestFirstPerUser(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(ctx, healthfn.AssessmentDocument{ID: "a", UserID: "u1", CreatedAt: base}))
	require.NoError(t, repo.Save(ctx, healthfn.AssessmentDocument{ID: "b", UserID: "u2", CreatedAt: base.Add(time.Minute)}))
	require.NoError(t, repo.Save(ctx, healthfn.AssessmentDocument{ID: "c", UserID: "u1", CreatedAt: base.Add(time.Hour)}))

	docs, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, "c", docs[0].ID)
	require.Equal(t, "a", docs[1].ID)

	none, err := repo.ListByUser(ctx, "nobody")
	require.NoError(t, err)
	require.NotNil(t, none)
	require.Empty(t, none)
}
