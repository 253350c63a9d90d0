// Integration tests for the append-only versioning semantics: update
// appending, current-version resolution, and latest-wins listing.
package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/larder/pkg/types"
)

func TestVersioning_UpdateAppendsNewVersion(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	created, err := eng.Create(ctx, "notes", types.Payload{
		Name: "v1",
		Data: map[string]any{"body": "original", "rank": float64(1)},
	})
	require.NoError(t, err)

	updated, err := eng.Update(ctx, "notes", "", created.ID, types.Payload{
		Data: map[string]any{"rank": float64(2)},
	})
	require.NoError(t, err)

	// Same logical entity, new physical row.
	assert.Equal(t, created.ID, updated.ID)
	assert.NotEqual(t, created.RowID, updated.RowID)

	// Untouched keys carry forward; patched keys override; the
	// original creation time is preserved.
	assert.Equal(t, "original", updated.Data["body"])
	assert.Equal(t, float64(2), updated.Data["rank"])
	assert.Equal(t, "v1", updated.Name)
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))
}

func TestVersioning_GetResolvesNewest(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	created, err := eng.Create(ctx, "notes", types.Payload{Name: "v1"})
	require.NoError(t, err)

	var last *types.Record
	for i := 0; i < 3; i++ {
		last, err = eng.Update(ctx, "notes", "", created.ID, types.Payload{
			Data: map[string]any{"rank": float64(i)},
		})
		require.NoError(t, err)
	}

	got, err := eng.Get(ctx, "notes", "", created.ID)
	require.NoError(t, err)
	assert.Equal(t, last.RowID, got.RowID)
	assert.Equal(t, float64(2), got.Data["rank"])
}

func TestVersioning_ListReturnsOneRecordPerEntity(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	first, err := eng.Create(ctx, "notes", types.Payload{Name: "first"})
	require.NoError(t, err)
	_, err = eng.Update(ctx, "notes", "", first.ID, types.Payload{
		Data: map[string]any{"pinned": true},
	})
	require.NoError(t, err)

	_, err = eng.Create(ctx, "notes", types.Payload{Name: "second"})
	require.NoError(t, err)

	result, err := eng.List(ctx, "notes", nil)
	require.NoError(t, err)

	// Three physical rows, two logical entities.
	assert.Equal(t, 2, result.RecordCount)
	require.Len(t, result.Records, 2)

	seen := map[string]int{}
	for _, r := range result.Records {
		seen[r.ID]++
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "entity %s must appear once", id)
	}
}

func TestVersioning_OldVersionsExcludedFromFilters(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	created, err := eng.Create(ctx, "notes", types.Payload{
		Name: "n",
		Data: map[string]any{"rank": float64(10)},
	})
	require.NoError(t, err)
	_, err = eng.Update(ctx, "notes", "", created.ID, types.Payload{
		Data: map[string]any{"rank": float64(1)},
	})
	require.NoError(t, err)

	// The old version matches rank_gte=5 but is not current; the
	// entity must not surface through its stale version.
	result, err := eng.List(ctx, "notes", map[string]any{"rank_gte": 5})
	require.NoError(t, err)
	assert.Zero(t, result.RecordCount)

	count, err := eng.Count(ctx, "notes", map[string]any{"rank_gte": 5})
	require.NoError(t, err)
	assert.Zero(t, count.Count)
}

func TestVersioning_CountCollapsesVersions(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	created, err := eng.Create(ctx, "notes", types.Payload{Name: "n"})
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		_, err = eng.Update(ctx, "notes", "", created.ID, types.Payload{
			Data: map[string]any{"rank": float64(i)},
		})
		require.NoError(t, err)
	}

	result, err := eng.Count(ctx, "notes", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Count, "five physical rows, one logical entity")
}

func TestVersioning_DeleteMarksOnlyCurrentRow(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	created, err := eng.Create(ctx, "notes", types.Payload{Name: "n"})
	require.NoError(t, err)
	_, err = eng.Update(ctx, "notes", "", created.ID, types.Payload{
		Data: map[string]any{"pinned": true},
	})
	require.NoError(t, err)

	require.NoError(t, eng.Delete(ctx, "notes", "", created.ID))

	// With deleted rows visible, both versions are still there and
	// exactly one carries the deletion mark.
	all, err := eng.List(ctx, "notes", map[string]any{"deleted": true, "sort": "desc_updated_at"})
	require.NoError(t, err)
	require.Equal(t, 1, all.RecordCount, "latest-wins still collapses to one entity")

	// The surviving current version is the marked one.
	assert.True(t, all.Records[0].Deleted())
}
