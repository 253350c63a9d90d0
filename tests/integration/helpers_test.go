// Shared helpers for the integration suite: a fully wired engine on a
// real SQLite backend in a temporary directory.
package integration

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/larder/internal/sqlite"
	"github.com/mesh-intelligence/larder/pkg/engine"
	"github.com/mesh-intelligence/larder/pkg/types"
)

func notesModel() types.Model {
	return types.Model{
		Name:      "notes",
		Lifecycle: types.LifecycleVersioned,
		Fields: []types.Field{
			{Name: "body", Kind: types.KindString},
			{Name: "rank", Kind: types.KindNumber},
			{Name: "pinned", Kind: types.KindBoolean},
		},
	}
}

func settingsModel() types.Model {
	return types.Model{
		Name:      "settings",
		Lifecycle: types.LifecycleSingle,
		Fields: []types.Field{
			{Name: "value", Kind: types.KindString},
			{Name: "rank", Kind: types.KindNumber},
		},
	}
}

// newTestEngine attaches a SQLite backend in a temp directory and
// registers the notes and settings models.
func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()

	backend := sqlite.NewBackend()
	err := backend.Attach(types.Config{
		Backend: types.BackendSQLite,
		DataDir: t.TempDir(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { backend.Detach() })

	eng := engine.New(backend)
	require.NoError(t, eng.Register(notesModel()))
	require.NoError(t, eng.Register(settingsModel()))
	return eng
}
