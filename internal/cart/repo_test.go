package cart

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mkrogh/storefront/pkg/config"
)

func TestSQLiteRepositoryRoundTrip(t *testing.T) {
	cfg := config.CartConfig{
		DBPath:     filepath.Join(t.TempDir(), "cart.db"),
		StorageKey: "cart",
	}
	ctx := context.Background()

	repo, err := NewSQLiteRepository(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	entries, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, entries)

	want := []Entry{{ProductID: 1, Quantity: 2}, {ProductID: 4, Quantity: 1}}
	require.NoError(t, repo.Save(ctx, want))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, want, got)

	// overwrite under the same key, not append
	require.NoError(t, repo.Save(ctx, nil))
	got, err = repo.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestSQLiteRepositorySurvivesReopen(t *testing.T) {
	cfg := config.CartConfig{
		DBPath:     filepath.Join(t.TempDir(), "cart.db"),
		StorageKey: "cart",
	}
	ctx := context.Background()

	repo, err := NewSQLiteRepository(cfg)
	require.NoError(t, err)
	want := []Entry{{ProductID: 9, Quantity: 3}}
	require.NoError(t, repo.Save(ctx, want))
	require.NoError(t, repo.Close())

	reopened, err := NewSQLiteRepository(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })

	got, err := reopened.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, want, got)
}
