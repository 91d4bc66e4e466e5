package resources

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "resources.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestOpenSeedsDefaults(t *testing.T) {
	c := openTestCatalog(t)

	all, err := c.All(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, all)
}

func TestListByCategoryCrisis(t *testing.T) {
	c := openTestCatalog(t)

	crisis, err := c.ListByCategory(context.Background(), CategoryCrisis)
	require.NoError(t, err)
	require.NotEmpty(t, crisis)
	for _, r := range crisis {
		require.Equal(t, CategoryCrisis, r.Category)
	}
}

func TestReopenDoesNotDuplicateSeeds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resources.db")

	c, err := Open(path)
	require.NoError(t, err)
	first, err := c.All(context.Background())
	require.NoError(t, err)
	require.NoError(t, c.Close())

	c, err = Open(path)
	require.NoError(t, err)
	defer c.Close()
	second, err := c.All(context.Background())
	require.NoError(t, err)

	require.Len(t, second, len(first))
}
