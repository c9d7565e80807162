package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pap-cedram/pap-backend/config"
	"github.com/pap-cedram/pap-backend/internal/catalog/filter"
	"github.com/pap-cedram/pap-backend/internal/catalog/service"
)

func TestOpenCatalog_InMemoryWithRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cfg := &config.Config{Redis: config.RedisConfig{Addr: mr.Addr()}}
	c, err := OpenCatalog(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer c.Close()

	assert.Nil(t, c.DB)
	require.NotNil(t, c.Redis)

	ctx := context.Background()
	_, err = c.Service.CreateProject(ctx, service.NewProject{
		Year: 2024, Period: "Verano", Name: "A", Estimate: 1,
	})
	require.NoError(t, err)

	res, err := c.Service.Search(ctx, filter.NewSelection())
	require.NoError(t, err)
	assert.Len(t, res.Projects, 1)
	assert.True(t, mr.Exists("pap:view:gen"))
}

func TestOpenCatalog_UnreachableRedisDisablesCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	cfg := &config.Config{Redis: config.RedisConfig{Addr: addr}}
	c, err := OpenCatalog(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer c.Close()
	assert.Nil(t, c.Redis)
}

func TestOpenCatalog_CustomDictionary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dict.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- match: teatro\n  label: Teatro\n"), 0o600))

	cfg := &config.Config{Catalog: config.CatalogConfig{DictionaryPath: path}}
	c, err := OpenCatalog(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer c.Close()

	normalized, _ := c.Service.NormalizeLabels("TEATRO, teatro")
	assert.Equal(t, "Teatro", normalized)

	cfg.Catalog.DictionaryPath = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = OpenCatalog(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}
