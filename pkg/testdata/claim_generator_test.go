package testdata

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fraatlas/backend/pkg/database"
	"github.com/fraatlas/backend/pkg/models"
	"github.com/fraatlas/backend/pkg/store"
)

func TestGenerator_Generate(t *testing.T) {
	cfg := DefaultConfig(30)
	cfg.Seed = 42
	cfg.State = "Jharkhand"

	fx := NewGenerator(cfg).Generate()
	require.Len(t, fx.Claims, 30)

	ids := map[string]bool{}
	for _, c := range fx.Claims {
		assert.True(t, c.ClaimType.Valid())
		assert.Positive(t, c.AreaHectares)
		assert.Equal(t, "Jharkhand", c.State)
		assert.Contains(t, LocationData["Jharkhand"], c.District)
		assert.Contains(t, LocationData["Jharkhand"][c.District], c.VillageName)
		assert.False(t, ids[c.ID], "duplicate id %s", c.ID)
		ids[c.ID] = true
	}

	for _, a := range fx.Assets {
		assert.Contains(t, models.AllAssetTypes, a.AssetType)
		assert.NotEmpty(t, a.GeoJSON)
	}
}

func TestGenerator_SeedIsDeterministic(t *testing.T) {
	cfg := DefaultConfig(10)
	cfg.Seed = 7

	first := NewGenerator(cfg).Generate()
	second := NewGenerator(cfg).Generate()

	require.Len(t, second.Claims, len(first.Claims))
	for i := range first.Claims {
		assert.Equal(t, first.Claims[i].ID, second.Claims[i].ID)
		assert.Equal(t, first.Claims[i].VillageName, second.Claims[i].VillageName)
		assert.Equal(t, first.Claims[i].AreaHectares, second.Claims[i].AreaHectares)
	}
}

func TestGenerator_FixedDistrict(t *testing.T) {
	cfg := DefaultConfig(5)
	cfg.Seed = 1
	cfg.State = "Odisha"
	cfg.District = "Koraput"
	cfg.VillagesPerClaim = 5

	fx := NewGenerator(cfg).Generate()
	for _, c := range fx.Claims {
		assert.Equal(t, "Koraput", c.District)
		assert.Equal(t, fx.Claims[0].VillageName, c.VillageName)
	}
}

func TestInsert(t *testing.T) {
	client, err := database.Open(database.DriverSQLite, "file:TestInsert?mode=memory&cache=shared", database.DefaultPoolConfig(), nil)
	require.NoError(t, err)
	defer client.Close()
	ctx := context.Background()
	require.NoError(t, client.Migrate(ctx))

	cfg := DefaultConfig(12)
	cfg.Seed = 3
	cfg.ApprovedChance = 0
	cfg.AssetChance = 1
	fx := NewGenerator(cfg).Generate()

	s := store.New(client)
	require.NoError(t, Insert(ctx, s, fx))

	pending, err := s.ListPendingClaims(ctx, models.ClaimFilter{})
	require.NoError(t, err)
	assert.Len(t, pending, 12)

	first := fx.Claims[0]
	assets, err := s.AssetsForLocality(ctx, first.VillageName, first.District)
	require.NoError(t, err)
	assert.NotEmpty(t, assets)
}
