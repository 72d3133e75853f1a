package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/fraatlas/backend/pkg/database"
	"github.com/fraatlas/backend/pkg/domain"
	"github.com/fraatlas/backend/pkg/dss"
	"github.com/fraatlas/backend/pkg/models"
	"github.com/fraatlas/backend/pkg/recommendations"
	"github.com/fraatlas/backend/pkg/schemes"
	"github.com/fraatlas/backend/pkg/store"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// setupConfig writes a config file pointing at a shared in-memory sqlite
// database and keeps one connection open so the database outlives each
// command. Caching is off unless cacheYAML turns it on.
func setupConfig(t *testing.T) (string, *store.Store) {
	t.Helper()
	return setupConfigWithCache(t, "cache-enabled: false\n")
}

func setupConfigWithCache(t *testing.T, cacheYAML string) (string, *store.Store) {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"

	client, err := database.Open(database.DriverSQLite, dsn, database.DefaultPoolConfig(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "db-driver: sqlite3\ndatabase-url: \"" + dsn + "\"\nlog-level: error\n" + cacheYAML
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path, store.New(client)
}

func TestSchemesCommand(t *testing.T) {
	out, err := run(t, "schemes")
	require.NoError(t, err)

	var list []schemes.Scheme
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	assert.Len(t, list, len(schemes.All()))
}

func TestSchemesCommand_YAMLByCategory(t *testing.T) {
	out, err := run(t, "schemes", "--category", "forest", "-o", "yaml")
	require.NoError(t, err)

	var list []schemes.Scheme
	require.NoError(t, yaml.Unmarshal([]byte(out), &list))
	require.NotEmpty(t, list)
	for _, s := range list {
		assert.Equal(t, schemes.CategoryForest, s.Category)
	}
}

func TestSchemesCommand_Errors(t *testing.T) {
	_, err := run(t, "schemes", "--category", "mining")
	assert.ErrorContains(t, err, "unknown scheme category")

	_, err = run(t, "schemes", "-o", "xml")
	assert.ErrorContains(t, err, "unsupported output format")
}

func TestOutputFromEnv(t *testing.T) {
	t.Setenv("FRA_OUTPUT", "yaml")

	out, err := run(t, "schemes", "--category", "agriculture")
	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(out, "["))
	assert.Contains(t, out, "id: "+schemes.PMKisan)
}

func TestMissingConfigFile(t *testing.T) {
	_, err := run(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"), "schemes")
	assert.ErrorContains(t, err, "failed to read config")
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "dss engine "+dss.EngineVersion+"\n", out)
}

func TestOperatorWorkflow(t *testing.T) {
	cfg, st := setupConfig(t)
	ctx := context.Background()

	out, err := run(t, "--config", cfg, "migrate")
	require.NoError(t, err)
	assert.Equal(t, "Migrations applied\n", out)

	out, err = run(t, "--config", cfg, "seed", "--claims", "6", "--state", "Jharkhand", "--district", "Ranchi", "--seed", "42")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Seeded 6 claims and "), out)

	all, err := st.ListClaims(ctx, models.ClaimFilter{})
	require.NoError(t, err)
	require.Len(t, all, 6)
	for _, c := range all {
		assert.Equal(t, "Ranchi", c.District)
	}

	out, err = run(t, "--config", cfg, "generate", all[0].ID)
	require.NoError(t, err)
	var result dss.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, all[0].ID, result.ClaimID)
	assert.Equal(t, dss.EngineVersion, result.EngineVersion)

	pending, err := st.ListPendingClaims(ctx, models.ClaimFilter{})
	require.NoError(t, err)

	out, err = run(t, "--config", cfg, "bulk", "--district", "Ranchi")
	require.NoError(t, err)
	var resp models.BulkRecommendationResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, len(pending), resp.Processed)
	assert.Zero(t, resp.Failed)

	dir := t.TempDir()
	out, err = run(t, "--config", cfg, "export", "--district", "Ranchi", "--dir", dir)
	require.NoError(t, err)
	path := strings.TrimSpace(out)
	assert.Equal(t, dir, filepath.Dir(path))
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestGenerateCommand_UnknownClaim(t *testing.T) {
	cfg, _ := setupConfig(t)
	_, err := run(t, "--config", cfg, "migrate")
	require.NoError(t, err)

	_, err = run(t, "--config", cfg, "generate", uuid.NewString())
	assert.True(t, domain.IsNotFound(err), "got %v", err)
}

func TestSeedCommand_Validation(t *testing.T) {
	_, err := run(t, "seed", "--claims", "0")
	assert.ErrorContains(t, err, "--claims must be positive")

	_, err = run(t, "seed", "--district", "Ranchi")
	assert.ErrorContains(t, err, "--district requires --state")
}

func TestRecommendationCommands_RefreshAPICache(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg, st := setupConfigWithCache(t, "cache-enabled: true\nredis-url: redis://"+mr.Addr()+"\nrecommendation-cache-ttl: 10m\n")
	ctx := context.Background()

	_, err := run(t, "--config", cfg, "migrate")
	require.NoError(t, err)
	claim := &models.Claim{
		UserID: "owner-1", VillageName: "Kanke", District: "Ranchi", State: "Jharkhand",
		ClaimType: models.ClaimTypeCFR, AreaHectares: 50,
	}
	require.NoError(t, st.CreateClaim(ctx, claim))

	// the API cached a set from an earlier run
	key := recommendations.CacheKey(claim.ID)
	stale := `{"claim_id":"` + claim.ID + `","total_schemes":1}`
	require.NoError(t, mr.Set(key, stale))

	t.Run("generate", func(t *testing.T) {
		out, err := run(t, "--config", cfg, "generate", claim.ID)
		require.NoError(t, err)
		var result dss.Result
		require.NoError(t, json.Unmarshal([]byte(out), &result))

		raw, err := mr.Get(key)
		require.NoError(t, err)
		var cached dss.Result
		require.NoError(t, json.Unmarshal([]byte(raw), &cached))
		assert.Equal(t, result.TotalSchemes, cached.TotalSchemes)
		assert.True(t, result.GeneratedAt.Equal(cached.GeneratedAt))
		assert.Equal(t, 10*time.Minute, mr.TTL(key))
	})

	t.Run("bulk", func(t *testing.T) {
		require.NoError(t, mr.Set(key, stale))

		_, err := run(t, "--config", cfg, "bulk")
		require.NoError(t, err)

		raw, err := mr.Get(key)
		require.NoError(t, err)
		assert.NotEqual(t, stale, raw)
	})
}

func TestGenerateCommand_RedisUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	cfg, st := setupConfigWithCache(t, "cache-enabled: true\nredis-url: redis://"+addr+"\n")
	_, err = run(t, "--config", cfg, "migrate")
	require.NoError(t, err)
	claim := &models.Claim{
		UserID: "owner-1", VillageName: "Kanke", District: "Ranchi", State: "Jharkhand",
		ClaimType: models.ClaimTypeIFR, AreaHectares: 1.5,
	}
	require.NoError(t, st.CreateClaim(context.Background(), claim))

	_, err = run(t, "--config", cfg, "generate", claim.ID)
	assert.NoError(t, err, "generation does not depend on the cache")
}
