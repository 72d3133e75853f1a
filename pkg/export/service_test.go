package export

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/fraatlas/backend/pkg/database"
	"github.com/fraatlas/backend/pkg/domain"
	"github.com/fraatlas/backend/pkg/dss"
	"github.com/fraatlas/backend/pkg/metrics"
	"github.com/fraatlas/backend/pkg/models"
	"github.com/fraatlas/backend/pkg/store"
)

func setupExportTest(t *testing.T) (*store.Store, []models.Claim) {
	t.Helper()
	ctx := context.Background()

	client, err := database.Open(database.DriverSQLite,
		"file:"+strings.ReplaceAll(t.Name(), "/", "_")+"?mode=memory&cache=shared", database.DefaultPoolConfig(), nil)
	require.NoError(t, err)
	require.NoError(t, client.Migrate(ctx))
	t.Cleanup(func() { client.Close() })

	s := store.New(client)
	claims := []models.Claim{
		{UserID: "u1", VillageName: "Khunti", District: "Ranchi", State: "Jharkhand", ClaimType: models.ClaimTypeIFR, AreaHectares: 1.5},
		{UserID: "u2", VillageName: "Bundu", District: "Ranchi", State: "Jharkhand", ClaimType: models.ClaimTypeCFR, AreaHectares: 40},
		{UserID: "u3", VillageName: "Sisai", District: "Gumla", State: "Jharkhand", ClaimType: models.ClaimTypeCR, AreaHectares: 3},
	}
	engine := dss.NewEngine()
	for i := range claims {
		require.NoError(t, s.CreateClaim(ctx, &claims[i]))
	}
	// the second Ranchi claim has no saved set
	for _, c := range []models.Claim{claims[0], claims[2]} {
		result := engine.Generate(c, nil, time.Now())
		require.NoError(t, s.UpsertRecommendations(ctx, &result))
	}
	return s, claims
}

func TestService_Build(t *testing.T) {
	s, claims := setupExportTest(t)
	svc := NewService(s, t.TempDir(), nil)

	report, err := svc.Build(context.Background(), models.ClaimFilter{District: "Ranchi"})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Claims)
	assert.Equal(t, 1, report.WithoutSet)
	require.NotEmpty(t, report.Rows)
	for _, row := range report.Rows {
		assert.Equal(t, claims[0].ID, row.Claim.ID)
	}

	expected := dss.NewEngine().Generate(claims[0], nil, time.Now())
	assert.Len(t, report.Rows, expected.TotalSchemes)
	assert.Equal(t, expected.HighPriorityCount, report.HighCount)
}

func TestService_WriteExcel(t *testing.T) {
	s, claims := setupExportTest(t)
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	svc := NewService(s, t.TempDir(), nil).WithMetrics(m)

	report, err := svc.Build(context.Background(), models.ClaimFilter{District: "Gumla"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.WriteExcel(&buf, report))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReportsExported))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetSummary, sheetRecommendations}, f.GetSheetList())

	rows, err := f.GetRows(sheetRecommendations)
	require.NoError(t, err)
	require.Len(t, rows, len(report.Rows)+1)
	assert.Equal(t, headers, rows[0])
	assert.Equal(t, claims[2].ID, rows[1][0])
	assert.Equal(t, "Sisai", rows[1][1])
	assert.Equal(t, report.Rows[0].Recommendation.Scheme.Name, rows[1][6])

	claimsCell, err := f.GetCellValue(sheetSummary, "B3")
	require.NoError(t, err)
	assert.Equal(t, "1", claimsCell)
}

func TestService_SaveExcel(t *testing.T) {
	s, _ := setupExportTest(t)
	dir := filepath.Join(t.TempDir(), "exports")
	svc := NewService(s, dir, nil)

	path, err := svc.SaveExcel(context.Background(), models.ClaimFilter{State: "Jharkhand"})
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "dss-recommendations-jharkhand-"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

type failingSource struct{ err error }

func (f failingSource) ListPendingClaims(context.Context, models.ClaimFilter) ([]models.Claim, error) {
	return []models.Claim{{ID: "c1"}}, nil
}

func (f failingSource) LatestRecommendations(context.Context, string) (*dss.Result, error) {
	return nil, f.err
}

type emptySource struct{}

func (emptySource) ListPendingClaims(context.Context, models.ClaimFilter) ([]models.Claim, error) {
	return nil, nil
}

func (emptySource) LatestRecommendations(context.Context, string) (*dss.Result, error) {
	return nil, domain.NewNotFoundError("recommendations")
}

func TestService_Build_PropagatesStoreErrors(t *testing.T) {
	svc := NewService(failingSource{err: domain.NewPersistenceError("fetch recommendations", errors.New("timeout"))}, "", nil)

	_, err := svc.Build(context.Background(), models.ClaimFilter{})
	assert.True(t, domain.IsPersistence(err))
}

func TestFileName(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	tests := []struct {
		name   string
		report Report
		want   string
	}{
		{"no scope", Report{}, "dss-recommendations-all-20260301-103000.xlsx"},
		{"district wins over state", Report{District: "East Singhbhum", State: "Jharkhand"}, "dss-recommendations-east-singhbhum-20260301-103000.xlsx"},
		{"state only", Report{State: "Odisha"}, "dss-recommendations-odisha-20260301-103000.xlsx"},
		{"path traversal", Report{District: "../../etc/x"}, "dss-recommendations-etc-x-20260301-103000.xlsx"},
		{"header separators", Report{District: `Ranchi"; filename=evil.exe`}, "dss-recommendations-ranchi-filename-evil-exe-20260301-103000.xlsx"},
		{"accents folded", Report{District: "Sundargarh Jhārsuguḍā"}, "dss-recommendations-sundargarh-jharsuguda-20260301-103000.xlsx"},
		{"nothing usable", Report{District: "///"}, "dss-recommendations-all-20260301-103000.xlsx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.report.GeneratedAt = at
			assert.Equal(t, tt.want, FileName(&tt.report))
		})
	}
}

func TestService_SaveExcel_StaysInsideDir(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(emptySource{}, dir, nil)

	path, err := svc.SaveExcel(context.Background(), models.ClaimFilter{District: "../../outside"})
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
}
