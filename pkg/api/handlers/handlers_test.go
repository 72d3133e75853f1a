package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/fraatlas/backend/pkg/auth"
	"github.com/fraatlas/backend/pkg/cache"
	"github.com/fraatlas/backend/pkg/database"
	"github.com/fraatlas/backend/pkg/dss"
	"github.com/fraatlas/backend/pkg/logger"
	"github.com/fraatlas/backend/pkg/middleware"
	"github.com/fraatlas/backend/pkg/models"
	"github.com/fraatlas/backend/pkg/recommendations"
	"github.com/fraatlas/backend/pkg/store"
)

var (
	owner       = &auth.Principal{UserID: "owner-1", Role: auth.RolePattaHolder}
	stranger    = &auth.Principal{UserID: "someone-else", Role: auth.RolePattaHolder}
	ranchiAdmin = &auth.Principal{UserID: "admin-ranchi", Role: auth.RoleDistrictAdmin, District: "Ranchi"}
	gumlaAdmin  = &auth.Principal{UserID: "admin-gumla", Role: auth.RoleDistrictAdmin, District: "Gumla"}
	stateAdmin  = &auth.Principal{UserID: "admin-state", Role: auth.RoleStateAdmin}

	// a district admin token issued without a district
	unscopedAdmin = &auth.Principal{UserID: "admin-none", Role: auth.RoleDistrictAdmin}
)

type handlerEnv struct {
	db    *database.Client
	store *store.Store
	svc   *recommendations.Service
}

func setupHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()
	client, err := database.Open(database.DriverSQLite,
		"file:"+strings.ReplaceAll(t.Name(), "/", "_")+"?mode=memory&cache=shared", database.DefaultPoolConfig(), nil)
	require.NoError(t, err)
	require.NoError(t, client.Migrate(context.Background()))
	t.Cleanup(func() { client.Close() })

	st := store.New(client)
	svc := recommendations.NewService(st, dss.NewEngine(), logger.Nop()).
		WithCache(cache.NewLayered(time.Minute, nil), time.Minute)

	return &handlerEnv{db: client, store: st, svc: svc}
}

func (env *handlerEnv) seedClaim(t *testing.T, village, district, state string, ct models.ClaimType, area float64, assets ...models.AssetType) *models.Claim {
	t.Helper()
	ctx := context.Background()
	c := &models.Claim{
		UserID:       "owner-1",
		VillageName:  village,
		District:     district,
		State:        state,
		ClaimType:    ct,
		AreaHectares: area,
	}
	require.NoError(t, env.store.CreateClaim(ctx, c))
	for _, at := range assets {
		require.NoError(t, env.store.CreateAsset(ctx, &models.AssetRecord{
			VillageName: village, District: district, State: state, AssetType: at,
		}))
	}
	return c
}

// newContext builds an echo context with the principal already resolved,
// the way the JWT middleware leaves it.
func newContext(method, target string, body io.Reader, p *auth.Principal) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if p != nil {
		c.Set(middleware.PrincipalKey, p)
	}
	return c, rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp models.ErrorResponse
	decode(t, rec, &resp)
	return resp.Error
}
