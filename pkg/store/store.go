// Package store is the SQL persistence adapter for claims, asset maps and
// recommendation sets. Queries use ordered $n placeholders, which both
// lib/pq and go-sqlite3 accept.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fraatlas/backend/pkg/database"
	"github.com/fraatlas/backend/pkg/domain"
	"github.com/fraatlas/backend/pkg/dss"
	"github.com/fraatlas/backend/pkg/models"
	"github.com/fraatlas/backend/pkg/schemes"
)

// DefaultLimit caps claim listings when the filter sets no limit
const DefaultLimit = 100

// Store implements the claim, asset and recommendation repositories
type Store struct {
	db *sql.DB
}

// New creates a store over an open database client
func New(client *database.Client) *Store {
	return &Store{db: client.DB}
}

// storedRecommendation is one element of the recommended_schemes column
type storedRecommendation struct {
	SchemeID         string       `json:"scheme_id"`
	SchemeName       string       `json:"scheme_name"`
	RelevanceScore   float64      `json:"relevance_score"`
	EligibilityMatch bool         `json:"eligibility_match"`
	Reasoning        string       `json:"reasoning"`
	Priority         dss.Priority `json:"priority"`
}

const claimColumns = `id, user_id, village_name, district, state, claim_type, area_hectares, status, submitted_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClaim(row rowScanner) (*models.Claim, error) {
	var c models.Claim
	err := row.Scan(
		&c.ID, &c.UserID, &c.VillageName, &c.District, &c.State,
		&c.ClaimType, &c.AreaHectares, &c.Status,
		&c.SubmittedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateClaim inserts a claim, assigning an id and timestamps when unset
func (s *Store) CreateClaim(ctx context.Context, c *models.Claim) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = models.ClaimStatusPending
	}
	now := time.Now().UTC()
	if c.SubmittedAt.IsZero() {
		c.SubmittedAt = now
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fra_claims (`+claimColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		c.ID, c.UserID, c.VillageName, c.District, c.State,
		c.ClaimType, c.AreaHectares, c.Status,
		c.SubmittedAt, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return domain.NewPersistenceError("create claim", err)
	}
	return nil
}

// GetClaim fetches a claim by id
func (s *Store) GetClaim(ctx context.Context, id string) (*models.Claim, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+claimColumns+` FROM fra_claims WHERE id = $1`, id)

	c, err := scanClaim(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("claim")
		}
		return nil, domain.NewPersistenceError("fetch claim", err)
	}
	return c, nil
}

// ListPendingClaims returns pending claims matching the optional locality
// filters, oldest submission first.
func (s *Store) ListPendingClaims(ctx context.Context, filter models.ClaimFilter) ([]models.Claim, error) {
	filter.Status = models.ClaimStatusPending
	return s.ListClaims(ctx, filter)
}

// ListClaims returns claims matching the filter, oldest submission first
func (s *Store) ListClaims(ctx context.Context, filter models.ClaimFilter) ([]models.Claim, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.State != "" {
		add("state = $%d", filter.State)
	}
	if filter.District != "" {
		add("district = $%d", filter.District)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := `SELECT ` + claimColumns + ` FROM fra_claims`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY submitted_at, id LIMIT $%d`, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.NewPersistenceError("list claims", err)
	}
	defer rows.Close()

	claims := []models.Claim{}
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, domain.NewPersistenceError("scan claim", err)
		}
		claims = append(claims, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewPersistenceError("list claims", err)
	}
	return claims, nil
}

// Localities returns every state and district that has claims, with claim counts
func (s *Store) Localities(ctx context.Context) ([]models.Locality, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT state, district, COUNT(*) FROM fra_claims
		GROUP BY state, district ORDER BY state, district`)
	if err != nil {
		return nil, domain.NewPersistenceError("list localities", err)
	}
	defer rows.Close()

	out := []models.Locality{}
	for rows.Next() {
		var l models.Locality
		if err := rows.Scan(&l.State, &l.District, &l.Claims); err != nil {
			return nil, domain.NewPersistenceError("scan locality", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewPersistenceError("list localities", err)
	}
	return out, nil
}

// Coverage reports, per state and district, how many pending claims have
// a saved recommendation set
func (s *Store) Coverage(ctx context.Context) ([]models.Coverage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.state, c.district, COUNT(*), COUNT(r.id)
		FROM fra_claims c
		LEFT JOIN scheme_recommendations r ON r.fra_claim_id = c.id
		WHERE c.status = $1
		GROUP BY c.state, c.district
		ORDER BY c.state, c.district`,
		models.ClaimStatusPending)
	if err != nil {
		return nil, domain.NewPersistenceError("claim coverage", err)
	}
	defer rows.Close()

	out := []models.Coverage{}
	for rows.Next() {
		var c models.Coverage
		if err := rows.Scan(&c.State, &c.District, &c.Pending, &c.Covered); err != nil {
			return nil, domain.NewPersistenceError("scan coverage", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewPersistenceError("claim coverage", err)
	}
	return out, nil
}

// CreateAsset inserts a mapped asset parcel
func (s *Store) CreateAsset(ctx context.Context, a *models.AssetRecord) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.LastUpdated.IsZero() {
		a.LastUpdated = time.Now().UTC()
	}

	var geo any
	if len(a.GeoJSON) > 0 {
		geo = string(a.GeoJSON)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO asset_maps (id, village_name, district, state, asset_type, geojson, source, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.VillageName, a.District, a.State, a.AssetType, geo, a.Source, a.LastUpdated,
	)
	if err != nil {
		return domain.NewPersistenceError("create asset", err)
	}
	return nil
}

// AssetsForLocality returns the asset parcels mapped for a village
func (s *Store) AssetsForLocality(ctx context.Context, village, district string) ([]models.AssetRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, village_name, district, state, asset_type, geojson, source, last_updated
		FROM asset_maps WHERE village_name = $1 AND district = $2
		ORDER BY last_updated, id`,
		village, district)
	if err != nil {
		return nil, domain.NewPersistenceError("fetch assets", err)
	}
	defer rows.Close()

	assets := []models.AssetRecord{}
	for rows.Next() {
		var (
			a   models.AssetRecord
			geo []byte
		)
		if err := rows.Scan(&a.ID, &a.VillageName, &a.District, &a.State, &a.AssetType, &geo, &a.Source, &a.LastUpdated); err != nil {
			return nil, domain.NewPersistenceError("scan asset", err)
		}
		if len(geo) > 0 {
			a.GeoJSON = json.RawMessage(geo)
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewPersistenceError("fetch assets", err)
	}
	return assets, nil
}

// UpsertRecommendations stores a recommendation set, replacing any
// previous set for the same claim.
func (s *Store) UpsertRecommendations(ctx context.Context, result *dss.Result) error {
	stored := make([]storedRecommendation, 0, len(result.Recommendations))
	for _, r := range result.Recommendations {
		stored = append(stored, storedRecommendation{
			SchemeID:         r.Scheme.ID,
			SchemeName:       r.Scheme.Name,
			RelevanceScore:   r.RelevanceScore,
			EligibilityMatch: r.EligibilityMatch,
			Reasoning:        r.Reasoning,
			Priority:         r.Priority,
		})
	}

	payload, err := json.Marshal(stored)
	if err != nil {
		return domain.NewPersistenceError("encode recommendations", err)
	}

	generatedAt := result.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scheme_recommendations (id, fra_claim_id, recommended_schemes, generated_at, engine_version)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (fra_claim_id) DO UPDATE SET
			recommended_schemes = excluded.recommended_schemes,
			generated_at = excluded.generated_at,
			engine_version = excluded.engine_version`,
		uuid.NewString(), result.ClaimID, string(payload), generatedAt, result.EngineVersion,
	)
	if err != nil {
		return domain.NewPersistenceError("save recommendations", err)
	}
	return nil
}

// LatestRecommendations loads the most recent recommendation set for a
// claim. Scheme ids that are no longer in the catalog come back with a
// placeholder descriptor.
func (s *Store) LatestRecommendations(ctx context.Context, claimID string) (*dss.Result, error) {
	var (
		payload     []byte
		generatedAt time.Time
		version     string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT recommended_schemes, generated_at, engine_version
		FROM scheme_recommendations WHERE fra_claim_id = $1
		ORDER BY generated_at DESC LIMIT 1`,
		claimID,
	).Scan(&payload, &generatedAt, &version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("recommendations")
		}
		return nil, domain.NewPersistenceError("fetch recommendations", err)
	}

	var stored []storedRecommendation
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, domain.NewPersistenceError("decode recommendations", err)
	}

	result := &dss.Result{
		ClaimID:         claimID,
		Recommendations: make([]dss.Recommendation, 0, len(stored)),
		GeneratedAt:     generatedAt.UTC(),
		EngineVersion:   version,
	}
	for _, r := range stored {
		scheme, ok := schemes.GetByID(r.SchemeID)
		if !ok {
			scheme = schemes.Placeholder(r.SchemeID, r.SchemeName)
		}
		result.Recommendations = append(result.Recommendations, dss.Recommendation{
			Scheme:           scheme,
			RelevanceScore:   r.RelevanceScore,
			EligibilityMatch: r.EligibilityMatch,
			Reasoning:        r.Reasoning,
			Priority:         r.Priority,
		})
	}
	result.Tally()

	return result, nil
}

// Ping checks the underlying connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
