// Package testdata generates realistic claim and asset fixtures.
package testdata

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/fraatlas/backend/pkg/models"
)

// ClaimGeneratorConfig configures claim generation parameters
type ClaimGeneratorConfig struct {
	Count    int
	State    string // random when empty
	District string // random within State when empty
	Seed     int64  // 0 means a random seed

	MinArea          float64 // hectares
	MaxArea          float64
	AssetChance      float64 // 0.0-1.0 probability of each asset type per village
	ApprovedChance   float64
	SubmittedWithin  time.Duration
	VillagesPerClaim int // claims sharing a village; 1 means every claim gets its own
}

// DefaultConfig returns the distribution used by `dss seed`
func DefaultConfig(count int) ClaimGeneratorConfig {
	return ClaimGeneratorConfig{
		Count:            count,
		MinArea:          0.2,
		MaxArea:          6.0,
		AssetChance:      0.5,
		ApprovedChance:   0.1,
		SubmittedWithin:  180 * 24 * time.Hour,
		VillagesPerClaim: 3,
	}
}

// LocationData maps forest-rights states to districts and their villages
var LocationData = map[string]map[string][]string{
	"Jharkhand": {
		"Ranchi":  {"Khunti", "Bundu", "Tamar", "Sonahatu", "Angara"},
		"Gumla":   {"Sisai", "Bishunpur", "Ghaghra", "Raidih", "Palkot"},
		"Simdega": {"Kolebira", "Bano", "Jaldega", "Thethaitangar"},
	},
	"Odisha": {
		"Koraput":    {"Lamtaput", "Nandapur", "Pottangi", "Semiliguda"},
		"Mayurbhanj": {"Jashipur", "Karanjia", "Thakurmunda", "Bisoi"},
	},
	"Madhya Pradesh": {
		"Mandla":  {"Bichhiya", "Niwas", "Nainpur", "Ghughari"},
		"Dindori": {"Samnapur", "Bajag", "Karanjiya", "Shahpura"},
	},
	"Tripura": {
		"Dhalai":        {"Ambassa", "Manu", "Chhamanu", "Salema"},
		"North Tripura": {"Kanchanpur", "Panisagar", "Dasda"},
	},
}

// Generator creates fixtures from a seeded faker
type Generator struct {
	faker  *gofakeit.Faker
	config ClaimGeneratorConfig
}

// NewGenerator creates a generator for the config
func NewGenerator(config ClaimGeneratorConfig) *Generator {
	if config.MaxArea <= config.MinArea {
		config.MaxArea = config.MinArea + 1
	}
	if config.MinArea <= 0 {
		config.MinArea = 0.1
	}
	if config.VillagesPerClaim <= 0 {
		config.VillagesPerClaim = 1
	}
	if config.SubmittedWithin <= 0 {
		config.SubmittedWithin = 24 * time.Hour
	}
	return &Generator{
		faker:  gofakeit.New(config.Seed),
		config: config,
	}
}

// Fixture is a generated claim set with the asset maps of its villages
type Fixture struct {
	Claims []models.Claim
	Assets []models.AssetRecord
}

type village struct {
	name, district, state string
}

// Generate builds Count claims and the assets of the villages they fall in
func (g *Generator) Generate() Fixture {
	var (
		fx      Fixture
		current village
		seen    = map[village]bool{}
	)

	for i := 0; i < g.config.Count; i++ {
		if i%g.config.VillagesPerClaim == 0 {
			current = g.pickVillage()
		}

		fx.Claims = append(fx.Claims, g.claim(current))

		if !seen[current] {
			seen[current] = true
			fx.Assets = append(fx.Assets, g.assets(current)...)
		}
	}
	return fx
}

func (g *Generator) pickVillage() village {
	state := g.config.State
	if state == "" {
		state = g.faker.RandomString(sortedKeys(LocationData))
	}

	districts := LocationData[state]
	district := g.config.District
	if district == "" {
		if len(districts) == 0 {
			district = g.faker.City()
		} else {
			district = g.faker.RandomString(sortedKeys(districts))
		}
	}

	name := g.faker.City()
	if villages := districts[district]; len(villages) > 0 {
		name = g.faker.RandomString(villages)
	}
	return village{name: name, district: district, state: state}
}

func (g *Generator) claim(v village) models.Claim {
	claimType := models.ClaimTypeIFR
	switch n := g.faker.IntRange(1, 10); {
	case n == 10:
		claimType = models.ClaimTypeCFR
	case n >= 8:
		claimType = models.ClaimTypeCR
	}

	area := g.faker.Float64Range(g.config.MinArea, g.config.MaxArea)
	if claimType == models.ClaimTypeCFR {
		area *= 10
	}

	status := models.ClaimStatusPending
	if g.faker.Float64() < g.config.ApprovedChance {
		status = models.ClaimStatusApproved
	}

	now := time.Now().UTC()
	submitted := g.faker.DateRange(now.Add(-g.config.SubmittedWithin), now).UTC()

	return models.Claim{
		ID:           g.faker.UUID(),
		UserID:       g.faker.UUID(),
		VillageName:  v.name,
		District:     v.district,
		State:        v.state,
		ClaimType:    claimType,
		AreaHectares: float64(int(area*100)) / 100,
		Status:       status,
		SubmittedAt:  submitted,
	}
}

func (g *Generator) assets(v village) []models.AssetRecord {
	var out []models.AssetRecord
	for _, t := range models.AllAssetTypes {
		if g.faker.Float64() >= g.config.AssetChance {
			continue
		}
		lat := g.faker.Float64Range(20, 25)
		lon := g.faker.Float64Range(82, 87)
		geo, _ := json.Marshal(map[string]interface{}{
			"type":        "Point",
			"coordinates": []float64{lon, lat},
		})
		out = append(out, models.AssetRecord{
			ID:          g.faker.UUID(),
			VillageName: v.name,
			District:    v.district,
			State:       v.state,
			AssetType:   t,
			GeoJSON:     geo,
			Source:      "fixture",
		})
	}
	return out
}

// Writer persists fixtures
type Writer interface {
	CreateClaim(ctx context.Context, c *models.Claim) error
	CreateAsset(ctx context.Context, a *models.AssetRecord) error
}

// Insert writes a fixture, stopping at the first failure
func Insert(ctx context.Context, w Writer, fx Fixture) error {
	for i := range fx.Assets {
		if err := w.CreateAsset(ctx, &fx.Assets[i]); err != nil {
			return fmt.Errorf("failed to insert asset %d: %w", i, err)
		}
	}
	for i := range fx.Claims {
		if err := w.CreateClaim(ctx, &fx.Claims[i]); err != nil {
			return fmt.Errorf("failed to insert claim %d: %w", i, err)
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
