// Package dss implements the decision support engine that scores a forest
// rights claim against the scheme catalog and ranks the results.
package dss

import (
	"sort"
	"strings"
	"time"

	"github.com/fraatlas/backend/pkg/models"
	"github.com/fraatlas/backend/pkg/schemes"
)

// EngineVersion is stamped on every generated recommendation set.
// Bump it whenever the rule table changes.
const EngineVersion = "v1.0.0"

// Scoring thresholds
const (
	InclusionThreshold = 0.3
	MaxScore           = 1.0

	// Applied when a scheme has no rule of its own
	FallbackScore = 0.1
	CategoryBonus = 0.2

	HighPriorityScore   = 0.8
	MediumPriorityScore = 0.5
	// Non-eligible schemes still reach medium at this score
	StrongMatchScore = 0.7
)

// Priority is the coarse strength bucket of a recommendation
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Recommendation pairs one scheme with one claim.
type Recommendation struct {
	Scheme           schemes.Scheme `json:"scheme" yaml:"scheme"`
	RelevanceScore   float64        `json:"relevance_score" yaml:"relevance_score"`
	EligibilityMatch bool           `json:"eligibility_match" yaml:"eligibility_match"`
	Reasoning        string         `json:"reasoning" yaml:"reasoning"`
	Priority         Priority       `json:"priority" yaml:"priority"`
}

// Result is the full recommendation set for a claim.
type Result struct {
	ClaimID             string           `json:"claim_id" yaml:"claim_id"`
	Recommendations     []Recommendation `json:"recommendations" yaml:"recommendations"`
	TotalSchemes        int              `json:"total_schemes" yaml:"total_schemes"`
	HighPriorityCount   int              `json:"high_priority_count" yaml:"high_priority_count"`
	MediumPriorityCount int              `json:"medium_priority_count" yaml:"medium_priority_count"`
	LowPriorityCount    int              `json:"low_priority_count" yaml:"low_priority_count"`
	GeneratedAt         time.Time        `json:"generated_at" yaml:"generated_at"`
	EngineVersion       string           `json:"engine_version" yaml:"engine_version"`
}

// Engine evaluates claims against a scheme catalog. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	catalog []schemes.Scheme
	rules   map[string]rule
}

// NewEngine creates an engine over the built-in scheme catalog.
func NewEngine() *Engine {
	return NewEngineWithCatalog(schemes.All())
}

// NewEngineWithCatalog creates an engine over a custom catalog. Schemes
// without a rule score the fallback only.
func NewEngineWithCatalog(catalog []schemes.Scheme) *Engine {
	return &Engine{
		catalog: catalog,
		rules:   defaultRules,
	}
}

// Evaluate scores every catalog scheme and returns those above the
// inclusion threshold, in catalog order.
func (e *Engine) Evaluate(claim models.Claim, assets []models.AssetRecord) []Recommendation {
	in := newInput(claim, assets)

	recs := make([]Recommendation, 0, len(e.catalog))
	for _, scheme := range e.catalog {
		rec := e.evaluateScheme(scheme, in)
		if rec.RelevanceScore > InclusionThreshold {
			recs = append(recs, rec)
		}
	}
	return recs
}

// Generate evaluates a claim and builds the ranked recommendation set.
func (e *Engine) Generate(claim models.Claim, assets []models.AssetRecord, now time.Time) Result {
	recs := e.Evaluate(claim, assets)
	Rank(recs)

	result := Result{
		ClaimID:         claim.ID,
		Recommendations: recs,
		GeneratedAt:     now.UTC(),
		EngineVersion:   EngineVersion,
	}
	result.Tally()
	return result
}

// HasRule reports whether a scheme id has a dedicated rule
func (e *Engine) HasRule(schemeID string) bool {
	_, ok := e.rules[schemeID]
	return ok
}

// Rank sorts recommendations by relevance score, highest first. Equal
// scores keep their relative order.
func Rank(recs []Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].RelevanceScore > recs[j].RelevanceScore
	})
}

// Tally recomputes the total and per-priority counts from Recommendations.
func (r *Result) Tally() {
	r.TotalSchemes = len(r.Recommendations)
	r.HighPriorityCount, r.MediumPriorityCount, r.LowPriorityCount = 0, 0, 0
	for _, rec := range r.Recommendations {
		switch rec.Priority {
		case PriorityHigh:
			r.HighPriorityCount++
		case PriorityMedium:
			r.MediumPriorityCount++
		default:
			r.LowPriorityCount++
		}
	}
}

func (e *Engine) evaluateScheme(scheme schemes.Scheme, in input) Recommendation {
	var ev evaluation

	if apply, ok := e.rules[scheme.ID]; ok {
		apply(in, &ev)
	} else {
		ev.score += FallbackScore
	}

	// Category bonus adds no reasoning text.
	if scheme.Category == schemes.CategoryAgriculture && in.has(models.AssetTypeAgriculture) {
		ev.score += CategoryBonus
	}
	if scheme.Category == schemes.CategoryForest && in.has(models.AssetTypeForest) {
		ev.score += CategoryBonus
	}

	return Recommendation{
		Scheme:           scheme,
		RelevanceScore:   min(ev.score, MaxScore),
		EligibilityMatch: ev.eligible,
		Reasoning:        strings.Join(ev.reasons, "; "),
		Priority:         priorityFor(ev.score, ev.eligible),
	}
}

// priorityFor uses the raw, unclamped score.
func priorityFor(score float64, eligible bool) Priority {
	switch {
	case eligible && score >= HighPriorityScore:
		return PriorityHigh
	case eligible && score >= MediumPriorityScore:
		return PriorityMedium
	case score >= StrongMatchScore:
		return PriorityMedium
	default:
		return PriorityLow
	}
}
