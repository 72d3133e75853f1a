package jobs

import (
	"context"
	"sort"
	"time"

	"github.com/fraatlas/backend/pkg/cache"
	"github.com/fraatlas/backend/pkg/logger"
	"github.com/fraatlas/backend/pkg/models"
)

// CoverageSource reports recommendation coverage of pending claims
type CoverageSource interface {
	Coverage(ctx context.Context) ([]models.Coverage, error)
}

// RunLocker stores run locks. Add must be atomic and honour ttl exactly;
// cache.MemoryCache and the redis cache.Client both qualify.
type RunLocker interface {
	Add(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, keys ...string) error
}

// CoverageMonitor finds localities whose pending claims lack
// recommendations and guards bulk runs against overlapping
type CoverageMonitor struct {
	source CoverageSource
	locks  RunLocker
	logger logger.Logger
}

// NewCoverageMonitor creates a new coverage monitor. A nil locks keeps run
// locks inside this process.
func NewCoverageMonitor(source CoverageSource, locks RunLocker, log logger.Logger) *CoverageMonitor {
	if log == nil {
		log = logger.Nop()
	}
	if locks == nil {
		locks = cache.NewMemoryCache(0, 0)
	}
	return &CoverageMonitor{
		source: source,
		locks:  locks,
		logger: log,
	}
}

// DetectBacklog returns localities with uncovered pending claims, largest
// backlog first
func (m *CoverageMonitor) DetectBacklog(ctx context.Context) ([]models.Coverage, error) {
	all, err := m.source.Coverage(ctx)
	if err != nil {
		return nil, err
	}

	var backlog []models.Coverage
	for _, c := range all {
		if c.Missing() > 0 {
			backlog = append(backlog, c)
		}
	}
	sort.SliceStable(backlog, func(i, j int) bool {
		return backlog[i].Missing() > backlog[j].Missing()
	})

	m.logger.Debug("coverage backlog detected", "localities", len(backlog))
	return backlog, nil
}

// Stats summarises coverage across every locality
func (m *CoverageMonitor) Stats(ctx context.Context) (map[string]interface{}, error) {
	all, err := m.source.Coverage(ctx)
	if err != nil {
		return nil, err
	}

	pending, covered := 0, 0
	for _, c := range all {
		pending += c.Pending
		covered += c.Covered
	}
	return map[string]interface{}{
		"localities":     len(all),
		"pending_claims": pending,
		"covered_claims": covered,
		"missing_claims": pending - covered,
	}, nil
}

// RunLockKey is the key marking a bulk run in progress
func (m *CoverageMonitor) RunLockKey(district, state string) string {
	return "dss:bulk:running:" + state + ":" + district
}

// TryLockRun takes the run lock for a locality scope if nobody holds it. ttl
// bounds a lock left behind by a crashed process.
func (m *CoverageMonitor) TryLockRun(ctx context.Context, district, state string, ttl time.Duration) (bool, error) {
	return m.locks.Add(ctx, m.RunLockKey(district, state), time.Now().UTC().Format(time.RFC3339), ttl)
}

// ReleaseRun releases the run lock
func (m *CoverageMonitor) ReleaseRun(ctx context.Context, district, state string) error {
	return m.locks.Delete(ctx, m.RunLockKey(district, state))
}
