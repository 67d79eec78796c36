package cache

import "sync/atomic"

type CacheMetrics struct {
	hits          atomic.Int64
	misses        atomic.Int64
	errors        atomic.Int64
	sets          atomic.Int64
	invalidations atomic.Int64
}

type MetricsSnapshot struct {
	Hits          int64   `json:"hits"`
	Misses        int64   `json:"misses"`
	Errors        int64   `json:"errors"`
	Sets          int64   `json:"sets"`
	Invalidations int64   `json:"invalidations"`
	HitRate       float64 `json:"hit_rate"`
}

func (m *CacheMetrics) RecordHit()          { m.hits.Add(1) }
func (m *CacheMetrics) RecordMiss()         { m.misses.Add(1) }
func (m *CacheMetrics) RecordError()        { m.errors.Add(1) }
func (m *CacheMetrics) RecordSet()          { m.sets.Add(1) }
func (m *CacheMetrics) RecordInvalidation() { m.invalidations.Add(1) }

// Snapshot returns the counters and the hit rate as a percentage.
func (m *CacheMetrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		Hits:          m.hits.Load(),
		Misses:        m.misses.Load(),
		Errors:        m.errors.Load(),
		Sets:          m.sets.Load(),
		Invalidations: m.invalidations.Load(),
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total) * 100.0
	}
	return s
}
