package monitoring

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	StatusDegraded  = "degraded"
)

type HealthCheckFunc func(ctx context.Context) error

// StatsFunc contributes a named section to the metrics document.
type StatsFunc func() map[string]interface{}

type HealthCheck struct {
	Name     string    `json:"name"`
	Status   string    `json:"status"`
	Critical bool      `json:"critical"`
	Message  string    `json:"message,omitempty"`
	LastRun  time.Time `json:"last_run"`
	Duration string    `json:"duration"`
}

type registeredCheck struct {
	fn       HealthCheckFunc
	critical bool
}

type Metrics struct {
	RequestCount      int64            `json:"request_count"`
	AvgRequestMillis  float64          `json:"avg_request_duration_ms"`
	ActiveRequests    int64            `json:"active_requests"`
	ErrorCount        int64            `json:"error_count"`
	StatusCodes       map[string]int64 `json:"status_codes"`
	Endpoints         map[string]int64 `json:"endpoint_calls"`
	StartTime         time.Time        `json:"start_time"`
	LastRequest       time.Time        `json:"last_request"`
	totalDurationNano int64
}

// Monitor owns request metrics, health checks and extra stats providers for
// one server instance.
type Monitor struct {
	mu      sync.Mutex
	metrics Metrics

	checksMu     sync.RWMutex
	checks       map[string]registeredCheck
	stats        map[string]StatsFunc
	checkTimeout time.Duration
}

func NewMonitor() *Monitor {
	return &Monitor{
		metrics: Metrics{
			StatusCodes: make(map[string]int64),
			Endpoints:   make(map[string]int64),
			StartTime:   time.Now(),
		},
		checks:       make(map[string]registeredCheck),
		stats:        make(map[string]StatsFunc),
		checkTimeout: 3 * time.Second,
	}
}

// RegisterHealthCheck adds a check run on every health or readiness probe.
// A failing non-critical check degrades the status without failing it.
func (m *Monitor) RegisterHealthCheck(name string, fn HealthCheckFunc, critical bool) {
	m.checksMu.Lock()
	defer m.checksMu.Unlock()
	m.checks[name] = registeredCheck{fn: fn, critical: critical}
}

func (m *Monitor) RegisterStats(name string, fn StatsFunc) {
	m.checksMu.Lock()
	defer m.checksMu.Unlock()
	m.stats[name] = fn
}

func (m *Monitor) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		m.mu.Lock()
		m.metrics.ActiveRequests++
		m.mu.Unlock()

		// A panic is re-raised for the recovery middleware and counted as a 500.
		defer func() {
			statusCode := c.Writer.Status()
			if r := recover(); r != nil {
				statusCode = http.StatusInternalServerError
				m.record(c, start, statusCode)
				panic(r)
			}
			m.record(c, start, statusCode)
		}()

		c.Next()
	}
}

func (m *Monitor) record(c *gin.Context, start time.Time, statusCode int) {
	duration := time.Since(start)
	endpoint := c.Request.Method + " " + c.FullPath()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.metrics.RequestCount++
	m.metrics.ActiveRequests--
	m.metrics.totalDurationNano += duration.Nanoseconds()
	m.metrics.AvgRequestMillis = float64(m.metrics.totalDurationNano) / float64(m.metrics.RequestCount) / 1e6
	m.metrics.LastRequest = time.Now()

	if statusCode >= 400 {
		m.metrics.ErrorCount++
	}
	m.metrics.StatusCodes[statusLabel(statusCode)]++
	m.metrics.Endpoints[endpoint]++
}

func statusLabel(code int) string {
	if text := http.StatusText(code); text != "" {
		return text
	}
	return strconv.Itoa(code)
}

func (m *Monitor) Snapshot() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.metrics
	snapshot.StatusCodes = make(map[string]int64, len(m.metrics.StatusCodes))
	snapshot.Endpoints = make(map[string]int64, len(m.metrics.Endpoints))
	for k, v := range m.metrics.StatusCodes {
		snapshot.StatusCodes[k] = v
	}
	for k, v := range m.metrics.Endpoints {
		snapshot.Endpoints[k] = v
	}
	return snapshot
}

// RunHealthChecks executes every registered check concurrently and returns
// the overall status with per-check results.
func (m *Monitor) RunHealthChecks(ctx context.Context) (string, []HealthCheck) {
	m.checksMu.RLock()
	names := make([]string, 0, len(m.checks))
	for name := range m.checks {
		names = append(names, name)
	}
	checks := make(map[string]registeredCheck, len(m.checks))
	for k, v := range m.checks {
		checks[k] = v
	}
	m.checksMu.RUnlock()
	sort.Strings(names)

	results := make([]HealthCheck, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string, check registeredCheck) {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(ctx, m.checkTimeout)
			defer cancel()

			start := time.Now()
			result := HealthCheck{Name: name, Status: StatusHealthy, Critical: check.critical, LastRun: start}
			if err := check.fn(ctx); err != nil {
				result.Status = StatusUnhealthy
				result.Message = err.Error()
			}
			result.Duration = time.Since(start).String()
			results[i] = result
		}(i, name, checks[name])
	}
	wg.Wait()

	overall := StatusHealthy
	for _, r := range results {
		if r.Status == StatusHealthy {
			continue
		}
		if r.Critical {
			overall = StatusUnhealthy
			break
		}
		overall = StatusDegraded
	}
	return overall, results
}

type SystemMetrics struct {
	Uptime         string      `json:"uptime"`
	MemoryUsage    MemoryStats `json:"memory"`
	GoroutineCount int         `json:"goroutine_count"`
	CPUCount       int         `json:"cpu_count"`
	GoVersion      string      `json:"go_version"`
}

type MemoryStats struct {
	Alloc      uint64 `json:"alloc_mb"`
	TotalAlloc uint64 `json:"total_alloc_mb"`
	Sys        uint64 `json:"sys_mb"`
	NumGC      uint32 `json:"num_gc"`
}

func (m *Monitor) SystemMetrics() SystemMetrics {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	return SystemMetrics{
		Uptime: time.Since(m.metrics.StartTime).String(),
		MemoryUsage: MemoryStats{
			Alloc:      bToMb(ms.Alloc),
			TotalAlloc: bToMb(ms.TotalAlloc),
			Sys:        bToMb(ms.Sys),
			NumGC:      ms.NumGC,
		},
		GoroutineCount: runtime.NumGoroutine(),
		CPUCount:       runtime.NumCPU(),
		GoVersion:      runtime.Version(),
	}
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}

func (m *Monitor) MetricsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		response := gin.H{
			"application": m.Snapshot(),
			"system":      m.SystemMetrics(),
			"timestamp":   time.Now(),
		}

		m.checksMu.RLock()
		for name, fn := range m.stats {
			response[name] = fn()
		}
		m.checksMu.RUnlock()

		c.JSON(http.StatusOK, response)
	}
}

func (m *Monitor) HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		overall, checks := m.RunHealthChecks(c.Request.Context())

		status := http.StatusOK
		if overall == StatusUnhealthy {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"status":    overall,
			"timestamp": time.Now(),
			"checks":    checks,
			"uptime":    time.Since(m.metrics.StartTime).String(),
		})
	}
}

func (m *Monitor) ReadinessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		overall, _ := m.RunHealthChecks(c.Request.Context())

		if overall == StatusUnhealthy {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "not ready",
				"timestamp": time.Now(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now(),
		})
	}
}

func (m *Monitor) LivenessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "alive",
			"timestamp": time.Now(),
			"uptime":    time.Since(m.metrics.StartTime).String(),
		})
	}
}
