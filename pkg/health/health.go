// Package health exposes liveness and readiness probes for the shipyard
// analysis server. Readiness aggregates named checks such as the part catalog
// and the image host circuit breaker.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"time"
)

// Status values reported by checks and the aggregate
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// DefaultTimeout bounds a readiness request
const DefaultTimeout = 5 * time.Second

// HealthCheck is a single named probe
type HealthCheck interface {
	Name() string
	Check(ctx context.Context) error
}

// CheckFunc adapts a function to HealthCheck
type CheckFunc struct {
	CheckName string
	Fn        func(ctx context.Context) error
}

// Name implements HealthCheck
func (c CheckFunc) Name() string { return c.CheckName }

// Check implements HealthCheck
func (c CheckFunc) Check(ctx context.Context) error { return c.Fn(ctx) }

// HealthStatus is the aggregate result served by the readiness probe
type HealthStatus struct {
	Status string                     `json:"status"`
	Checks map[string]ComponentHealth `json:"checks"`
}

// ComponentHealth is the result of one check
type ComponentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthChecker runs registered checks
type HealthChecker struct {
	checks  map[string]HealthCheck
	timeout time.Duration
	mu      sync.RWMutex
}

// NewHealthChecker creates an empty checker
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		checks:  make(map[string]HealthCheck),
		timeout: DefaultTimeout,
	}
}

// AddCheck registers check, replacing any check with the same name
func (hc *HealthChecker) AddCheck(check HealthCheck) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks[check.Name()] = check
}

// RemoveCheck removes a check by name
func (hc *HealthChecker) RemoveCheck(name string) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	delete(hc.checks, name)
}

// CheckHealth runs every check concurrently. The aggregate is healthy only
// when all checks pass.
func (hc *HealthChecker) CheckHealth(ctx context.Context) HealthStatus {
	hc.mu.RLock()
	checks := make([]HealthCheck, 0, len(hc.checks))
	for _, c := range hc.checks {
		checks = append(checks, c)
	}
	hc.mu.RUnlock()

	results := make([]error, len(checks))
	var wg sync.WaitGroup
	for i, c := range checks {
		wg.Add(1)
		go func(i int, c HealthCheck) {
			defer wg.Done()
			results[i] = c.Check(ctx)
		}(i, c)
	}
	wg.Wait()

	status := HealthStatus{
		Status: StatusHealthy,
		Checks: make(map[string]ComponentHealth, len(checks)),
	}
	for i, c := range checks {
		if err := results[i]; err != nil {
			status.Status = StatusUnhealthy
			status.Checks[c.Name()] = ComponentHealth{Status: StatusUnhealthy, Message: err.Error()}
			continue
		}
		status.Checks[c.Name()] = ComponentHealth{Status: StatusHealthy}
	}
	return status
}

// LivenessHandler answers 200 while the process can serve requests
func (hc *HealthChecker) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
}

// ReadinessHandler answers 200 when every check passes and 503 otherwise
func (hc *HealthChecker) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), hc.timeout)
	defer cancel()

	health := hc.CheckHealth(ctx)

	w.Header().Set("Content-Type", "application/json")
	if health.Status == StatusHealthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(health)
}

// CatalogHealthCheck fails when the part catalog is empty
type CatalogHealthCheck struct {
	size func() int
}

// NewCatalogHealthCheck creates a catalog check; size reports the number of
// known part types
func NewCatalogHealthCheck(size func() int) *CatalogHealthCheck {
	return &CatalogHealthCheck{size: size}
}

// Name implements HealthCheck
func (c *CatalogHealthCheck) Name() string {
	return "catalog"
}

// Check implements HealthCheck
func (c *CatalogHealthCheck) Check(ctx context.Context) error {
	if c.size() == 0 {
		return fmt.Errorf("part catalog is empty")
	}
	return nil
}

// BreakerHealthCheck fails while a circuit breaker is open
type BreakerHealthCheck struct {
	name  string
	state func() string
}

// NewBreakerHealthCheck reports the state of the named breaker. state
// returns the breaker state name, e.g. "closed", "half-open" or "open".
func NewBreakerHealthCheck(name string, state func() string) *BreakerHealthCheck {
	return &BreakerHealthCheck{name: name, state: state}
}

// Name implements HealthCheck
func (b *BreakerHealthCheck) Name() string {
	return b.name
}

// Check implements HealthCheck
func (b *BreakerHealthCheck) Check(ctx context.Context) error {
	if s := b.state(); s == "open" {
		return fmt.Errorf("circuit breaker %s is open", b.name)
	}
	return nil
}

// MemoryHealthCheck fails when heap usage passes a limit
type MemoryHealthCheck struct {
	maxMemoryMB    int64
	getMemoryUsage func() int64
}

// NewMemoryHealthCheck creates a memory check. A nil getMemoryUsage reads
// the Go runtime heap.
func NewMemoryHealthCheck(maxMemoryMB int64, getMemoryUsage func() int64) *MemoryHealthCheck {
	if getMemoryUsage == nil {
		getMemoryUsage = HeapAllocMB
	}
	return &MemoryHealthCheck{
		maxMemoryMB:    maxMemoryMB,
		getMemoryUsage: getMemoryUsage,
	}
}

// Name implements HealthCheck
func (m *MemoryHealthCheck) Name() string {
	return "memory"
}

// Check implements HealthCheck
func (m *MemoryHealthCheck) Check(ctx context.Context) error {
	currentMB := m.getMemoryUsage()
	if currentMB > m.maxMemoryMB {
		return fmt.Errorf("memory usage %dMB exceeds limit %dMB", currentMB, m.maxMemoryMB)
	}
	return nil
}

// HeapAllocMB returns the current heap allocation in megabytes
func HeapAllocMB() int64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return int64(ms.HeapAlloc / (1 << 20))
}
