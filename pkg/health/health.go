// Package health exposes liveness and readiness probes for a running
// simulation over HTTP.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"
)

// Probe paths served by Mux
const (
	LivePath  = "/health/live"
	ReadyPath = "/health/ready"
)

// Check is one component's health probe
type Check interface {
	// Name is unique among the checks of a Checker
	Name() string
	Check(ctx context.Context) error
}

// Status is the aggregated report served by the readiness probe
type Status struct {
	Status string                     `json:"status"`
	Checks map[string]ComponentStatus `json:"checks"`
}

// ComponentStatus is the result of a single check
type ComponentStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Checker runs a set of named checks
type Checker struct {
	checks  map[string]Check
	timeout time.Duration
	mu      sync.RWMutex
}

// NewChecker creates a checker whose readiness probe gives all checks
// timeout to finish. A non-positive timeout means five seconds.
func NewChecker(timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Checker{
		checks:  make(map[string]Check),
		timeout: timeout,
	}
}

// AddCheck registers check, replacing any check with the same name
func (c *Checker) AddCheck(check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[check.Name()] = check
}

// RemoveCheck unregisters a check by name
func (c *Checker) RemoveCheck(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.checks, name)
}

// Names returns the registered check names in order
func (c *Checker) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes every check. The result is healthy only when all pass.
func (c *Checker) Run(ctx context.Context) Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := Status{
		Status: "healthy",
		Checks: make(map[string]ComponentStatus, len(c.checks)),
	}
	for name, check := range c.checks {
		if err := check.Check(ctx); err != nil {
			status.Status = "unhealthy"
			status.Checks[name] = ComponentStatus{Status: "unhealthy", Message: err.Error()}
			continue
		}
		status.Checks[name] = ComponentStatus{Status: "healthy"}
	}
	return status
}

// LivenessHandler answers 200 as long as the process can serve HTTP
func (c *Checker) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ReadinessHandler runs all checks and answers 200 when healthy, 503 otherwise
func (c *Checker) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
	defer cancel()

	status := c.Run(ctx)
	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

// Mux routes both probes
func (c *Checker) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc(LivePath, c.LivenessHandler)
	mux.HandleFunc(ReadyPath, c.ReadinessHandler)
	return mux
}

// Serve listens on addr until ctx is cancelled, then shuts the server down
func (c *Checker) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("health listener: %w", err)
	}
	return c.serve(ctx, ln)
}

func (c *Checker) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           c.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("health shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

// SimulationCheck fails when the simulation is stopped or has not ticked
// within maxStall.
type SimulationCheck struct {
	running  func() bool
	lastTick func() time.Time
	maxStall time.Duration
	now      func() time.Time
}

// NewSimulationCheck creates a check over the simulation's run state.
// A non-positive maxStall disables the stall test.
func NewSimulationCheck(running func() bool, lastTick func() time.Time, maxStall time.Duration) *SimulationCheck {
	return &SimulationCheck{
		running:  running,
		lastTick: lastTick,
		maxStall: maxStall,
		now:      time.Now,
	}
}

// Name returns "simulation"
func (s *SimulationCheck) Name() string {
	return "simulation"
}

// Check verifies the tick loop is alive
func (s *SimulationCheck) Check(ctx context.Context) error {
	if !s.running() {
		return errors.New("simulation is not running")
	}
	if s.maxStall <= 0 {
		return nil
	}
	last := s.lastTick()
	if last.IsZero() {
		return errors.New("simulation has not ticked yet")
	}
	if stall := s.now().Sub(last); stall > s.maxStall {
		return fmt.Errorf("no tick for %s (limit %s)", stall.Round(time.Millisecond), s.maxStall)
	}
	return nil
}

// FeedbackCheck fails while the effect output's circuit breaker is open
type FeedbackCheck struct {
	open    func() bool
	dropped func() uint64
}

// NewFeedbackCheck creates a check over the feedback breaker. dropped may be nil.
func NewFeedbackCheck(open func() bool, dropped func() uint64) *FeedbackCheck {
	return &FeedbackCheck{open: open, dropped: dropped}
}

// Name returns "feedback"
func (f *FeedbackCheck) Name() string {
	return "feedback"
}

// Check reports an open breaker
func (f *FeedbackCheck) Check(ctx context.Context) error {
	if !f.open() {
		return nil
	}
	if f.dropped != nil {
		return fmt.Errorf("feedback circuit open, %d effects dropped", f.dropped())
	}
	return errors.New("feedback circuit open")
}

// MemoryCheck fails when memory use goes over a limit
type MemoryCheck struct {
	maxMemoryMB    int64
	getMemoryUsage func() int64
}

// NewMemoryCheck creates a memory check; getMemoryUsage reports megabytes
func NewMemoryCheck(maxMemoryMB int64, getMemoryUsage func() int64) *MemoryCheck {
	return &MemoryCheck{
		maxMemoryMB:    maxMemoryMB,
		getMemoryUsage: getMemoryUsage,
	}
}

// Name returns "memory"
func (m *MemoryCheck) Name() string {
	return "memory"
}

// Check compares current usage against the limit
func (m *MemoryCheck) Check(ctx context.Context) error {
	if current := m.getMemoryUsage(); current > m.maxMemoryMB {
		return fmt.Errorf("memory usage %dMB exceeds limit %dMB", current, m.maxMemoryMB)
	}
	return nil
}
