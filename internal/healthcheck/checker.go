package healthcheck

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Reports an error when the dependency is not usable
type Probe func(ctx context.Context) error

type probe struct {
	name     string
	critical bool
	fn       Probe
}

// Runs registered dependency probes periodically and keeps the latest result
// of each. A failing critical probe makes the service unhealthy; a failing
// optional one only degrades it.
type Checker struct {
	mu          sync.RWMutex
	probes      []probe
	status      map[string]*Status
	interval    time.Duration
	timeout     time.Duration
	maxFailures int
	stopChan    chan struct{}
	running     bool
	log         logrus.FieldLogger
}

type Config struct {
	Interval    time.Duration // How often to check (default: 10s)
	Timeout     time.Duration // Per-probe timeout (default: 2s)
	MaxFailures int           // Failures before marking unhealthy (default: 1)
}

func NewChecker(cfg Config, log logrus.FieldLogger) *Checker {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 1
	}

	return &Checker{
		status:      make(map[string]*Status),
		interval:    cfg.Interval,
		timeout:     cfg.Timeout,
		maxFailures: cfg.MaxFailures,
		stopChan:    make(chan struct{}),
		log:         log,
	}
}

// Adds a probe. Probes start out healthy until their first check.
func (c *Checker) Register(name string, critical bool, fn Probe) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.probes = append(c.probes, probe{name: name, critical: critical, fn: fn})
	c.status[name] = &Status{
		Name:      name,
		Critical:  critical,
		IsHealthy: true,
		LastCheck: time.Now(),
	}
}

// Begins periodic checks
func (c *Checker) Start() {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.mu.Unlock()

	c.log.WithFields(logrus.Fields{
		"probes":   len(c.probes),
		"interval": c.interval.String(),
	}).Info("starting health checks")

	c.CheckAll(context.Background())

	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.CheckAll(context.Background())
			case <-c.stopChan:
				return
			}
		}
	}()
}

func (c *Checker) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		close(c.stopChan)
		c.running = false
		c.log.Info("health checker stopped")
	}
}

// Runs every probe concurrently and waits for all of them
func (c *Checker) CheckAll(ctx context.Context) {
	c.mu.RLock()
	probes := make([]probe, len(c.probes))
	copy(probes, c.probes)
	c.mu.RUnlock()

	var wg sync.WaitGroup
	for _, p := range probes {
		wg.Add(1)
		go func(p probe) {
			defer wg.Done()
			c.check(ctx, p)
		}(p)
	}
	wg.Wait()
}

func (c *Checker) check(ctx context.Context, p probe) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := p.fn(ctx); err != nil {
		c.recordFailure(p.name, err)
		return
	}
	c.recordSuccess(p.name)
}

func (c *Checker) recordSuccess(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := c.status[name]
	status.LastCheck = time.Now()
	status.LastSuccess = status.LastCheck
	status.LastError = ""
	status.FailureCount = 0

	if !status.IsHealthy {
		c.log.WithField("probe", name).Info("dependency is healthy again")
		status.IsHealthy = true
	}
}

func (c *Checker) recordFailure(name string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := c.status[name]
	status.LastCheck = time.Now()
	status.LastFailure = status.LastCheck
	status.LastError = err.Error()
	status.FailureCount++

	if status.IsHealthy && status.FailureCount >= c.maxFailures {
		c.log.WithError(err).WithFields(logrus.Fields{
			"probe":    name,
			"failures": status.FailureCount,
		}).Warn("dependency is unhealthy")
		status.IsHealthy = false
	}
}

// Returns copies of every probe status
func (c *Checker) GetAllStatus() map[string]Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]Status, len(c.status))
	for name, status := range c.status {
		out[name] = *status
	}
	return out
}

func (c *Checker) OverallHealth() HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	overall := Healthy
	for _, status := range c.status {
		if status.IsHealthy {
			continue
		}
		if status.Critical {
			return Unhealthy
		}
		overall = Degraded
	}
	return overall
}
