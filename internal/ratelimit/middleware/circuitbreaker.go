package middleware

import "sync"

// circuitBreaker tracks consecutive limiter store errors so a Redis outage
// degrades to the in-memory fallback instead of failing every check:
// open after N consecutive failures, close again after M consecutive
// successful primary checks.
type circuitBreaker struct {
	mu               sync.Mutex
	open             bool
	failureCount     int
	successCount     int
	probeCount       int
	failureThreshold int
	successThreshold int
}

// probeEvery is how many open-circuit checks pass between primary probes.
const probeEvery = 10

func newCircuitBreaker() *circuitBreaker {
	return &circuitBreaker{
		failureThreshold: 5,
		successThreshold: 3,
	}
}

// ShouldProbe reports whether an open circuit should test the primary on
// this check. Probes are what let the circuit close again.
func (c *circuitBreaker) ShouldProbe() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return false
	}
	c.probeCount++
	return c.probeCount%probeEvery == 0
}

func (c *circuitBreaker) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *circuitBreaker) RecordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failureCount++
	c.successCount = 0
	if !c.open && c.failureCount >= c.failureThreshold {
		c.open = true
	}
}

func (c *circuitBreaker) RecordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.open {
		c.successCount++
		if c.successCount >= c.successThreshold {
			c.open = false
			c.failureCount = 0
			c.successCount = 0
		}
		return
	}
	c.failureCount = 0
}
