package metrics

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

const (
	EventInvoiceGenerated  = "invoices.generated"
	EventInvoiceDuplicate  = "invoices.duplicate"
	EventWeeklyCreated     = "timesheets.weekly.created"
	EventWeeklyDecided     = "timesheets.weekly.decided"
	EventPeriodAggregated  = "timesheets.period.aggregated"
	EventOverdueSwept      = "invoices.overdue_swept"
	EventIdempotentReplays = "idempotency.replayed"
)

// Collector keeps process-local request and domain counters.
type Collector struct {
	totalRequests   atomic.Uint64
	clientErrors    atomic.Uint64
	serverErrors    atomic.Uint64
	rateLimited     atomic.Uint64
	totalDurationMs atomic.Uint64

	mu     sync.Mutex
	events map[string]uint64
}

func New() *Collector {
	return &Collector{events: map[string]uint64{}}
}

func (c *Collector) Record(status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.totalRequests.Add(1)
	switch {
	case status == http.StatusTooManyRequests:
		c.rateLimited.Add(1)
		c.clientErrors.Add(1)
	case status >= 500:
		c.serverErrors.Add(1)
	case status >= 400:
		c.clientErrors.Add(1)
	}
	c.totalDurationMs.Add(uint64(duration.Milliseconds()))
}

func (c *Collector) Count(event string, n uint64) {
	if c == nil || n == 0 {
		return
	}
	c.mu.Lock()
	c.events[event] += n
	c.mu.Unlock()
}

func (c *Collector) Snapshot() map[string]any {
	total := c.totalRequests.Load()
	totalMs := c.totalDurationMs.Load()
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}

	c.mu.Lock()
	events := make(map[string]uint64, len(c.events))
	for k, v := range c.events {
		events[k] = v
	}
	c.mu.Unlock()

	return map[string]any{
		"requestsTotal":     total,
		"clientErrorsTotal": c.clientErrors.Load(),
		"serverErrorsTotal": c.serverErrors.Load(),
		"rateLimitedTotal":  c.rateLimited.Load(),
		"avgDurationMs":     avg,
		"totalDurationMs":   totalMs,
		"events":            events,
	}
}
