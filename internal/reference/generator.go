package reference

import (
	"fmt"
	"sync"
	"time"
)

// Prefixes for the entity types that receive human-readable references.
const (
	PrefixTicket  = "TKT"
	PrefixInvoice = "INV"
	PrefixPayment = "PAY"
	PrefixUser    = "USR"
)

const dayFormat = "20060102"

// retention window for old day counters.
const retentionDays = 7

// Generator produces sequential references of the form PREFIX-YYYYMMDD-NNNN.
// Counters are keyed by calendar day and prefix and reset implicitly when the
// day changes. Construct one per process and hand it to services.
type Generator struct {
	mu       sync.Mutex
	counters map[string]map[string]int
	now      func() time.Time
}

// NewGenerator returns a generator using wall-clock time.
func NewGenerator() *Generator {
	return NewGeneratorWithClock(time.Now)
}

// NewGeneratorWithClock allows tests to pin the current day.
func NewGeneratorWithClock(now func() time.Time) *Generator {
	return &Generator{
		counters: make(map[string]map[string]int),
		now:      now,
	}
}

// Generate returns the next reference for the prefix on the current day.
func (g *Generator) Generate(prefix string) string {
	day := g.now().Format(dayFormat)

	g.mu.Lock()
	defer g.mu.Unlock()
	next := g.counters[day][prefix] + 1
	g.setLocked(day, prefix, next)
	return fmt.Sprintf("%s-%s-%04d", prefix, day, next)
}

// InitializeCounter seeds the counter for a day and prefix from a persisted
// count, so a restarted process does not reissue references.
func (g *Generator) InitializeCounter(prefix, day string, value int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.setLocked(day, prefix, value)
}

// CurrentCounter returns the last issued sequence number for the day, or 0.
func (g *Generator) CurrentCounter(prefix, day string) int {
	if day == "" {
		day = g.now().Format(dayFormat)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.counters[day][prefix]
}

// Reset drops all counter state.
func (g *Generator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counters = make(map[string]map[string]int)
}

// CleanOldCounters drops counters older than the retention window. Purely
// housekeeping; correctness does not depend on it.
func (g *Generator) CleanOldCounters() {
	cutoff := g.now().AddDate(0, 0, -retentionDays).Format(dayFormat)

	g.mu.Lock()
	defer g.mu.Unlock()
	for day := range g.counters {
		if day < cutoff {
			delete(g.counters, day)
		}
	}
}

func (g *Generator) setLocked(day, prefix string, value int) {
	if g.counters[day] == nil {
		g.counters[day] = make(map[string]int)
	}
	g.counters[day][prefix] = value
}
