package observability

import (
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Metrics keeps in-memory request and domain counters, served on /metrics.
type Metrics struct {
	mu           sync.Mutex
	started      time.Time
	requestCount map[string]int64
	requestTime  map[string]time.Duration
	errorCount   map[string]int64
	purchases    map[string]int64
	sweeps       SweepTotals
	removed      decimal.Decimal
}

// SweepTotals accumulates point expiry sweep outcomes.
type SweepTotals struct {
	Runs          int64  `json:"runs"`
	Expired       int64  `json:"expired"`
	Failed        int64  `json:"failed"`
	PointsRemoved string `json:"points_removed"`
}

// RequestStat is one route entry of a snapshot.
type RequestStat struct {
	Route     string  `json:"route"`
	Count     int64   `json:"count"`
	AvgMillis float64 `json:"avg_ms"`
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	UptimeSeconds int64            `json:"uptime_seconds"`
	Requests      []RequestStat    `json:"requests"`
	Errors        map[string]int64 `json:"errors"`
	Purchases     map[string]int64 `json:"purchases"`
	Sweeps        SweepTotals      `json:"sweeps"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		started:      time.Now(),
		requestCount: make(map[string]int64),
		requestTime:  make(map[string]time.Duration),
		errorCount:   make(map[string]int64),
		purchases:    make(map[string]int64),
		removed:      decimal.Zero,
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.requestTime[key] += duration
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordPurchase counts a purchase attempt by outcome, e.g. "completed" or
// an error code such as "NO_CAPACITY".
func (m *Metrics) RecordPurchase(outcome string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purchases[outcome]++
}

// RecordSweep adds one expiry sweep to the totals.
func (m *Metrics) RecordSweep(expired, failed int, removed decimal.Decimal) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweeps.Runs++
	m.sweeps.Expired += int64(expired)
	m.sweeps.Failed += int64(failed)
	m.removed = m.removed.Add(removed)
}

// Snapshot copies the current counters. Requests are sorted by route key.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		UptimeSeconds: int64(time.Since(m.started).Seconds()),
		Requests:      make([]RequestStat, 0, len(m.requestCount)),
		Errors:        make(map[string]int64, len(m.errorCount)),
		Purchases:     make(map[string]int64, len(m.purchases)),
		Sweeps:        m.sweeps,
	}
	snap.Sweeps.PointsRemoved = m.removed.String()
	for key, count := range m.requestCount {
		stat := RequestStat{Route: key, Count: count}
		if count > 0 {
			stat.AvgMillis = float64(m.requestTime[key].Microseconds()) / 1000 / float64(count)
		}
		snap.Requests = append(snap.Requests, stat)
	}
	sort.Slice(snap.Requests, func(i, j int) bool { return snap.Requests[i].Route < snap.Requests[j].Route })
	for key, count := range m.errorCount {
		snap.Errors[key] = count
	}
	for key, count := range m.purchases {
		snap.Purchases[key] = count
	}
	return snap
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
