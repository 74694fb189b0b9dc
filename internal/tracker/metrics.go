package tracker

import (
	"sort"
	"sync"
	"time"
)

// FetchMetrics holds metrics for fetching a single game
type FetchMetrics struct {
	GameID       string        `json:"gameId"`
	StartedAt    time.Time     `json:"startedAt"`
	CompletedAt  time.Time     `json:"completedAt"`
	Stores       int           `json:"stores"`
	Success      bool          `json:"success"`
	ErrorMessage string        `json:"error,omitempty"`
	Duration     time.Duration `json:"duration"`
}

// MetricsCollector collects per-game fetch metrics and cycle reports
type MetricsCollector struct {
	mu             sync.RWMutex
	currentRun     map[string]*FetchMetrics
	lastRun        map[string]*FetchMetrics
	lastReport     *CycleReport
	totalRuns      int
	successfulRuns int
	failedRuns     int
	lastRunTime    time.Time
}

// NewMetricsCollector creates a new MetricsCollector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		currentRun: make(map[string]*FetchMetrics),
		lastRun:    make(map[string]*FetchMetrics),
	}
}

// StartFetch records the start of a fetch for a game
func (mc *MetricsCollector) StartFetch(gameID string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.currentRun[gameID] = &FetchMetrics{
		GameID:    gameID,
		StartedAt: time.Now(),
	}
}

// RecordSuccess records a successful fetch
func (mc *MetricsCollector) RecordSuccess(gameID string, stores int) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if m, ok := mc.currentRun[gameID]; ok {
		m.CompletedAt = time.Now()
		m.Duration = m.CompletedAt.Sub(m.StartedAt)
		m.Stores = stores
		m.Success = true
	}
}

// RecordFailure records a failed fetch
func (mc *MetricsCollector) RecordFailure(gameID string, err error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if m, ok := mc.currentRun[gameID]; ok {
		m.CompletedAt = time.Now()
		m.Duration = m.CompletedAt.Sub(m.StartedAt)
		m.Success = false
		if err != nil {
			m.ErrorMessage = err.Error()
		}
	}
}

// FinishRun closes the current cycle and keeps its report
func (mc *MetricsCollector) FinishRun(report CycleReport) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	for _, m := range mc.currentRun {
		if m.Success {
			mc.successfulRuns++
		} else {
			mc.failedRuns++
		}
	}

	mc.totalRuns++
	mc.lastRunTime = time.Now()
	mc.lastRun = mc.currentRun
	mc.currentRun = make(map[string]*FetchMetrics)
	mc.lastReport = &report
}

// LastReport returns the report of the last finished cycle, if any
func (mc *MetricsCollector) LastReport() *CycleReport {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	if mc.lastReport == nil {
		return nil
	}
	r := *mc.lastReport
	return &r
}

// GetLastRunMetrics returns per-game metrics from the last completed cycle
func (mc *MetricsCollector) GetLastRunMetrics() map[string]*FetchMetrics {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	result := make(map[string]*FetchMetrics, len(mc.lastRun))
	for k, v := range mc.lastRun {
		metricsCopy := *v
		result[k] = &metricsCopy
	}
	return result
}

// GetSummary returns totals across all cycles
func (mc *MetricsCollector) GetSummary() MetricsSummary {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	var lastRunSuccesses, lastRunFailures int
	for _, m := range mc.lastRun {
		if m.Success {
			lastRunSuccesses++
		} else {
			lastRunFailures++
		}
	}

	return MetricsSummary{
		TotalRuns:        mc.totalRuns,
		TotalSuccessful:  mc.successfulRuns,
		TotalFailed:      mc.failedRuns,
		LastRunTime:      mc.lastRunTime,
		LastRunSuccesses: lastRunSuccesses,
		LastRunFailures:  lastRunFailures,
	}
}

// MetricsSummary provides an overview of fetch performance
type MetricsSummary struct {
	TotalRuns        int       `json:"totalRuns"`
	TotalSuccessful  int       `json:"totalSuccessful"`
	TotalFailed      int       `json:"totalFailed"`
	LastRunTime      time.Time `json:"lastRunTime"`
	LastRunSuccesses int       `json:"lastRunSuccesses"`
	LastRunFailures  int       `json:"lastRunFailures"`
}

// HealthStatus represents the health of the polling cycle
type HealthStatus struct {
	Healthy      bool         `json:"healthy"`
	Running      bool         `json:"running"`
	LastRunTime  time.Time    `json:"lastRunTime"`
	NextRunTime  time.Time    `json:"nextRunTime"`
	TotalGames   int          `json:"totalGames"`
	HealthyGames int          `json:"healthyGames"`
	FailingGames []string     `json:"failingGames,omitempty"`
	LastReport   *CycleReport `json:"lastReport,omitempty"`
	Message      string       `json:"message,omitempty"`
}

// GetHealthStatus returns the current health status
func (mc *MetricsCollector) GetHealthStatus(nextRunTime time.Time) HealthStatus {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	status := HealthStatus{
		LastRunTime: mc.lastRunTime,
		NextRunTime: nextRunTime,
		TotalGames:  len(mc.lastRun),
	}
	if mc.lastReport != nil {
		r := *mc.lastReport
		status.LastReport = &r
	}

	for gameID, m := range mc.lastRun {
		if m.Success {
			status.HealthyGames++
		} else {
			status.FailingGames = append(status.FailingGames, gameID)
		}
	}
	sort.Strings(status.FailingGames)

	switch {
	case mc.totalRuns == 0:
		status.Healthy = true
		status.Message = "No polling cycles recorded yet"
	case status.TotalGames == 0:
		status.Healthy = true
		status.Message = "No subscribed games"
	case float64(status.HealthyGames)/float64(status.TotalGames) >= 0.7:
		status.Healthy = true
		status.Message = "Tracker is operating normally"
	default:
		status.Message = "Feed lookups are failing for some games"
	}

	return status
}
