package usecase

import (
	"sync"

	"github.com/example/stylecoach/internal/bodyshape"
	"github.com/example/stylecoach/internal/season"
)

// MetricsSummary represents aggregated classification counters since start-up.
type MetricsSummary struct {
	SessionsStarted      int64            `json:"sessions_started"`
	SessionsCompleted    int64            `json:"sessions_completed"`
	BodyClassifications  int64            `json:"body_classifications"`
	BodyResolutionRate   float64          `json:"body_resolution_rate"`
	ColorClassifications int64            `json:"color_classifications"`
	ColorResolutionRate  float64          `json:"color_resolution_rate"`
	BodyCategories       map[string]int64 `json:"body_categories"`
	SeasonCategories     map[string]int64 `json:"season_categories"`
	UnresolvedReasons    map[string]int64 `json:"unresolved_reasons"`
}

type metricsRecorder struct {
	mu                sync.Mutex
	sessionsStarted   int64
	sessionsCompleted int64
	bodyTotal         int64
	bodyResolved      int64
	colorTotal        int64
	colorResolved     int64
	bodyCategories    map[string]int64
	seasonCategories  map[string]int64
	reasons           map[string]int64
}

func newMetricsRecorder() *metricsRecorder {
	return &metricsRecorder{
		bodyCategories:   make(map[string]int64),
		seasonCategories: make(map[string]int64),
		reasons:          make(map[string]int64),
	}
}

func (m *metricsRecorder) sessionStarted() {
	m.mu.Lock()
	m.sessionsStarted++
	m.mu.Unlock()
}

func (m *metricsRecorder) sessionCompleted() {
	m.mu.Lock()
	m.sessionsCompleted++
	m.mu.Unlock()
}

func (m *metricsRecorder) recordFrame(body bodyshape.Result, color season.Result) {
	m.recordBody(body)
	m.recordSeason(color)
}

func (m *metricsRecorder) recordBody(result bodyshape.Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bodyTotal++
	m.bodyCategories[string(result.Category)]++
	if result.Resolved() {
		m.bodyResolved++
	} else {
		m.reasons[string(result.Reason)]++
	}
}

func (m *metricsRecorder) recordSeason(result season.Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.colorTotal++
	m.seasonCategories[string(result.Category)]++
	if result.Resolved() {
		m.colorResolved++
	} else {
		m.reasons[string(result.Reason)]++
	}
}

func (m *metricsRecorder) summary() *MetricsSummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	summary := &MetricsSummary{
		SessionsStarted:      m.sessionsStarted,
		SessionsCompleted:    m.sessionsCompleted,
		BodyClassifications:  m.bodyTotal,
		ColorClassifications: m.colorTotal,
		BodyCategories:       copyCounts(m.bodyCategories),
		SeasonCategories:     copyCounts(m.seasonCategories),
		UnresolvedReasons:    copyCounts(m.reasons),
	}
	if m.bodyTotal > 0 {
		summary.BodyResolutionRate = float64(m.bodyResolved) / float64(m.bodyTotal)
	}
	if m.colorTotal > 0 {
		summary.ColorResolutionRate = float64(m.colorResolved) / float64(m.colorTotal)
	}
	return summary
}

func copyCounts(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// GetMetricsSummary returns the classification counters collected by this process.
func (uc *AnalysisUseCase) GetMetricsSummary() *MetricsSummary {
	return uc.metrics.summary()
}
