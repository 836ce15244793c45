package metrics

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
)

type SessionMetrics struct {
	Mode            string
	SessionID       string
	StartTime       time.Time
	EndTime         time.Time
	Turns           int
	Topics          map[string]int
	Clarifications  int
	Unresolved      int
	Unclear         int
	Recommendations int
	EndReason       string
	mu              sync.Mutex
}

func NewSessionMetrics(mode, sessionID string) *SessionMetrics {
	return &SessionMetrics{
		Mode:      mode,
		SessionID: sessionID,
		StartTime: time.Now(),
		Topics:    make(map[string]int),
	}
}

func (m *SessionMetrics) AddTurn() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Turns++
}

// AddTopic counts a resolved turn; an empty topic counts as unresolved.
func (m *SessionMetrics) AddTopic(topic string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if topic == "" {
		m.Unresolved++
		return
	}
	m.Topics[topic]++
}

func (m *SessionMetrics) AddClarification() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Clarifications++
}

func (m *SessionMetrics) AddUnclear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Unclear++
}

func (m *SessionMetrics) AddRecommendation() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Recommendations++
}

func (m *SessionMetrics) Finalize(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EndTime = time.Now()
	m.EndReason = reason
}

func (m *SessionMetrics) Summary() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return fmt.Sprintf(
		"Mode: %s\n"+
			"Session: %s\n"+
			"Duration: %v\n"+
			"Turns: %d\n"+
			"Topics: %s\n"+
			"Unresolved Turns: %d\n"+
			"Clarifications: %d\n"+
			"Unclear Answers: %d\n"+
			"Recommendations: %d\n"+
			"End Reason: %s\n",
		m.Mode,
		m.SessionID,
		m.duration(),
		m.Turns,
		m.topicsLocked(),
		m.Unresolved,
		m.Clarifications,
		m.Unclear,
		m.Recommendations,
		m.EndReason,
	)
}

// LogValue lets a SessionMetrics be passed directly as a slog attribute.
func (m *SessionMetrics) LogValue() slog.Value {
	m.mu.Lock()
	defer m.mu.Unlock()

	return slog.GroupValue(
		slog.String("session", m.SessionID),
		slog.String("mode", m.Mode),
		slog.Duration("duration", m.duration()),
		slog.Int("turns", m.Turns),
		slog.String("topics", m.topicsLocked()),
		slog.Int("unresolved", m.Unresolved),
		slog.Int("clarifications", m.Clarifications),
		slog.Int("unclear", m.Unclear),
		slog.Int("recommendations", m.Recommendations),
		slog.String("end_reason", m.EndReason),
	)
}

func (m *SessionMetrics) duration() time.Duration {
	if m.EndTime.IsZero() {
		return time.Since(m.StartTime)
	}
	return m.EndTime.Sub(m.StartTime)
}

func (m *SessionMetrics) topicsLocked() string {
	if len(m.Topics) == 0 {
		return "none"
	}
	names := make([]string, 0, len(m.Topics))
	for name := range m.Topics {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s:%d", name, m.Topics[name])
	}
	return strings.Join(parts, ", ")
}
