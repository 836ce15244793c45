package flow

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Session event names.
const (
	EventSessionStart   = "session_start"
	EventProfile        = "profile"
	EventTurnStart      = "turn_start"
	EventQnA            = "qna"
	EventClassification = "classification"
	EventClarification  = "clarification"
	EventBranch         = "branch"
	EventRecommendation = "recommendation"
	EventContinuation   = "continuation"
	EventSessionEnd     = "session_end"
)

// Record is one structured session event.
type Record struct {
	Timestamp string            `json:"ts"`
	Event     string            `json:"event"`
	SessionID string            `json:"session_id"`
	Turn      int               `json:"turn,omitempty"`
	Node      string            `json:"node,omitempty"`
	Prompt    string            `json:"prompt,omitempty"`
	Text      string            `json:"text,omitempty"`
	Topic     string            `json:"topic,omitempty"`
	Decision  string            `json:"decision,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
}

// Recorder persists session events. Implementations must be safe for
// concurrent use and must never fail the dialogue.
type Recorder interface {
	Record(rec Record)
	Close() error
}

// SessionLogger writes structured JSONL session logs to a file
type SessionLogger struct {
	mu   sync.Mutex
	file *os.File
	path string
}

// NewSessionLogger creates a logger under outputDir. Filename is timestamp + session id.
func NewSessionLogger(outputDir, sessionID string, started time.Time) (*SessionLogger, error) {
	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, err
	}
	shortID := sessionID
	if len(sessionID) > 8 {
		shortID = sessionID[:8]
	}
	filename := filepath.Join(outputDir, fmt.Sprintf("%s_session_%s.jsonl", started.Format("20060102_150405"), shortID))
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &SessionLogger{file: f, path: filename}, nil
}

// Path returns the log file location.
func (sl *SessionLogger) Path() string { return sl.path }

func (sl *SessionLogger) Close() error {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.file != nil {
		err := sl.file.Close()
		sl.file = nil
		return err
	}
	return nil
}

func (sl *SessionLogger) Record(rec Record) {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.file == nil {
		return
	}
	// keep lines compact
	rec.Text = strings.TrimSpace(rec.Text)
	if rec.Timestamp == "" {
		rec.Timestamp = time.Now().Format(time.RFC3339Nano)
	}
	_ = json.NewEncoder(sl.file).Encode(rec)
}

// MultiRecorder fans every record out to several recorders.
type MultiRecorder []Recorder

func (m MultiRecorder) Record(rec Record) {
	for _, r := range m {
		r.Record(rec)
	}
}

func (m MultiRecorder) Close() error {
	var errs []error
	for _, r := range m {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type nopRecorder struct{}

func (nopRecorder) Record(Record) {}
func (nopRecorder) Close() error  { return nil }
