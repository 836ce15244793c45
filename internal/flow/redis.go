package flow

import (
	"context"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisRecorder mirrors session records to a Redis stream named
// prefix+sessionID. It is an audit trail; nothing reads it back.
type RedisRecorder struct {
	client  *redis.Client
	stream  string
	maxLen  int64
	timeout time.Duration
}

// NewRedisRecorder attaches a recorder to an existing client. The client is
// shared and owned by the caller, so Close leaves it open.
func NewRedisRecorder(client *redis.Client, prefix, sessionID string, maxLen int64) *RedisRecorder {
	return &RedisRecorder{
		client:  client,
		stream:  prefix + sessionID,
		maxLen:  maxLen,
		timeout: 800 * time.Millisecond,
	}
}

// Stream returns the stream key records are appended to.
func (r *RedisRecorder) Stream() string { return r.stream }

func (r *RedisRecorder) Record(rec Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	values := map[string]interface{}{
		"ts":    rec.Timestamp,
		"event": rec.Event,
	}
	add := func(k, v string) {
		if v != "" {
			values[k] = v
		}
	}
	add("node", rec.Node)
	add("prompt", rec.Prompt)
	add("text", rec.Text)
	add("topic", rec.Topic)
	add("decision", rec.Decision)
	if rec.Turn > 0 {
		values["turn"] = rec.Turn
	}
	for k, v := range rec.Details {
		add("d."+k, v)
	}

	args := &redis.XAddArgs{Stream: r.stream, Values: values}
	if r.maxLen > 0 {
		args.MaxLen = r.maxLen
		args.Approx = true
	}
	if err := r.client.XAdd(ctx, args).Err(); err != nil {
		slog.Warn("redis XADD failed", "stream", r.stream, "event", rec.Event, "error", err)
	}
}

func (r *RedisRecorder) Close() error { return nil }

// RecordingOptions say where a session's records go.
type RecordingOptions struct {
	SessionDir   string
	Redis        *redis.Client
	StreamPrefix string
	MaxLen       int64
}

// NewRecorder builds the recorder for one session: a JSONL file when a
// session directory is set, a Redis stream when a client is set. A recorder
// that cannot be opened is skipped with a warning.
func NewRecorder(opts RecordingOptions, sessionID string, started time.Time) Recorder {
	var recs MultiRecorder
	if opts.SessionDir != "" {
		sl, err := NewSessionLogger(opts.SessionDir, sessionID, started)
		if err != nil {
			slog.Warn("session log disabled", "session", sessionID, "dir", opts.SessionDir, "error", err)
		} else {
			recs = append(recs, sl)
		}
	}
	if opts.Redis != nil {
		recs = append(recs, NewRedisRecorder(opts.Redis, opts.StreamPrefix, sessionID, opts.MaxLen))
	}

	switch len(recs) {
	case 0:
		return nopRecorder{}
	case 1:
		return recs[0]
	default:
		return recs
	}
}
