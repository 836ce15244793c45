package flow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/amanullahtanweer/unibot/internal/keywords"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisRecorderUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	r := NewRedisRecorder(client, "unibot:session:", "abc", 100)
	assert.Equal(t, "unibot:session:abc", r.Stream())

	// a dead server is logged, never surfaced
	assert.NotPanics(t, func() {
		r.Record(Record{Event: EventBranch, Turn: 1, Topic: "sports", Details: map[string]string{"k": "v"}})
	})
	assert.NoError(t, r.Close())
}

func TestNewRecorderCombinesOutputs(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	defer client.Close()

	rec := NewRecorder(RecordingOptions{SessionDir: t.TempDir(), Redis: client, StreamPrefix: "s:"}, "abcdef", time.Now())
	multi, ok := rec.(MultiRecorder)
	require.True(t, ok)
	require.Len(t, multi, 2)
	assert.IsType(t, &SessionLogger{}, multi[0])
	assert.IsType(t, &RedisRecorder{}, multi[1])

	rec = NewRecorder(RecordingOptions{Redis: client, StreamPrefix: "s:"}, "abcdef", time.Now())
	assert.IsType(t, &RedisRecorder{}, rec)
}

// xaddLog captures the arguments of every XADD sent through a client.
type xaddLog struct {
	mu   sync.Mutex
	args [][]interface{}
}

func (h *xaddLog) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *xaddLog) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if cmd.Name() == "xadd" {
			h.mu.Lock()
			h.args = append(h.args, cmd.Args())
			h.mu.Unlock()
		}
		return next(ctx, cmd)
	}
}

func (h *xaddLog) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func newTestRedis(t *testing.T) (*redis.Client, *xaddLog) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	hook := &xaddLog{}
	client.AddHook(hook)
	return client, hook
}

func TestRedisRecorderStreamsSession(t *testing.T) {
	client, hook := newTestRedis(t)
	ctx := context.Background()

	rec := NewRecorder(RecordingOptions{Redis: client, StreamPrefix: "unibot:session:", MaxLen: 100}, "0123456789abcdef", time.Now())
	conv := &MockConversation{id: "0123456789abcdef", answers: []string{"enrol", "practical", "no"}}
	e := NewEngine(conv, NewAssistant(keywords.Default(), testCatalog()), DefaultOptions())
	e.SetRecorder(rec)
	require.NoError(t, e.Run(ctx))

	msgs, err := client.XRange(ctx, "unibot:session:0123456789abcdef", "-", "+").Result()
	require.NoError(t, err)

	var events []string
	byEvent := map[string]map[string]interface{}{}
	for _, m := range msgs {
		assert.NotEmpty(t, m.Values["ts"])
		event, _ := m.Values["event"].(string)
		events = append(events, event)
		if _, ok := byEvent[event]; !ok {
			byEvent[event] = m.Values
		}
	}
	assert.Equal(t, []string{
		EventSessionStart,
		EventTurnStart,
		EventQnA,
		EventClassification,
		EventBranch,
		EventQnA,
		EventRecommendation,
		EventQnA,
		EventContinuation,
		EventSessionEnd,
	}, events)

	start := byEvent[EventSessionStart]
	assert.Equal(t, "open", start["d.mode"])
	assert.NotContains(t, start, "turn", "turn zero is left out")

	branch := byEvent[EventBranch]
	assert.Equal(t, "studying", branch["topic"])
	assert.Equal(t, "1", branch["turn"])

	recommendation := byEvent[EventRecommendation]
	assert.Equal(t, recStudentDesk, recommendation["d.kind"])
	assert.Equal(t, "Student Desk", recommendation["d.value"])

	assert.Equal(t, "stop", byEvent[EventSessionEnd]["d.reason"])
	assert.Equal(t, "stop", byEvent[EventContinuation]["decision"])

	require.Len(t, hook.args, len(msgs))
	for _, args := range hook.args {
		assert.Equal(t, []interface{}{"xadd", "unibot:session:0123456789abcdef", "maxlen", "~", int64(100), "*"}, args[:6])
	}
}

func TestRedisRecorderWithoutCap(t *testing.T) {
	client, hook := newTestRedis(t)

	r := NewRedisRecorder(client, "s:", "abc", 0)
	r.Record(Record{Event: EventBranch, Turn: 2, Topic: "sports", Details: map[string]string{"empty": ""}})

	msgs, err := client.XRange(context.Background(), "s:abc", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, map[string]interface{}{"ts": "", "event": EventBranch, "turn": "2", "topic": "sports"}, msgs[0].Values)

	require.Len(t, hook.args, 1)
	assert.Equal(t, []interface{}{"xadd", "s:abc", "*"}, hook.args[0][:3])
}
