package flow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/amanullahtanweer/unibot/internal/classify"
	"github.com/amanullahtanweer/unibot/internal/intent"
	"github.com/amanullahtanweer/unibot/internal/metrics"
	"github.com/amanullahtanweer/unibot/internal/recommend"
)

// Mode selects how each turn is driven.
type Mode string

const (
	// ModeOpen asks open questions and routes with the boolean classifier.
	ModeOpen Mode = "open"
	// ModeGuided builds a profile first, routes with the scored classifier
	// and asks short structured questions.
	ModeGuided Mode = "guided"
)

// Options tune an Engine.
type Options struct {
	Mode                Mode
	ConfidenceThreshold float64
	SoonestEvents       int
}

const (
	defaultConfidenceThreshold = 0.34
	defaultSoonestEvents       = 3
)

// Reasons a session ends.
const (
	EndStop      = "stop"
	EndUnclear   = "unclear"
	EndCancelled = "cancelled"
	EndEOF       = "eof"
	EndError     = "error"
)

// Engine runs one dialogue session. It owns the only mutable session state:
// the pending seed text, the turn counter and, in guided mode, the profile.
type Engine struct {
	conv     Conversation
	a        *Assistant
	opts     Options
	recorder Recorder
	metrics  *metrics.SessionMetrics
	log      *slog.Logger
	profile  recommend.Profile
	turn     int
}

// DefaultOptions returns the open-mode settings used when nothing is
// configured.
func DefaultOptions() Options {
	return Options{
		Mode:                ModeOpen,
		ConfidenceThreshold: defaultConfidenceThreshold,
		SoonestEvents:       defaultSoonestEvents,
	}
}

// NewEngine creates an engine for one conversation. A zero threshold is kept
// and turns off low-confidence clarification; a negative one means the
// default.
func NewEngine(conv Conversation, a *Assistant, opts Options) *Engine {
	if opts.Mode == "" {
		opts.Mode = ModeOpen
	}
	if opts.ConfidenceThreshold < 0 {
		opts.ConfidenceThreshold = defaultConfidenceThreshold
	}
	if opts.SoonestEvents <= 0 {
		opts.SoonestEvents = defaultSoonestEvents
	}
	return &Engine{
		conv:     conv,
		a:        a,
		opts:     opts,
		recorder: nopRecorder{},
		metrics:  metrics.NewSessionMetrics(string(opts.Mode), conv.ID()),
		log:      slog.Default().With("session", conv.ID()),
	}
}

// SetRecorder provides a recorder to persist structured session events.
// The engine closes it when the session ends.
func (e *Engine) SetRecorder(r Recorder) {
	if r == nil {
		r = nopRecorder{}
	}
	e.recorder = r
}

// Metrics returns the session counters.
func (e *Engine) Metrics() *metrics.SessionMetrics { return e.metrics }

// Profile returns what guided mode learned about the user.
func (e *Engine) Profile() recommend.Profile { return e.profile }

// Run drives the session until the user stops, stays unclear twice, the
// conversation closes or ctx is cancelled. A closed conversation (io.EOF) is
// a normal end.
func (e *Engine) Run(ctx context.Context) error {
	e.log.Info("session started", "mode", e.opts.Mode)
	e.record(Record{Event: EventSessionStart, Details: map[string]string{"mode": string(e.opts.Mode)}})

	reason, err := e.loop(ctx)
	e.end(reason)

	switch {
	case err == nil, errors.Is(err, io.EOF):
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("session %s: %w", e.conv.ID(), err)
	}
}

func (e *Engine) loop(ctx context.Context) (string, error) {
	if e.opts.Mode == ModeGuided {
		if err := e.buildProfile(); err != nil {
			return transportReason(err), err
		}
	}

	seed := ""
	for {
		if err := ctx.Err(); err != nil {
			return EndCancelled, err
		}
		if err := e.RunTurn(seed); err != nil {
			return transportReason(err), err
		}
		if err := ctx.Err(); err != nil {
			return EndCancelled, err
		}

		next, reason, err := e.continuation()
		if err != nil {
			return transportReason(err), err
		}
		if reason != "" {
			return reason, nil
		}
		seed = next
	}
}

// RunTurn resolves one request. Without a seed the user is greeted and
// asked for one. The text is classified, clarified once when the topic is
// unknown, and handed to the topic's branch flow.
func (e *Engine) RunTurn(seed string) error {
	e.turn++
	e.metrics.AddTurn()
	e.record(Record{Event: EventTurnStart, Text: seed})

	text := strings.TrimSpace(seed)
	if text == "" {
		var err error
		if text, err = e.ask(nodeGreeting, promptGreeting); err != nil {
			return err
		}
	}

	var (
		topic classify.Topic
		err   error
	)
	if e.opts.Mode == ModeGuided {
		topic, err = e.resolveScored(text)
	} else {
		topic, err = e.resolve(text)
	}
	if err != nil {
		return err
	}

	e.metrics.AddTopic(string(topic))
	if topic == classify.Unknown {
		e.log.Info("topic unresolved", "turn", e.turn)
		return e.say(msgUnresolved)
	}

	e.log.Info("branch", "turn", e.turn, "topic", topic.String())
	e.record(Record{Event: EventBranch, Topic: topic.String()})

	guided := e.opts.Mode == ModeGuided
	switch topic {
	case classify.Studying:
		if guided {
			return e.guidedStudying()
		}
		return e.studying()
	case classify.Sports:
		if guided {
			return e.guidedSports()
		}
		return e.sports()
	case classify.Social:
		if guided {
			return e.guidedSocial()
		}
		return e.social()
	default:
		e.log.Warn("no branch for topic", "topic", topic)
		return e.say(msgUnresolved)
	}
}

// resolve is the open-mode router: boolean classifier, one clarification.
func (e *Engine) resolve(text string) (classify.Topic, error) {
	topic := e.a.Classifier.Classify(text)
	e.record(Record{Event: EventClassification, Text: text, Topic: topic.String()})
	if topic != classify.Unknown {
		return topic, nil
	}

	e.metrics.AddClarification()
	ans, err := e.ask(nodeClarify, promptClarify)
	if err != nil {
		return classify.Unknown, err
	}
	topic = e.a.Classifier.Classify(ans)
	e.record(Record{Event: EventClarification, Text: ans, Topic: topic.String()})
	return topic, nil
}

// resolveScored is the guided-mode router: scored classifier, one
// clarification when the topic is unknown or below the confidence
// threshold, then a numbered menu.
func (e *Engine) resolveScored(text string) (classify.Topic, error) {
	res := e.a.Classifier.Score(text)
	e.recordScore(EventClassification, text, res)

	if res.Topic == classify.Unknown || res.Confidence < e.opts.ConfidenceThreshold {
		e.metrics.AddClarification()
		ans, err := e.ask(nodeClarify, promptGuidedClarify)
		if err != nil {
			return classify.Unknown, err
		}
		res = e.a.Classifier.Score(ans)
		e.recordScore(EventClarification, ans, res)

		if res.Topic == classify.Unknown {
			choice, err := e.ask(nodeMenu, promptMenu)
			if err != nil {
				return classify.Unknown, err
			}
			res = classify.Result{Topic: menuChoice(choice), Hits: res.Hits}
			e.record(Record{Event: EventClarification, Node: nodeMenu, Text: choice, Topic: res.Topic.String()})
		}
	}

	if res.Topic == classify.Unknown {
		return classify.Unknown, nil
	}
	if err := e.say(fmt.Sprintf("Topic: %s (confidence about %d%%)", res.Topic, int(res.Confidence*100))); err != nil {
		return classify.Unknown, err
	}
	return res.Topic, e.say("Why: keyword hits " + formatHits(res.Hits))
}

// continuation asks whether the user needs anything else. It returns the
// next seed, or a non-empty end reason when the session should stop.
func (e *Engine) continuation() (string, string, error) {
	ans, err := e.ask(nodeContinue, promptAnythingElse)
	if err != nil {
		return "", "", err
	}
	d := e.a.Intent.Parse(ans)
	e.recordDecision(ans, d)

	switch d.Kind {
	case intent.Proceed:
		if d.Remainder != "" {
			return d.Remainder, "", e.say(msgContinueWith)
		}
		return "", "", e.say(msgContinueFresh)
	case intent.Stop:
		return "", EndStop, e.say(msgFarewell)
	}

	e.metrics.AddUnclear()
	ans, err = e.ask(nodeContinueRetry, promptContinueRetry)
	if err != nil {
		return "", "", err
	}
	d = e.a.Intent.Parse(ans)
	e.recordDecision(ans, d)

	switch d.Kind {
	case intent.Proceed:
		if d.Remainder != "" {
			return d.Remainder, "", e.say(msgRetryContinueWith)
		}
		return "", "", nil
	case intent.Stop:
		return "", EndStop, e.say(msgRetryFarewell)
	default:
		e.metrics.AddUnclear()
		return "", EndUnclear, e.say(msgRetryFarewell)
	}
}

func (e *Engine) end(reason string) {
	e.metrics.Finalize(reason)
	e.record(Record{Event: EventSessionEnd, Details: map[string]string{"reason": reason}})
	e.log.Info("session ended", "metrics", e.metrics)
	if err := e.recorder.Close(); err != nil {
		e.log.Warn("failed to close session recorder", "error", err)
	}
}

func (e *Engine) say(text string) error {
	return e.conv.Say(text)
}

// ask poses a question and logs the exchange against its node.
func (e *Engine) ask(node, prompt string) (string, error) {
	ans, err := e.conv.Ask(prompt)
	if err != nil {
		return "", err
	}
	e.log.Debug("Q&A", "node", node, "answer", ans)
	e.record(Record{Event: EventQnA, Node: node, Prompt: prompt, Text: ans})
	return ans, nil
}

// recommend delivers a branch outcome.
func (e *Engine) recommend(kind, value, message string) error {
	e.metrics.AddRecommendation()
	e.log.Info("recommendation", "turn", e.turn, "kind", kind, "value", value)
	e.record(Record{Event: EventRecommendation, Details: map[string]string{"kind": kind, "value": value}})
	return e.say(message)
}

func (e *Engine) record(rec Record) {
	rec.SessionID = e.conv.ID()
	if rec.Turn == 0 {
		rec.Turn = e.turn
	}
	if rec.Timestamp == "" {
		rec.Timestamp = time.Now().Format(time.RFC3339Nano)
	}
	e.recorder.Record(rec)
}

func (e *Engine) recordScore(event, text string, res classify.Result) {
	e.record(Record{
		Event: event,
		Text:  text,
		Topic: res.Topic.String(),
		Details: map[string]string{
			"confidence": fmt.Sprintf("%.2f", res.Confidence),
			"hits":       formatHits(res.Hits),
		},
	})
}

func (e *Engine) recordDecision(text string, d intent.Decision) {
	rec := Record{Event: EventContinuation, Text: text, Decision: string(d.Kind)}
	if d.Remainder != "" {
		rec.Details = map[string]string{"remainder": d.Remainder}
	}
	e.record(rec)
}

func transportReason(err error) string {
	switch {
	case errors.Is(err, io.EOF):
		return EndEOF
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return EndCancelled
	default:
		return EndError
	}
}

// menuChoice maps a menu answer onto a topic: a number or a topic name.
func menuChoice(ans string) classify.Topic {
	switch strings.TrimSpace(ans) {
	case "1":
		return classify.Studying
	case "2":
		return classify.Sports
	case "3":
		return classify.Social
	default:
		return classify.Parse(ans)
	}
}

func formatHits(hits map[classify.Topic]int) string {
	parts := make([]string, len(classify.Topics))
	for i, t := range classify.Topics {
		parts[i] = fmt.Sprintf("%s:%d", t, hits[t])
	}
	return strings.Join(parts, ", ")
}
