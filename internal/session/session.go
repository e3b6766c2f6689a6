// Package session tracks one drawing attempt on a glyph: the strokes,
// the monotonic progress and the one-shot completion latch.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/tuitrace/internal/coverage"
	"github.com/verte-zerg/tuitrace/internal/model"
)

// State is the coarse session state.
type State int

const (
	Empty State = iota
	InProgress
	Completed
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case InProgress:
		return "in-progress"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// Meter measures a stroke set against the current glyph.
type Meter interface {
	Measure(strokes []model.Stroke) coverage.Result
}

// Completion is delivered once when a session crosses the threshold.
type Completion struct {
	SessionID string
	Progress  float64
	Result    coverage.Result
	Strokes   int
	Elapsed   time.Duration
	At        time.Time
}

// Listener receives completion signals.
type Listener func(Completion)

// Session is a drawing session. It is not safe for concurrent use; the UI
// loop owns it.
type Session struct {
	meter     Meter
	threshold float64
	now       func() time.Time
	listener  Listener

	id         string
	startedAt  time.Time
	strokes    []model.Stroke
	current    model.Stroke
	drawing    bool
	progress   float64
	completed  bool
	interacted bool
	last       coverage.Result
	history    []float64
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithListener sets the completion listener.
func WithListener(l Listener) Option {
	return func(s *Session) {
		s.listener = l
	}
}

// New creates an empty session measuring with meter. A nil meter measures
// zero until Retarget.
func New(meter Meter, threshold float64, opts ...Option) *Session {
	s := &Session{
		meter:     meter,
		threshold: threshold,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Reset()
	return s
}

// Reset clears strokes, progress, the latch and the interaction flag, and
// starts a new session id.
func (s *Session) Reset() {
	s.id = uuid.NewString()
	s.startedAt = s.now()
	s.strokes = nil
	s.current = nil
	s.drawing = false
	s.progress = 0
	s.completed = false
	s.interacted = false
	s.last = coverage.Result{}
	s.history = nil
}

// Retarget switches to a new glyph and resets.
func (s *Session) Retarget(meter Meter) {
	s.meter = meter
	s.Reset()
}

// Begin starts a stroke at p. An unfinished stroke is finalized first.
func (s *Session) Begin(p model.Point) {
	if s.drawing {
		s.End()
	}
	s.interacted = true
	s.drawing = true
	s.current = model.Stroke{p}
}

// Move extends the active stroke. Without an active stroke it is ignored.
func (s *Session) Move(p model.Point) {
	if !s.drawing {
		return
	}
	s.current = append(s.current, p)
}

// End finalizes the active stroke and re-measures. It returns the
// measurement and whether this call fired the completion.
func (s *Session) End() (coverage.Result, bool) {
	if !s.drawing {
		return s.last, false
	}
	s.drawing = false
	if len(s.current) > 0 {
		s.strokes = append(s.strokes, s.current)
	}
	s.current = nil
	return s.measure()
}

func (s *Session) measure() (coverage.Result, bool) {
	var res coverage.Result
	if s.meter != nil {
		res = s.meter.Measure(s.strokes)
	}
	s.last = res
	s.progress = max(s.progress, res.Ratio)
	s.history = append(s.history, s.progress)

	if s.completed || !s.eligible(res) {
		return res, false
	}
	s.completed = true
	if s.listener != nil {
		now := s.now()
		s.listener(Completion{
			SessionID: s.id,
			Progress:  s.progress,
			Result:    res,
			Strokes:   len(s.strokes),
			Elapsed:   now.Sub(s.startedAt),
			At:        now,
		})
	}
	return res, true
}

func (s *Session) eligible(res coverage.Result) bool {
	return s.progress >= s.threshold &&
		len(s.strokes) > 0 &&
		res.CoveredInk > 0 &&
		res.GlyphInk > 0 &&
		s.interacted
}

// Progress is the highest ratio reached, in [0,1].
func (s *Session) Progress() float64 { return s.progress }

// Completed reports whether the latch has fired.
func (s *Session) Completed() bool { return s.completed }

// State derives the coarse state.
func (s *Session) State() State {
	switch {
	case s.completed:
		return Completed
	case len(s.strokes) > 0 || s.drawing:
		return InProgress
	default:
		return Empty
	}
}

// Strokes returns a copy of the finalized strokes.
func (s *Session) Strokes() []model.Stroke {
	out := make([]model.Stroke, len(s.strokes))
	for i, st := range s.strokes {
		out[i] = append(model.Stroke(nil), st...)
	}
	return out
}

// Current returns a copy of the stroke being drawn.
func (s *Session) Current() model.Stroke {
	return append(model.Stroke(nil), s.current...)
}

// Drawing reports whether a stroke is active.
func (s *Session) Drawing() bool { return s.drawing }

// Last returns the most recent measurement.
func (s *Session) Last() coverage.Result { return s.last }

// History returns the progress after each finalized stroke.
func (s *Session) History() []float64 {
	return append([]float64(nil), s.history...)
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// StartedAt returns when the session began.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// Threshold returns the completion threshold.
func (s *Session) Threshold() float64 { return s.threshold }

// Snapshot builds the persisted record of the session so far.
func (s *Session) Snapshot(glyph, typefaceName string, brush float64) model.Attempt {
	end := s.now()
	return model.Attempt{
		UUID:       s.id,
		StartedAt:  s.startedAt,
		EndedAt:    end,
		Glyph:      glyph,
		Typeface:   typefaceName,
		Strokes:    len(s.strokes),
		GlyphInk:   s.last.GlyphInk,
		CoveredInk: s.last.CoveredInk,
		Coverage:   s.progress,
		Completed:  s.completed,
		Threshold:  s.threshold,
		BrushSize:  brush,
		DurationMs: end.Sub(s.startedAt).Milliseconds(),
		Progress:   s.History(),
	}
}
