package chat

import (
	"context"
	"strings"
	"time"

	"github.com/sona-astrovision/astrochat/internal/api"
)

// RevealKind is the type of a sequencer event.
type RevealKind int

const (
	// RevealComposing turns the "composing" indicator on.
	RevealComposing RevealKind = iota
	// RevealSegment turns the indicator off and shows one segment.
	RevealSegment
	// RevealDone fires exactly once, after the last segment.
	RevealDone
)

// RevealEvent is one step of the timed reveal.
type RevealEvent struct {
	Kind  RevealKind
	Index int
	Text  string
}

// Sequencer turns one structured assistant reply into a timed sequence of
// visible segments. Purely presentational: it holds no network or
// persisted state and is restartable per message.
//
// The timing chain is an explicit state machine driven by a single timer:
// composing(i) -> 3 units -> reveal(i) -> 2 units -> composing(i+1),
// ending with one completion event after the last segment.
type Sequencer struct {
	segments []string
	animate  bool
	compose  time.Duration
	pause    time.Duration
}

// SequencerOption tunes the sequencer.
type SequencerOption func(*Sequencer)

// WithUnit scales both delays from one base unit (production: 1s).
func WithUnit(unit time.Duration) SequencerOption {
	return func(s *Sequencer) {
		s.compose = 3 * unit
		s.pause = 2 * unit
	}
}

// NewSequencer builds a sequencer for one structured reply. Blank
// segments are filtered out up front: never shown, never timed. The
// third segment is the closing paragraph plus the follow-up prompt; the
// follow-up is kept even when the closing paragraph is absent.
func NewSequencer(reply *api.StructuredReply, animate bool, opts ...SequencerOption) *Sequencer {
	s := &Sequencer{
		animate: animate,
	}
	WithUnit(time.Second)(s)

	if reply != nil {
		third := reply.FollowUpText()
		if p3 := strings.TrimSpace(reply.Para3); p3 != "" {
			third = p3 + "\n\n" + third
		}
		for _, seg := range []string{reply.Para1, reply.Para2, third} {
			if strings.TrimSpace(seg) != "" {
				s.segments = append(s.segments, seg)
			}
		}
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Segments returns the filtered segments in reveal order.
func (s *Sequencer) Segments() []string {
	out := make([]string, len(s.segments))
	copy(out, s.segments)
	return out
}

type revealState int

const (
	stateComposing revealState = iota
	stateRevealing
	statePausing
	stateDone
)

// Run plays the sequence and returns the event stream. The channel is
// closed after the completion event, or early when ctx is cancelled.
// Without animation every segment is emitted immediately, then done.
func (s *Sequencer) Run(ctx context.Context) <-chan RevealEvent {
	events := make(chan RevealEvent, len(s.segments)*2+1)

	go func() {
		defer close(events)

		send := func(ev RevealEvent) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !s.animate || len(s.segments) == 0 {
			for i, seg := range s.segments {
				if !send(RevealEvent{Kind: RevealSegment, Index: i, Text: seg}) {
					return
				}
			}
			send(RevealEvent{Kind: RevealDone})
			return
		}

		timer := time.NewTimer(0)
		defer timer.Stop()
		if !timer.Stop() {
			<-timer.C
		}

		wait := func(d time.Duration) bool {
			timer.Reset(d)
			select {
			case <-timer.C:
				return true
			case <-ctx.Done():
				return false
			}
		}

		state := stateComposing
		idx := 0
		for state != stateDone {
			switch state {
			case stateComposing:
				if !send(RevealEvent{Kind: RevealComposing, Index: idx}) {
					return
				}
				if !wait(s.compose) {
					return
				}
				state = stateRevealing

			case stateRevealing:
				if !send(RevealEvent{Kind: RevealSegment, Index: idx, Text: s.segments[idx]}) {
					return
				}
				if idx == len(s.segments)-1 {
					state = stateDone
					continue
				}
				state = statePausing

			case statePausing:
				if !wait(s.pause) {
					return
				}
				idx++
				state = stateComposing
			}
		}

		send(RevealEvent{Kind: RevealDone})
	}()

	return events
}
