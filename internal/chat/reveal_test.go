package chat

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sona-astrovision/astrochat/internal/api"
)

func collectEvents(t *testing.T, ch <-chan RevealEvent, timeout time.Duration) []RevealEvent {
	t.Helper()
	var events []RevealEvent
	deadline := time.After(timeout)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-deadline:
			t.Fatalf("timed out waiting for sequencer; got %d events so far", len(events))
		}
	}
}

func TestAnimatedRevealSequence(t *testing.T) {
	reply := &api.StructuredReply{
		Para1:    "The first house speaks.",
		Para2:    "Saturn is patient.",
		Para3:    "A change approaches.",
		FollowUp: "Shall we look at your career?",
	}

	seq := NewSequencer(reply, true, WithUnit(time.Millisecond))
	events := collectEvents(t, seq.Run(context.Background()), 5*time.Second)

	var reveals, composings, dones int
	lastKind := RevealDone
	for i, ev := range events {
		switch ev.Kind {
		case RevealComposing:
			composings++
		case RevealSegment:
			reveals++
			// The composing indicator must be active immediately before
			// every reveal.
			if i == 0 || lastKind != RevealComposing {
				t.Errorf("event %d: reveal not preceded by composing", i)
			}
		case RevealDone:
			dones++
		}
		lastKind = ev.Kind
	}

	if reveals != 3 {
		t.Errorf("got %d reveal events, want 3", reveals)
	}
	if composings != 3 {
		t.Errorf("got %d composing events, want 3", composings)
	}
	if dones != 1 {
		t.Errorf("got %d done events, want exactly 1", dones)
	}
	if events[len(events)-1].Kind != RevealDone {
		t.Error("done event is not last")
	}
}

func TestEmptySegmentsFiltered(t *testing.T) {
	reply := &api.StructuredReply{
		Para1: "Only this one has content.",
		Para2: "   ",
		Para3: "",
	}

	// The blank middle paragraph is dropped; the follow-up prompt still
	// closes the sequence.
	seq := NewSequencer(reply, true, WithUnit(time.Millisecond))
	if got := len(seq.Segments()); got != 2 {
		t.Fatalf("got %d segments, want 2", got)
	}

	events := collectEvents(t, seq.Run(context.Background()), 5*time.Second)

	var reveals int
	for _, ev := range events {
		if ev.Kind == RevealSegment {
			reveals++
		}
	}
	if reveals != 2 {
		t.Errorf("got %d reveal events, want 2", reveals)
	}
}

func TestFollowUpSurvivesBlankClosingParagraph(t *testing.T) {
	reply := &api.StructuredReply{
		Para1:    "The first house speaks.",
		Para2:    "Saturn is patient.",
		Para3:    "",
		FollowUp: "Shall we look at your career?",
	}

	segs := NewSequencer(reply, false).Segments()
	if len(segs) != 3 {
		t.Fatalf("got %d segments %q, want 3 (follow-up kept as third)", len(segs), segs)
	}
	if segs[2] != "Shall we look at your career?" {
		t.Errorf("third segment = %q, want the bare follow-up prompt", segs[2])
	}
}

func TestNoAnimationRevealsImmediately(t *testing.T) {
	reply := &api.StructuredReply{
		Para1:    "One.",
		Para2:    "Two.",
		Para3:    "Three.",
		FollowUp: "More?",
	}

	// Long unit: if the sequencer timed anything, collection would stall.
	seq := NewSequencer(reply, false, WithUnit(time.Hour))
	events := collectEvents(t, seq.Run(context.Background()), time.Second)

	var reveals, composings, dones int
	for _, ev := range events {
		switch ev.Kind {
		case RevealComposing:
			composings++
		case RevealSegment:
			reveals++
		case RevealDone:
			dones++
		}
	}
	if reveals != 3 || composings != 0 || dones != 1 {
		t.Errorf("got reveals=%d composings=%d dones=%d, want 3/0/1", reveals, composings, dones)
	}
}

func TestFollowUpAppendedToThirdSegment(t *testing.T) {
	tests := []struct {
		name  string
		reply *api.StructuredReply
		want  string
	}{
		{
			name:  "explicit follow_up",
			reply: &api.StructuredReply{Para3: "Closing thought.", FollowUp: "Ask about love?"},
			want:  "Ask about love?",
		},
		{
			name:  "legacy followup key",
			reply: &api.StructuredReply{Para3: "Closing thought.", FollowUp2: "Legacy prompt"},
			want:  "Legacy prompt",
		},
		{
			name:  "stock prompt fallback",
			reply: &api.StructuredReply{Para3: "Closing thought."},
			want:  "🤔 What's Next?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq := NewSequencer(tt.reply, false)
			segs := seq.Segments()
			if len(segs) != 1 {
				t.Fatalf("got %d segments, want 1", len(segs))
			}
			if !strings.Contains(segs[0], tt.want) {
				t.Errorf("segment %q missing follow-up %q", segs[0], tt.want)
			}
		})
	}
}

func TestNilReplyCompletesOnce(t *testing.T) {
	seq := NewSequencer(nil, true, WithUnit(time.Millisecond))
	events := collectEvents(t, seq.Run(context.Background()), time.Second)

	if len(events) != 1 || events[0].Kind != RevealDone {
		t.Errorf("got %v, want single done event", events)
	}
}

func TestCancellationStopsSequence(t *testing.T) {
	reply := &api.StructuredReply{Para1: "One.", Para2: "Two.", Para3: "Three."}
	seq := NewSequencer(reply, true, WithUnit(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	ch := seq.Run(ctx)

	// First composing arrives, then the chain is stuck in its 3h wait.
	select {
	case ev := <-ch:
		if ev.Kind != RevealComposing {
			t.Fatalf("first event = %v, want composing", ev.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("no composing event")
	}

	cancel()

	select {
	case ev, ok := <-ch:
		if ok {
			t.Fatalf("got event %v after cancel, want closed channel", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}
