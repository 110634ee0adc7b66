package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sona-astrovision/astrochat/internal/api"
	"github.com/sona-astrovision/astrochat/internal/store"
)

// Gateway is the slice of the backend client the controller needs.
// *api.Client satisfies it.
type Gateway interface {
	SendMessage(ctx context.Context, mobile, message string, history []api.ChatTurn, sessionID string) (*api.ChatResponse, error)
	EndChat(ctx context.Context, mobile string, history []api.ChatTurn, sessionID string) (string, error)
	History(ctx context.Context, mobile string) ([]api.HistorySession, error)
	UserStatus(ctx context.Context, mobile string) (*api.StatusResult, error)
	SubmitFeedback(ctx context.Context, input api.FeedbackInput) error
}

// Events pushed to the shell. The shell renders them; it never decides.
type (
	// StatusEvent reports a user-readiness change.
	StatusEvent struct{ Status UserStatus }
	// WalletEvent reports a balance change piggybacked on a response.
	WalletEvent struct{ Balance float64 }
	// MessagesEvent carries a fresh snapshot of the log.
	MessagesEvent struct{ Messages []Message }
	// SummaryEvent delivers the server-computed session summary.
	SummaryEvent struct{ Text string }
	// InactivityEvent raises the "still here?" prompt.
	InactivityEvent struct{}
	// FeedbackSavedEvent confirms the rating was recorded.
	FeedbackSavedEvent struct{}
	// ErrorEvent surfaces a failed user-initiated operation.
	ErrorEvent struct {
		Op  string
		Err error
	}
)

// Event is one of the event types above.
type Event any

var (
	// ErrEmptySession rejects ending a conversation with no messages.
	ErrEmptySession = errors.New("no messages in session")
	// ErrRatingRequired rejects feedback without a rating. Checked before
	// any network call.
	ErrRatingRequired = errors.New("a rating is required")
)

const sendFailureReply = "Sorry, I encountered an error. Please try again."

// Options tunes the controller's timers. Zero values pick production
// defaults; tests inject short durations.
type Options struct {
	PollInterval    time.Duration // status poll while processing
	StatusFallback  time.Duration // force checking -> ready after this
	InactivityAfter time.Duration // idle span before the prompt
	Logger          *slog.Logger
}

func (o *Options) fillDefaults() {
	if o.PollInterval <= 0 {
		o.PollInterval = 3 * time.Second
	}
	if o.StatusFallback <= 0 {
		o.StatusFallback = 10 * time.Second
	}
	if o.InactivityAfter <= 0 {
		o.InactivityAfter = 10 * time.Minute
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Controller owns the session for the lifetime of the mounted chat view.
// Background work (status polling, the fallback timer, the inactivity
// watch) is bound to the controller's context and stops on Close. State
// is only ever touched while the controller is still open: every
// goroutine re-checks after an await before applying a result.
type Controller struct {
	gw   Gateway
	st   *store.Store
	log  *slog.Logger
	opts Options

	ctx    context.Context
	cancel context.CancelFunc

	mu              sync.Mutex
	mobile          string
	userName        string
	status          UserStatus
	messages        []Message
	sessionID       string
	startedAt       time.Time
	sending         bool
	summary         string
	hasSummary      bool
	wallet          float64
	rating          int
	comment         string
	feedbackDone    bool
	inactivityShown bool
	inactivity      *time.Timer

	events chan Event
}

// New creates a controller seeded with the greeting message and a fresh
// session id. Call Start to begin background work.
func New(gw Gateway, st *store.Store, opts Options) *Controller {
	opts.fillDefaults()

	c := &Controller{
		gw:        gw,
		st:        st,
		log:       opts.Logger,
		opts:      opts,
		status:    StatusChecking,
		messages:  []Message{greeting()},
		sessionID: newSessionID(),
		startedAt: time.Now(),
		wallet:    100,
		events:    make(chan Event, 128),
	}
	if st != nil {
		c.mobile, _ = st.Mobile()
		c.userName, _ = st.UserName()
	}
	return c
}

// Start launches the status watch, the history resume (unless startNew
// carries an explicit new-session intent) and the inactivity timer.
func (c *Controller) Start(ctx context.Context, startNew bool) {
	c.ctx, c.cancel = context.WithCancel(ctx)

	if startNew {
		c.NewSession()
	} else {
		go c.resume()
	}
	go c.watchStatus()
	c.armInactivity()
}

// Close stops all background work. In-flight HTTP requests are not
// aborted; their results are discarded when they land.
func (c *Controller) Close() {
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Lock()
	if c.inactivity != nil {
		c.inactivity.Stop()
	}
	c.mu.Unlock()
}

// Events is the stream the shell renders from.
func (c *Controller) Events() <-chan Event { return c.events }

func (c *Controller) closed() bool {
	return c.ctx == nil || c.ctx.Err() != nil
}

// reqCtx detaches gateway calls from the controller's lifetime so a
// request outlives Close; the closed() guard discards its result instead.
func (c *Controller) reqCtx() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return context.WithoutCancel(c.ctx)
}

func (c *Controller) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
		c.log.Warn("event dropped, consumer too slow", "event", ev)
	}
}

// watchStatus runs the checking -> processing -> {ready, failed} machine.
// A fallback timer forces ready if the first check never answers, and an
// unreachable status endpoint degrades to ready rather than locking the
// user out.
func (c *Controller) watchStatus() {
	fallback := time.AfterFunc(c.opts.StatusFallback, func() {
		if c.closed() {
			return
		}
		c.mu.Lock()
		if c.status != StatusChecking {
			c.mu.Unlock()
			return
		}
		c.status = StatusReady
		c.mu.Unlock()
		c.log.Warn("status check timed out, assuming ready")
		c.emit(StatusEvent{Status: StatusReady})
	})
	defer fallback.Stop()

	res, err := c.gw.UserStatus(c.reqCtx(), c.mobileNumber())
	if c.closed() {
		return
	}
	if err != nil {
		c.log.Warn("status check failed, assuming ready", "error", err)
		c.setStatus(StatusReady)
		return
	}
	c.applyStatus(res)

	if UserStatus(res.Status) != StatusProcessing {
		return
	}

	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
		}

		res, err := c.gw.UserStatus(c.reqCtx(), c.mobileNumber())
		if c.closed() {
			return
		}
		if err != nil {
			c.log.Warn("status poll failed", "error", err)
			continue
		}
		c.applyStatus(res)
		if s := UserStatus(res.Status); s == StatusReady || s == StatusFailed {
			return
		}
	}
}

func (c *Controller) applyStatus(res *api.StatusResult) {
	c.mu.Lock()
	c.status = UserStatus(res.Status)
	if res.UserProfile != nil && res.UserProfile.Name != "" {
		c.userName = res.UserProfile.Name
		if c.st != nil {
			if err := c.st.Set(store.KeyUserName, res.UserProfile.Name); err != nil {
				c.log.Warn("failed to cache user name", "error", err)
			}
		}
	}
	status := c.status
	var wallet *float64
	if res.WalletBalance != nil {
		c.wallet = *res.WalletBalance
		wallet = res.WalletBalance
	}
	c.mu.Unlock()

	c.emit(StatusEvent{Status: status})
	if wallet != nil {
		c.emit(WalletEvent{Balance: *wallet})
	}
}

func (c *Controller) setStatus(s UserStatus) {
	c.mu.Lock()
	c.status = s
	c.mu.Unlock()
	c.emit(StatusEvent{Status: s})
}

// resume adopts the server's most recent session wholesale, but only
// while the local log is still at its greeting-only state. The length
// heuristic is deliberate; there is no staleness check.
func (c *Controller) resume() {
	sessions, err := c.gw.History(c.reqCtx(), c.mobileNumber())
	if c.closed() {
		return
	}
	if err != nil {
		c.log.Warn("failed to load chat history", "error", err)
		return
	}
	if len(sessions) == 0 || len(sessions[0].Messages) == 0 {
		return
	}

	recent := sessions[0]
	c.mu.Lock()
	if len(c.messages) > 2 {
		c.mu.Unlock()
		return
	}
	c.sessionID = recent.SessionID
	c.messages = fromHistory(recent.Messages)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.emit(MessagesEvent{Messages: snap})
}

// Send appends the user's message and asks the backend for a reply.
// Returns false when the send is dropped: blank text, a send already
// outstanding, or the user not ready. Exactly one send is in flight at a
// time; extra attempts are dropped, not queued.
func (c *Controller) Send(text string) bool {
	text = strings.TrimSpace(text)

	c.mu.Lock()
	if text == "" || c.sending || c.status != StatusReady {
		c.mu.Unlock()
		return false
	}
	c.sending = true
	history := historyTurns(c.messages)
	c.messages = append(c.messages, Message{Role: RoleUser, Content: text})
	mobile := c.mobile
	sessionID := c.sessionID
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.emit(MessagesEvent{Messages: snap})
	c.armInactivity()

	go func() {
		defer func() {
			if c.closed() {
				return
			}
			c.mu.Lock()
			c.sending = false
			c.mu.Unlock()
		}()

		if mobile == "" {
			c.appendAssistant(Message{Role: RoleAssistant, Content: "Session error. Please log in again."})
			return
		}

		res, err := c.gw.SendMessage(c.reqCtx(), mobile, text, history, sessionID)
		if c.closed() {
			return
		}
		if err != nil {
			c.log.Error("chat send failed", "error", err, "session_id", sessionID)
			c.appendAssistant(Message{Role: RoleAssistant, Content: sendFailureReply, Assistant: AssistantAdvisor})
			return
		}

		kind := AssistantKind(res.Assistant)
		if kind == "" {
			kind = AssistantAdvisor
		}
		if res.WalletBalance != nil {
			c.mu.Lock()
			c.wallet = *res.WalletBalance
			c.mu.Unlock()
			c.emit(WalletEvent{Balance: *res.WalletBalance})
		}
		c.appendAssistant(Message{
			Role:       RoleAssistant,
			Content:    res.Answer,
			Assistant:  kind,
			Structured: res.GurujiJSON,
			Charge:     res.Amount,
			Animating:  true,
		})
	}()
	return true
}

func (c *Controller) appendAssistant(msg Message) {
	c.mu.Lock()
	c.messages = append(c.messages, msg)
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.emit(MessagesEvent{Messages: snap})
}

// End asks the backend to summarize the session. On failure the session
// stays open and the error is surfaced; end is never force-completed.
func (c *Controller) End(keepFeedback bool) error {
	c.mu.Lock()
	if len(c.messages) == 0 {
		c.mu.Unlock()
		return ErrEmptySession
	}
	c.inactivityShown = false
	history := allTurns(c.messages)
	mobile := c.mobile
	sessionID := c.sessionID
	c.mu.Unlock()

	go func() {
		summary, err := c.gw.EndChat(c.reqCtx(), mobile, history, sessionID)
		if c.closed() {
			return
		}
		if err != nil {
			c.log.Error("end chat failed", "error", err, "session_id", sessionID)
			c.emit(ErrorEvent{Op: "end", Err: err})
			return
		}

		c.mu.Lock()
		c.summary = summary
		c.hasSummary = true
		if !keepFeedback {
			c.rating = 0
			c.comment = ""
			c.feedbackDone = false
		}
		c.mu.Unlock()
		c.emit(SummaryEvent{Text: summary})
	}()
	return nil
}

// SubmitFeedback records the rating, then closes the backend's session
// record as a best-effort side call whose failure is only logged.
// A zero rating is rejected before any network traffic.
func (c *Controller) SubmitFeedback(rating int, comment string) error {
	if rating < 1 {
		return ErrRatingRequired
	}

	c.mu.Lock()
	if c.feedbackDone {
		c.mu.Unlock()
		return nil
	}
	mobile := c.mobile
	sessionID := c.sessionID
	history := allTurns(c.messages)
	c.mu.Unlock()

	go func() {
		err := c.gw.SubmitFeedback(c.reqCtx(), api.FeedbackInput{
			Mobile:    mobile,
			SessionID: sessionID,
			Rating:    rating,
			Feedback:  comment,
		})
		if c.closed() {
			return
		}
		if err != nil {
			c.log.Error("feedback submit failed", "error", err, "session_id", sessionID)
			c.emit(ErrorEvent{Op: "feedback", Err: err})
			return
		}

		c.mu.Lock()
		c.feedbackDone = true
		c.rating = rating
		c.comment = comment
		c.mu.Unlock()
		c.emit(FeedbackSavedEvent{})

		// Fire-and-forget: make sure the backend record is closed. The
		// user already got their confirmation.
		go func() {
			if _, err := c.gw.EndChat(c.reqCtx(), mobile, history, sessionID); err != nil {
				c.log.Warn("silent end-chat after feedback failed", "error", err, "session_id", sessionID)
			}
		}()
	}()
	return nil
}

// NewSession resets the conversation to its initial state with a fresh
// session id. Identity in the store is untouched.
func (c *Controller) NewSession() {
	c.mu.Lock()
	c.messages = []Message{greeting()}
	c.sessionID = newSessionID()
	c.startedAt = time.Now()
	c.summary = ""
	c.hasSummary = false
	c.rating = 0
	c.comment = ""
	c.feedbackDone = false
	c.inactivityShown = false
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.emit(MessagesEvent{Messages: snap})
	c.armInactivity()
}

// DismissSummary discards the summary and keeps the session open
// ("review chat").
func (c *Controller) DismissSummary() {
	c.mu.Lock()
	c.summary = ""
	c.hasSummary = false
	c.mu.Unlock()
	c.armInactivity()
}

// DismissInactivity clears the prompt and re-arms the watch.
func (c *Controller) DismissInactivity() {
	c.mu.Lock()
	c.inactivityShown = false
	c.mu.Unlock()
	c.armInactivity()
}

// armInactivity (re)starts the single-shot idle timer. Any activity that
// calls it pushes the prompt out.
func (c *Controller) armInactivity() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inactivity != nil {
		c.inactivity.Stop()
	}
	c.inactivity = time.AfterFunc(c.opts.InactivityAfter, c.fireInactivity)
}

func (c *Controller) fireInactivity() {
	if c.closed() {
		return
	}
	c.mu.Lock()
	if c.hasSummary || c.inactivityShown || len(c.messages) < 2 {
		c.mu.Unlock()
		return
	}
	c.inactivityShown = true
	c.mu.Unlock()
	c.emit(InactivityEvent{})
}

// MarkRevealed clears the animating flag once the reveal sequencer is
// done. The only mutation the log ever sees.
func (c *Controller) MarkRevealed() {
	c.mu.Lock()
	for i := range c.messages {
		c.messages[i].Animating = false
	}
	c.mu.Unlock()
}

func (c *Controller) mobileNumber() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mobile
}

// Messages returns a snapshot of the log.
func (c *Controller) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() []Message {
	snap := make([]Message, len(c.messages))
	copy(snap, c.messages)
	return snap
}

// Status returns the current user-readiness.
func (c *Controller) Status() UserStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// SessionID returns the active session token.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Summary returns the pending summary, if one exists.
func (c *Controller) Summary() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summary, c.hasSummary
}

// WalletBalance returns the last observed coin balance.
func (c *Controller) WalletBalance() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.wallet
}

// UserName returns the display name, as last reported by the backend.
func (c *Controller) UserName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userName
}

// FeedbackSubmitted reports whether feedback was finalized for this
// session.
func (c *Controller) FeedbackSubmitted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.feedbackDone
}

// Sending reports whether a send is outstanding.
func (c *Controller) Sending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sending
}
