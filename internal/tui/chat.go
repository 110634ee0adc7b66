// Package tui renders the chat view. It is a pure shell: every decision
// lives in the session controller; this model only draws controller
// events and forwards key presses.
package tui

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/sona-astrovision/astrochat/internal/chat"
)

// mode selects which overlay owns the keyboard.
type mode int

const (
	modeChat mode = iota
	modeInactivity
	modeSummary
	modeThanks
)

// ctrlEventMsg wraps one controller event.
type ctrlEventMsg struct{ ev chat.Event }

// revealEventMsg wraps one reveal-sequencer event; ok is false when the
// sequence ended.
type revealEventMsg struct {
	ev chat.RevealEvent
	ok bool
}

// Model is the bubbletea model for a consultation.
type Model struct {
	ctrl  *chat.Controller
	theme Theme

	input   textinput.Model
	spinner spinner.Model

	width    int
	messages []chat.Message
	status   chat.UserStatus
	wallet   float64
	userName string

	mode    mode
	summary string
	rating  int
	errText string

	// reveal state for the newest animating message
	revealCh     <-chan chat.RevealEvent
	revealCancel context.CancelFunc
	revealed     []string
	composing    bool

	quitting bool
}

// NewModel builds the chat view around a started controller.
func NewModel(ctrl *chat.Controller) Model {
	input := textinput.New()
	input.Placeholder = "Ask Guruji anything…"
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctrl:     ctrl,
		theme:    defaultTheme,
		input:    input,
		spinner:  sp,
		width:    80,
		messages: ctrl.Messages(),
		status:   ctrl.Status(),
		wallet:   ctrl.WalletBalance(),
		userName: ctrl.UserName(),
	}
}

// Init starts listening for controller events.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitCtrl(), m.spinner.Tick)
}

// waitCtrl receives the next controller event as a command.
func (m Model) waitCtrl() tea.Cmd {
	events := m.ctrl.Events()
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return ctrlEventMsg{ev: ev}
	}
}

// waitReveal receives the next sequencer event as a command.
func (m Model) waitReveal() tea.Cmd {
	ch := m.revealCh
	return func() tea.Msg {
		ev, ok := <-ch
		return revealEventMsg{ev: ev, ok: ok}
	}
}

// Update handles messages and returns the updated model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case ctrlEventMsg:
		return m.handleCtrlEvent(msg.ev)

	case revealEventMsg:
		return m.handleReveal(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		m.stopReveal()
		return m, tea.Quit
	}

	switch m.mode {
	case modeInactivity:
		switch msg.String() {
		case "c", "esc":
			m.mode = modeChat
			m.ctrl.DismissInactivity()
		case "e", "enter":
			m.mode = modeChat
			m.ctrl.DismissInactivity()
			m.endChat()
		}
		return m, nil

	case modeSummary:
		switch msg.String() {
		case "1", "2", "3", "4", "5":
			m.rating = int(msg.String()[0] - '0')
			return m, nil
		case "r", "esc":
			m.mode = modeChat
			m.rating = 0
			m.input.SetValue("")
			m.input.Placeholder = "Ask Guruji anything…"
			m.ctrl.DismissSummary()
			return m, nil
		case "enter":
			if err := m.ctrl.SubmitFeedback(m.rating, m.input.Value()); err != nil {
				m.errText = "Please rate the session first (press 1-5)."
				return m, nil
			}
			m.errText = ""
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case modeThanks:
		switch msg.String() {
		case "n":
			m.mode = modeChat
			m.input.SetValue("")
			m.input.Placeholder = "Ask Guruji anything…"
			m.stopReveal()
			m.ctrl.NewSession()
		case "q", "esc":
			m.quitting = true
			m.stopReveal()
			return m, tea.Quit
		}
		return m, nil
	}

	// modeChat
	switch msg.String() {
	case "enter":
		if m.ctrl.Send(m.input.Value()) {
			m.input.SetValue("")
			m.errText = ""
		}
		return m, nil
	case "ctrl+e":
		m.endChat()
		return m, nil
	case "ctrl+n":
		m.stopReveal()
		m.ctrl.NewSession()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) endChat() {
	if err := m.ctrl.End(false); err != nil {
		m.errText = "Nothing to summarize yet."
	}
}

func (m Model) handleCtrlEvent(ev chat.Event) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{m.waitCtrl()}

	switch ev := ev.(type) {
	case chat.MessagesEvent:
		m.messages = ev.Messages
		if cmd := m.maybeStartReveal(); cmd != nil {
			cmds = append(cmds, cmd)
		}

	case chat.StatusEvent:
		m.status = ev.Status
		m.userName = m.ctrl.UserName()

	case chat.WalletEvent:
		m.wallet = ev.Balance

	case chat.SummaryEvent:
		m.summary = ev.Text
		m.mode = modeSummary
		m.rating = 0
		m.input.SetValue("")
		m.input.Placeholder = "Add a thought…"

	case chat.InactivityEvent:
		if m.mode == modeChat {
			m.mode = modeInactivity
		}

	case chat.FeedbackSavedEvent:
		m.mode = modeThanks

	case chat.ErrorEvent:
		if reqMsg := userMessage(ev.Err); reqMsg != "" {
			m.errText = reqMsg
		}
	}

	return m, tea.Batch(cmds...)
}

// maybeStartReveal kicks off the sequencer when the newest message is an
// animating structured reply.
func (m *Model) maybeStartReveal() tea.Cmd {
	if len(m.messages) == 0 {
		return nil
	}
	last := m.messages[len(m.messages)-1]
	if last.Role != chat.RoleAssistant || !last.Animating {
		return nil
	}
	if last.Structured == nil {
		// Plain replies have nothing to sequence.
		m.ctrl.MarkRevealed()
		return nil
	}

	m.stopReveal()
	ctx, cancel := context.WithCancel(context.Background())
	m.revealCancel = cancel
	m.revealed = nil
	m.composing = false
	m.revealCh = chat.NewSequencer(last.Structured, true).Run(ctx)
	return m.waitReveal()
}

func (m *Model) stopReveal() {
	if m.revealCancel != nil {
		m.revealCancel()
		m.revealCancel = nil
	}
	m.revealCh = nil
	m.composing = false
}

func (m Model) handleReveal(msg revealEventMsg) (tea.Model, tea.Cmd) {
	if !msg.ok {
		m.composing = false
		return m, nil
	}

	switch msg.ev.Kind {
	case chat.RevealComposing:
		m.composing = true
	case chat.RevealSegment:
		m.composing = false
		m.revealed = append(m.revealed, msg.ev.Text)
	case chat.RevealDone:
		m.composing = false
		m.ctrl.MarkRevealed()
	}
	return m, m.waitReveal()
}

// View renders the chat.
func (m Model) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m Model) renderContent() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch m.mode {
	case modeInactivity:
		b.WriteString(m.renderInactivity())
	case modeSummary:
		b.WriteString(m.renderSummary())
	case modeThanks:
		b.WriteString(m.renderThanks())
	default:
		b.WriteString(m.renderMessages())
		b.WriteString("\n")
		b.WriteString(m.renderFooter())
	}

	if m.errText != "" {
		b.WriteString("\n")
		b.WriteString(m.theme.errorStyle().Render(m.errText))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderHeader() string {
	name := m.userName
	if name == "" {
		name = "Seeker"
	}
	left := m.theme.advisorLabel().Render("✦ Findastro")
	right := fmt.Sprintf("%s · %.0f coins · %s", name, m.wallet, m.renderStatus())
	return left + "   " + m.theme.hintStyle().Render(right)
}

func (m Model) renderStatus() string {
	switch m.status {
	case chat.StatusReady:
		return "ready"
	case chat.StatusProcessing:
		return "preparing your chart…"
	case chat.StatusFailed:
		return "chart processing failed"
	default:
		return "connecting…"
	}
}

func (m Model) renderMessages() string {
	var b strings.Builder
	animIdx := -1
	if n := len(m.messages); n > 0 && m.messages[n-1].Animating {
		animIdx = n - 1
	}

	for i, msg := range m.messages {
		switch {
		case msg.Role == chat.RoleUser:
			b.WriteString(m.theme.userLabel().Render("You: "))
			b.WriteString(msg.Content)
		case msg.Structured != nil:
			b.WriteString(m.renderStructured(msg, i == animIdx))
		default:
			b.WriteString(m.assistantLabel(msg.Assistant))
			b.WriteString(strings.ReplaceAll(msg.Content, "<br>", "\n"))
		}
		if msg.Charge > 0 {
			b.WriteString("\n")
			b.WriteString(m.theme.premiumStyle().Render(fmt.Sprintf("  PREMIUM: -%.0f coins", msg.Charge)))
		}
		b.WriteString("\n\n")
	}

	if m.ctrl.Sending() {
		b.WriteString(m.spinner.View())
		b.WriteString(m.theme.hintStyle().Render(" Guruji is consulting the charts…"))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderStructured(msg chat.Message, animating bool) string {
	var b strings.Builder
	b.WriteString(m.assistantLabel(msg.Assistant))

	segments := chat.NewSequencer(msg.Structured, false).Segments()
	if animating {
		segments = m.revealed
	}
	for i, seg := range segments {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(strings.ReplaceAll(seg, "<br>", "\n"))
	}
	if animating && m.composing {
		if len(segments) > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(m.theme.hintStyle().Render("● ● ●"))
	}
	return b.String()
}

func (m Model) assistantLabel(kind chat.AssistantKind) string {
	if kind == chat.AssistantReceptionist {
		return m.theme.receptionistLabel().Render("Maya: ")
	}
	return m.theme.advisorLabel().Render("Guruji: ")
}

func (m Model) renderFooter() string {
	var b strings.Builder
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.theme.hintStyle().Render("enter send · ctrl+e end consultation · ctrl+n new session · ctrl+c quit"))
	return b.String()
}

func (m Model) renderInactivity() string {
	box := m.theme.summaryBox().Render(
		"Still here?\n\n" +
			"Guruji is ready when you are. Wrap up this session\n" +
			"and receive your summary?\n\n" +
			m.theme.hintStyle().Render("e end & review · c continue"),
	)
	return box + "\n"
}

func (m Model) renderSummary() string {
	stars := strings.Repeat("★", m.rating) + strings.Repeat("☆", 5-m.rating)
	body := fmt.Sprintf(
		"Session Insights\n\n“%s”\n\nRate Guruji's wisdom: %s\n\nComment: %s\n\n%s",
		m.summary,
		stars,
		m.input.View(),
		m.theme.hintStyle().Render("1-5 rate · enter submit · r review chat"),
	)
	return m.theme.summaryBox().Render(body) + "\n"
}

func (m Model) renderThanks() string {
	body := "Gratitude!\n\n" +
		m.theme.successStyle().Render("✓ Your feedback has been cast into the heavens.") +
		"\n\n" +
		m.theme.hintStyle().Render("n new journey · q quit")
	return m.theme.summaryBox().Render(body) + "\n"
}
