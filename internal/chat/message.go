// Package chat owns the consultation session: the message log, the
// user-readiness state machine, and the send/end/feedback/resume flows
// against the backend.
package chat

import (
	"fmt"
	"time"

	"github.com/sona-astrovision/astrochat/internal/api"
)

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// AssistantKind distinguishes the two personas: the receptionist ("maya")
// triages, the advisor ("guruji") answers in depth.
type AssistantKind string

const (
	AssistantReceptionist AssistantKind = "maya"
	AssistantAdvisor      AssistantKind = "guruji"
)

// UserStatus gates whether sends are allowed. Recomputed each mount,
// never persisted.
type UserStatus string

const (
	StatusChecking   UserStatus = "checking"
	StatusProcessing UserStatus = "processing"
	StatusReady      UserStatus = "ready"
	StatusFailed     UserStatus = "failed"
)

// Message is one turn of the conversation. The log is append-only; the
// only permitted mutation is clearing Animating once reveal completes.
type Message struct {
	Role       Role
	Content    string
	Assistant  AssistantKind
	Structured *api.StructuredReply
	Charge     float64

	// Animating is set on the newest assistant message until the reveal
	// sequencer finishes with it.
	Animating bool

	// Synthetic marks the local greeting, which never travels to the
	// backend as history.
	Synthetic bool
}

const greetingText = "welcome! I'll connect you to our astrologer.\nYou may call him as 'Guruji'"

func greeting() Message {
	return Message{
		Role:      RoleAssistant,
		Content:   greetingText,
		Assistant: AssistantReceptionist,
		Synthetic: true,
	}
}

// newSessionID mints a client-side session token. Timestamp-derived so a
// session can be correlated with server logs without a lookup.
func newSessionID() string {
	return fmt.Sprintf("SESS_%d", time.Now().UnixMilli())
}

// historyTurns converts the log to wire history, dropping the synthetic
// greeting.
func historyTurns(messages []Message) []api.ChatTurn {
	turns := make([]api.ChatTurn, 0, len(messages))
	for _, m := range messages {
		if m.Synthetic {
			continue
		}
		turns = append(turns, api.ChatTurn{Role: string(m.Role), Content: m.Content})
	}
	return turns
}

// allTurns converts the full log, greeting included. The end-chat endpoint
// summarizes the whole conversation as the user saw it.
func allTurns(messages []Message) []api.ChatTurn {
	turns := make([]api.ChatTurn, 0, len(messages))
	for _, m := range messages {
		turns = append(turns, api.ChatTurn{Role: string(m.Role), Content: m.Content})
	}
	return turns
}

// fromHistory maps server-held session messages into the local log.
func fromHistory(history []api.HistoryMessage) []Message {
	messages := make([]Message, 0, len(history))
	for _, h := range history {
		m := Message{
			Role:    Role(h.Role),
			Content: h.Content,
		}
		if m.Role == RoleAssistant {
			m.Assistant = AssistantKind(h.Assistant)
			if m.Assistant == "" {
				m.Assistant = AssistantAdvisor
			}
		}
		messages = append(messages, m)
	}
	return messages
}
