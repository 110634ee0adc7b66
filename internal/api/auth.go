package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ChatTurn is one prior turn sent as conversation history.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StructuredReply is the advisor's multi-segment structured answer: up to
// three narrative paragraphs plus a follow-up prompt. Older backends used
// the followup key, newer ones follow_up; both are accepted.
type StructuredReply struct {
	Para1     string `json:"para1"`
	Para2     string `json:"para2"`
	Para3     string `json:"para3"`
	FollowUp  string `json:"follow_up"`
	FollowUp2 string `json:"followup"`
}

// FollowUpText returns the follow-up prompt, falling back to the legacy
// key and then to a stock prompt.
func (r *StructuredReply) FollowUpText() string {
	if s := strings.TrimSpace(r.FollowUp); s != "" {
		return s
	}
	if s := strings.TrimSpace(r.FollowUp2); s != "" {
		return s
	}
	return "🤔 What's Next?"
}

// ChatResponse is the backend's answer to one chat turn.
type ChatResponse struct {
	Answer        string           `json:"answer"`
	Assistant     string           `json:"assistant"`
	Metrics       map[string]any   `json:"metrics"`
	Context       json.RawMessage  `json:"context"`
	WalletBalance *float64         `json:"wallet_balance"`
	Amount        float64          `json:"amount"`
	MayaJSON      json.RawMessage  `json:"maya_json"`
	GurujiJSON    *StructuredReply `json:"guruji_json"`
}

// HistoryMessage is one message of a server-held session.
type HistoryMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Assistant string `json:"assistant"`
}

// HistorySession is one past conversation, newest first in the history
// response.
type HistorySession struct {
	SessionID string           `json:"session_id"`
	Messages  []HistoryMessage `json:"messages"`
}

// UserProfile is the subset of profile data the client uses.
type UserProfile struct {
	Name string `json:"name"`
}

// StatusResult is the user-status response: readiness of the user's birth
// chart processing, plus profile and wallet data piggybacked on the check.
type StatusResult struct {
	Status        string       `json:"status"`
	UserProfile   *UserProfile `json:"user_profile"`
	WalletBalance *float64     `json:"wallet_balance"`
}

// VerifyResult is the OTP verification response.
type VerifyResult struct {
	AccessToken string `json:"access_token"`
	IsNewUser   bool   `json:"is_new_user"`
}

// RegisterInput is the profile submitted for a new user. Birth details
// drive the chart computation on the backend.
type RegisterInput struct {
	Mobile     string `json:"mobile"`
	Name       string `json:"name"`
	Gender     string `json:"gender"`
	BirthDate  string `json:"birth_date"`
	BirthTime  string `json:"birth_time"`
	BirthPlace string `json:"birth_place"`
}

// FeedbackInput is a session rating submission.
type FeedbackInput struct {
	Mobile    string `json:"mobile"`
	SessionID string `json:"session_id"`
	Rating    int    `json:"rating"`
	Feedback  string `json:"feedback"`
}

// SendOTP requests a one-time password for the mobile number.
func (c *Client) SendOTP(ctx context.Context, mobile string) error {
	return c.post(ctx, "/auth/send-otp", map[string]string{"mobile": mobile}, nil)
}

// VerifyOTP exchanges mobile+otp for an access token.
func (c *Client) VerifyOTP(ctx context.Context, mobile, otp string) (*VerifyResult, error) {
	var result VerifyResult
	body := map[string]string{"mobile": mobile, "otp": otp}
	if err := c.post(ctx, "/auth/verify-otp", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Register submits a new user's profile.
func (c *Client) Register(ctx context.Context, input RegisterInput) error {
	return c.post(ctx, "/auth/register", input, nil)
}

// SendMessage sends one chat turn with the prior history.
func (c *Client) SendMessage(ctx context.Context, mobile, message string, history []ChatTurn, sessionID string) (*ChatResponse, error) {
	body := map[string]any{
		"mobile":     mobile,
		"message":    message,
		"history":    history,
		"session_id": sessionID,
	}
	var result ChatResponse
	if err := c.post(ctx, "/auth/chat", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// EndChat asks the backend to close the session and returns its summary.
func (c *Client) EndChat(ctx context.Context, mobile string, history []ChatTurn, sessionID string) (string, error) {
	body := map[string]any{
		"mobile":     mobile,
		"history":    history,
		"session_id": sessionID,
	}
	var result struct {
		Summary string `json:"summary"`
	}
	if err := c.post(ctx, "/auth/end-chat", body, &result); err != nil {
		return "", err
	}
	return result.Summary, nil
}

// History fetches the user's past sessions, most recent first.
func (c *Client) History(ctx context.Context, mobile string) ([]HistorySession, error) {
	var result struct {
		Sessions []HistorySession `json:"sessions"`
	}
	if err := c.get(ctx, "/auth/history/"+url.PathEscape(mobile), &result); err != nil {
		return nil, err
	}
	return result.Sessions, nil
}

// UserStatus checks whether the user's chart processing is done. A
// cache-buster keeps intermediaries from serving a stale "processing".
func (c *Client) UserStatus(ctx context.Context, mobile string) (*StatusResult, error) {
	path := fmt.Sprintf("/auth/user-status/%s?t=%d", url.PathEscape(mobile), time.Now().UnixMilli())
	var result StatusResult
	if err := c.get(ctx, path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SubmitFeedback records the user's rating for a session.
func (c *Client) SubmitFeedback(ctx context.Context, input FeedbackInput) error {
	return c.post(ctx, "/auth/feedback", input, nil)
}
