package api

import (
	"context"
	"encoding/json"
	"io"
	"net/url"
)

// AdminLoginResult carries the admin bearer token.
type AdminLoginResult struct {
	AccessToken string `json:"access_token"`
}

// AdminUser is one row of the admin user listing.
type AdminUser struct {
	Mobile        string   `json:"mobile"`
	Name          string   `json:"name"`
	CreatedAt     string   `json:"created_at"`
	LastActiveAt  string   `json:"last_active_at"`
	SessionCount  int      `json:"session_count"`
	WalletBalance *float64 `json:"wallet_balance"`
}

// TrendStats holds percentage movement for the selected range.
type TrendStats struct {
	Users         float64 `json:"users"`
	Sessions      float64 `json:"sessions"`
	Conversations float64 `json:"conversations"`
	Wallet        float64 `json:"wallet"`
}

// DashboardStats is the admin overview payload.
type DashboardStats struct {
	TotalUsers          int        `json:"totalUsers"`
	ActiveToday         int        `json:"activeToday"`
	TotalConversations  int        `json:"totalConversations"`
	AverageRAGScore     float64    `json:"averageRAGScore"`
	WalletVolume        float64    `json:"walletVolume"`
	TotalDakshina       float64    `json:"totalDakshina"`
	DakshinaWallet      float64    `json:"dakshinaWallet"`
	DakshinaGateway     float64    `json:"dakshinaGateway"`
	TotalTokens         int64      `json:"totalTokens"`
	AICost              float64    `json:"aiCost"`
	CurrentBalance      float64    `json:"currentBalance"`
	ActiveSubscriptions int        `json:"activeSubscriptions"`
	Trends              TrendStats `json:"trends"`
}

// UploadResult names the stored document after a test upload.
type UploadResult struct {
	Filename string `json:"filename"`
}

// ProcessResult identifies the processed document for test chats.
type ProcessResult struct {
	DocID string `json:"doc_id"`
}

// TestChatResult is the answer from the prompt-tester endpoint.
type TestChatResult struct {
	Answer  string         `json:"answer"`
	Metrics map[string]any `json:"metrics"`
}

// AdminLogin authenticates an operator.
func (c *Client) AdminLogin(ctx context.Context, username, password string) (*AdminLoginResult, error) {
	var result AdminLoginResult
	body := map[string]string{"username": username, "password": password}
	if err := c.post(ctx, "/admin/login", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetAllUsers lists registered users.
func (c *Client) GetAllUsers(ctx context.Context) ([]AdminUser, error) {
	var result struct {
		Users []AdminUser `json:"users"`
	}
	if err := c.get(ctx, "/admin/users", &result); err != nil {
		return nil, err
	}
	return result.Users, nil
}

// GetUserDetails returns the raw detail record for one user. The shape
// varies with backend version, so it stays opaque here.
func (c *Client) GetUserDetails(ctx context.Context, mobile string) (json.RawMessage, error) {
	var result json.RawMessage
	if err := c.get(ctx, "/admin/user-details/"+url.PathEscape(mobile), &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetSystemPrompt fetches the advisor system prompt.
func (c *Client) GetSystemPrompt(ctx context.Context) (string, error) {
	return c.getPrompt(ctx, "/admin/system-prompt")
}

// UpdateSystemPrompt replaces the advisor system prompt.
func (c *Client) UpdateSystemPrompt(ctx context.Context, prompt string) error {
	return c.post(ctx, "/admin/system-prompt", map[string]string{"prompt": prompt}, nil)
}

// GetMayaPrompt fetches the receptionist prompt.
func (c *Client) GetMayaPrompt(ctx context.Context) (string, error) {
	return c.getPrompt(ctx, "/admin/maya-prompt")
}

// UpdateMayaPrompt replaces the receptionist prompt.
func (c *Client) UpdateMayaPrompt(ctx context.Context, prompt string) error {
	return c.post(ctx, "/admin/maya-prompt", map[string]string{"prompt": prompt}, nil)
}

func (c *Client) getPrompt(ctx context.Context, path string) (string, error) {
	var result struct {
		Prompt string `json:"prompt"`
	}
	if err := c.get(ctx, path, &result); err != nil {
		return "", err
	}
	return result.Prompt, nil
}

// TestUpload uploads a document for the prompt tester.
func (c *Client) TestUpload(ctx context.Context, fileName string, file io.Reader) (*UploadResult, error) {
	var result UploadResult
	if err := c.postMultipart(ctx, "/admin/test-upload", nil, "file", fileName, file, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// TestProcess indexes a previously uploaded document.
func (c *Client) TestProcess(ctx context.Context, filename string) (*ProcessResult, error) {
	fields := map[string]string{"filename": filename}
	var result ProcessResult
	if err := c.postMultipart(ctx, "/admin/test-process", fields, "", "", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// TestChat runs one turn against the prompt tester.
func (c *Client) TestChat(ctx context.Context, message, docID, model string) (*TestChatResult, error) {
	if model == "" {
		model = "gpt-4o-mini"
	}
	body := map[string]string{"message": message, "doc_id": docID, "model": model}
	var result TestChatResult
	if err := c.post(ctx, "/admin/test-chat", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetDashboardStats fetches the admin overview for a time range
// (24H, 7D, 30D, Last Month, ALL).
func (c *Client) GetDashboardStats(ctx context.Context, timeRange string) (*DashboardStats, error) {
	if timeRange == "" {
		timeRange = "7D"
	}
	var result DashboardStats
	if err := c.get(ctx, "/admin/stats?range="+url.QueryEscape(timeRange), &result); err != nil {
		return nil, err
	}
	return &result, nil
}
