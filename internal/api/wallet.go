package api

import (
	"context"
	"fmt"
	"net/url"
)

// WalletStatus reports whether the coin system is enabled product-wide.
type WalletStatus struct {
	Enabled bool `json:"enabled"`
}

// Transaction is one wallet ledger entry.
type Transaction struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"`
	Amount    float64 `json:"amount"`
	Balance   float64 `json:"balance"`
	Note      string  `json:"note"`
	CreatedAt string  `json:"created_at"`
}

// RechargeInput is a wallet top-up request.
type RechargeInput struct {
	Mobile string  `json:"mobile"`
	Amount float64 `json:"amount"`
}

// GetWalletStatus reports whether the wallet system is enabled.
func (c *Client) GetWalletStatus(ctx context.Context) (*WalletStatus, error) {
	var result WalletStatus
	if err := c.get(ctx, "/wallet/status", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetBalance returns the user's coin balance.
func (c *Client) GetBalance(ctx context.Context, mobile string) (float64, error) {
	var result struct {
		Balance float64 `json:"balance"`
	}
	if err := c.get(ctx, "/wallet/balance/"+url.PathEscape(mobile), &result); err != nil {
		return 0, err
	}
	return result.Balance, nil
}

// GetTransactionHistory returns the user's wallet ledger.
func (c *Client) GetTransactionHistory(ctx context.Context, mobile string) ([]Transaction, error) {
	var result struct {
		Transactions []Transaction `json:"transactions"`
	}
	if err := c.get(ctx, "/wallet/history/"+url.PathEscape(mobile), &result); err != nil {
		return nil, err
	}
	return result.Transactions, nil
}

// RechargeWallet tops up the user's balance.
func (c *Client) RechargeWallet(ctx context.Context, input RechargeInput) error {
	return c.post(ctx, "/wallet/recharge", input, nil)
}

// ToggleWalletSystem enables or disables coin debits product-wide
// (admin operation; the flag travels as a query parameter).
func (c *Client) ToggleWalletSystem(ctx context.Context, enabled bool) error {
	return c.post(ctx, fmt.Sprintf("/wallet/toggle-system?enabled=%t", enabled), nil, nil)
}
