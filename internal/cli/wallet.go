package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sona-astrovision/astrochat/internal/api"
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Check and top up your coin balance",
}

var walletBalanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show your coin balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		mobile, err := requireLogin()
		if err != nil {
			return err
		}
		balance, err := backend.GetBalance(cmd.Context(), mobile)
		if err != nil {
			return fmt.Errorf("fetch balance: %w", err)
		}
		fmt.Printf("Balance: %.2f coins\n", balance)
		return nil
	},
}

var walletHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show your wallet ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		mobile, err := requireLogin()
		if err != nil {
			return err
		}
		txs, err := backend.GetTransactionHistory(cmd.Context(), mobile)
		if err != nil {
			return fmt.Errorf("fetch transactions: %w", err)
		}
		if len(txs) == 0 {
			fmt.Println("No transactions yet.")
			return nil
		}
		for _, tx := range txs {
			sign := "-"
			if tx.Type == "credit" {
				sign = "+"
			}
			fmt.Printf("%s  %s%.2f  (balance %.2f)", tx.CreatedAt, sign, tx.Amount, tx.Balance)
			if tx.Note != "" {
				fmt.Printf("  %s", tx.Note)
			}
			fmt.Println()
		}
		return nil
	},
}

var walletRechargeCmd = &cobra.Command{
	Use:   "recharge <amount>",
	Short: "Top up your wallet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mobile, err := requireLogin()
		if err != nil {
			return err
		}
		amount, err := strconv.ParseFloat(args[0], 64)
		if err != nil || amount <= 0 {
			return fmt.Errorf("amount must be a positive number")
		}
		input := api.RechargeInput{Mobile: mobile, Amount: amount}
		if err := backend.RechargeWallet(cmd.Context(), input); err != nil {
			return fmt.Errorf("recharge failed: %w", err)
		}
		balance, err := backend.GetBalance(cmd.Context(), mobile)
		if err != nil {
			fmt.Printf("Recharged %.2f coins.\n", amount)
			return nil
		}
		fmt.Printf("Recharged %.2f coins. New balance: %.2f\n", amount, balance)
		return nil
	},
}

var walletStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the coin system is enabled",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := backend.GetWalletStatus(cmd.Context())
		if err != nil {
			return fmt.Errorf("fetch wallet status: %w", err)
		}
		if status.Enabled {
			fmt.Println("Coin system: enabled")
		} else {
			fmt.Println("Coin system: disabled (consultations are free right now)")
		}
		return nil
	},
}

func init() {
	walletCmd.AddCommand(walletBalanceCmd)
	walletCmd.AddCommand(walletHistoryCmd)
	walletCmd.AddCommand(walletRechargeCmd)
	walletCmd.AddCommand(walletStatusCmd)
}
