package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sona-astrovision/astrochat/internal/store"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Operator tools: users, prompts, stats, prompt tester",
}

var adminLoginCmd = &cobra.Command{
	Use:   "login <username>",
	Short: "Log in as an operator",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Print("Password: ")
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}

		res, err := backend.AdminLogin(cmd.Context(), args[0], string(password))
		if err != nil {
			return fmt.Errorf("admin login failed: %w", err)
		}
		// The admin token replaces any user token; subsequent calls
		// authenticate as the operator.
		if err := st.Set(store.KeyToken, res.AccessToken); err != nil {
			return fmt.Errorf("save token: %w", err)
		}
		fmt.Println("Admin session active.")
		return nil
	},
}

var adminUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "List registered users",
	RunE: func(cmd *cobra.Command, args []string) error {
		users, err := backend.GetAllUsers(cmd.Context())
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}
		if len(users) == 0 {
			fmt.Println("No users.")
			return nil
		}
		for _, u := range users {
			name := u.Name
			if name == "" {
				name = "(unregistered)"
			}
			fmt.Printf("%s  %-20s  sessions=%d", u.Mobile, name, u.SessionCount)
			if u.WalletBalance != nil {
				fmt.Printf("  balance=%.2f", *u.WalletBalance)
			}
			if u.LastActiveAt != "" {
				fmt.Printf("  last-active=%s", u.LastActiveAt)
			}
			fmt.Println()
		}
		return nil
	},
}

var adminUserDetailsCmd = &cobra.Command{
	Use:   "user-details <mobile>",
	Short: "Dump the detail record for one user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := backend.GetUserDetails(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("user details: %w", err)
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			fmt.Println(string(raw))
			return nil
		}
		fmt.Println(buf.String())
		return nil
	},
}

func newPromptCmd(name, short string, get func(context.Context) (string, error), set func(context.Context, string) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   name,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := get(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetch prompt: %w", err)
			}
			fmt.Println(prompt)
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <file>",
		Short: "Replace the prompt with the contents of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read prompt file: %w", err)
			}
			if err := set(cmd.Context(), string(data)); err != nil {
				return fmt.Errorf("update prompt: %w", err)
			}
			fmt.Println("Prompt updated.")
			return nil
		},
	})
	return cmd
}

var statsRange string

var adminStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the dashboard overview",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := backend.GetDashboardStats(cmd.Context(), statsRange)
		if err != nil {
			return fmt.Errorf("fetch stats: %w", err)
		}
		fmt.Printf("Users:            %d (%+.1f%%)\n", stats.TotalUsers, stats.Trends.Users)
		fmt.Printf("Active today:     %d\n", stats.ActiveToday)
		fmt.Printf("Conversations:    %d (%+.1f%%)\n", stats.TotalConversations, stats.Trends.Conversations)
		fmt.Printf("Avg RAG score:    %.2f\n", stats.AverageRAGScore)
		fmt.Printf("Wallet volume:    %.2f (%+.1f%%)\n", stats.WalletVolume, stats.Trends.Wallet)
		fmt.Printf("Dakshina total:   %.2f (wallet %.2f, gateway %.2f)\n",
			stats.TotalDakshina, stats.DakshinaWallet, stats.DakshinaGateway)
		fmt.Printf("Tokens used:      %d\n", stats.TotalTokens)
		fmt.Printf("AI cost:          %.4f\n", stats.AICost)
		fmt.Printf("Current balance:  %.2f\n", stats.CurrentBalance)
		fmt.Printf("Subscriptions:    %d\n", stats.ActiveSubscriptions)
		return nil
	},
}

var adminTesterCmd = &cobra.Command{
	Use:   "tester",
	Short: "Prompt tester: upload a document, process it, chat against it",
}

var testerUploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a reference document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open file: %w", err)
		}
		defer f.Close()

		res, err := backend.TestUpload(cmd.Context(), filepath.Base(args[0]), f)
		if err != nil {
			return fmt.Errorf("upload failed: %w", err)
		}
		fmt.Printf("Uploaded as %s\n", res.Filename)
		return nil
	},
}

var testerProcessCmd = &cobra.Command{
	Use:   "process <filename>",
	Short: "Index an uploaded document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := backend.TestProcess(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("process failed: %w", err)
		}
		fmt.Printf("Processed. doc_id=%s\n", res.DocID)
		return nil
	},
}

var (
	testerDocID string
	testerModel string
)

var testerChatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Run one turn against the tester",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := backend.TestChat(cmd.Context(), strings.Join(args, " "), testerDocID, testerModel)
		if err != nil {
			return fmt.Errorf("test chat failed: %w", err)
		}
		fmt.Println(res.Answer)
		if len(res.Metrics) > 0 {
			fmt.Println()
			for k, v := range res.Metrics {
				fmt.Printf("  %s: %v\n", k, v)
			}
		}
		return nil
	},
}

var adminWalletToggleCmd = &cobra.Command{
	Use:   "wallet-toggle <on|off>",
	Short: "Enable or disable the coin system product-wide",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var enabled bool
		switch strings.ToLower(args[0]) {
		case "on", "true", "enable":
			enabled = true
		case "off", "false", "disable":
			enabled = false
		default:
			return fmt.Errorf("expected 'on' or 'off', got %q", args[0])
		}
		if err := backend.ToggleWalletSystem(cmd.Context(), enabled); err != nil {
			return fmt.Errorf("toggle failed: %w", err)
		}
		fmt.Printf("Coin system set to %v.\n", enabled)
		return nil
	},
}

func init() {
	adminStatsCmd.Flags().StringVar(&statsRange, "range", "7D", "time range (24H, 7D, 30D, Last Month, ALL)")
	testerChatCmd.Flags().StringVar(&testerDocID, "doc", "", "doc_id from 'tester process'")
	testerChatCmd.Flags().StringVar(&testerModel, "model", "", "model to test against")

	adminTesterCmd.AddCommand(testerUploadCmd)
	adminTesterCmd.AddCommand(testerProcessCmd)
	adminTesterCmd.AddCommand(testerChatCmd)

	adminCmd.AddCommand(adminLoginCmd)
	adminCmd.AddCommand(adminUsersCmd)
	adminCmd.AddCommand(adminUserDetailsCmd)
	adminCmd.AddCommand(newPromptCmd("system-prompt", "Show or set the advisor prompt",
		func(ctx context.Context) (string, error) { return backend.GetSystemPrompt(ctx) },
		func(ctx context.Context, p string) error { return backend.UpdateSystemPrompt(ctx, p) }))
	adminCmd.AddCommand(newPromptCmd("maya-prompt", "Show or set the receptionist prompt",
		func(ctx context.Context) (string, error) { return backend.GetMayaPrompt(ctx) },
		func(ctx context.Context, p string) error { return backend.UpdateMayaPrompt(ctx, p) }))
	adminCmd.AddCommand(adminStatsCmd)
	adminCmd.AddCommand(adminTesterCmd)
	adminCmd.AddCommand(adminWalletToggleCmd)
}
