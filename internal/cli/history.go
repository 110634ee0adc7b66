package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List your past consultations",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 5, "max sessions to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	mobile, err := requireLogin()
	if err != nil {
		return err
	}

	sessions, err := backend.History(cmd.Context(), mobile)
	if err != nil {
		return fmt.Errorf("fetch history: %w", err)
	}
	if len(sessions) == 0 {
		fmt.Println("No past consultations.")
		return nil
	}

	shown := sessions
	if historyLimit > 0 && len(shown) > historyLimit {
		shown = shown[:historyLimit]
	}

	for i, s := range shown {
		fmt.Printf("%s (%d messages)\n", s.SessionID, len(s.Messages))
		for _, msg := range s.Messages {
			speaker := "You"
			if msg.Role == "assistant" {
				speaker = "Guruji"
				if msg.Assistant == "maya" {
					speaker = "Maya"
				}
			}
			fmt.Printf("  %s: %s\n", speaker, firstLine(msg.Content))
		}
		if i < len(shown)-1 {
			fmt.Println()
		}
	}
	if len(sessions) > len(shown) {
		fmt.Printf("\n… and %d more\n", len(sessions)-len(shown))
	}
	return nil
}

func firstLine(s string) string {
	s = strings.ReplaceAll(s, "<br>", "\n")
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	if len(s) > 100 {
		s = s[:97] + "…"
	}
	return s
}
