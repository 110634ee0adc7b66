package cli

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/sona-astrovision/astrochat/internal/chat"
	"github.com/sona-astrovision/astrochat/internal/tui"
)

var chatNew bool

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start or resume a consultation with Guruji",
	Long: `Open the chat view. The most recent server-held session is
resumed when the conversation has not started yet; pass --new to force a
fresh session.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatNew, "new", false, "start a fresh session instead of resuming")
}

func runChat(cmd *cobra.Command, args []string) error {
	if _, err := requireLogin(); err != nil {
		return err
	}

	ctrl := chat.New(backend, st, chat.Options{Logger: logger})
	ctrl.Start(cmd.Context(), chatNew)
	defer ctrl.Close()

	program := tea.NewProgram(tui.NewModel(ctrl))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("chat view: %w", err)
	}
	return nil
}
