package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	askJSON      bool
	historyJSON  bool
	historyClear bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question about your documents",
	Long: `Answers a question from the indexed documents. The question and the
answer are added to the session's conversation, so follow-up questions
can refer to earlier turns.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the session conversation",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output answer as JSON")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output messages as JSON")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "clear the conversation")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(historyCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}

	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return errors.New("question cannot be empty")
	}

	answer, err := chatService.Ask(commandContext(cmd), sessionID, question)
	if err != nil {
		return fmt.Errorf("failed to record conversation: %w", err)
	}

	if askJSON {
		data, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(answer.Text)
	if len(answer.Sources) > 0 {
		cmd.Println()
		cmd.Printf("Sources: %s\n", strings.Join(answer.Sources, ", "))
	}
	return nil
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}
	ctx := commandContext(cmd)

	if historyClear {
		if err := chatService.Clear(ctx, sessionID); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		cmd.Println("Conversation cleared.")
		return nil
	}

	messages, err := chatService.History(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	if historyJSON {
		data, err := json.MarshalIndent(messages, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal history: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(messages) == 0 {
		cmd.Println("No conversation yet.")
		return nil
	}

	for _, m := range messages {
		cmd.Printf("%s: %s\n\n", m.Role.Label(), m.Content)
	}

	summary, err := chatService.Summary(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to summarise history: %w", err)
	}
	cmd.Printf("%d messages (%d user, %d assistant)\n", summary.Total, summary.User, summary.Assistant)
	return nil
}
