package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docchat/internal/adapters/driven/upload"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

var chatDir string

// runApp runs the TUI. Replaced in tests.
var runApp = func(app *tui.App) error {
	return app.Run()
}

var chatCmd = &cobra.Command{
	Use:   "chat [files...]",
	Short: "Launch the interactive chat",
	Long: `Launch the interactive terminal interface.

Files given as arguments, or every file under --dir, are offered for
ingestion in the Files view. An interrupted ingestion run resumes when the
Files view loads.

Controls:
  Enter  - Ask / Select
  Esc    - Back
  i      - Start ingestion (Files)
  x      - Cancel ingestion (Files)
  d      - Remove file (Knowledge Base)
  ?      - Toggle help
  Ctrl+C - Quit`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatDir, "dir", "d", "", "offer every file under this directory")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	if chatService == nil {
		return errors.New("chat service not configured")
	}

	ports := &tui.Ports{
		Chat:         chatService,
		Knowledge:    knowledgeService,
		SessionID:    sessionID,
		TickInterval: tickInterval,
	}

	source, err := chatSource(args)
	if err != nil {
		return err
	}
	if source != nil && sessionRegistry != nil {
		ports.Sessions = sessionRegistry
		ports.Uploads = source
	}

	app, err := tui.NewAppWithContext(commandContext(cmd), ports)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	if err := runApp(app); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// chatSource returns the uploads offered to the Files view, or nil when
// none were given.
func chatSource(args []string) (driven.UploadSource, error) {
	switch {
	case chatDir != "" && len(args) > 0:
		return nil, errors.New("use either file arguments or --dir, not both")
	case chatDir != "":
		return upload.NewDirectorySource(chatDir), nil
	case len(args) > 0:
		static, err := upload.FromFiles(args...)
		if err != nil {
			return nil, err
		}
		return static, nil
	default:
		return nil, nil
	}
}
