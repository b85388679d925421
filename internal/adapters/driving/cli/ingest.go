package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docchat/internal/adapters/driven/upload"
	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
)

// watchDebounce is the quiet period before a watched change triggers a run.
const watchDebounce = 500 * time.Millisecond

var (
	ingestDir   string
	ingestWatch bool
	ingestJSON  bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [files...]",
	Short: "Index files into the knowledge base",
	Long: `Extracts, chunks and embeds PDF and text files into the knowledge base,
one file per tick. Files that are already indexed are skipped.

If a previous run of the session was interrupted, the same command resumes
it. Files that disappear from the selection while a run is active are
dropped from the queue.

Use --dir to ingest every file under a directory, and --watch to keep
ingesting as files are added to it.`,
	RunE: runIngest,
}

var ingestStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the ingestion state of the session",
	Args:  cobra.NoArgs,
	RunE:  runIngestStatus,
}

var ingestCancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel the active ingestion run",
	Args:  cobra.NoArgs,
	RunE:  runIngestCancel,
}

var ingestResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Return a finished run to idle",
	Args:  cobra.NoArgs,
	RunE:  runIngestReset,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestDir, "dir", "d", "", "ingest every file under this directory")
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "keep watching --dir for changes")
	ingestStatusCmd.Flags().BoolVar(&ingestJSON, "json", false, "output state as JSON")

	ingestCmd.AddCommand(ingestStatusCmd)
	ingestCmd.AddCommand(ingestCancelCmd)
	ingestCmd.AddCommand(ingestResetCmd)
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if sessionRegistry == nil || ingestionRunner == nil {
		return errors.New("ingestion service not configured")
	}

	source, dir, err := ingestSource(args)
	if err != nil {
		return err
	}
	if dir != nil {
		defer dir.Close() //nolint:errcheck // best-effort watcher cleanup
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ingestion := sessionRegistry.Ingestion(sessionID)
	if err := ingestOnce(ctx, cmd, ingestion, source); err != nil {
		return err
	}
	if !ingestWatch || ctx.Err() != nil {
		return nil
	}

	changes, err := dir.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch %s: %w", dir.Root(), err)
	}
	cmd.Printf("Watching %s for changes (Ctrl+C to stop)\n", dir.Root())

	for batch := range upload.Debounce(changes, watchDebounce) {
		for _, c := range batch {
			cmd.Printf("  %s %s\n", c.Type, c.Name)
		}
		if err := ingestOnce(ctx, cmd, ingestion, source); err != nil {
			return err
		}
	}
	return nil
}

// ingestSource picks the upload source from the arguments. The directory
// source is returned separately for watching and cleanup.
func ingestSource(args []string) (driven.UploadSource, *upload.DirectorySource, error) {
	switch {
	case ingestDir != "" && len(args) > 0:
		return nil, nil, errors.New("use either file arguments or --dir, not both")
	case ingestDir != "":
		dir := upload.NewDirectorySource(ingestDir)
		return dir, dir, nil
	case ingestWatch:
		return nil, nil, errors.New("--watch requires --dir")
	case len(args) > 0:
		static, err := upload.FromFiles(args...)
		if err != nil {
			return nil, nil, err
		}
		return static, nil, nil
	default:
		return nil, nil, errors.New("specify files to ingest or --dir")
	}
}

// ingestOnce starts or resumes a run and drives it to the end.
func ingestOnce(
	ctx context.Context,
	cmd *cobra.Command,
	ingestion driving.IngestionService,
	source driven.UploadSource,
) error {
	uploads, err := source.Uploads(ctx)
	if err != nil {
		return fmt.Errorf("list uploads: %w", err)
	}

	state, err := ingestion.Start(ctx, uploads)
	switch {
	case errors.Is(err, domain.ErrProcessingInProgress):
		cmd.Printf("Resuming ingestion at file %d of %d\n", state.CurrentFileIndex+1, state.TotalFiles)
	case domain.IsDeclinedStart(err):
		cmd.Println(declined(err))
		return nil
	case err != nil:
		return fmt.Errorf("start ingestion: %w", err)
	default:
		cmd.Printf("Ingesting %d file(s)\n", state.TotalFiles)
	}

	printer := newProgressPrinter(cmd.OutOrStdout())
	final, err := ingestionRunner.Run(ctx, ingestion, source, printer.tick)
	printer.done()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			cmd.Println("Interrupted. Run the same command again to resume.")
			return nil
		}
		return fmt.Errorf("ingestion failed: %w", err)
	}

	return printRunSummary(cmd, final)
}

func printRunSummary(cmd *cobra.Command, state domain.ProcessingState) error {
	switch state.Status {
	case domain.StatusCompleted:
		cmd.Printf("Done: %d indexed, %d skipped, %d failed\n",
			state.Count(domain.OutcomeIndexed),
			state.Count(domain.OutcomeSkipped),
			state.Count(domain.OutcomeFailed))
		return nil
	case domain.StatusError:
		return fmt.Errorf("ingestion stopped: %s", state.Message)
	default:
		cmd.Println(state.Message)
		return nil
	}
}

func runIngestStatus(cmd *cobra.Command, _ []string) error {
	if sessionRegistry == nil {
		return errors.New("ingestion service not configured")
	}

	state, err := sessionRegistry.Ingestion(sessionID).State(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}

	if ingestJSON {
		data, err := json.MarshalIndent(state, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal state: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Session: %s\n", sessionID)
	cmd.Printf("Status: %s\n", state.Status)
	if state.TotalFiles > 0 {
		cmd.Printf("Progress: %d/%d (%.0f%%)\n", state.CurrentFileIndex, state.TotalFiles, state.Progress*100)
	}
	if state.Message != "" {
		cmd.Printf("Message: %s\n", state.Message)
	}
	for _, r := range state.Results {
		cmd.Printf("  %s\n", formatResult(r))
	}
	return nil
}

func runIngestCancel(cmd *cobra.Command, _ []string) error {
	if sessionRegistry == nil {
		return errors.New("ingestion service not configured")
	}

	cancelled, err := sessionRegistry.Ingestion(sessionID).Cancel(commandContext(cmd), domain.CancelReasonDefault)
	if err != nil {
		return fmt.Errorf("failed to cancel: %w", err)
	}
	if !cancelled {
		cmd.Println("No active ingestion to cancel.")
		return nil
	}
	cmd.Println("Ingestion cancelled.")
	return nil
}

func runIngestReset(cmd *cobra.Command, _ []string) error {
	if sessionRegistry == nil {
		return errors.New("ingestion service not configured")
	}

	err := sessionRegistry.Ingestion(sessionID).Reset(commandContext(cmd))
	if errors.Is(err, domain.ErrProcessingInProgress) {
		return errors.New("ingestion is still running; cancel it first")
	}
	if err != nil {
		return fmt.Errorf("failed to reset: %w", err)
	}
	cmd.Println("Ingestion state reset.")
	return nil
}

func formatResult(r domain.FileResult) string {
	line := fmt.Sprintf("%-8s %s", r.Outcome, r.Filename)
	switch {
	case r.Outcome == domain.OutcomeIndexed:
		line += fmt.Sprintf(" (%d chunks, %s)", r.Chunks, r.Duration.Round(time.Millisecond))
	case r.Reason != "":
		line += fmt.Sprintf(" (%s)", r.Reason)
	}
	return line
}

// progressPrinter renders ticks. On a terminal the progress line is
// redrawn in place; otherwise only per-file results are printed.
type progressPrinter struct {
	out io.Writer
	tty bool
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	return &progressPrinter{out: out, tty: isTerminal(out)}
}

func (p *progressPrinter) tick(res driving.TickResult) error {
	if p.tty {
		fmt.Fprint(p.out, "\r\033[K")
	}
	if res.File != nil {
		fmt.Fprintf(p.out, "  %s\n", formatResult(*res.File))
	}
	if p.tty && res.State.Status.IsActive() {
		fmt.Fprintf(p.out, "%s %3.0f%% %s", progressBar(res.State.Progress, 24), res.State.Progress*100, res.State.Message)
	}
	return nil
}

func (p *progressPrinter) done() {
	if p.tty {
		fmt.Fprint(p.out, "\r\033[K")
	}
}

func progressBar(progress float64, width int) string {
	filled := int(progress * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
