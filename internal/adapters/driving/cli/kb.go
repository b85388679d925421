package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

const inspectPreviewLength = 200

var (
	kbJSON       bool
	kbLimit      int
	kbConfirmYes bool
)

var kbCmd = &cobra.Command{
	Use:     "kb",
	Aliases: []string{"knowledge"},
	Short:   "Manage the knowledge base",
	Long: `Inspect and manage the indexed documents.

Removing files cancels any active ingestion run so it cannot index the
file again behind your back.`,
	RunE: runKBStats,
}

var kbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show knowledge base statistics",
	Args:  cobra.NoArgs,
	RunE:  runKBStats,
}

var kbListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed files",
	Args:  cobra.NoArgs,
	RunE:  runKBList,
}

var kbInfoCmd = &cobra.Command{
	Use:   "info <filename>",
	Short: "Show details of an indexed file",
	Args:  cobra.ExactArgs(1),
	RunE:  runKBInfo,
}

var kbInspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show stored chunks",
	Args:  cobra.NoArgs,
	RunE:  runKBInspect,
}

var kbRemoveCmd = &cobra.Command{
	Use:   "remove <filename>",
	Short: "Remove an indexed file",
	Args:  cobra.ExactArgs(1),
	RunE:  runKBRemove,
}

var kbClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every indexed file",
	Args:  cobra.NoArgs,
	RunE:  runKBClear,
}

func init() {
	kbStatsCmd.Flags().BoolVar(&kbJSON, "json", false, "output as JSON")
	kbInspectCmd.Flags().IntVarP(&kbLimit, "limit", "n", 10, "maximum chunks to show")
	kbRemoveCmd.Flags().BoolVarP(&kbConfirmYes, "yes", "y", false, "skip confirmation")
	kbClearCmd.Flags().BoolVarP(&kbConfirmYes, "yes", "y", false, "skip confirmation")

	kbCmd.AddCommand(kbStatsCmd)
	kbCmd.AddCommand(kbListCmd)
	kbCmd.AddCommand(kbInfoCmd)
	kbCmd.AddCommand(kbInspectCmd)
	kbCmd.AddCommand(kbRemoveCmd)
	kbCmd.AddCommand(kbClearCmd)
	rootCmd.AddCommand(kbCmd)
}

func runKBStats(cmd *cobra.Command, _ []string) error {
	if knowledgeService == nil {
		return errors.New("knowledge service not configured")
	}

	stats, err := knowledgeService.Stats(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	if kbJSON {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal stats: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Chunks: %d\n", stats.TotalDocuments)
	cmd.Printf("Files: %d\n", stats.UniqueFiles)
	for _, name := range stats.Filenames() {
		cmd.Printf("  %-40s %d chunks\n", name, stats.ChunksPerFile[name])
	}
	return nil
}

func runKBList(cmd *cobra.Command, _ []string) error {
	if knowledgeService == nil {
		return errors.New("knowledge service not configured")
	}

	files, err := knowledgeService.ListFiles(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}

	if len(files) == 0 {
		cmd.Println("No files indexed.")
		return nil
	}
	for _, f := range files {
		cmd.Println(f)
	}
	return nil
}

func runKBInfo(cmd *cobra.Command, args []string) error {
	if knowledgeService == nil {
		return errors.New("knowledge service not configured")
	}

	info, err := knowledgeService.FileInfo(commandContext(cmd), args[0])
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%s is not indexed", args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to get file info: %w", err)
	}

	cmd.Printf("File: %s\n", info.Filename)
	cmd.Printf("Chunks: %d\n", info.ChunkCount)
	if len(info.Sources) > 0 {
		cmd.Printf("Sources: %s\n", strings.Join(info.Sources, ", "))
	}
	return nil
}

func runKBInspect(cmd *cobra.Command, _ []string) error {
	if knowledgeService == nil {
		return errors.New("knowledge service not configured")
	}

	chunks, err := knowledgeService.Inspect(commandContext(cmd), kbLimit)
	if err != nil {
		return fmt.Errorf("failed to inspect chunks: %w", err)
	}

	if len(chunks) == 0 {
		cmd.Println("Knowledge base is empty.")
		return nil
	}
	for i, c := range chunks {
		cmd.Printf("[%d] %s (%s)\n", i+1, c.Filename(), c.ID)
		cmd.Printf("    %s\n", preview(c.Content, inspectPreviewLength))
	}
	return nil
}

func runKBRemove(cmd *cobra.Command, args []string) error {
	if knowledgeService == nil {
		return errors.New("knowledge service not configured")
	}

	filename := args[0]
	if !kbConfirmYes && !confirm(cmd, fmt.Sprintf("Remove %s from the knowledge base?", filename)) {
		cmd.Println("Aborted.")
		return nil
	}

	verified, err := knowledgeService.RemoveFile(commandContext(cmd), filename)
	if err != nil {
		return fmt.Errorf("failed to remove %s: %w", filename, err)
	}
	if !verified {
		return fmt.Errorf("chunks of %s were left behind", filename)
	}
	cmd.Printf("Removed %s\n", filename)
	return nil
}

func runKBClear(cmd *cobra.Command, _ []string) error {
	if knowledgeService == nil {
		return errors.New("knowledge service not configured")
	}

	if !kbConfirmYes && !confirm(cmd, "Remove every indexed file?") {
		cmd.Println("Aborted.")
		return nil
	}

	verified, err := knowledgeService.Clear(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to clear knowledge base: %w", err)
	}
	if !verified {
		return errors.New("knowledge base is not empty after clearing")
	}
	cmd.Println("Knowledge base cleared.")
	return nil
}

func confirm(cmd *cobra.Command, prompt string) bool {
	cmd.Printf("%s [y/N]: ", prompt)
	answer := strings.ToLower(readLine(bufio.NewReader(stdin)))
	return answer == "y" || answer == "yes"
}

// preview collapses whitespace and cuts s to at most n runes.
func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
