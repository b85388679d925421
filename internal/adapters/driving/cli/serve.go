package cli

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docchat/internal/adapters/driven/upload"
	"github.com/custodia-labs/docchat/internal/adapters/driving/api"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API. Clients upload files to a session, start ingestion,
poll its progress and ask questions. Ingestion runs in the background, or a
client steps it one file at a time with POST /api/sessions/{id}/ingest/tick.

Uploaded files are kept in memory and are lost when the server stops.
The knowledge base and conversations persist in the configured storage.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8080", "listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}

	server, err := api.NewServer(&api.Ports{
		Chat:      chatService,
		Knowledge: knowledgeService,
		Sessions:  sessionRegistry,
		Runner:    ingestionRunner,
		Uploads:   upload.NewRegistry(),
	}, api.WithVersion(version))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Printf("API listening on http://%s\n", serveAddr)
	return server.Run(ctx, serveAddr)
}
