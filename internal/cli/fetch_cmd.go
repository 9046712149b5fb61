package cli

import (
	"fmt"
	"os"

	"github.com/Rao-Faizan/my-gamil-automation/internal/logger"
	"github.com/Rao-Faizan/my-gamil-automation/internal/mailapi"
	"github.com/Rao-Faizan/my-gamil-automation/internal/services"
	"github.com/spf13/cobra"
)

var fetchMaxResults int

// fetchCmd runs one ingestion batch from the inbox
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Run one ingestion batch from the inbox",
	Long:  `Fetch new inbox messages from the mail provider and store them as reply records. Messages already stored are skipped.`,
	Run: func(cmd *cobra.Command, args []string) {
		provider, err := mailapi.NewClient(cfg.CredentialsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot initialize mail client: %v\n", err)
			os.Exit(1)
		}

		zapLogger, err := logger.New(cfg.LogLevel, cfg.LogFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot initialize logger: %v\n", err)
			os.Exit(1)
		}
		defer zapLogger.Sync()

		ingest := services.NewIngestService(store, provider, logService, zapLogger)
		result, err := ingest.FetchNew(fetchMaxResults)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: ingestion failed: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Ingestion completed: %d inserted, %d skipped, %d failed\n",
			result.Inserted, result.Skipped, result.Failed)
	},
}

func init() {
	fetchCmd.Flags().IntVar(&fetchMaxResults, "max", 10, "maximum messages to fetch")
}
