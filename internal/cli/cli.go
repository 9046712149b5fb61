package cli

import (
	"fmt"
	"os"

	"github.com/Rao-Faizan/my-gamil-automation/internal/api/middleware"
	"github.com/Rao-Faizan/my-gamil-automation/internal/config"
	"github.com/Rao-Faizan/my-gamil-automation/internal/services"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	db            *gorm.DB
	cfg           *config.Config
	apiKeyManager *middleware.APIKeyManager
	store         *services.ReplyStore
	logService    *services.LogService
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "gmail-automation",
	Short: "Inbox auto-reply service",
	Long: `Gmail automation watches an inbox, drafts AI replies for real senders
and tracks every email through its reply lifecycle.

Available commands:
  - key:   view or reset the API key
  - admin: set the admin login password
  - db:    inspect, migrate or clear the reply database
  - fetch: run one ingestion batch from the inbox

Examples:
  gmail-automation key show            # print the current API key
  gmail-automation admin set-password  # set the admin password
  gmail-automation db check            # show record counts per status
  gmail-automation fetch --max 25      # ingest up to 25 inbox messages`,
}

// Execute runs the CLI with the provided database and config
func Execute(database *gorm.DB, config *config.Config) {
	db = database
	cfg = config

	var err error
	apiKeyManager, err = middleware.NewAPIKeyManager(cfg.DataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot initialize API key manager: %v\n", err)
		os.Exit(1)
	}

	store = services.NewReplyStore(db)
	logService = services.NewLogServiceWithLevel(db, cfg.LogLevel)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(keyCmd)
	rootCmd.AddCommand(adminCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(fetchCmd)
}
