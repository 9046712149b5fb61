package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/Rao-Faizan/my-gamil-automation/internal/database"
	"github.com/Rao-Faizan/my-gamil-automation/internal/database/models"
	"github.com/spf13/cobra"
)

// dbCmd represents the db command group
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Reply database management",
	Long:  `Inspect record counts, run migrations or clear stored records.`,
}

// dbCheckCmd prints record counts per status
var dbCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Show record counts per status",
	Run: func(cmd *cobra.Command, args []string) {
		counts, err := store.CountByStatus()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to query counts: %v\n", err)
			os.Exit(1)
		}

		var total int64
		fmt.Println("Reply records:")
		fmt.Println("----------------------------------------")
		for _, status := range []models.Status{models.StatusUnread, models.StatusDraft, models.StatusSent, models.StatusNoReply} {
			count := counts[string(status)]
			total += count
			fmt.Printf("  %-10s %d\n", status, count)
		}
		fmt.Println("----------------------------------------")
		fmt.Printf("  %-10s %d\n", "total", total)
	},
}

// dbMigrateCmd runs database migrations
var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Run: func(cmd *cobra.Command, args []string) {
		if err := database.RunMigrations(db); err != nil {
			fmt.Fprintf(os.Stderr, "Error: migration failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Migrations completed.")
	},
}

var dbDeleteStatus string
var dbDeleteAll bool

// dbDeleteCmd clears stored records
var dbDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete records by status, or everything",
	Long:  `Delete records in one status with --status, or all records with --all. Deletion requires confirmation.`,
	Run: func(cmd *cobra.Command, args []string) {
		if !dbDeleteAll && dbDeleteStatus == "" {
			fmt.Fprintln(os.Stderr, "Error: either --status or --all is required")
			os.Exit(1)
		}

		scope := "all records"
		if !dbDeleteAll {
			if !models.Status(dbDeleteStatus).IsValid() {
				fmt.Fprintf(os.Stderr, "Error: unknown status %q\n", dbDeleteStatus)
				os.Exit(1)
			}
			scope = fmt.Sprintf("records with status %q", dbDeleteStatus)
		}

		fmt.Printf("Warning: this deletes %s permanently.\n", scope)
		fmt.Print("Continue? (yes/no): ")

		reader := bufio.NewReader(os.Stdin)
		input, err := reader.ReadString('\n')
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to read input: %v\n", err)
			os.Exit(1)
		}
		input = strings.TrimSpace(strings.ToLower(input))
		if input != "yes" && input != "y" {
			fmt.Println("Cancelled.")
			return
		}

		var count int64
		if dbDeleteAll {
			count, err = store.DeleteAll()
		} else {
			count, err = store.DeleteByStatus(models.Status(dbDeleteStatus))
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: delete failed: %v\n", err)
			os.Exit(1)
		}

		logService.LogDelete("cli", count)
		fmt.Printf("Deleted %d records.\n", count)
	},
}

func init() {
	dbDeleteCmd.Flags().StringVar(&dbDeleteStatus, "status", "", "delete records in this status")
	dbDeleteCmd.Flags().BoolVar(&dbDeleteAll, "all", false, "delete every record")

	dbCmd.AddCommand(dbCheckCmd)
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbDeleteCmd)
}
