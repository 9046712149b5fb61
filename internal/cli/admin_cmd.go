package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

// adminCmd represents the admin command group
var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Admin account management",
	Long:  `Manage the single admin account used for API login.`,
}

// adminSetPasswordCmd sets the admin password
var adminSetPasswordCmd = &cobra.Command{
	Use:   "set-password",
	Short: "Set the admin login password",
	Long:  `Interactively set the admin password. The bcrypt hash is stored in the config file under the data directory.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print("Enter new admin password (at least 6 characters): ")
		passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			fmt.Fprintf(os.Stderr, "\nError: failed to read password: %v\n", err)
			os.Exit(1)
		}
		fmt.Println()
		password := string(passwordBytes)
		if len(password) < 6 {
			fmt.Fprintln(os.Stderr, "Error: password must be at least 6 characters")
			os.Exit(1)
		}

		fmt.Print("Confirm new admin password: ")
		confirmBytes, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			fmt.Fprintf(os.Stderr, "\nError: failed to read password: %v\n", err)
			os.Exit(1)
		}
		fmt.Println()
		if password != string(confirmBytes) {
			fmt.Fprintln(os.Stderr, "Error: passwords do not match")
			os.Exit(1)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to hash password: %v\n", err)
			os.Exit(1)
		}

		cfg.AdminPasswordHash = string(hash)
		configPath := filepath.Join(cfg.DataDir, "config.json")
		if err := cfg.Save(configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to save config: %v\n", err)
			os.Exit(1)
		}

		fmt.Println()
		fmt.Printf("Admin password set. Hash stored in %s\n", configPath)
		fmt.Println("Log in with username 'admin' and the new password.")
	},
}

func init() {
	adminCmd.AddCommand(adminSetPasswordCmd)
}
