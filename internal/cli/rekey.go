package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"wcry/internal/vault"
)

func init() {
	rekeyCmd.SilenceErrors = true
	rekeyCmd.SilenceUsage = true
}

var rekeyCmd = &cobra.Command{
	Use:   "rekey",
	Short: "Replace the password set on an envelope",
	Long: `Replace every password an envelope can be opened with, without
touching its contents. One of the current passwords is required to
prove access; the body, its authentication, and any metadata are
carried over unchanged.

Examples:
  # Replace a single password with a new single password
  wcry rekey -i secret.txt.wcry

  # Replace with three new passwords given on the command line
  wcry rekey -i secret.txt.wcry -p new-alice -p new-bob -p new-carol`,
	RunE: runRekey,
}

var (
	rekeyPath        string
	rekeyOldPassword string
	rekeyNew         []string
	rekeyCount       int
	rekeyQuiet       bool
)

func init() {
	rootCmd.AddCommand(rekeyCmd)

	rekeyCmd.Flags().StringVarP(&rekeyPath, "input", "i", "", "Envelope to rekey")
	rekeyCmd.Flags().StringVar(&rekeyOldPassword, "old-password", "", "One of the envelope's current passwords")
	rekeyCmd.Flags().StringArrayVarP(&rekeyNew, "password", "p", nil, "New password (repeat for multiple)")
	rekeyCmd.Flags().IntVarP(&rekeyCount, "count", "n", 1, "Number of new passwords to prompt for (ignored if -p is given)")
	rekeyCmd.Flags().BoolVarP(&rekeyQuiet, "quiet", "q", false, "Suppress progress output")

	_ = rekeyCmd.MarkFlagRequired("input")
}

func runRekey(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(rekeyPath); err != nil {
		return fmt.Errorf("input file not found: %s", rekeyPath)
	}

	oldPassword := rekeyOldPassword
	if oldPassword == "" {
		var err error
		oldPassword, err = ReadPasswordInteractive(false)
		if err != nil {
			return fmt.Errorf("password input: %w", err)
		}
	}

	newPasswords := rekeyNew
	if len(newPasswords) == 0 {
		if rekeyCount < 1 {
			return fmt.Errorf("--count must be at least 1")
		}
		fmt.Fprintln(os.Stderr, "Enter the new password set:")
		var err error
		newPasswords, err = ReadPasswordsInteractive(rekeyCount)
		if err != nil {
			return fmt.Errorf("password input: %w", err)
		}
	}

	reporter := NewReporter(rekeyQuiet)
	globalReporter = reporter

	err := vault.Rekey(&vault.RekeyRequest{
		Path:         rekeyPath,
		OldPassword:  oldPassword,
		NewPasswords: newPasswords,
		Reporter:     reporter,
	})
	reporter.Finish()

	if err != nil {
		reporter.PrintError("%v", err)
		return err
	}

	reporter.PrintSuccess("Rekeyed: %s (%d password(s))", rekeyPath, len(newPasswords))
	return nil
}
