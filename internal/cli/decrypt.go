package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"wcry/internal/vault"
)

func init() {
	decryptCmd.SilenceErrors = true
	decryptCmd.SilenceUsage = true
}

var decryptCmd = &cobra.Command{
	Use:   "decrypt",
	Short: "Decrypt a wcry envelope",
	Long: `Decrypt a wcry envelope back to its plaintext. Any one of the
passwords it was encrypted under will work; wcry finds the matching one
automatically.

Examples:
  # Decrypt interactively (prompts for password)
  wcry decrypt -i secret.txt.wcry

  # Decrypt with the password on the command line
  wcry decrypt -i secret.txt.wcry -o secret.txt -p "mypassword"

  # Read the password from stdin (for scripts)
  echo "mypassword" | wcry decrypt -i secret.txt.wcry -P`,
	RunE: runDecrypt,
}

var (
	decInput         string
	decOutput        string
	decPassword      string
	decPasswordStdin bool
	decQuiet         bool
	decYes           bool
)

func init() {
	rootCmd.AddCommand(decryptCmd)

	decryptCmd.Flags().StringVarP(&decInput, "input", "i", "", "Envelope to decrypt")
	decryptCmd.Flags().StringVarP(&decOutput, "output", "o", "", "Output file path (defaults to input with .wcry stripped)")
	decryptCmd.Flags().StringVarP(&decPassword, "password", "p", "", "Decryption password")
	decryptCmd.Flags().BoolVarP(&decPasswordStdin, "password-stdin", "P", false, "Read password from stdin")
	decryptCmd.Flags().BoolVarP(&decQuiet, "quiet", "q", false, "Suppress progress output")
	decryptCmd.Flags().BoolVarP(&decYes, "yes", "y", false, "Overwrite output file without prompting")

	_ = decryptCmd.MarkFlagRequired("input")
}

func runDecrypt(cmd *cobra.Command, args []string) error {
	inputInfo, err := os.Stat(decInput)
	if err != nil {
		return fmt.Errorf("input file not found: %s", decInput)
	}
	if inputInfo.IsDir() {
		return fmt.Errorf("input must be a file, not a directory: %s", decInput)
	}

	outputFile := decOutput
	if outputFile == "" {
		outputFile = strings.TrimSuffix(decInput, ".wcry")
		if outputFile == decInput {
			outputFile = decInput + ".decrypted"
		}
	}

	if err := confirmOverwrite(outputFile, decYes); err != nil {
		return err
	}

	password := decPassword
	if decPasswordStdin {
		password, err = ReadPasswordFromStdin()
		if err != nil {
			return err
		}
	}
	if password == "" && !decPasswordStdin {
		password, err = ReadPasswordInteractive(false)
		if err != nil {
			return fmt.Errorf("password input: %w", err)
		}
	}

	reporter := NewReporter(decQuiet)
	globalReporter = reporter

	if !decQuiet {
		fmt.Fprintf(os.Stderr, "Decrypting %s\n", decInput)
	}

	result, err := vault.Decrypt(&vault.DecryptRequest{
		InputPath:  decInput,
		OutputPath: outputFile,
		Password:   password,
		Reporter:   reporter,
	})
	reporter.Finish()

	if err != nil {
		reporter.PrintError("%v", err)
		_ = os.Remove(outputFile)
		return err
	}

	if !result.BodyMACMatched {
		reporter.PrintSuccess("Decrypted with warnings (body authentication failed): %s", outputFile)
	} else {
		reporter.PrintSuccess("Decrypted: %s", outputFile)
	}
	return nil
}
