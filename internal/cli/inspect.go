package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"wcry/internal/vault"
)

func init() {
	inspectCmd.SilenceErrors = true
	inspectCmd.SilenceUsage = true
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print an envelope's header fields without decrypting it",
	Long: `Parse and print an envelope's header without touching any
password or the body. Useful for confirming a file is a wcry envelope
and seeing how many passwords it carries before attempting to open it.

Example:
  wcry inspect -i secret.txt.wcry`,
	RunE: runInspect,
}

var inspectPath string

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVarP(&inspectPath, "input", "i", "", "Envelope to inspect")
	_ = inspectCmd.MarkFlagRequired("input")
}

func runInspect(cmd *cobra.Command, args []string) error {
	h, err := vault.Inspect(inspectPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return err
	}

	fmt.Printf("path:            %s\n", inspectPath)
	fmt.Printf("passwords:       %d\n", len(h.Entries))
	fmt.Printf("header size:     %d bytes\n", h.Size())
	fmt.Printf("has metadata:    %t\n", h.HasMetadata)
	if h.HasMetadata {
		fmt.Printf("metadata size:   %d bytes\n", len(h.Metadata))
	}
	return nil
}
