package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"wcry/internal/vault"
)

func init() {
	metadataCmd.SilenceErrors = true
	metadataCmd.SilenceUsage = true
}

var metadataCmd = &cobra.Command{
	Use:   "set-metadata",
	Short: "Replace an envelope's metadata without re-encrypting",
	Long: `Replace the metadata attached to an envelope. This does not
touch the body, its passwords, or its authentication; it only rewrites
the metadata region.

Examples:
  # Attach new metadata from a file
  wcry set-metadata -i secret.txt.wcry -m info.json

  # Clear the metadata
  wcry set-metadata -i secret.txt.wcry`,
	RunE: runSetMetadata,
}

var (
	metaPath string
	metaFile string
)

func init() {
	rootCmd.AddCommand(metadataCmd)

	metadataCmd.Flags().StringVarP(&metaPath, "input", "i", "", "Envelope to update")
	metadataCmd.Flags().StringVarP(&metaFile, "metadata", "m", "", "File whose contents become the new metadata (omit to clear)")

	_ = metadataCmd.MarkFlagRequired("input")
}

func runSetMetadata(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(metaPath); err != nil {
		return fmt.Errorf("input file not found: %s", metaPath)
	}

	var newMetadata []byte
	if metaFile != "" {
		data, err := os.ReadFile(metaFile)
		if err != nil {
			return fmt.Errorf("reading metadata file: %w", err)
		}
		newMetadata = data
	}

	if err := vault.UpdateMetadata(&vault.UpdateMetadataRequest{
		Path:        metaPath,
		NewMetadata: newMetadata,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return err
	}

	fmt.Fprintf(os.Stderr, "Updated metadata: %s (%d byte(s))\n", metaPath, len(newMetadata))
	return nil
}
