package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"wcry/internal/util"
	"wcry/internal/vault"
)

func init() {
	encryptCmd.SilenceErrors = true
	encryptCmd.SilenceUsage = true
}

var encryptCmd = &cobra.Command{
	Use:   "encrypt",
	Short: "Encrypt a file under one or more passwords",
	Long: `Encrypt a file into a wcry envelope. Any one of the passwords
supplied can decrypt it on its own.

Examples:
  # Encrypt interactively with a single password
  wcry encrypt -i secret.txt

  # Encrypt with three passwords given on the command line
  wcry encrypt -i secret.txt -p alice-pass -p bob-pass -p carol-pass

  # Prompt interactively for 3 independent passwords
  wcry encrypt -i secret.txt -n 3

  # Attach metadata from a file
  wcry encrypt -i secret.txt -m info.json

  # Read a single password from stdin (for scripts)
  echo "mypassword" | wcry encrypt -i secret.txt -P

  # Generate a strong random password instead of typing one
  wcry encrypt -i secret.txt --generate`,
	RunE: runEncrypt,
}

var (
	encInput         string
	encOutput        string
	encPasswords     []string
	encPasswordStdin bool
	encCount         int
	encMetadataFile  string
	encQuiet         bool
	encYes           bool
	encGenerate      bool
	encGenerateLen   int
)

func init() {
	rootCmd.AddCommand(encryptCmd)

	encryptCmd.Flags().StringVarP(&encInput, "input", "i", "", "File to encrypt")
	encryptCmd.Flags().StringVarP(&encOutput, "output", "o", "", "Output envelope path (defaults to <input>.wcry)")
	encryptCmd.Flags().StringArrayVarP(&encPasswords, "password", "p", nil, "Password (repeat for multiple independent passwords)")
	encryptCmd.Flags().BoolVarP(&encPasswordStdin, "password-stdin", "P", false, "Read a single password from stdin")
	encryptCmd.Flags().IntVarP(&encCount, "count", "n", 1, "Number of passwords to prompt for interactively (ignored if -p is given)")
	encryptCmd.Flags().StringVarP(&encMetadataFile, "metadata", "m", "", "File whose contents are stored as envelope metadata")
	encryptCmd.Flags().BoolVarP(&encQuiet, "quiet", "q", false, "Suppress progress output")
	encryptCmd.Flags().BoolVarP(&encYes, "yes", "y", false, "Overwrite output file without prompting")
	encryptCmd.Flags().BoolVar(&encGenerate, "generate", false, "Generate --count random password(s) instead of prompting or reading -p")
	encryptCmd.Flags().IntVar(&encGenerateLen, "generate-length", 24, "Length of generated passwords")

	_ = encryptCmd.MarkFlagRequired("input")
}

func runEncrypt(cmd *cobra.Command, args []string) error {
	inputInfo, err := os.Stat(encInput)
	if err != nil {
		return fmt.Errorf("input file not found: %s", encInput)
	}
	if inputInfo.IsDir() {
		return fmt.Errorf("input must be a file, not a directory: %s", encInput)
	}

	outputFile := encOutput
	if outputFile == "" {
		outputFile = encInput + ".wcry"
	}

	if err := confirmOverwrite(outputFile, encYes); err != nil {
		return err
	}

	passwords, err := resolveEncryptPasswords()
	if err != nil {
		return fmt.Errorf("password input: %w", err)
	}

	var metadata []byte
	if encMetadataFile != "" {
		metadata, err = os.ReadFile(encMetadataFile)
		if err != nil {
			return fmt.Errorf("reading metadata file: %w", err)
		}
	}

	reporter := NewReporter(encQuiet)
	globalReporter = reporter

	if !encQuiet {
		fmt.Fprintf(os.Stderr, "Encrypting %s under %d password(s)\n", encInput, len(passwords))
	}

	err = vault.Encrypt(&vault.EncryptRequest{
		InputPath:  encInput,
		OutputPath: outputFile,
		Passwords:  passwords,
		Metadata:   metadata,
		Reporter:   reporter,
	})
	reporter.Finish()

	if err != nil {
		reporter.PrintError("%v", err)
		_ = os.Remove(outputFile)
		return err
	}

	reporter.PrintSuccess("Encrypted: %s", outputFile)
	return nil
}

// resolveEncryptPasswords decides where the password set for this
// encryption comes from: --generate takes priority (--count random
// passwords, any -p flags are ignored), then -p flags, then -P (stdin,
// exactly one password), then interactive prompting for --count
// passwords.
func resolveEncryptPasswords() ([]string, error) {
	if encGenerate {
		return generatePasswords(encCount, encGenerateLen)
	}

	if len(encPasswords) > 0 {
		for _, pw := range encPasswords {
			if pw == "" {
				return nil, ErrPasswordEmpty
			}
		}
		return encPasswords, nil
	}

	if encPasswordStdin {
		pw, err := ReadPasswordFromStdin()
		if err != nil {
			return nil, err
		}
		if pw == "" {
			return nil, ErrPasswordEmpty
		}
		return []string{pw}, nil
	}

	if encCount < 1 {
		return nil, fmt.Errorf("--count must be at least 1")
	}
	return ReadPasswordsInteractive(encCount)
}

// generatePasswords creates n random passwords and prints each to
// stderr once, since a generated password that's never shown couldn't
// be recorded by the caller.
func generatePasswords(n, length int) ([]string, error) {
	if n < 1 {
		return nil, fmt.Errorf("--count must be at least 1")
	}
	passwords := make([]string, n)
	for i := range passwords {
		pw, err := util.GenPassword(util.PassgenOptions{
			Length:  length,
			Upper:   true,
			Lower:   true,
			Numbers: true,
			Symbols: true,
		})
		if err != nil {
			return nil, fmt.Errorf("generating password: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Generated password %d/%d: %s\n", i+1, n, pw)
		passwords[i] = pw
	}
	return passwords, nil
}

// confirmOverwrite prompts before clobbering an existing file, unless
// yes bypasses the prompt.
func confirmOverwrite(path string, yes bool) error {
	if yes {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	fmt.Fprintf(os.Stderr, "Output file %s already exists. Overwrite? [y/N]: ", path)
	reader := bufio.NewReader(os.Stdin)
	response, _ := reader.ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))
	if response != "y" && response != "yes" {
		return fmt.Errorf("operation cancelled")
	}
	return nil
}
