package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version is set by main.go.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "wcry",
	Short: "Multi-password file encryption",
	Long: `wcry encrypts a single file under one or more independent passwords.

Each password can decrypt the file on its own; none of them learn about
the others. Encryption uses Argon2id per password to derive a key that
wraps a shared content key, ChaCha20 to encrypt the body, and
HMAC-SHA256 to authenticate both the body and the password-verification
block.`,
	Version: Version,
}

// globalReporter is set by whichever subcommand is currently running so
// the signal handler in Execute can report cancellation.
var globalReporter *Reporter

// Execute runs the CLI. It returns false without running anything if
// os.Args doesn't look like a wcry invocation, so main can decide what
// to do (print usage, exit, and so on).
func Execute(version string) bool {
	Version = version
	rootCmd.Version = version

	if len(os.Args) < 2 {
		return false
	}

	known := map[string]bool{
		"encrypt": true, "decrypt": true, "rekey": true, "set-metadata": true,
		"inspect": true, "help": true, "--help": true, "-h": true,
		"version": true, "--version": true, "-v": true,
	}
	if !known[os.Args[1]] {
		return false
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		if globalReporter != nil {
			globalReporter.PrintError("interrupted")
		}
		fmt.Fprintln(os.Stderr, "\ninterrupted")
		os.Exit(1)
	}()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
	return true
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
