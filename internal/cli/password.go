package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/Picocrypt/zxcvbn-go"
	"golang.org/x/term"
)

var (
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrPasswordEmpty    = errors.New("password cannot be empty")
)

var strengthLabel = [...]string{"very weak", "weak", "fair", "strong", "very strong"}

func isTerminal() bool {
	return term.IsTerminal(int(syscall.Stdin))
}

// readPasswordSecure prints prompt and reads one line without echoing
// it, falling back to a plain buffered read when stdin isn't a
// terminal (piped input, redirected files).
func readPasswordSecure(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	if !isTerminal() {
		reader := bufio.NewReader(os.Stdin)
		pw, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return strings.TrimRight(pw, "\r\n"), nil
	}

	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pw), nil
}

// ReadPasswordInteractive prompts once for a password. If confirm is
// true it prompts a second time and requires the two to match; this is
// used when setting a password, not when unlocking with one.
func ReadPasswordInteractive(confirm bool) (string, error) {
	password, err := readPasswordSecure("Password: ")
	if err != nil {
		return "", err
	}
	if password == "" {
		return "", ErrPasswordEmpty
	}

	if confirm {
		again, err := readPasswordSecure("Confirm password: ")
		if err != nil {
			return "", err
		}
		if password != again {
			return "", ErrPasswordMismatch
		}
		printStrengthHint(password)
	}

	return password, nil
}

// ReadPasswordsInteractive prompts for n passwords in sequence, each
// confirmed, for commands that accept more than one password
// (encrypt, rekey's new-password set).
func ReadPasswordsInteractive(n int) ([]string, error) {
	passwords := make([]string, n)
	for i := 0; i < n; i++ {
		label := "Password"
		if n > 1 {
			label = fmt.Sprintf("Password %d/%d", i+1, n)
		}
		pw, err := readPasswordSecure(label + ": ")
		if err != nil {
			return nil, err
		}
		if pw == "" {
			return nil, ErrPasswordEmpty
		}
		again, err := readPasswordSecure("Confirm " + strings.ToLower(label) + ": ")
		if err != nil {
			return nil, err
		}
		if pw != again {
			return nil, ErrPasswordMismatch
		}
		printStrengthHint(pw)
		passwords[i] = pw
	}
	return passwords, nil
}

// printStrengthHint prints zxcvbn's score for pw to stderr. It never
// blocks on or overrides the user's choice, it only informs it.
func printStrengthHint(pw string) {
	score := zxcvbn.PasswordStrength(pw, nil).Score
	if score < 0 {
		score = 0
	}
	if score > 4 {
		score = 4
	}
	fmt.Fprintf(os.Stderr, "Password strength: %s\n", strengthLabel[score])
}

// ReadPasswordFromStdin reads a single line from stdin, for the
// --password-stdin flag used when piping a password from a script.
func ReadPasswordFromStdin() (string, error) {
	reader := bufio.NewReader(os.Stdin)
	pw, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading password from stdin: %w", err)
	}
	return strings.TrimRight(pw, "\r\n"), nil
}
