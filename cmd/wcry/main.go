// wcry encrypts a file under one or more independent passwords. Any
// one of them decrypts the whole file; none of them learn about the
// others. It uses Argon2id per password, ChaCha20 for the body, and
// HMAC-SHA256 to authenticate both the body and the password-
// verification block.
package main

import (
	"fmt"
	"os"

	"wcry/internal/cli"
)

const version = "v0.1.0"

func main() {
	if cli.Execute(version) {
		return
	}

	fmt.Fprintf(os.Stderr, "wcry %s\n\n", version)
	fmt.Fprintln(os.Stderr, "Usage: wcry <command> [options]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  encrypt        Encrypt a file under one or more passwords")
	fmt.Fprintln(os.Stderr, "  decrypt        Decrypt an envelope")
	fmt.Fprintln(os.Stderr, "  rekey          Replace an envelope's password set")
	fmt.Fprintln(os.Stderr, "  set-metadata   Replace an envelope's metadata")
	fmt.Fprintln(os.Stderr, "  inspect        Print an envelope's header fields")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Run 'wcry <command> --help' for more information.")
	os.Exit(0)
}
