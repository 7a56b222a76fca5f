package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

var errNotTerminal = errors.New("stdin is not a terminal; use --secret-file")

// readSecret returns the master secret from path, or from an interactive
// prompt when path is empty. The caller zeroes the result.
func (o *RootOptions) readSecret(path string, stderr io.Writer) ([]byte, error) {
	if path != "" {
		return readSecretFile(path)
	}
	secret, err := o.env.ReadPassword("Master secret: ", stderr)
	if err != nil {
		return nil, err
	}
	if len(secret) == 0 {
		return nil, errors.New("master secret cannot be empty")
	}
	return secret, nil
}

func readTerminalPassword(prompt string, stderr io.Writer) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errNotTerminal
	}
	fmt.Fprint(stderr, prompt)
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(stderr)
	if err != nil {
		return nil, fmt.Errorf("read secret: %w", err)
	}
	return secret, nil
}

// readSecretFile reads a secret from path, dropping trailing line endings.
// The result shares the file buffer, so clearing it clears everything read.
func readSecretFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read secret file: %w", err)
	}
	secret := bytes.TrimRight(data, "\r\n")
	if len(secret) == 0 {
		return nil, fmt.Errorf("secret file %s is empty", path)
	}
	return secret, nil
}
