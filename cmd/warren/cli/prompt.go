// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// PromptPassword reads a password without echo when stdin is a
// terminal. When stdin is piped (scripts, tests), it falls back to
// reading a single line. confirm asks for the password twice and
// rejects a mismatch, for commands that set a new password.
func PromptPassword(prompt string, confirm bool) (string, error) {
	password, err := readSecret(prompt)
	if err != nil {
		return "", err
	}
	if password == "" {
		return "", fmt.Errorf("empty password")
	}
	if confirm {
		again, err := readSecret("Confirm " + strings.ToLower(prompt[:1]) + prompt[1:])
		if err != nil {
			return "", err
		}
		if again != password {
			return "", fmt.Errorf("passwords do not match")
		}
	}
	return password, nil
}

func readSecret(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprintf(os.Stderr, "%s: ", prompt)
		secret, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(secret), nil
	}

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
