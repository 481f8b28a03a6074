// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ExitError carries a process exit code for commands whose result is
// communicated through the exit status (like "auth check"). main
// checks for the ExitCode method and exits silently instead of
// printing a redundant error line.
type ExitError struct {
	// Code is the process exit code.
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// ExitCode returns the desired process exit code.
func (e *ExitError) ExitCode() int {
	return e.Code
}
