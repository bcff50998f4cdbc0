package agent

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// Swappable seams so tests can simulate a terminal without one.
var (
	isTerminal = term.IsTerminal
	readToken  = term.ReadPassword
)

// promptToken asks for the workspace token with hidden input. When stdin is
// not a terminal there is nobody to ask, so it returns "" and the caller
// fails with its usual not-configured error.
func promptToken() (string, error) {
	fd := int(os.Stdin.Fd())
	if !isTerminal(fd) {
		return "", nil
	}

	fmt.Fprint(os.Stderr, "Workspace token: ")
	b, err := readToken(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}
