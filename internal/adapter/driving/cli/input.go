package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// PasswordEnv lets scripts supply the diary password without a prompt.
const PasswordEnv = "MYDIARY_PASSWORD"

// PasswordReader prompts for and returns one password.
type PasswordReader func(prompt string) (string, error)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// TerminalPassword reads passwords from MYDIARY_PASSWORD when set, from the
// terminal without echo when in is one, and otherwise one line at a time
// from in. Prompts go to w.
func TerminalPassword(in io.Reader, w io.Writer) PasswordReader {
	var lines *bufio.Reader
	return func(prompt string) (string, error) {
		if v, ok := os.LookupEnv(PasswordEnv); ok {
			return v, nil
		}

		if _, err := fmt.Fprint(w, prompt); err != nil {
			return "", err
		}

		if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			pw, err := readPassword(int(f.Fd()))
			fmt.Fprintln(w)
			if err != nil {
				return "", fmt.Errorf("read password: %w", err)
			}
			return string(pw), nil
		}

		if lines == nil {
			lines = bufio.NewReader(in)
		}
		line, err := lines.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
}
