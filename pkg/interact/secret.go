package interact

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// ErrAborted is returned when the user interrupts a secret prompt.
var ErrAborted = errors.New("input aborted")

// ReadSecret reads a secret from the terminal, echoing '*' per character.
// Backspace (8 and 127) deletes, CR or LF ends input, Ctrl-C aborts with
// ErrAborted. When the terminal cannot enter raw mode it falls back to a
// no-echo read.
func ReadSecret(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	fmt.Fprint(os.Stderr, prompt)

	state, err := term.MakeRaw(fd)
	if err != nil {
		// No raw mode available: read without echo instead.
		secret, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(secret), nil
	}
	defer term.Restore(fd, state)

	value, err := readMasked(os.Stdin, os.Stderr)
	fmt.Fprintln(os.Stderr)
	return value, err
}

// readMasked is the raw-mode read loop, split out so tests can drive it
// with an ordinary reader.
func readMasked(in io.Reader, echo io.Writer) (string, error) {
	var value []byte
	buf := make([]byte, 1)
	for {
		n, err := in.Read(buf)
		if err != nil {
			if err == io.EOF {
				return string(value), nil
			}
			return "", err
		}
		if n == 0 {
			continue
		}

		switch c := buf[0]; c {
		case '\r', '\n':
			return string(value), nil
		case 3: // Ctrl-C
			return "", ErrAborted
		case 8, 127: // Backspace, Delete
			if len(value) > 0 {
				value = value[:len(value)-1]
				fmt.Fprint(echo, "\b \b")
			}
		default:
			if c >= 32 { // printable
				value = append(value, c)
				fmt.Fprint(echo, "*")
			}
		}
	}
}
