// Package interact implements the interactive primitives every command
// composes: the single-select picker, masked secret input, the paginated
// browser, and the table renderer.
package interact

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pterm/pterm"
)

// maxNearMatches bounds the suggestions shown after a failed entry.
const maxNearMatches = 5

// Picker elicits one choice from a candidate set.
//
// With no explicit input reader the picker runs pterm's fuzzy-filtering
// select, so suggestions narrow as the user types. With an injected reader
// (tests, piped stdin) it falls back to a line-based prompt that validates
// membership and offers near matches on a miss.
type Picker struct {
	In  io.Reader
	Out io.Writer
	// Normalize maps candidates and input to match keys. Defaults to
	// lowercasing with surrounding space trimmed.
	Normalize func(string) string
}

// NewPicker creates a picker on the process terminal.
func NewPicker() *Picker {
	return &Picker{Out: os.Stdout}
}

// Select prompts for one of candidates. A candidate set of size one is
// auto-selected and announced without reading input.
func (p *Picker) Select(prompt string, candidates []string) (string, error) {
	if len(candidates) == 0 {
		return "", fmt.Errorf("no options available for %q", prompt)
	}

	out := p.Out
	if out == nil {
		out = os.Stdout
	}

	if len(candidates) == 1 {
		fmt.Fprintf(out, "%s: auto-selected %s\n", prompt, candidates[0])
		return candidates[0], nil
	}

	if p.In == nil {
		return pterm.DefaultInteractiveSelect.
			WithOptions(candidates).
			WithFilter(true).
			Show(prompt)
	}

	return p.selectFromReader(prompt, candidates, out)
}

func (p *Picker) selectFromReader(prompt string, candidates []string, out io.Writer) (string, error) {
	normalize := p.Normalize
	if normalize == nil {
		normalize = func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
	}

	byKey := make(map[string]string, len(candidates))
	for _, c := range candidates {
		byKey[normalize(c)] = c
	}

	scanner := bufio.NewScanner(p.In)
	for {
		fmt.Fprintf(out, "%s: ", prompt)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "", fmt.Errorf("input closed before a selection was made")
		}
		entered := strings.TrimSpace(scanner.Text())
		if match, ok := byKey[normalize(entered)]; ok {
			return match, nil
		}

		near := nearMatches(entered, candidates, normalize)
		if len(near) > 0 {
			fmt.Fprintf(out, "%q is not a valid choice. Did you mean:\n", entered)
			for _, m := range near {
				fmt.Fprintf(out, "  %s\n", m)
			}
		} else {
			fmt.Fprintf(out, "%q is not a valid choice.\n", entered)
		}
	}
}

// nearMatches returns candidates whose normalized form contains the input,
// preserving candidate order.
func nearMatches(input string, candidates []string, normalize func(string) string) []string {
	key := normalize(input)
	if key == "" {
		return nil
	}
	var matches []string
	for _, c := range candidates {
		if strings.Contains(normalize(c), key) {
			matches = append(matches, c)
			if len(matches) == maxNearMatches {
				break
			}
		}
	}
	return matches
}
