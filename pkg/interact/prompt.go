package interact

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"
)

// Prompter handles the plain text and confirmation prompts command leaves
// use around the picker and browser.
type Prompter struct {
	// In, when set, replaces the terminal for reads. Testing hook.
	In  io.Reader
	Out io.Writer

	scanner *bufio.Scanner
}

// Text prompts for a line of input. Empty input falls back to def.
func (p *Prompter) Text(message, def string) (string, error) {
	if p.In == nil {
		shown := message
		if def != "" {
			shown = fmt.Sprintf("%s (default: %s)", message, def)
		}
		result, err := pterm.DefaultInteractiveTextInput.WithMultiLine(false).Show(shown)
		if err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		result = strings.TrimSpace(result)
		if result == "" {
			return def, nil
		}
		return result, nil
	}

	if p.scanner == nil {
		p.scanner = bufio.NewScanner(p.In)
	}
	fmt.Fprintf(p.Out, "%s: ", message)
	if !p.scanner.Scan() {
		return "", fmt.Errorf("input closed")
	}
	result := strings.TrimSpace(p.scanner.Text())
	if result == "" {
		return def, nil
	}
	return result, nil
}

// Required re-prompts until the input is non-empty.
func (p *Prompter) Required(message string) (string, error) {
	for {
		value, err := p.Text(message, "")
		if err != nil {
			return "", err
		}
		if value != "" {
			return value, nil
		}
		if p.Out != nil {
			fmt.Fprintln(p.Out, "This field is required")
		} else {
			pterm.Error.Println("This field is required")
		}
	}
}

// Confirm prompts for a yes/no answer.
func (p *Prompter) Confirm(message string, def bool) (bool, error) {
	if p.In == nil {
		result, err := pterm.DefaultInteractiveConfirm.WithDefaultValue(def).Show(message)
		if err != nil {
			return false, fmt.Errorf("failed to read confirmation: %w", err)
		}
		return result, nil
	}

	answer, err := p.Text(message+" [y/n]", "")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	default:
		return def, nil
	}
}
