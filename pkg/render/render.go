// Package render converts transport errors into terminal output. Every
// command leaf is wrapped by Middleware, which guarantees at most one
// user-visible rendered error per invocation and never lets a transport
// exception reach the process boundary.
package render

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"gopkg.in/yaml.v3"

	"github.com/agentcore/agentcore/pkg/api"
	"github.com/spf13/cobra"
)

// SupportEmail appears as the trailing line of every rendered error.
const SupportEmail = "support@agentcore.ai"

// canonicalMessages maps HTTP status codes to their user-facing sentence.
var canonicalMessages = map[int]string{
	400: "Invalid request. Please check your input and try again.",
	401: "Please login to run the client.",
	403: "Access denied. You don't have permission to perform this action.",
	404: "Resource not found. Please verify the information and try again.",
	409: "Conflict detected. The resource already exists or is being modified.",
	422: "Invalid data provided. Please check your input format.",
	429: "Too many requests. Please wait a moment and try again.",
	500: "Server error occurred. Please try again later.",
	502: "Service temporarily unavailable. Please try again later.",
	503: "Service unavailable. Please try again later.",
}

// fallbackMessage covers statuses outside the canonical table and
// non-transport failures.
const fallbackMessage = "An unexpected error occurred. Please try again."

// Renderer renders failures to the terminal.
type Renderer struct {
	Out     io.Writer
	Verbose bool
	// Overrides replaces the canonical message for specific statuses.
	Overrides map[int]string
}

// New creates a renderer writing to stderr.
func New() *Renderer {
	return &Renderer{Out: os.Stderr}
}

// Message returns the canonical user-facing message for an error.
func (r *Renderer) Message(err error) string {
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		return fallbackMessage
	}
	if r.Overrides != nil {
		if msg, ok := r.Overrides[apiErr.Status]; ok {
			return msg
		}
	}
	if msg, ok := canonicalMessages[apiErr.Status]; ok {
		return msg
	}
	return fallbackMessage
}

// Render prints the canonical message, optional verbose details, and the
// support footer.
func (r *Renderer) Render(err error) {
	if err == nil {
		return
	}

	fmt.Fprintln(r.Out, pterm.Red(r.Message(err)))

	var apiErr *api.Error
	if r.Verbose && errors.As(err, &apiErr) {
		fmt.Fprintf(r.Out, "  status: %d\n", apiErr.Status)
		fmt.Fprintf(r.Out, "  error: %s\n", apiErr.Message)
		if apiErr.Detail != nil {
			if dump, yerr := yaml.Marshal(apiErr.Detail); yerr == nil {
				fmt.Fprintf(r.Out, "  payload:\n%s", indent(string(dump), "    "))
			}
		}
	}

	fmt.Fprintf(r.Out, "For help, contact %s\n", SupportEmail)
}

// Middleware wraps a command's RunE. Errors are rendered and swallowed;
// the command exits 0 after a rendered failure.
func (r *Renderer) Middleware(run func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := run(cmd, args); err != nil {
			r.Render(err)
		}
		return nil
	}
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n") + "\n"
}
