// Package commands builds the CLI command tree. Every leaf is a thin
// orchestration: prompt through the selection kit, call the backend through
// the operation driver, render the result as a table. The heavy lifting
// lives in the runtime packages.
package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentcore/agentcore/internal/runtime"
	"github.com/agentcore/agentcore/pkg/interact"
)

// NewRoot assembles the full command tree.
func NewRoot(rt *runtime.Runtime) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:          "agentcore",
		Short:        "AgentCore - administer your ML operations backend",
		Long:         "AgentCore is an interactive client for the AgentCore ML operations service:\nprojects, users, datasources, experiments, instances, and deployments.",
		Version:      rt.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			rt.SetVerbose(verbose)
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show error details and response payloads")

	root.AddCommand(newLoginCmd(rt))
	root.AddCommand(newLogoutCmd(rt))
	root.AddCommand(newSignupCmd(rt))
	root.AddCommand(newChangePasswordCmd(rt))
	root.AddCommand(newResetPasswordCmd(rt))
	root.AddCommand(newListCmd(rt))

	root.AddCommand(newProjectsCmd(rt))
	root.AddCommand(newUsersCmd(rt))
	root.AddCommand(newExperimentsCmd(rt))
	root.AddCommand(newInstancesCmd(rt))
	root.AddCommand(newDataCmd(rt))
	root.AddCommand(newCredentialsCmd(rt))
	root.AddCommand(newDeployCmd(rt))
	root.AddCommand(newObservabilityCmd(rt))
	root.AddCommand(newConfigCmd(rt))

	return root
}

// abortOnInterrupt maps a user interrupt to the polite exit-1 path; other
// errors pass through to the renderer middleware.
func abortOnInterrupt(err error) error {
	if errors.Is(err, interact.ErrAborted) {
		fmt.Fprintln(os.Stderr, "Aborted.")
		os.Exit(1)
	}
	return err
}
