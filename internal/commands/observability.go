package commands

import (
	"github.com/spf13/cobra"

	"github.com/agentcore/agentcore/internal/runtime"
	"github.com/agentcore/agentcore/pkg/interact"
	"github.com/agentcore/agentcore/pkg/operation"
	"github.com/agentcore/agentcore/pkg/track"
)

func newObservabilityCmd(rt *runtime.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "observe",
		Short: "Follow logs and status of running workloads",
	}
	cmd.AddCommand(newLogsCmd(rt))
	cmd.AddCommand(newStatusCmd(rt))
	return cmd
}

func newLogsCmd(rt *runtime.Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "logs",
		Short: "Tail logs of a deployment",
		RunE: rt.Renderer.Middleware(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			dep, err := deploymentManager(rt).pickByField(ctx, "name", "Deployment")
			if err != nil {
				return err
			}
			stream := &track.LogStream{
				Session: rt.Session,
				Path:    deploymentManager(rt).base + itemID(dep) + "/logs/",
			}
			return stream.Tail(ctx, cmd.OutOrStdout())
		}),
	}
}

func newStatusCmd(rt *runtime.Runtime) *cobra.Command {
	var until string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Watch a deployment until it settles",
		Long: `Watch a deployment's status until it reaches a terminal state.

An --until expression is evaluated against each status payload and ends
the watch early when it yields true, e.g.:

  agentcore observe status --until 'replicas_ready == replicas_desired'`,
		RunE: rt.Renderer.Middleware(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			dep, err := deploymentManager(rt).pickByField(ctx, "name", "Deployment")
			if err != nil {
				return err
			}
			monitor := &track.Monitor{
				Session:        rt.Session,
				Path:           deploymentManager(rt).base + itemID(dep) + "/",
				TerminalStates: []string{"live", "failed", "stopped"},
				ExitCondition:  until,
				Progress:       operation.NewTermSpinner(),
			}
			monitor.Progress.Start("Watching " + interact.Stringify(dep["name"]))
			_, err = monitor.Run(ctx)
			return err
		}),
	}

	cmd.Flags().StringVar(&until, "until", "", "Expression that ends the watch when true")
	return cmd
}
