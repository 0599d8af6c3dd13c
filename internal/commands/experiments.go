package commands

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/agentcore/agentcore/internal/runtime"
	"github.com/agentcore/agentcore/pkg/api"
	"github.com/agentcore/agentcore/pkg/operation"
	"github.com/agentcore/agentcore/pkg/track"
)

func experimentManager(rt *runtime.Runtime) *manager {
	return &manager{
		rt:      rt,
		base:    "api/experiments/",
		title:   "Experiments",
		columns: []string{"Name", "Project", "Model", "Status"},
		fields:  []string{"name", "project", "model"},
	}
}

func newExperimentsCmd(rt *runtime.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "experiments",
		Short: "Configure and run experiments",
	}
	cmd.AddCommand(newExperimentsListCmd(rt))
	cmd.AddCommand(newExperimentsCreateCmd(rt))
	cmd.AddCommand(newExperimentsRunCmd(rt))
	return cmd
}

func newExperimentsListCmd(rt *runtime.Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Browse experiments",
		RunE: rt.Renderer.Middleware(func(cmd *cobra.Command, args []string) error {
			m := experimentManager(rt)
			resp, err := m.list(cmd.Context(), nil)
			if err != nil {
				return err
			}
			_, err = m.browse(resp, false)
			return err
		}),
	}
}

func newExperimentsCreateCmd(rt *runtime.Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Configure a new experiment",
		RunE: rt.Renderer.Middleware(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			project, err := projectManager(rt).pickByField(ctx, "name", "Project")
			if err != nil {
				return err
			}
			name, err := rt.Prompter.Required("Experiment name")
			if err != nil {
				return err
			}
			model, err := rt.Prompter.Required("Model identifier")
			if err != nil {
				return err
			}

			created, err := experimentManager(rt).create(ctx, map[string]any{
				"name":    name,
				"project": itemID(project),
				"model":   model,
			})
			if err != nil {
				return err
			}
			pterm.Success.Printfln("Experiment %s configured (id %s)", name, itemID(created))
			return nil
		}),
	}
}

func newExperimentsRunCmd(rt *runtime.Runtime) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start an experiment run",
		RunE: rt.Renderer.Middleware(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m := experimentManager(rt)

			experiment, err := m.pickByField(ctx, "name", "Experiment to run")
			if err != nil {
				return err
			}
			id := itemID(experiment)

			started, err := rt.Driver.Execute(ctx, "Starting run", func(ctx context.Context) (map[string]any, error) {
				return rt.Session.Post(ctx, m.base+id+"/runs/", &api.RequestOptions{Body: map[string]any{}})
			})
			if err != nil {
				return err
			}
			runID := itemID(started)
			pterm.Success.Printfln("Run %s started", runID)

			if !watch {
				return nil
			}

			monitor := &track.Monitor{
				Session:        rt.Session,
				Path:           fmt.Sprintf("%s%s/runs/%s/", m.base, id, runID),
				TerminalStates: []string{"succeeded", "failed", "cancelled"},
				Progress:       operation.NewTermSpinner(),
			}
			monitor.Progress.Start("Waiting for run to finish")
			final, err := monitor.Run(ctx)
			if err != nil {
				return err
			}
			pterm.Info.Printfln("Run finished: %v", final["status"])
			return nil
		}),
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Poll the run until it reaches a terminal state")
	return cmd
}
