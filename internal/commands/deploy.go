package commands

import (
	"context"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/agentcore/agentcore/internal/runtime"
	"github.com/agentcore/agentcore/pkg/interact"
	"github.com/agentcore/agentcore/pkg/operation"
	"github.com/agentcore/agentcore/pkg/track"
)

func deploymentManager(rt *runtime.Runtime) *manager {
	return &manager{
		rt:      rt,
		base:    "api/deployments/",
		title:   "Deployments",
		columns: []string{"Name", "Experiment", "Environment", "Status"},
		fields:  []string{"name", "environment", "status"},
	}
}

func newDeployCmd(rt *runtime.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Manage model deployments",
	}
	cmd.AddCommand(newDeployListCmd(rt))
	cmd.AddCommand(newDeployPromoteCmd(rt))
	cmd.AddCommand(newDeployRollbackCmd(rt))
	return cmd
}

func newDeployListCmd(rt *runtime.Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Browse deployments",
		RunE: rt.Renderer.Middleware(func(cmd *cobra.Command, args []string) error {
			m := deploymentManager(rt)
			resp, err := m.list(cmd.Context(), nil)
			if err != nil {
				return err
			}
			_, err = m.browse(resp, false)
			return err
		}),
	}
}

func newDeployPromoteCmd(rt *runtime.Runtime) *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Promote an experiment to a deployment environment",
		RunE: rt.Renderer.Middleware(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			exp, err := experimentManager(rt).pickByField(ctx, "name", "Experiment")
			if err != nil {
				return err
			}
			env, err := rt.Picker.Select("Environment", []string{"staging", "production"})
			if err != nil {
				return err
			}

			created, err := deploymentManager(rt).create(ctx, map[string]any{
				"experiment":  itemID(exp),
				"environment": env,
			})
			if err != nil {
				return err
			}
			pterm.Success.Printfln("Deployment %s created", itemID(created))

			if !wait {
				return nil
			}
			monitor := &track.Monitor{
				Session:        rt.Session,
				Path:           deploymentManager(rt).base + itemID(created) + "/",
				TerminalStates: []string{"live", "failed"},
				Progress:       operation.NewTermSpinner(),
			}
			monitor.Progress.Start("Waiting for rollout")
			_, err = monitor.Run(ctx)
			return err
		}),
	}

	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Wait for the rollout to finish")
	return cmd
}

func newDeployRollbackCmd(rt *runtime.Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "rollback",
		Short: "Roll a deployment back to its previous revision",
		RunE: rt.Renderer.Middleware(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m := deploymentManager(rt)

			dep, err := m.pickByField(ctx, "name", "Deployment")
			if err != nil {
				return err
			}
			ok, err := rt.Prompter.Confirm("Roll back "+interact.Stringify(dep["name"])+"?", false)
			if err != nil || !ok {
				return err
			}

			_, err = rt.Driver.Execute(ctx, "Rolling back", func(ctx context.Context) (map[string]any, error) {
				return rt.Session.Post(ctx, m.base+itemID(dep)+"/rollback/", nil)
			})
			if err != nil {
				return err
			}
			pterm.Success.Println("Rollback started")
			return nil
		}),
	}
}
