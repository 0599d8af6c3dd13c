package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/agentcore/agentcore/internal/runtime"
	"github.com/agentcore/agentcore/pkg/operation"
	"github.com/agentcore/agentcore/pkg/track"
)

func instanceManager(rt *runtime.Runtime) *manager {
	return &manager{
		rt:      rt,
		base:    "api/instances/",
		title:   "Instances",
		columns: []string{"Name", "Type", "Region", "Status"},
		fields:  []string{"name", "type", "region", "status"},
	}
}

func newInstancesCmd(rt *runtime.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instances",
		Short: "Provision and manage compute instances",
	}
	cmd.AddCommand(newInstancesListCmd(rt))
	cmd.AddCommand(newInstancesProvisionCmd(rt))
	cmd.AddCommand(newInstancesTerminateCmd(rt))
	return cmd
}

func newInstancesListCmd(rt *runtime.Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Browse instances",
		RunE: rt.Renderer.Middleware(func(cmd *cobra.Command, args []string) error {
			m := instanceManager(rt)
			resp, err := m.list(cmd.Context(), nil)
			if err != nil {
				return err
			}
			_, err = m.browse(resp, false)
			return err
		}),
	}
}

func newInstancesProvisionCmd(rt *runtime.Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "provision",
		Short: "Provision a new instance",
		RunE: rt.Renderer.Middleware(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			name, err := rt.Prompter.Required("Instance name")
			if err != nil {
				return err
			}
			kind, err := rt.Picker.Select("Instance type", []string{"cpu.small", "cpu.large", "gpu.a100", "gpu.h100"})
			if err != nil {
				return err
			}

			m := instanceManager(rt)
			created, err := m.create(ctx, map[string]any{"name": name, "type": kind})
			if err != nil {
				return err
			}

			// Provisioning outlives any single request; watch the status
			// endpoint instead of holding the call open.
			monitor := &track.Monitor{
				Session:        rt.Session,
				Path:           m.base + itemID(created) + "/",
				TerminalStates: []string{"running", "failed"},
				Progress:       operation.NewTermSpinner(),
			}
			monitor.Progress.Start("Provisioning " + name)
			final, err := monitor.Run(ctx)
			if err != nil {
				return err
			}
			if final["status"] == "failed" {
				pterm.Error.Printfln("Provisioning of %s failed", name)
				return nil
			}
			pterm.Success.Printfln("Instance %s is running", name)
			return nil
		}),
	}
}

func newInstancesTerminateCmd(rt *runtime.Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "terminate",
		Short: "Terminate an instance",
		RunE: rt.Renderer.Middleware(func(cmd *cobra.Command, args []string) error {
			m := instanceManager(rt)
			item, err := m.pickByField(cmd.Context(), "name", "Instance to terminate")
			if err != nil {
				return err
			}
			confirmed, err := rt.Prompter.Confirm("Terminate this instance?", false)
			if err != nil || !confirmed {
				return err
			}
			if err := m.remove(cmd.Context(), itemID(item)); err != nil {
				return err
			}
			pterm.Success.Println("Instance terminated.")
			return nil
		}),
	}
}
