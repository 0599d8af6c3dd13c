package commands

import (
	"github.com/spf13/cobra"

	"github.com/agentcore/agentcore/internal/runtime"
)

// newListCmd is the interactive entry point: pick a resource group, then
// browse it paginated.
func newListCmd(rt *runtime.Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Pick a resource group and browse it",
		RunE: rt.Renderer.Middleware(func(cmd *cobra.Command, args []string) error {
			managers := map[string]*manager{
				"projects":    projectManager(rt),
				"users":       userManager(rt),
				"experiments": experimentManager(rt),
				"instances":   instanceManager(rt),
				"datasources": datasourceManager(rt),
				"credentials": credentialManager(rt),
				"deployments": deploymentManager(rt),
			}

			choice, err := rt.Picker.Select("Resource", []string{
				"projects", "users", "experiments", "instances",
				"datasources", "credentials", "deployments",
			})
			if err != nil {
				return abortOnInterrupt(err)
			}

			m := managers[choice]
			resp, err := m.list(cmd.Context(), nil)
			if err != nil {
				return err
			}
			_, err = m.browse(resp, false)
			return err
		}),
	}
}
