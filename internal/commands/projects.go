package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/agentcore/agentcore/internal/runtime"
)

func projectManager(rt *runtime.Runtime) *manager {
	return &manager{
		rt:      rt,
		base:    "api/projects/",
		title:   "Projects",
		columns: []string{"Name", "Description", "Owner", "Active Status"},
		fields:  []string{"name", "description", "owner"},
	}
}

func newProjectsCmd(rt *runtime.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Manage projects",
	}
	cmd.AddCommand(newProjectsListCmd(rt))
	cmd.AddCommand(newProjectsCreateCmd(rt))
	cmd.AddCommand(newProjectsDeleteCmd(rt))
	return cmd
}

func newProjectsListCmd(rt *runtime.Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Browse projects",
		RunE: rt.Renderer.Middleware(func(cmd *cobra.Command, args []string) error {
			m := projectManager(rt)
			resp, err := m.list(cmd.Context(), nil)
			if err != nil {
				return err
			}
			_, err = m.browse(resp, false)
			return err
		}),
	}
}

func newProjectsCreateCmd(rt *runtime.Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create a project",
		RunE: rt.Renderer.Middleware(func(cmd *cobra.Command, args []string) error {
			name, err := rt.Prompter.Required("Project name")
			if err != nil {
				return err
			}
			description, err := rt.Prompter.Text("Description", "")
			if err != nil {
				return err
			}

			m := projectManager(rt)
			created, err := m.create(cmd.Context(), map[string]any{
				"name":        name,
				"description": description,
			})
			if err != nil {
				return err
			}
			pterm.Success.Printfln("Created project %s (id %s)", name, itemID(created))
			return nil
		}),
	}
}

func newProjectsDeleteCmd(rt *runtime.Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Delete a project",
		RunE: rt.Renderer.Middleware(func(cmd *cobra.Command, args []string) error {
			m := projectManager(rt)
			item, err := m.pickByField(cmd.Context(), "name", "Project to delete")
			if err != nil {
				return err
			}

			confirmed, err := rt.Prompter.Confirm("Delete this project and all of its runs?", false)
			if err != nil || !confirmed {
				return err
			}
			if err := m.remove(cmd.Context(), itemID(item)); err != nil {
				return err
			}
			pterm.Success.Println("Project deleted.")
			return nil
		}),
	}
}
