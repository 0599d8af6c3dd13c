package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/agentcore/agentcore/internal/runtime"
	"github.com/agentcore/agentcore/pkg/api"
	"github.com/agentcore/agentcore/pkg/interact"
)

func datasourceManager(rt *runtime.Runtime) *manager {
	return &manager{
		rt:      rt,
		base:    "api/datasources/",
		title:   "Datasources",
		columns: []string{"Name", "Kind", "Project", "Active Status"},
		fields:  []string{"name", "kind", "project"},
	}
}

func newDataCmd(rt *runtime.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Manage datasources and data versions",
	}
	cmd.AddCommand(newDataListCmd(rt))
	cmd.AddCommand(newDataRegisterCmd(rt))
	cmd.AddCommand(newDataVersionsCmd(rt))
	cmd.AddCommand(newDataDownloadCmd(rt))
	return cmd
}

func newDataListCmd(rt *runtime.Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Browse datasources",
		RunE: rt.Renderer.Middleware(func(cmd *cobra.Command, args []string) error {
			m := datasourceManager(rt)
			resp, err := m.list(cmd.Context(), nil)
			if err != nil {
				return err
			}
			_, err = m.browse(resp, false)
			return err
		}),
	}
}

func newDataRegisterCmd(rt *runtime.Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Register a datasource, optionally seeding it with a file",
		RunE: rt.Renderer.Middleware(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			project, err := projectManager(rt).pickByField(ctx, "name", "Project")
			if err != nil {
				return err
			}
			name, err := rt.Prompter.Required("Datasource name")
			if err != nil {
				return err
			}
			kind, err := rt.Picker.Select("Kind", []string{"s3", "gcs", "postgres", "file"})
			if err != nil {
				return err
			}

			payload := map[string]any{
				"name":    name,
				"kind":    kind,
				"project": itemID(project),
			}

			opts := &api.RequestOptions{Body: payload}
			if kind == "file" {
				path, err := rt.Prompter.Required("Path to seed file")
				if err != nil {
					return err
				}
				f, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", path, err)
				}
				defer f.Close()
				opts.Files = []api.FilePart{{Field: "file", Name: filepath.Base(path), Content: f}}
			}

			created, err := rt.Driver.Execute(ctx, "Registering datasource", func(ctx context.Context) (map[string]any, error) {
				return rt.Session.Post(ctx, datasourceManager(rt).base, opts)
			})
			if err != nil {
				return err
			}
			pterm.Success.Printfln("Datasource %s registered (id %s)", name, itemID(created))
			return nil
		}),
	}
}

func newDataVersionsCmd(rt *runtime.Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "versions",
		Short: "List versions of a datasource",
		RunE: rt.Renderer.Middleware(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m := datasourceManager(rt)

			source, err := m.pickByField(ctx, "name", "Datasource")
			if err != nil {
				return err
			}

			resp, err := rt.Driver.Execute(ctx, "Fetching versions", func(ctx context.Context) (map[string]any, error) {
				return rt.Session.Get(ctx, m.base+itemID(source)+"/versions/", nil)
			})
			if err != nil {
				return err
			}

			rows := interact.Rows(resp, "results")
			if len(rows) == 0 {
				fmt.Println("No versions yet.")
				return nil
			}
			_ = interact.RenderTable(os.Stdout, "Data versions",
				[]string{"Version", "Created At", "Size", "Status"}, rows, nil)
			interact.RenderMeta(os.Stdout, resp)
			return nil
		}),
	}
}

func newDataDownloadCmd(rt *runtime.Runtime) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download a data version artifact",
		RunE: rt.Renderer.Middleware(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m := datasourceManager(rt)

			source, err := m.pickByField(ctx, "name", "Datasource")
			if err != nil {
				return err
			}
			version, err := rt.Prompter.Required("Version")
			if err != nil {
				return err
			}

			if out == "" {
				out = fmt.Sprintf("%s-%s.tar.gz", interact.Stringify(source["name"]), version)
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			defer f.Close()

			_, err = rt.Driver.Execute(ctx, "Downloading "+out, func(ctx context.Context) (map[string]any, error) {
				return rt.Session.Get(ctx, fmt.Sprintf("%s%s/versions/%s/download/", m.base, itemID(source), version),
					&api.RequestOptions{Stream: f})
			})
			if err != nil {
				os.Remove(out)
				return err
			}
			pterm.Success.Printfln("Saved %s", out)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "Destination file (default derived from the datasource)")
	return cmd
}
