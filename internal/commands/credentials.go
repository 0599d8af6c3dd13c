package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/agentcore/agentcore/internal/runtime"
	"github.com/agentcore/agentcore/pkg/interact"
)

func credentialManager(rt *runtime.Runtime) *manager {
	return &manager{
		rt:      rt,
		base:    "api/credentials/",
		title:   "Credentials",
		columns: []string{"Name", "Provider", "Created At"},
		fields:  []string{"name", "provider"},
	}
}

func newCredentialsCmd(rt *runtime.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage provider credentials",
	}
	cmd.AddCommand(newCredentialsListCmd(rt))
	cmd.AddCommand(newCredentialsAddCmd(rt))
	cmd.AddCommand(newCredentialsDeleteCmd(rt))
	return cmd
}

func newCredentialsListCmd(rt *runtime.Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored credentials",
		RunE: rt.Renderer.Middleware(func(cmd *cobra.Command, args []string) error {
			m := credentialManager(rt)
			resp, err := m.list(cmd.Context(), nil)
			if err != nil {
				return err
			}
			m.showList(resp)
			return nil
		}),
	}
}

func newCredentialsAddCmd(rt *runtime.Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "add",
		Short: "Add a provider credential",
		RunE: rt.Renderer.Middleware(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			name, err := rt.Prompter.Required("Credential name")
			if err != nil {
				return err
			}
			provider, err := rt.Picker.Select("Provider", []string{"aws", "gcp", "azure", "huggingface"})
			if err != nil {
				return err
			}
			secret, err := interact.ReadSecret("Secret value")
			if err != nil {
				return abortOnInterrupt(err)
			}

			created, err := credentialManager(rt).create(ctx, map[string]any{
				"name":     name,
				"provider": provider,
				"secret":   secret,
			})
			if err != nil {
				return err
			}
			pterm.Success.Printfln("Credential %s added (id %s)", name, itemID(created))
			return nil
		}),
	}
}

func newCredentialsDeleteCmd(rt *runtime.Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Delete a credential",
		RunE: rt.Renderer.Middleware(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m := credentialManager(rt)

			cred, err := m.pickByField(ctx, "name", "Credential")
			if err != nil {
				return err
			}
			ok, err := rt.Prompter.Confirm("Delete "+interact.Stringify(cred["name"])+"?", false)
			if err != nil || !ok {
				return err
			}
			if err := m.remove(ctx, itemID(cred)); err != nil {
				return err
			}
			pterm.Success.Println("Credential deleted")
			return nil
		}),
	}
}
