package commands

import (
	"encoding/json"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/agentcore/agentcore/internal/runtime"
	"github.com/agentcore/agentcore/pkg/config"
)

func newConfigCmd(rt *runtime.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and change the local configuration",
	}
	cmd.AddCommand(newConfigShowCmd(rt))
	cmd.AddCommand(newConfigSetCmd(rt))
	cmd.AddCommand(newConfigPathCmd(rt))
	return cmd
}

func newConfigShowCmd(rt *runtime.Runtime) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the current configuration",
		RunE: rt.Renderer.Middleware(func(cmd *cobra.Command, args []string) error {
			settings := rt.Store.Settings()

			var out []byte
			var err error
			switch format {
			case "json":
				out, err = json.MarshalIndent(settings, "", "  ")
			case "yaml":
				out, err = yaml.Marshal(settings)
			default:
				return fmt.Errorf("unknown format %q, expected json or yaml", format)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		}),
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json or yaml")
	return cmd
}

func newConfigSetCmd(rt *runtime.Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: rt.Renderer.Middleware(func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			if key == config.KeyURL {
				if !rt.Store.ValidateURL(cmd.Context(), value) {
					return fmt.Errorf("%s does not answer the health probe", value)
				}
			}
			if err := rt.Store.Set(key, value); err != nil {
				return err
			}
			if key == config.KeyURL {
				rt.Session.SetBaseURL(value)
			}
			pterm.Success.Printfln("%s set", key)
			return nil
		}),
	}
}

func newConfigPathCmd(rt *runtime.Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file location",
		RunE: rt.Renderer.Middleware(func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), rt.Store.Path())
			return nil
		}),
	}
}
