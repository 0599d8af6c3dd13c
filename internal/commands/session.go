package commands

import (
	"context"
	"time"

	"github.com/pterm/pterm"
	"github.com/skratchdot/open-golang/open"
	"github.com/spf13/cobra"

	"github.com/agentcore/agentcore/internal/runtime"
	"github.com/agentcore/agentcore/pkg/api"
	"github.com/agentcore/agentcore/pkg/config"
	"github.com/agentcore/agentcore/pkg/interact"
)

const (
	loginEndpoint          = "api/login/"
	signupEndpoint         = "api/signup/"
	changePasswordEndpoint = "api/users/change-password/"
	resetPasswordEndpoint  = "api/users/reset-password/"
)

func newLoginCmd(rt *runtime.Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Authenticate against the service and store the session",
		RunE: rt.Renderer.Middleware(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			email, err := rt.Prompter.Required("Email")
			if err != nil {
				return err
			}
			password, err := interact.ReadSecret("Password: ")
			if err != nil {
				return abortOnInterrupt(err)
			}

			resp, err := rt.Driver.Execute(ctx, "Logging in", func(ctx context.Context) (map[string]any, error) {
				return rt.Session.Post(ctx, loginEndpoint, &api.RequestOptions{
					Body:      map[string]any{"email": email, "password": password},
					NoRefresh: true,
				})
			})
			if err != nil {
				return err
			}

			access, _ := resp["access"].(string)
			refresh, _ := resp["refresh"].(string)
			if err := storeSession(rt, email, password, access, refresh); err != nil {
				return err
			}

			// Identity derivation is best effort; login already succeeded.
			if me, err := rt.Session.Get(ctx, runtime.CurrentUserEndpoint, nil); err == nil {
				if id, ok := me["id"]; ok {
					_ = rt.Store.Set(config.KeyUserID, interact.Stringify(id))
				}
			}

			pterm.Success.Printfln("Logged in as %s", email)
			return nil
		}),
	}
}

func storeSession(rt *runtime.Runtime, email, password, access, refresh string) error {
	if err := rt.Store.SetToken(access, config.TokenAccess); err != nil {
		return err
	}
	if err := rt.Store.SetToken(refresh, config.TokenRefresh); err != nil {
		return err
	}
	if err := rt.Store.Set(config.KeyLoginEmail, email); err != nil {
		return err
	}
	if err := rt.Store.Set(config.KeyLoginTime, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	if password != "" {
		if err := rt.Store.SetPassword(email, password); err != nil {
			pterm.Warning.Printfln("Could not store password in the system keyring: %v", err)
		}
	}
	rt.Session.SetToken(access)
	return nil
}

func newLogoutCmd(rt *runtime.Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		RunE: rt.Renderer.Middleware(func(cmd *cobra.Command, args []string) error {
			if err := rt.Store.ClearDetails(); err != nil {
				return err
			}
			rt.Session.SetToken("")
			rt.Session.SetBaseURL(rt.Store.URL())
			pterm.Success.Println("Logged out.")
			return nil
		}),
	}
}

func newSignupCmd(rt *runtime.Runtime) *cobra.Command {
	var web bool

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create a new account",
		RunE: rt.Renderer.Middleware(func(cmd *cobra.Command, args []string) error {
			if web {
				consoleURL := rt.Store.URL() + "signup"
				pterm.Info.Printfln("Opening %s", consoleURL)
				return open.Run(consoleURL)
			}

			email, err := rt.Prompter.Required("Email")
			if err != nil {
				return err
			}
			name, err := rt.Prompter.Text("Full name", "")
			if err != nil {
				return err
			}
			password, err := interact.ReadSecret("Password: ")
			if err != nil {
				return abortOnInterrupt(err)
			}

			_, err = rt.Driver.Execute(cmd.Context(), "Creating account", func(ctx context.Context) (map[string]any, error) {
				return rt.Session.Post(ctx, signupEndpoint, &api.RequestOptions{
					Body:      map[string]any{"email": email, "name": name, "password": password},
					NoRefresh: true,
				})
			})
			if err != nil {
				return err
			}
			pterm.Success.Println("Account created. Check your email to verify, then run login.")
			return nil
		}),
	}

	cmd.Flags().BoolVar(&web, "web", false, "Open the registration console in the browser instead")
	return cmd
}

func newChangePasswordCmd(rt *runtime.Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "change-password",
		Short: "Change the password of the logged-in account",
		RunE: rt.Renderer.Middleware(func(cmd *cobra.Command, args []string) error {
			current, err := interact.ReadSecret("Current password: ")
			if err != nil {
				return abortOnInterrupt(err)
			}
			next, err := interact.ReadSecret("New password: ")
			if err != nil {
				return abortOnInterrupt(err)
			}
			confirm, err := interact.ReadSecret("Repeat new password: ")
			if err != nil {
				return abortOnInterrupt(err)
			}
			if next != confirm {
				pterm.Error.Println("Passwords do not match.")
				return nil
			}

			_, err = rt.Driver.Execute(cmd.Context(), "Changing password", func(ctx context.Context) (map[string]any, error) {
				return rt.Session.Post(ctx, changePasswordEndpoint, &api.RequestOptions{
					Body: map[string]any{"current_password": current, "new_password": next},
				})
			})
			if err != nil {
				return err
			}

			if email := rt.Store.Get(config.KeyLoginEmail, ""); email != "" {
				_ = rt.Store.SetPassword(email, next)
			}
			pterm.Success.Println("Password changed.")
			return nil
		}),
	}
}

func newResetPasswordCmd(rt *runtime.Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-password",
		Short: "Request a password reset email",
		RunE: rt.Renderer.Middleware(func(cmd *cobra.Command, args []string) error {
			email, err := rt.Prompter.Required("Email")
			if err != nil {
				return err
			}
			_, err = rt.Driver.Execute(cmd.Context(), "Requesting password reset", func(ctx context.Context) (map[string]any, error) {
				return rt.Session.Post(ctx, resetPasswordEndpoint, &api.RequestOptions{
					Body:      map[string]any{"email": email},
					NoRefresh: true,
				})
			})
			if err != nil {
				return err
			}
			pterm.Success.Println("If the account exists, a reset email is on its way.")
			return nil
		}),
	}
}
