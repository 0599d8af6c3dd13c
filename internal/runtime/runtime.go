// Package runtime assembles the client runtime every command depends on:
// the config store, the shared HTTP session, the token coordinator, the
// operation driver, the error renderer, and the interactive prompts.
//
// The runtime object replaces process-global state: the session is an
// explicit value owned here and passed by reference into managers, and the
// coordinator holds both the store and the session so credential updates
// land in the two as a pair.
package runtime

import (
	"fmt"
	"os"
	"time"

	"github.com/pterm/pterm"

	"github.com/agentcore/agentcore/pkg/api"
	"github.com/agentcore/agentcore/pkg/auth"
	"github.com/agentcore/agentcore/pkg/config"
	"github.com/agentcore/agentcore/pkg/interact"
	"github.com/agentcore/agentcore/pkg/operation"
	"github.com/agentcore/agentcore/pkg/render"
)

// CurrentUserEndpoint returns the caller's identity for role derivation.
const CurrentUserEndpoint = "api/users/me/"

// Runtime owns the long-lived client state for one process.
type Runtime struct {
	Version string

	Store       *config.Store
	Session     *api.Session
	Coordinator *auth.Coordinator
	Driver      *operation.Driver
	Renderer    *render.Renderer
	Prompter    *interact.Prompter
	Picker      *interact.Picker
}

// New loads the config store and wires the runtime together.
func New(version string) (*Runtime, error) {
	store, err := config.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open configuration: %w", err)
	}

	session := api.NewSession(store.URL())
	session.SetToken(store.AccessToken())

	coordinator := auth.NewCoordinator(store, session)
	session.SetRefresher(coordinator)

	rt := &Runtime{
		Version:     version,
		Store:       store,
		Session:     session,
		Coordinator: coordinator,
		Driver:      operation.NewDriver(operation.NewTermSpinner()),
		Renderer:    render.New(),
		Prompter:    &interact.Prompter{Out: os.Stdout},
		Picker:      interact.NewPicker(),
	}
	rt.warnOnStaleToken()
	return rt, nil
}

// SetVerbose switches the error renderer into verbose mode.
func (rt *Runtime) SetVerbose(verbose bool) {
	rt.Renderer.Verbose = verbose
}

// LoggedIn reports whether an access token is stored.
func (rt *Runtime) LoggedIn() bool {
	return rt.Store.AccessToken() != ""
}

// warnOnStaleToken nudges the user before a blocking prompt sequence runs
// into a mid-call 401. Advisory only; the refresh path still handles it.
func (rt *Runtime) warnOnStaleToken() {
	token := rt.Store.AccessToken()
	if token == "" {
		return
	}
	if auth.ExpiresSoon(token, time.Minute) && rt.Store.RefreshToken() == "" {
		pterm.Warning.Println("Your session is about to expire. Run login to re-authenticate.")
	}
}
