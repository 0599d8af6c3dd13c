// Package auth owns token lifecycle policy: exchanging the refresh token for
// a new access token and keeping the config store and the HTTP session in
// agreement about the current credentials.
package auth

import (
	"context"

	"github.com/agentcore/agentcore/pkg/api"
	"github.com/agentcore/agentcore/pkg/config"
)

// RefreshEndpoint accepts {"refresh": <token>} and returns {"access": <token>}.
const RefreshEndpoint = "api/token/refresh/"

// MsgLoginRequired is raised when no refresh token is stored.
const MsgLoginRequired = "Please login to run the agent."

// MsgSessionExpired is raised when the refresh exchange is rejected.
const MsgSessionExpired = "Session expired. Please login again."

// Coordinator swaps an expired access token for a fresh one. It updates the
// store and the session together so the Authorization header never drifts
// from the persisted token.
type Coordinator struct {
	store   *config.Store
	session *api.Session
}

// NewCoordinator wires the coordinator to the store and session it governs.
func NewCoordinator(store *config.Store, session *api.Session) *Coordinator {
	return &Coordinator{store: store, session: session}
}

// Refresh implements api.Refresher. The refresh token is re-read from the
// store on every call so back-to-back invocations stay idempotent.
func (c *Coordinator) Refresh(ctx context.Context) error {
	refreshToken := c.store.RefreshToken()
	if refreshToken == "" {
		return api.Unauthorized(MsgLoginRequired)
	}

	resp, err := c.session.Post(ctx, RefreshEndpoint, &api.RequestOptions{
		Body:      map[string]any{"refresh": refreshToken},
		NoRefresh: true,
	})
	if err != nil {
		return api.Unauthorized(MsgSessionExpired)
	}

	access, ok := resp["access"].(string)
	if !ok || access == "" {
		return api.Unauthorized(MsgSessionExpired)
	}

	if err := c.store.SetToken(access, config.TokenAccess); err != nil {
		return err
	}
	c.session.SetToken(access)
	return nil
}
