package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/spotx/internal/auth"
	"github.com/desertthunder/spotx/internal/ui"
	"github.com/urfave/cli/v3"
)

// AuthLogin runs the browser authorization flow regardless of the stored token.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	r.writePlain("Waiting for authorization in the browser...\n")

	if err := r.auth.Authorize(ctx); err != nil {
		return err
	}

	r.logger.Info("authorization complete")
	return r.writePlain("%s\n", ui.Styles().OK("✓ Authenticated"))
}

// AuthRefresh renews the access token with the stored refresh token.
func (r *Runner) AuthRefresh(ctx context.Context, cmd *cli.Command) error {
	if err := r.auth.Refresh(ctx); err != nil {
		return err
	}

	status, err := r.auth.Status()
	if err != nil {
		return err
	}
	msg := fmt.Sprintf("✓ Token refreshed, expires %s", status.ExpiresAt.Local().Format(time.RFC1123))
	return r.writePlain("%s\n", ui.Styles().OK(msg))
}

type authStatusView struct {
	State     string    `json:"state"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
	HasClient bool      `json:"has_client"`
	HasToken  bool      `json:"has_token"`
	CanRenew  bool      `json:"can_renew"`
}

// AuthStatus reports the stored token state without touching the network.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	status, err := r.auth.Status()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(authStatusView{
			State:     status.State.String(),
			ExpiresAt: status.ExpiresAt,
			HasClient: status.HasClient,
			HasToken:  status.HasToken,
			CanRenew:  status.CanRenew,
		}, true)
	}

	if status.HasClient {
		r.writePlain("Client:  ✓ configured\n")
	} else {
		r.writePlain("Client:  ✗ missing (run 'spotx config init')\n")
	}

	switch status.State {
	case auth.ValidToken:
		r.writePlain("Token:   ✓ valid until %s\n", status.ExpiresAt.Local().Format(time.RFC1123))
	case auth.ExpiredToken:
		r.writePlain("Token:   ✗ expired at %s\n", status.ExpiresAt.Local().Format(time.RFC1123))
	default:
		r.writePlain("Token:   ✗ none stored (run 'spotx auth login')\n")
	}

	if status.CanRenew {
		return r.writePlain("Refresh: ✓ available\n")
	}
	return r.writePlain("Refresh: ✗ unavailable\n")
}

// AuthToken prints a usable access token, for use in scripts.
func (r *Runner) AuthToken(ctx context.Context, cmd *cli.Command) error {
	token, err := r.auth.CurrentToken(ctx)
	if err != nil {
		return err
	}
	return r.writePlain("%s\n", token)
}
