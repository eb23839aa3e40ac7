package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/spotx/internal/credentials"
	"github.com/desertthunder/spotx/internal/shared"
	"github.com/desertthunder/spotx/internal/ui"
	"github.com/urfave/cli/v3"
)

// ConfigInit writes the settings file if it is missing and stores the client credentials.
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	if _, err := os.Stat(r.configPath); err == nil {
		r.logger.Info("settings file already exists", "path", r.configPath)
	} else {
		if err := shared.CreateConfigFile(r.configPath); err != nil {
			return err
		}
		r.logger.Info("settings file created", "path", r.configPath)
		r.writePlain("✓ Settings written to %s\n", r.configPath)
	}

	values := map[string]string{}
	if id := cmd.String("client-id"); id != "" {
		values[credentials.KeyClientID] = id
	}
	if secret := cmd.String("client-secret"); secret != "" {
		values[credentials.KeyClientSecret] = secret
	}

	if len(values) == 0 {
		r.writePlain("%s\n", ui.Styles().Warn("No client credentials given; set SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET or pass --client-id/--client-secret"))
		return nil
	}

	if err := r.store.Update(values); err != nil {
		return err
	}
	return r.writePlain("✓ Client credentials stored in %s\n", r.store.Path())
}

// ConfigGet prints one stored credential.
func (r *Runner) ConfigGet(ctx context.Context, cmd *cli.Command) error {
	key := cmd.StringArg("key")
	if key == "" {
		return fmt.Errorf("%w: key", shared.ErrMissingArgument)
	}

	value, err := r.store.Get(key)
	if err != nil {
		return err
	}
	return r.writePlain("%s\n", value)
}

// ConfigSet stores key=value pairs in a single write. One bad pair rejects them all.
func (r *Runner) ConfigSet(ctx context.Context, cmd *cli.Command) error {
	pairs := cmd.Args().Slice()
	if len(pairs) == 0 {
		return fmt.Errorf("%w: key=value", shared.ErrMissingArgument)
	}

	values, err := parsePairs(pairs)
	if err != nil {
		return err
	}

	if err := r.store.Update(values); err != nil {
		return err
	}

	r.logger.Debug("credentials updated", "keys", len(values))
	return r.writePlain("✓ Stored %d value(s)\n", len(values))
}

func parsePairs(pairs []string) (map[string]string, error) {
	values := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: expected key=value, got %q", shared.ErrInvalidArgument, pair)
		}
		values[key] = value
	}
	return values, nil
}

// ConfigShow prints the stored credentials, masking secrets unless --reveal is set.
func (r *Runner) ConfigShow(ctx context.Context, cmd *cli.Command) error {
	creds, err := r.store.Credentials()
	if err != nil {
		return err
	}

	if !cmd.Bool("reveal") {
		creds.ClientSecret = mask(creds.ClientSecret)
		creds.AccessToken = mask(creds.AccessToken)
		creds.RefreshToken = mask(creds.RefreshToken)
	}

	if cmd.Bool("json") {
		return r.writeJSON(creds, true)
	}

	r.writePlainHeader(r.store.Path())
	r.writePlain("%-14s %s\n", credentials.KeyClientID, creds.ClientID)
	r.writePlain("%-14s %s\n", credentials.KeyClientSecret, creds.ClientSecret)
	r.writePlain("%-14s %s\n", credentials.KeyAccessToken, creds.AccessToken)
	r.writePlain("%-14s %s\n", credentials.KeyRefreshToken, creds.RefreshToken)

	expiry := ""
	if !creds.ExpiryTime.IsZero() {
		expiry = credentials.FormatExpiry(creds.ExpiryTime)
	}
	return r.writePlain("%-14s %s\n", credentials.KeyExpiryTime, expiry)
}

// mask keeps the last four characters of a secret.
func mask(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", 8) + s[len(s)-4:]
}

// ConfigPath prints where settings, credentials and the cache live.
func (r *Runner) ConfigPath(ctx context.Context, cmd *cli.Command) error {
	cachePath, err := r.config.CachePath()
	if err != nil {
		return err
	}

	r.writePlain("settings:    %s\n", r.configPath)
	r.writePlain("credentials: %s\n", r.store.Path())
	return r.writePlain("cache:       %s\n", cachePath)
}
