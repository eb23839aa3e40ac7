package credentials

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/desertthunder/spotx/internal/shared"
	"gopkg.in/yaml.v3"
)

// legacyConfig is the YAML layout written by the previous client.
// Unset fields were stored as empty strings, so validity may be "" or a float.
type legacyConfig struct {
	Client   string `yaml:"client"`
	Secret   string `yaml:"secret"`
	Token    string `yaml:"token"`
	Refresh  string `yaml:"refresh"`
	Validity any    `yaml:"validity"`
}

// readLegacy maps a legacy settings file onto [Credentials].
// It reports imported=false when path is empty or absent.
func readLegacy(path string) (creds Credentials, imported bool, err error) {
	if path == "" {
		return Credentials{}, false, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Credentials{}, false, nil
	} else if err != nil {
		return Credentials{}, false, fmt.Errorf("failed to read legacy settings: %w", err)
	}

	var legacy legacyConfig
	if err := yaml.Unmarshal(data, &legacy); err != nil {
		return Credentials{}, false, fmt.Errorf("%w: failed to parse legacy settings %s: %v", shared.ErrInvalidConfig, path, err)
	}

	expiry, err := legacyExpiry(legacy.Validity)
	if err != nil {
		return Credentials{}, false, err
	}

	return Credentials{
		ClientID:     legacy.Client,
		ClientSecret: legacy.Secret,
		AccessToken:  legacy.Token,
		RefreshToken: legacy.Refresh,
		ExpiryTime:   expiry,
	}, true, nil
}

func legacyExpiry(v any) (t time.Time, err error) {
	switch v := v.(type) {
	case nil:
		return t, nil
	case int:
		return unixFloat(float64(v)), nil
	case float64:
		return unixFloat(v), nil
	case string:
		if v == "" {
			return t, nil
		}
		secs, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return t, fmt.Errorf("%w: legacy validity %q", shared.ErrInvalidValue, v)
		}
		return unixFloat(secs), nil
	default:
		return t, fmt.Errorf("%w: legacy validity of type %T", shared.ErrInvalidValue, v)
	}
}
