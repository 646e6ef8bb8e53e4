package auth

import (
	"collsync/internal/config"
	"fmt"
)

// Credentials is the resolved connection secret handed to the remote
// adapter. Exactly one of Password or BearerToken is set.
type Credentials struct {
	Username    string
	Password    string
	BearerToken string
}

// FromConfig resolves credentials from stored configuration: either the
// username/app-password pair or the cached bearer token, depending on
// the configured mode.
func FromConfig(cfg *config.Config) (Credentials, error) {
	if cfg.UseToken {
		src, err := TokenSource()
		if err != nil {
			return Credentials{}, err
		}

		token, err := src.Token()
		if err != nil {
			return Credentials{}, err
		}

		return Credentials{Username: cfg.Username, BearerToken: token.AccessToken}, nil
	}

	if cfg.Username == "" || cfg.Password == "" {
		return Credentials{}, fmt.Errorf("no credentials configured, run 'collsync login' first")
	}

	return Credentials{Username: cfg.Username, Password: cfg.Password}, nil
}
