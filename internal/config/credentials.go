package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// DefaultCredentialsFile is looked up in the working directory.
const DefaultCredentialsFile = "api_keys.yml"

// ErrMissingCredentials is returned when no Unsplash client id is available.
var ErrMissingCredentials = errors.New("unsplash client id is not configured")

// Credentials holds the API keys read from api_keys.yml.
type Credentials struct {
	UnsplashClientID string `mapstructure:"unsplash_client_id"`
}

// LoadCredentials reads the API keys file. UNSPLASH_CLIENT_ID overrides the file,
// and a missing file is tolerated only when the variable is set.
func LoadCredentials(path string) (*Credentials, error) {
	if path == "" {
		path = DefaultCredentialsFile
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.BindEnv("unsplash_client_id", "UNSPLASH_CLIENT_ID")

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read credentials file %s: %w", path, err)
		}
	}

	var creds Credentials
	if err := v.Unmarshal(&creds); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credentials: %w", err)
	}
	if creds.UnsplashClientID == "" {
		return nil, fmt.Errorf("%w: set unsplash_client_id in %s or UNSPLASH_CLIENT_ID", ErrMissingCredentials, path)
	}
	return &creds, nil
}
