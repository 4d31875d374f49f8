package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/fivetwenty-io/cardcast/pkg/api"
	"github.com/fivetwenty-io/cardcast/pkg/cardcast"
	"github.com/spf13/viper"
)

// Static errors for the commands package.
var (
	ErrInvalidKeyValue    = errors.New("expected key=value")
	ErrUnknownFormat      = errors.New("unknown output format")
	ErrInvalidRequestData = errors.New("request data must be a JSON object")
)

// DefaultBase is the API base URL used when neither the flag, the config file
// nor the environment sets one.
func DefaultBase() string {
	return cardcast.DefaultBaseURL
}

// newClient builds a CardCast client from the viper settings.
func newClient() (*cardcast.Client, error) {
	cfg := &cardcast.Config{
		BaseURL:     viper.GetString("base"),
		Version:     viper.GetString("api-version"),
		AccessToken: viper.GetString("token"),
		HTTPTimeout: viper.GetDuration("timeout"),
		RetryMax:    viper.GetInt("retry-max"),
		Debug:       viper.GetBool("verbose"),
	}

	if cfg.Debug {
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
		cfg.Logger = api.NewSlogLogger(slog.New(handler))
	}

	if path := viper.GetString("definition"); path != "" {
		def, err := api.LoadDefinition(path)
		if err != nil {
			return nil, err
		}

		cfg.Definition = def
	}

	client, err := cardcast.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return client, nil
}
