// Package auth loads CrowdStrike Falcon API credentials from the environment
// and derives the regional API base URL.
package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Environment variables holding the Falcon API credentials.
const (
	EnvClientID     = "FALCON_CLIENT_ID"
	EnvClientSecret = "FALCON_CLIENT_SECRET"
	EnvCloudRegion  = "FALCON_CLOUD_REGION"

	// EnvBaseURL optionally overrides the base URL derived from the
	// cloud region, for private gateways and test harnesses.
	EnvBaseURL = "FALCON_BASE_URL"
)

// ErrMissingEnv is returned by FromEnv when required environment variables
// are not set. The wrapping error names every missing variable.
var ErrMissingEnv = errors.New("missing required environment variables")

// regionBaseURLs maps Falcon cloud regions to API base URLs.
var regionBaseURLs = map[string]string{
	"us-1":     "https://api.crowdstrike.com",
	"us-2":     "https://api.us-2.crowdstrike.com",
	"eu-1":     "https://api.eu-1.crowdstrike.com",
	"us-gov-1": "https://api.laggar.gcw.crowdstrike.com",
}

// Context holds the Falcon API credentials and connection configuration.
type Context struct {
	ClientID     string
	ClientSecret string
	CloudRegion  string
	BaseURL      string
}

// FromEnv loads the authentication context from FALCON_CLIENT_ID,
// FALCON_CLIENT_SECRET and FALCON_CLOUD_REGION. All missing variables
// are reported at once.
func FromEnv() (Context, error) {
	var missing []string
	for _, name := range []string{EnvClientID, EnvClientSecret, EnvCloudRegion} {
		if os.Getenv(name) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return Context{}, fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(missing, ", "))
	}

	region := os.Getenv(EnvCloudRegion)
	baseURL := os.Getenv(EnvBaseURL)
	if baseURL == "" {
		baseURL = RegionBaseURL(region)
	}

	return Context{
		ClientID:     os.Getenv(EnvClientID),
		ClientSecret: os.Getenv(EnvClientSecret),
		CloudRegion:  region,
		BaseURL:      baseURL,
	}, nil
}

// RegionBaseURL returns the API base URL for a Falcon cloud region.
// Unknown regions fall back to the us-1 commercial cloud.
func RegionBaseURL(region string) string {
	if url, ok := regionBaseURLs[region]; ok {
		return url
	}
	return regionBaseURLs["us-1"]
}

// Validate checks that all credential fields are present.
func (c Context) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("client ID cannot be empty")
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("client secret cannot be empty")
	}
	if c.CloudRegion == "" {
		return fmt.Errorf("cloud region cannot be empty")
	}
	return nil
}

// TokenSource returns an OAuth2 token source for the Falcon token endpoint.
// Falcon expects the client credentials as form parameters. Pass a context
// carrying oauth2.HTTPClient to control the HTTP client used for token
// requests.
func (c Context) TokenSource(ctx context.Context) oauth2.TokenSource {
	cfg := &clientcredentials.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     c.BaseURL + "/oauth2/token",
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	return cfg.TokenSource(ctx)
}
