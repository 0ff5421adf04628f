package graph

import (
	"fmt"

	"golang.org/x/oauth2/clientcredentials"
)

const (
	// DefaultBaseURL is the Graph API root.
	DefaultBaseURL = "https://graph.microsoft.com/v1.0"

	// DefaultScope requests the app-only permission set.
	DefaultScope = "https://graph.microsoft.com/.default"

	// DefaultRequestsPerSecond throttles outgoing Graph calls. Graph
	// throttles around 10k requests per 10 minutes per app; staying
	// well under that avoids 429 storms during large listings.
	DefaultRequestsPerSecond = 5
)

// Config holds the Graph connection settings.
type Config struct {
	// TenantID is the Entra directory tenant.
	TenantID string

	// ClientID and ClientSecret identify the app registration.
	ClientID     string
	ClientSecret string

	// DriveID is the drive to list and download from.
	DriveID string

	// BaseURL overrides the Graph API root. Empty means DefaultBaseURL.
	BaseURL string

	// RequestsPerSecond overrides the client-side throttle. Zero means
	// DefaultRequestsPerSecond.
	RequestsPerSecond float64
}

// Validate checks the required fields.
func (c Config) Validate() error {
	switch {
	case c.TenantID == "":
		return fmt.Errorf("graph config: tenant id is required")
	case c.ClientID == "":
		return fmt.Errorf("graph config: client id is required")
	case c.ClientSecret == "":
		return fmt.Errorf("graph config: client secret is required")
	case c.DriveID == "":
		return fmt.Errorf("graph config: drive id is required")
	}
	return nil
}

// credentials builds the client-credentials token config for the tenant.
func (c Config) credentials() *clientcredentials.Config {
	return &clientcredentials.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", c.TenantID),
		Scopes:       []string{DefaultScope},
	}
}
