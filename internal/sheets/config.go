// Package sheets exports contract version history and amendments to Google
// Sheets.
package sheets

import (
	"fmt"
	"time"

	"github.com/Veraticus/amendment-desk/internal/common"
)

// DefaultSpreadsheetName names spreadsheets created by the exporter.
const DefaultSpreadsheetName = "Contract Amendments"

// AuthMode is how the exporter authenticates against the Sheets API.
type AuthMode string

// Supported authentication modes.
const (
	AuthNone           AuthMode = ""
	AuthServiceAccount AuthMode = "service_account"
	AuthOAuth          AuthMode = "oauth"
)

// Config holds the configuration for the Google Sheets writer.
type Config struct {
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	ServiceAccountPath string
	SpreadsheetID      string
	SpreadsheetName    string
	TimeZone           string
	BatchSize          int
	RetryAttempts      int
	RetryDelay         time.Duration
	EnableFormatting   bool
}

// DefaultConfig returns the exporter defaults with no credentials.
func DefaultConfig() Config {
	return Config{
		EnableFormatting: true,
		SpreadsheetName:  DefaultSpreadsheetName,
		TimeZone:         "America/New_York",
		BatchSize:        1000,
		RetryAttempts:    3,
		RetryDelay:       time.Second,
	}
}

// Auth reports which credentials are present. A partial OAuth triple counts
// as none.
func (c Config) Auth() AuthMode {
	oauth := c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
	switch {
	case c.ServiceAccountPath != "" && oauth:
		return AuthNone
	case c.ServiceAccountPath != "":
		return AuthServiceAccount
	case oauth:
		return AuthOAuth
	default:
		return AuthNone
	}
}

// Validate checks that exactly one authentication method is configured and
// that the batching and retry settings are usable.
func (c *Config) Validate() error {
	if c.ServiceAccountPath != "" && c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != "" {
		return fmt.Errorf("%w: multiple authentication methods configured; use either OAuth2 or service account", common.ErrInvalidConfig)
	}
	if c.Auth() == AuthNone {
		return fmt.Errorf("%w: no authentication method configured", common.ErrMissingConfig)
	}

	switch {
	case c.BatchSize <= 0:
		return fmt.Errorf("%w: batch size must be positive", common.ErrInvalidConfig)
	case c.RetryAttempts < 0:
		return fmt.Errorf("%w: retry attempts cannot be negative", common.ErrInvalidConfig)
	case c.RetryDelay < 0:
		return fmt.Errorf("%w: retry delay cannot be negative", common.ErrInvalidConfig)
	}
	return nil
}
