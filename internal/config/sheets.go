package config

import (
	"os"

	"github.com/Veraticus/amendment-desk/internal/sheets"
	"github.com/spf13/viper"
)

// sheetsSetting binds one exporter field to its viper key and the
// GOOGLE_SHEETS_* variable used when the key is unset.
type sheetsSetting struct {
	field  func(*sheets.Config) *string
	key    string
	env    string
	isPath bool
}

var sheetsSettings = []sheetsSetting{
	{key: "sheets.service_account_path", env: "GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", isPath: true,
		field: func(c *sheets.Config) *string { return &c.ServiceAccountPath }},
	{key: "sheets.client_id", env: "GOOGLE_SHEETS_CLIENT_ID",
		field: func(c *sheets.Config) *string { return &c.ClientID }},
	{key: "sheets.client_secret", env: "GOOGLE_SHEETS_CLIENT_SECRET",
		field: func(c *sheets.Config) *string { return &c.ClientSecret }},
	{key: "sheets.refresh_token", env: "GOOGLE_SHEETS_REFRESH_TOKEN",
		field: func(c *sheets.Config) *string { return &c.RefreshToken }},
	{key: "sheets.spreadsheet_id", env: "GOOGLE_SHEETS_SPREADSHEET_ID",
		field: func(c *sheets.Config) *string { return &c.SpreadsheetID }},
	{key: "sheets.spreadsheet_name", env: "GOOGLE_SHEETS_SPREADSHEET_NAME",
		field: func(c *sheets.Config) *string { return &c.SpreadsheetName }},
	{key: "sheets.time_zone",
		field: func(c *sheets.Config) *string { return &c.TimeZone }},
}

// LoadSheetsConfig builds the exporter configuration. Values come from viper
// (config file or AMEND_SHEETS_* variables) first, then GOOGLE_SHEETS_*
// variables, then the exporter defaults.
func LoadSheetsConfig(v *viper.Viper) (*sheets.Config, error) {
	if v == nil {
		v = viper.GetViper()
	}
	config := sheets.DefaultConfig()

	for _, s := range sheetsSettings {
		value := v.GetString(s.key)
		if value == "" && s.env != "" {
			value = os.Getenv(s.env)
		}
		if value == "" {
			continue
		}
		if s.isPath {
			value = ExpandPath(value)
		}
		*s.field(&config) = value
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}
