package sheets

import (
	"testing"
	"time"

	"github.com/Veraticus/amendment-desk/internal/common"
	"github.com/stretchr/testify/assert"
)

func TestConfig_Auth(t *testing.T) {
	tests := []struct {
		name   string
		want   AuthMode
		config Config
	}{
		{name: "service account", config: Config{ServiceAccountPath: "/keys/sa.json"}, want: AuthServiceAccount},
		{name: "oauth", config: Config{ClientID: "id", ClientSecret: "secret", RefreshToken: "token"}, want: AuthOAuth},
		{name: "partial oauth", config: Config{ClientID: "id", RefreshToken: "token"}, want: AuthNone},
		{name: "both", config: Config{ServiceAccountPath: "/keys/sa.json", ClientID: "id", ClientSecret: "secret", RefreshToken: "token"}, want: AuthNone},
		{name: "empty", want: AuthNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.config.Auth())
		})
	}
}

func TestConfig_ValidateSentinels(t *testing.T) {
	tests := []struct {
		name   string
		target error
		errMsg string
		config Config
	}{
		{
			name:   "partial oauth credentials",
			config: Config{ClientID: "test-client", RefreshToken: "test-token", BatchSize: 100},
			target: common.ErrMissingConfig,
			errMsg: "no authentication method configured",
		},
		{
			name: "both methods",
			config: Config{
				ServiceAccountPath: "/keys/sa.json",
				ClientID:           "id",
				ClientSecret:       "secret",
				RefreshToken:       "token",
				BatchSize:          100,
			},
			target: common.ErrInvalidConfig,
			errMsg: "multiple authentication methods",
		},
		{
			name: "negative retry delay",
			config: Config{
				ServiceAccountPath: "/keys/sa.json",
				BatchSize:          100,
				RetryAttempts:      3,
				RetryDelay:         -1 * time.Second,
			},
			target: common.ErrInvalidConfig,
			errMsg: "retry delay cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			assert.ErrorIs(t, err, tt.target)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	ok := Config{ServiceAccountPath: "/keys/sa.json", BatchSize: 100}
	assert.NoError(t, ok.Validate(), "zero retries and zero delay are allowed")
}
