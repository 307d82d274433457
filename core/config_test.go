package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(conf *Config)
		wantErr string
	}{
		{name: "test config", modify: func(*Config) {}},
		{
			name:    "zero session ttl",
			modify:  func(conf *Config) { conf.Session.TTL = 0 },
			wantErr: "session.ttl must be positive, got 0s",
		},
		{
			name:    "negative session ttl",
			modify:  func(conf *Config) { conf.Session.TTL = -1 },
			wantErr: "session.ttl must be positive, got -1ns",
		},
		{
			name:    "no cookie name",
			modify:  func(conf *Config) { conf.Session.CookieName = "" },
			wantErr: "session.cookieName is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := NewTestConfig()
			tt.modify(conf)
			err := conf.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestConfig_DefaultFromEmail(t *testing.T) {
	conf := NewTestConfig()
	from := conf.DefaultFromEmail()
	assert.Equal(t, "SchoolDesk", from.Name)
	assert.Equal(t, "noreply@localhost", from.Address)

	conf.defaultFromEmail = "not an address"
	from = conf.DefaultFromEmail()
	assert.Equal(t, "noreply@localhost", from.Address)
}
