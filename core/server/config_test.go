package server_test

import (
	"testing"
	"time"

	"rcconf-manager/core/server"

	"github.com/stretchr/testify/assert"
)

func TestConfig(t *testing.T) {
	tests := []struct {
		name     string
		cfg      server.Config
		addr     string
		auth     bool
		shutdown time.Duration
	}{
		{"Defaults", server.Config{Port: "8080"}, ":8080", false, 10 * time.Second},
		{"With key", server.Config{Port: "9000", ApiKey: "secret"}, ":9000", true, 10 * time.Second},
		{"Custom shutdown", server.Config{Port: "80", ShutdownSeconds: 3}, ":80", false, 3 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.addr, tt.cfg.Address())
			assert.Equal(t, tt.auth, tt.cfg.AuthEnabled())
			assert.Equal(t, tt.shutdown, tt.cfg.ShutdownTimeout())
		})
	}
}
