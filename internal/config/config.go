// Package config loads the service configuration from environment variables,
// following the same envconfig + singleton idiom as the platform's REST
// control plane.
package config

import (
	"fmt"
	"sync"

	"github.com/kelseyhightower/envconfig"
)

// Server holds every configuration knob for the control-plane/data-plane
// server process.
type Server struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	ServerHost string `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	ServerPort string `envconfig:"SERVER_PORT" default:"50051"`

	Database Database `envconfig:"DATABASE"`

	Cache Cache `envconfig:"CACHE"`

	JWKS JWKS `envconfig:"JWKS"`

	Agent Agent `envconfig:"AGENT"`
}

// Database selects and configures the repository backend.
type Database struct {
	// Provider is one of "sqlite" (default), "postgres", "surreal".
	Provider        string `envconfig:"PROVIDER" default:"sqlite"`
	URL             string `envconfig:"URL" default:"./data/policy_authz.db"`
	MaxConnections  int    `envconfig:"MAX_CONNECTIONS" default:"10"`
	ConnMaxLifetime int    `envconfig:"CONN_MAX_LIFETIME_SECS" default:"300"`
}

// Cache configures the in-memory policy-set cache.
type Cache struct {
	Enabled             bool `envconfig:"ENABLED" default:"true"`
	ReloadIntervalSecs  int  `envconfig:"RELOAD_INTERVAL_SECS" default:"300"`
}

// JWKS configures the JWKS cache used by the token authorization path.
type JWKS struct {
	TTLSecs     int `envconfig:"TTL_SECS" default:"3600"`
	RefreshSecs int `envconfig:"REFRESH_SECS" default:"600"`
	TimeoutSecs int `envconfig:"TIMEOUT_SECS" default:"5"`
}

// Agent configures the optional edge-cache companion process (cmd/agent).
type Agent struct {
	ControlPlaneAddr string `envconfig:"CONTROL_PLANE_ADDR" default:"localhost:50051"`
	PolicyStoreId    string `envconfig:"POLICY_STORE_ID"`
	PollIntervalSecs int    `envconfig:"POLL_INTERVAL_SECS" default:"30"`
	ListenPort       string `envconfig:"LISTEN_PORT" default:"50151"`
}

var (
	once     sync.Once
	instance *Server
	loadErr  error
)

// Load initializes and returns a singleton Server configuration, parsed from
// environment variables exactly once per process.
func Load() (*Server, error) {
	once.Do(func() {
		instance = &Server{}
		loadErr = envconfig.Process("", instance)
	})
	if loadErr != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", loadErr)
	}
	return instance, nil
}
