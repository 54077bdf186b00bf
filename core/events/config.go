package events

// Config holds configuration for the NATS event bus.
type Config struct {
	// NATSURL is the server to connect to. Empty disables events and RPC.
	NATSURL string `mapstructure:"nats_url" default:""`
	// Queue is the queue group RPC handlers join, so replicas share requests.
	Queue string `mapstructure:"queue" default:"etcd"`
	// RequestTimeoutSeconds bounds a single RPC call.
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds" default:"30"`
}
