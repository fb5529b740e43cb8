package config

// Option defines a configuration option that can be passed to Load
type Option func(*options) error

// options holds internal configuration options
type options struct {
	configPath string
	envPrefix  string
}

// WithConfigFile specifies an explicit configuration file path
func WithConfigFile(path string) Option {
	return func(o *options) error {
		o.configPath = path
		return nil
	}
}

// WithEnvPrefix specifies a custom environment variable prefix
// Default is "DRONECORE"
func WithEnvPrefix(prefix string) Option {
	return func(o *options) error {
		o.envPrefix = prefix
		return nil
	}
}

// Transport names the command transport the ingest task listens on.
type Transport string

const (
	TransportUDP Transport = "udp"
	TransportCAN Transport = "can"
)

// IsValid returns whether the transport is supported
func (t Transport) IsValid() bool {
	switch t {
	case TransportUDP, TransportCAN:
		return true
	default:
		return false
	}
}

// String implements the Stringer interface
func (t Transport) String() string {
	return string(t)
}
