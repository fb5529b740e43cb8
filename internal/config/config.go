package config

import (
	"io"
	"os"
	"strings"
	"time"

	"codeberg.org/mutker/dronecore/internal/errors"
	"codeberg.org/mutker/dronecore/internal/logger"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel           = "info"
	DefaultPeriod             = 10 * time.Millisecond
	DefaultWorkloadIterations = 2000
	DefaultAddress            = ":8080"
	DefaultPollInterval       = 10 * time.Millisecond
	DefaultCANInterface       = "can0"
	DefaultCANFrameID         = 0x100
	DefaultReportInterval     = time.Second
	DefaultHistoryDBPath      = "/var/lib/dronecore/history.db"
	DefaultBatchSize          = 10
	DefaultBatchTimeout       = 5
	DefaultPIDFile            = "dronecore.pid"

	defaultEnvPrefix  = "DRONECORE"
	configEnvVar      = "DRONECORE_CONFIG"
	affinityArgEnable = "1"
)

type Config struct {
	LogLevel string        `mapstructure:"log_level"`
	PIDFile  string        `mapstructure:"pid_file"`
	Flight   FlightConfig  `mapstructure:"flight"`
	Command  CommandConfig `mapstructure:"command"`
	Sched    SchedConfig   `mapstructure:"sched"`
	Report   ReportConfig  `mapstructure:"report"`
	History  HistoryConfig `mapstructure:"history"`
}

type FlightConfig struct {
	Period             time.Duration `mapstructure:"period"`
	WorkloadIterations int           `mapstructure:"workload_iterations"`
}

type CommandConfig struct {
	Transport    Transport     `mapstructure:"transport"`
	Address      string        `mapstructure:"address"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	CANInterface string        `mapstructure:"can_interface"`
	CANFrameID   uint32        `mapstructure:"can_frame_id"`
}

type SchedConfig struct {
	Affinity bool `mapstructure:"affinity"`
	CPU      int  `mapstructure:"cpu"`
}

type ReportConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type HistoryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	DBPath       string `mapstructure:"db_path"`
	BatchSize    int    `mapstructure:"batch_size"`
	BatchTimeout int    `mapstructure:"batch_timeout"`
}

// Load reads the configuration file and environment, then applies the
// command line. The only command line input is an optional positional
// argument: "1" pins every realtime task to Sched.CPU.
func Load(args []string, opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := &options{
		configPath: os.Getenv(configEnvVar),
		envPrefix:  defaultEnvPrefix,
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidArgument, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if o.configPath != "" {
		v.SetConfigFile(o.configPath)
	} else {
		v.SetConfigName("dronecore")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc/dronecore")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	fs := pflag.NewFlagSet("dronecore", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return nil, errFactory.Wrap(errors.ErrParseArgs, err)
	}
	if fs.NArg() > 0 {
		config.Sched.Affinity = fs.Arg(0) == affinityArgEnable
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("pid_file", DefaultPIDFile)
	v.SetDefault("flight.period", DefaultPeriod)
	v.SetDefault("flight.workload_iterations", DefaultWorkloadIterations)
	v.SetDefault("command.transport", string(TransportUDP))
	v.SetDefault("command.address", DefaultAddress)
	v.SetDefault("command.poll_interval", DefaultPollInterval)
	v.SetDefault("command.can_interface", DefaultCANInterface)
	v.SetDefault("command.can_frame_id", DefaultCANFrameID)
	v.SetDefault("sched.affinity", false)
	v.SetDefault("sched.cpu", 0)
	v.SetDefault("report.interval", DefaultReportInterval)
	v.SetDefault("history.enabled", false)
	v.SetDefault("history.db_path", DefaultHistoryDBPath)
	v.SetDefault("history.batch_size", DefaultBatchSize)
	v.SetDefault("history.batch_timeout", DefaultBatchTimeout)
}

// Validate checks the loaded values and returns the first coded error found.
func (c *Config) Validate() error {
	errFactory := errors.New()

	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}

	for name, d := range map[string]time.Duration{
		"flight.period":         c.Flight.Period,
		"command.poll_interval": c.Command.PollInterval,
		"report.interval":       c.Report.Interval,
	} {
		if d <= 0 {
			return errFactory.WithData(errors.ErrInvalidInterval, struct {
				Field string
				Value time.Duration
			}{Field: name, Value: d})
		}
	}

	if c.Flight.WorkloadIterations < 0 {
		return errFactory.WithData(errors.ErrInvalidWorkload, c.Flight.WorkloadIterations)
	}

	if !c.Command.Transport.IsValid() {
		return errFactory.WithData(errors.ErrInvalidTransport, c.Command.Transport)
	}

	if c.Sched.CPU < 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, struct {
			Field string
			Value int
		}{Field: "sched.cpu", Value: c.Sched.CPU})
	}

	if c.History.Enabled && c.History.DBPath == "" {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "history.db_path must be set when history is enabled")
	}

	return nil
}
