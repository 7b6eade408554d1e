// internal/config/config.go
package config

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version is reported by --version.
const Version = "0.3.1"

// EnvPrefix namespaces every environment variable, e.g. YAZY_PORT.
const EnvPrefix = "YAZY"

// Config is the server configuration, filled from flags, YAZY_* variables and a .env file.
type Config struct {
	Bind            string
	Port            int
	Origins         []string
	JoinTimeout     time.Duration
	StrictRules     bool
	MaxMessageBytes int64
	OutboxSize      int
	ShutdownTimeout time.Duration

	RedisAddr     string
	RedisDB       int
	RedisKey      string
	StatsInterval time.Duration

	LogLevel string
	LogJSON  bool
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if c.JoinTimeout <= 0 {
		return fmt.Errorf("join-timeout must be positive, got %s", c.JoinTimeout)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown-timeout must be positive, got %s", c.ShutdownTimeout)
	}
	if c.MaxMessageBytes < 64 {
		return fmt.Errorf("max-message-bytes must be at least 64, got %d", c.MaxMessageBytes)
	}
	if c.OutboxSize < 1 {
		return fmt.Errorf("outbox-size must be at least 1, got %d", c.OutboxSize)
	}
	if len(c.Origins) == 0 {
		return errors.New("at least one origin pattern is required")
	}
	if c.RedisAddr != "" {
		if c.StatsInterval <= 0 {
			return fmt.Errorf("stats-interval must be positive, got %s", c.StatsInterval)
		}
		if c.RedisKey == "" {
			return errors.New("redis-key must not be empty when redis-addr is set")
		}
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log-level: %w", err)
	}
	return nil
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Bind, strconv.Itoa(c.Port))
}

// NewLogger builds the process logger from LogLevel and LogJSON.
func (c *Config) NewLogger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logrus.New()
	logger.SetLevel(level)
	if c.LogJSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}

// NewCommand builds the root command. run is invoked with the validated config.
func NewCommand(run func(ctx context.Context, cfg *Config) error) *cobra.Command {
	cfg := &Config{}
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:     "yazy-server",
		Short:   "Realtime relay server for two-player Yazy dice games.",
		Args:    cobra.ExactArgs(0),
		Version: Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.Bind, "bind", "b", "0.0.0.0", "address to bind to (env: YAZY_BIND)")
	fs.IntVarP(&cfg.Port, "port", "p", 4000, "port to listen on (env: YAZY_PORT or PORT)")
	fs.StringSliceVar(&cfg.Origins, "origins", []string{"*"}, "allowed websocket origin patterns (env: YAZY_ORIGINS)")
	fs.DurationVar(&cfg.JoinTimeout, "join-timeout", 30*time.Second, "time before an unanswered join request expires (env: YAZY_JOIN_TIMEOUT)")
	fs.BoolVar(&cfg.StrictRules, "strict-rules", true, "reject out-of-turn, over-limit and malformed game actions (env: YAZY_STRICT_RULES)")
	fs.Int64Var(&cfg.MaxMessageBytes, "max-message-bytes", 4096, "largest accepted websocket message (env: YAZY_MAX_MESSAGE_BYTES)")
	fs.IntVar(&cfg.OutboxSize, "outbox-size", 32, "queued outbound messages per connection before dropping (env: YAZY_OUTBOX_SIZE)")
	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", 10*time.Second, "grace period for open connections on shutdown (env: YAZY_SHUTDOWN_TIMEOUT)")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", "", "redis address for live stats, empty disables (env: YAZY_REDIS_ADDR)")
	fs.IntVar(&cfg.RedisDB, "redis-db", 0, "redis database index (env: YAZY_REDIS_DB)")
	fs.StringVar(&cfg.RedisKey, "redis-key", "yazy:stats", "redis hash receiving live stats (env: YAZY_REDIS_KEY)")
	fs.DurationVar(&cfg.StatsInterval, "stats-interval", 10*time.Second, "how often live stats are published (env: YAZY_STATS_INTERVAL)")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "debug, info, warn or error (env: YAZY_LOG_LEVEL)")
	fs.BoolVar(&cfg.LogJSON, "log-json", false, "log as JSON (env: YAZY_LOG_JSON)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
	})
	// PORT is what most hosting platforms set.
	_ = v.BindEnv("port", EnvPrefix+"_PORT", "PORT")

	// Flags are parsed after this constructor returns, so environment values are
	// applied in PreRunE where f.Changed reflects the command line.
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		var errs []error
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if f.Changed || !v.IsSet(f.Name) {
				return
			}
			if err := cmd.Flags().Set(f.Name, envValue(v.Get(f.Name))); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", f.Name, err))
			}
		})
		return errors.Join(errs...)
	}

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("yazy-server v{{.Version}}\n")
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}

func envValue(val interface{}) string {
	if list, ok := val.([]string); ok {
		return strings.Join(list, ",")
	}
	return fmt.Sprintf("%v", val)
}
