package main

import (
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	allowedOrigins []string
	bind           string
	logFormat      string
	logLevel       string
	metricsPort    int
	port           int
	seed           int64
	sendBuffer     int
	version        bool
}

func (c *Config) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.metricsPort < 0 || c.metricsPort > 65535 {
		return fmt.Errorf("invalid metrics port (must be between 0-65535 inclusive): %d", c.metricsPort)
	}
	if c.metricsPort != 0 && c.metricsPort == c.port {
		return errors.New("--port and --metrics-port must differ")
	}
	if c.sendBuffer < 1 {
		return fmt.Errorf("invalid send buffer (must be positive): %d", c.sendBuffer)
	}
	if len(c.allowedOrigins) == 0 {
		return errors.New("at least one --allowed-origins entry is required")
	}
	if _, err := log.ParseLevel(c.logLevel); err != nil {
		return err
	}
	switch c.logFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format (must be text or json): %s", c.logFormat)
	}
	return nil
}

func (c *Config) configureLogging() {
	level, err := log.ParseLevel(c.logLevel)
	if err == nil {
		log.SetLevel(level)
	}

	if c.logFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("BINGO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "bingo-server",
		Short:         "Real-time two-player bingo over websockets.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			cfg.configureLogging()
			return Serve(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringSliceVar(&cfg.allowedOrigins, "allowed-origins", []string{"*"}, "origins allowed to connect, * for any (env: BINGO_ALLOWED_ORIGINS)")
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: BINGO_BIND)")
	fs.StringVar(&cfg.logFormat, "log-format", "text", "log output format, text or json (env: BINGO_LOG_FORMAT)")
	fs.StringVar(&cfg.logLevel, "log-level", "info", "minimum log level (env: BINGO_LOG_LEVEL)")
	fs.IntVar(&cfg.metricsPort, "metrics-port", 5001, "port to serve /metrics on, 0 to disable (env: BINGO_METRICS_PORT)")
	fs.IntVarP(&cfg.port, "port", "p", 5000, "port to listen on (env: BINGO_PORT)")
	fs.Int64Var(&cfg.seed, "seed", 0, "board shuffle seed, 0 for time based (env: BINGO_SEED)")
	fs.IntVar(&cfg.sendBuffer, "send-buffer", 256, "outbound messages queued per connection (env: BINGO_SEND_BUFFER)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: BINGO_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("bingo-server v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
