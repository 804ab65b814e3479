package commands

import (
	stdErrors "errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/input-output-hk/catalyst-forge-libs/s3stream/bytesize"
)

// envPrefix prefixes every environment variable read by the CLI.
// Example: S3STREAM_LOG_LEVEL=debug
const envPrefix = "S3STREAM"

// Settings is the merged CLI configuration.
//
// Precedence (highest to lowest): flags, S3STREAM_* environment variables,
// the config file, defaults.
type Settings struct {
	Region          string        `mapstructure:"region"`
	Endpoint        string        `mapstructure:"endpoint" validate:"omitempty,url"`
	PathStyle       bool          `mapstructure:"path_style"`
	MaxRetries      int           `mapstructure:"max_retries" validate:"gte=0,lte=25"`
	Timeout         time.Duration `mapstructure:"timeout" validate:"gte=0"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key" validate:"required_with=AccessKeyID"`
	SessionToken    string        `mapstructure:"session_token"`
	PartSize        string        `mapstructure:"part_size"`
	LogLevel        string        `mapstructure:"log_level" validate:"oneof=debug info warn error DEBUG INFO WARN ERROR"`
	LogFormat       string        `mapstructure:"log_format" validate:"oneof=text json"`
	MetricsAddr     string        `mapstructure:"metrics_addr" validate:"omitempty,hostname_port"`
}

var settingsValidator = validator.New(validator.WithRequiredStructEnabled())

// setDefaults registers every key so AutomaticEnv values reach Unmarshal
// even when no flag or file mentions them.
func setDefaults(v *viper.Viper) {
	v.SetDefault("region", "")
	v.SetDefault("endpoint", "")
	v.SetDefault("path_style", false)
	v.SetDefault("max_retries", 3)
	v.SetDefault("timeout", time.Duration(0))
	v.SetDefault("access_key_id", "")
	v.SetDefault("secret_access_key", "")
	v.SetDefault("session_token", "")
	v.SetDefault("part_size", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("metrics_addr", "")
}

// setupViper wires environment variables and the optional config file.
func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}

	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(dir + "/s3stream")
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

// bindFlags maps every flag in fs to the viper key of the same name with
// dashes replaced by underscores.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var errs []error
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" {
			return
		}
		key := strings.ReplaceAll(f.Name, "-", "_")
		if err := v.BindPFlag(key, f); err != nil {
			errs = append(errs, err)
		}
	})
	return stdErrors.Join(errs...)
}

// readConfigFile reads the config file if there is one. A missing file in
// the default location is not an error; a missing explicit file is.
func readConfigFile(v *viper.Viper, explicit bool) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if !explicit && stdErrors.As(err, &notFound) {
		return nil
	}
	return fmt.Errorf("failed to read config file: %w", err)
}

// loadSettings merges all sources and validates the result.
func loadSettings(v *viper.Viper, configPath string) (*Settings, error) {
	setDefaults(v)
	setupViper(v, configPath)
	if err := readConfigFile(v, configPath != ""); err != nil {
		return nil, err
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &s, nil
}

// Validate checks field constraints and that the part size parses.
func (s *Settings) Validate() error {
	var problems []error

	if err := settingsValidator.Struct(s); err != nil {
		var fieldErrs validator.ValidationErrors
		if !stdErrors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			problems = append(problems, fmt.Errorf("%s: invalid value %v (%s)", fe.Field(), fe.Value(), fe.Tag()))
		}
	}

	if _, err := s.partSize(); err != nil {
		problems = append(problems, err)
	}

	return stdErrors.Join(problems...)
}

// partSize returns the configured default part size, or zero when unset.
func (s *Settings) partSize() (bytesize.Size, error) {
	if s.PartSize == "" {
		return 0, nil
	}
	size, err := bytesize.Parse(s.PartSize)
	if err != nil {
		return 0, fmt.Errorf("PartSize: %w", err)
	}
	return size, nil
}

// slogLevel converts LogLevel to a slog.Level.
func (s *Settings) slogLevel() slog.Level {
	switch strings.ToLower(s.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
