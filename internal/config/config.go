package config

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	orbitconfig "github.com/ramaorbit/orbit-engine/modules/orbit/config"
	"github.com/ramaorbit/orbit-engine/pkg/logger"
	"github.com/ramaorbit/orbit-engine/pkg/logger/slogx"
	"github.com/ramaorbit/orbit-engine/pkg/middleware/requestlogger"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	configOnce sync.Once
	config     = &Config{
		Logger: logger.Config{
			Output: "text",
		},
		HTTPServer: HTTPServer{
			Port: 8080,
		},
		EnableModules: []string{"orbit"},
		Modules: Modules{
			Orbit: orbitconfig.Config{
				Database:    "postgres",
				APIHandlers: []string{"http"},
			},
		},
	}
)

type Config struct {
	Logger        logger.Config `mapstructure:"logger"`
	HTTPServer    HTTPServer    `mapstructure:"http_server"`
	APIOnly       bool          `mapstructure:"api_only"`
	EnableModules []string      `mapstructure:"enable_modules"`
	Modules       Modules       `mapstructure:"modules"`
}

type HTTPServer struct {
	Port int `mapstructure:"port"`
	// RequestIP overrides the header used to resolve the client IP,
	// e.g. "CF-Connecting-IP". Empty uses the connection remote address.
	RequestIP string               `mapstructure:"request_ip"`
	Logger    requestlogger.Config `mapstructure:"logger"`
}

type Modules struct {
	Orbit orbitconfig.Config `mapstructure:"orbit"`
}

// BindPFlag binds a command-line flag to a configuration key.
func BindPFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		logger.Panic("Failed to bind flag to configuration", slogx.Error(err), slog.String("key", key))
	}
}

// Parse reads the configuration from the given file (or ./config.yaml when
// empty), environment variables and bound flags. Subsequent calls return the
// already-parsed configuration.
func Parse(configFile string) Config {
	ctx := logger.WithContext(context.Background(), slog.String("package", "config"))
	configOnce.Do(func() {
		if configFile != "" {
			viper.SetConfigFile(configFile)
		} else {
			viper.AddConfigPath("./")
			viper.SetConfigName("config")
		}

		viper.AutomaticEnv()
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		if err := viper.ReadInConfig(); err != nil {
			var errNotfound viper.ConfigFileNotFoundError
			if errors.As(err, &errNotfound) {
				logger.WarnContext(ctx, "config file not found, use default value", slogx.Error(err))
			} else {
				logger.PanicContext(ctx, "invalid config file", slogx.Error(err))
			}
		}

		if err := viper.Unmarshal(&config); err != nil {
			logger.PanicContext(ctx, "failed to unmarshal config", slogx.Error(err))
		}
	})

	return *config
}

// Load returns the parsed configuration.
func Load() Config {
	return Parse("")
}
