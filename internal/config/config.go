package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Gateway  Gateway  `mapstructure:"gateway"`
	Trading  Trading  `mapstructure:"trading"`
	Safety   Safety   `mapstructure:"safety"`
	Logger   Logger   `mapstructure:"logger"`
	Audit    Audit    `mapstructure:"audit"`
	Database Database `mapstructure:"database"`
}

// Gateway holds the connection settings for the brokerage gateway.
type Gateway struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ClientID       int           `mapstructure:"client_id"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	RateLimit      float64       `mapstructure:"rate_limit"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
}

// Trading holds the configuration for the order batch run.
type Trading struct {
	InstructionFile string        `mapstructure:"instruction_file"`
	DataDir         string        `mapstructure:"data_dir"`
	OrderDelay      time.Duration `mapstructure:"order_delay"`
	AckWait         time.Duration `mapstructure:"ack_wait"`
	AckPoll         time.Duration `mapstructure:"ack_poll"`
	SettleWait      time.Duration `mapstructure:"settle_wait"`
	AutoConfirm     bool          `mapstructure:"auto_confirm"`
}

// Safety holds the pre-submission guardrail settings.
type Safety struct {
	MaxOrderSize int64 `mapstructure:"max_order_size"`
	// PaperTradingOnly enables the paper-account check after connecting.
	PaperTradingOnly bool `mapstructure:"paper_trading_only"`
	// EnforcePaperAccount aborts the session when the check fails instead
	// of only warning.
	EnforcePaperAccount bool `mapstructure:"enforce_paper_account"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// Audit holds the configuration for the append-only audit log.
type Audit struct {
	Path string `mapstructure:"path"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or yaml, json

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("gateway.host", "127.0.0.1")
	viper.SetDefault("gateway.port", 7497) // 7497 TWS paper, 7496 TWS live, 4002 gateway paper
	viper.SetDefault("gateway.client_id", 1)
	viper.SetDefault("gateway.connect_timeout", "10s")
	viper.SetDefault("gateway.rate_limit", 5) // requests per second
	viper.SetDefault("gateway.rate_limit_burst", 2)

	viper.SetDefault("trading.order_delay", "500ms")
	viper.SetDefault("trading.ack_wait", "1s")
	viper.SetDefault("trading.ack_poll", "200ms")
	viper.SetDefault("trading.settle_wait", "3s")

	viper.SetDefault("safety.max_order_size", 1000)
	viper.SetDefault("safety.paper_trading_only", true)
	viper.SetDefault("safety.enforce_paper_account", false)

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")

	viper.SetDefault("audit.path", "trading_log.txt")
	viper.SetDefault("database.dsn", "sessions.db")

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
