package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Mode string

const (
	// ModeDryRun evaluates and records decisions but never places orders.
	ModeDryRun Mode = "dryrun"
	// ModePaper places orders against the paper trading API.
	ModePaper Mode = "paper"
)

type Config struct {
	Mode   Mode   `mapstructure:"mode" validate:"required,oneof=dryrun paper"`
	Symbol string `mapstructure:"symbol" validate:"required"`

	ShortWindow int `mapstructure:"short_window" validate:"required,gt=0"`
	LongWindow  int `mapstructure:"long_window" validate:"required,gtfield=ShortWindow"`
	// Lookback is how many trailing bars each cycle fetches. Zero means
	// twice the long window.
	Lookback int `mapstructure:"lookback" validate:"gte=0"`

	TradeQty int `mapstructure:"trade_qty" validate:"required,gt=0"`
	// MaxPositionQty caps the held quantity after a buy. Zero means the
	// trade quantity, which allows exactly one open entry at a time.
	MaxPositionQty int  `mapstructure:"max_position_qty" validate:"gte=0"`
	KillSwitch     bool `mapstructure:"kill_switch"`

	Timeframe string        `mapstructure:"timeframe" validate:"required"`
	Feed      string        `mapstructure:"feed" validate:"required,oneof=iex sip"`
	Span      time.Duration `mapstructure:"span" validate:"required"`

	RequireMarketOpen bool `mapstructure:"require_market_open"`
	// Interval > 0 keeps the process alive and re-evaluates on a fixed
	// cadence. Zero evaluates once and exits, for cron-style scheduling.
	Interval time.Duration `mapstructure:"interval" validate:"gte=0"`

	DecisionsPath  string `mapstructure:"decisions_path" validate:"required"`
	CheckpointPath string `mapstructure:"checkpoint_path" validate:"required"`
	LogPath        string `mapstructure:"log_path"`

	PaperBaseURL string `mapstructure:"paper_base_url" validate:"required,url"`
	DataBaseURL  string `mapstructure:"data_base_url"`

	APIKey    string `mapstructure:"-"`
	APISecret string `mapstructure:"-"`
}

// Load builds the configuration from defaults, an optional config file and
// MACROSS_* environment variables, in increasing precedence. Brokerage
// credentials come only from the standard APCA_API_KEY_ID and
// APCA_API_SECRET_KEY variables.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("mode", string(ModeDryRun))
	v.SetDefault("symbol", "SPY")
	v.SetDefault("short_window", 5)
	v.SetDefault("long_window", 20)
	v.SetDefault("lookback", 0)
	v.SetDefault("trade_qty", 10)
	v.SetDefault("max_position_qty", 0)
	v.SetDefault("kill_switch", false)
	v.SetDefault("timeframe", "1Min")
	v.SetDefault("feed", "iex")
	v.SetDefault("span", "168h")
	v.SetDefault("require_market_open", true)
	v.SetDefault("interval", "0s")
	v.SetDefault("decisions_path", "decisions.ndjson")
	v.SetDefault("checkpoint_path", "checkpoint.json")
	v.SetDefault("log_path", "")
	v.SetDefault("paper_base_url", "https://paper-api.alpaca.markets")
	v.SetDefault("data_base_url", "")

	v.SetEnvPrefix("MACROSS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("macross")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.APIKey = os.Getenv("APCA_API_KEY_ID")
	cfg.APISecret = os.Getenv("APCA_API_SECRET_KEY")

	if cfg.MaxPositionQty == 0 {
		cfg.MaxPositionQty = cfg.TradeQty
	}
	if cfg.Lookback == 0 {
		cfg.Lookback = 2 * cfg.LongWindow
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Lookback < cfg.LongWindow {
		return fmt.Errorf("invalid configuration: lookback %d is below long_window %d", cfg.Lookback, cfg.LongWindow)
	}
	if cfg.MaxPositionQty < cfg.TradeQty {
		return fmt.Errorf("invalid configuration: max_position_qty %d is below trade_qty %d", cfg.MaxPositionQty, cfg.TradeQty)
	}
	if cfg.APIKey == "" || cfg.APISecret == "" {
		return errors.New("invalid configuration: APCA_API_KEY_ID and APCA_API_SECRET_KEY are required")
	}
	return nil
}
