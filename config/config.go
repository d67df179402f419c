package config

import (
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config is the full application configuration. Every key can come from the
// environment (prefix MT5RELAY, dots become underscores) or from an optional
// JSON config file.
type Config struct {
	HTTP     httpConfig     `mapstructure:"http"`
	Webhook  webhookConfig  `mapstructure:"webhook"`
	Telegram telegramConfig `mapstructure:"telegram"`
	MT5      mt5Config      `mapstructure:"mt5"`
	Trade    tradeConfig    `mapstructure:"trade"`
	Log      logConfig      `mapstructure:"log"`
}

type httpConfig struct {
	Addr string `mapstructure:"addr"`
}

type webhookConfig struct {
	// Secret signs webhook bodies. Empty disables signature verification
	// entirely; every request is accepted. Deliberate permissive default.
	Secret string `mapstructure:"secret"`
}

type telegramConfig struct {
	Token string `mapstructure:"token"`
	// AuthorizedIDs is a comma-separated list of Telegram user IDs allowed
	// to place trades.
	AuthorizedIDs string `mapstructure:"authorized_ids"`
}

type mt5Config struct {
	Login        int64  `mapstructure:"login"`
	Password     string `mapstructure:"password"`
	Server       string `mapstructure:"server"`
	GatewayURL   string `mapstructure:"gateway_url"`
	TerminalPath string `mapstructure:"terminal_path"`
}

type tradeConfig struct {
	Volume    string `mapstructure:"volume"`
	Deviation int    `mapstructure:"deviation"`
	Magic     int    `mapstructure:"magic"`
	Comment   string `mapstructure:"comment"`
}

type logConfig struct {
	File string `mapstructure:"file"`
}

var defaults = map[string]any{
	"http.addr":               ":5000",
	"webhook.secret":          "",
	"telegram.token":          "",
	"telegram.authorized_ids": "",
	"mt5.login":               0,
	"mt5.password":            "",
	"mt5.server":              "",
	"mt5.gateway_url":         "",
	"mt5.terminal_path":       "",
	"trade.volume":            "0.1",
	"trade.deviation":         20,
	"trade.magic":             123456,
	"trade.comment":           "mt5relay",
	"log.file":                "",
}

// LoadConfig reads configuration from the environment and, when path is set
// or a config.json is found next to the binary, from a config file.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")

	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("MT5Relay")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config file")
		}
		// Env-only operation is the normal deployment mode.
	}

	cfg := &Config{}
	// Environment values arrive as strings; weak typing lets them fill the
	// numeric fields.
	weak := func(dc *mapstructure.DecoderConfig) { dc.WeaklyTypedInput = true }
	if err := v.Unmarshal(cfg, weak); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if _, err := decimal.NewFromString(c.Trade.Volume); err != nil {
		return errors.Errorf("invalid trade.volume %q", c.Trade.Volume)
	}
	if c.Trade.Deviation < 0 {
		return errors.New("trade.deviation must not be negative")
	}
	if _, err := c.AuthorizedUserIDs(); err != nil {
		return err
	}
	return nil
}

// TradeVolume returns the default lot size as a decimal. validate() already
// guaranteed the value parses.
func (c *Config) TradeVolume() decimal.Decimal {
	d, _ := decimal.NewFromString(c.Trade.Volume)
	return d
}

// AuthorizedUserIDs parses the comma-separated Telegram allow-list.
func (c *Config) AuthorizedUserIDs() ([]int64, error) {
	raw := strings.TrimSpace(c.Telegram.AuthorizedIDs)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, errors.Errorf("invalid telegram.authorized_ids entry %q", p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
