package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment keys.
const (
	KeyOpenWeatherAPIKey = "OPENWEATHER_API_KEY"
	KeyWeatherAPIKey     = "WEATHERAPI_API_KEY"
	KeyLiveProvider      = "LIVE_PROVIDER"
	KeyCompareCity       = "COMPARE_CITY"
	KeyCompareSeason     = "COMPARE_SEASON"
	KeyYears             = "YEARS"
	KeySeed              = "SEED"
	KeyWorkers           = "WORKERS"
	KeyHTTPTimeout       = "HTTP_TIMEOUT"
	KeyRunTimeout        = "RUN_TIMEOUT"
	KeyRefreshInterval   = "REFRESH_INTERVAL"
	KeyCSVPath           = "CSV_PATH"
	KeyReportRows        = "REPORT_ROWS"
	KeyLogLevel          = "LOG_LEVEL"
	KeyLogFormat         = "LOG_FORMAT"
	KeyPort              = "PORT"
)

var defaults = map[string]any{
	KeyLiveProvider:    "openweathermap",
	KeyCompareCity:     "Berlin",
	KeyCompareSeason:   "",
	KeyYears:           10,
	KeySeed:            0,
	KeyWorkers:         0,
	KeyHTTPTimeout:     "10s",
	KeyRunTimeout:      "2m",
	KeyRefreshInterval: "1h",
	KeyCSVPath:         "temperature_data.csv",
	KeyReportRows:      5,
	KeyLogLevel:        "info",
	KeyLogFormat:       tty,
	KeyPort:            "8080",
}

var validate = validator.New()

type AppConfig struct {
	OpenWeatherAPIKey string
	WeatherAPIKey     string
	LiveProvider      string `validate:"oneof=openweathermap weatherapi"`

	// CompareCity is the city checked against a live reading; empty disables the check.
	CompareCity   string
	CompareSeason string `validate:"omitempty,oneof=winter spring summer autumn"`

	Years   int `validate:"gte=1,lte=100"`
	Seed    uint64
	Workers int `validate:"gte=0"` // 0 = NumCPU

	HTTPTimeout     time.Duration `validate:"gt=0"`
	RunTimeout      time.Duration `validate:"gt=0"`
	RefreshInterval time.Duration `validate:"gt=0"`

	CSVPath    string `validate:"required"`
	ReportRows int    `validate:"gte=0"`

	LogLevel  string `validate:"oneof=panic fatal error warn warning info debug trace"`
	LogFormat string `validate:"oneof=json logfmt tty"`

	Port string `validate:"required,numeric"`
}

// NewViper returns a viper instance reading the plain environment keys above,
// with defaults applied. A key set to an empty value counts as set, so
// COMPARE_CITY= disables the live check. Flags can be bound to it before Load.
func NewViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.AllowEmptyEnv(true)
	for key, def := range defaults {
		v.SetDefault(key, def)
	}
	return v
}

// Load reads configuration from a .env file, the environment and any flags
// bound to v, then validates it.
func Load(v *viper.Viper) (*AppConfig, error) {
	// a missing .env is normal; the environment may already be set
	_ = godotenv.Load()

	cfg := &AppConfig{
		OpenWeatherAPIKey: v.GetString(KeyOpenWeatherAPIKey),
		WeatherAPIKey:     v.GetString(KeyWeatherAPIKey),
		LiveProvider:      strings.ToLower(v.GetString(KeyLiveProvider)),
		CompareCity:       v.GetString(KeyCompareCity),
		CompareSeason:     strings.ToLower(v.GetString(KeyCompareSeason)),
		Years:             v.GetInt(KeyYears),
		Seed:              v.GetUint64(KeySeed),
		Workers:           v.GetInt(KeyWorkers),
		CSVPath:           v.GetString(KeyCSVPath),
		ReportRows:        v.GetInt(KeyReportRows),
		LogLevel:          strings.ToLower(v.GetString(KeyLogLevel)),
		LogFormat:         strings.ToLower(v.GetString(KeyLogFormat)),
		Port:              v.GetString(KeyPort),
	}

	var err error
	if cfg.HTTPTimeout, err = getDuration(v, KeyHTTPTimeout); err != nil {
		return nil, err
	}
	if cfg.RunTimeout, err = getDuration(v, KeyRunTimeout); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getDuration(v, KeyRefreshInterval); err != nil {
		return nil, err
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// APIKey returns the credential of the selected live provider.
func (c *AppConfig) APIKey() string {
	if c.LiveProvider == "weatherapi" {
		return c.WeatherAPIKey
	}
	return c.OpenWeatherAPIKey
}

func getDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
