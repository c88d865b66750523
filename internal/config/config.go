package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/billforge/billforge/internal/types"
)

// MaxMonthsInFutureProperty is the legacy property key used to override the
// invoice target date horizon. The key is preserved for compatibility with
// deployments that already set it.
const MaxMonthsInFutureProperty = "killbill.invoice.maxNumberOfMonthsInFuture"

// DefaultMaxMonthsInFuture bounds how far past "now" an invoice target date
// may lie when no override is configured.
const DefaultMaxMonthsInFuture = 36

type Configuration struct {
	Invoice InvoiceConfig `validate:"required"`
	Logging LoggingConfig `validate:"required"`
}

// InvoiceConfig controls amount rounding and the future target date horizon.
type InvoiceConfig struct {
	// MaxMonthsInFuture is the maximum number of whole months between now and
	// a requested invoice target date
	MaxMonthsInFuture int `mapstructure:"max_months_in_future" validate:"min=0"`
	// NumberOfDecimals is the scale applied to computed recurring amounts
	NumberOfDecimals int32 `mapstructure:"number_of_decimals" validate:"min=0"`
	// RoundingMode is the rounding rule applied at that scale
	RoundingMode types.RoundingMode `mapstructure:"rounding_mode" validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `mapstructure:"level" validate:"required"`
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/billforge")

	v.SetEnvPrefix("BILLFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	v.SetDefault("invoice.max_months_in_future", DefaultMaxMonthsInFuture)
	v.SetDefault("invoice.number_of_decimals", types.DEFAULT_NUMBER_OF_DECIMALS)
	v.SetDefault("invoice.rounding_mode", string(types.ROUND_HALF_UP))
	v.SetDefault("logging.level", string(types.LogLevelInfo))

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// The legacy property key wins over the config file when set and parsable.
	raw := os.Getenv(MaxMonthsInFutureProperty)
	if raw == "" {
		raw = v.GetString(MaxMonthsInFutureProperty)
	}
	if raw != "" {
		if months, err := strconv.Atoi(raw); err == nil {
			config.Invoice.MaxMonthsInFuture = months
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c Configuration) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	return c.Invoice.RoundingMode.Validate()
}

// GetDefaultConfig returns the documented defaults, useful for tests and for
// running the engine outside a configured application.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Invoice: InvoiceConfig{
			MaxMonthsInFuture: DefaultMaxMonthsInFuture,
			NumberOfDecimals:  types.DEFAULT_NUMBER_OF_DECIMALS,
			RoundingMode:      types.ROUND_HALF_UP,
		},
		Logging: LoggingConfig{Level: types.LogLevelInfo},
	}
}
