package wattz

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// validate is the shared validator instance.
var validate = validator.New()

// Duration wraps time.Duration to accept "500ms"-style YAML scalars as well
// as plain nanosecond integers.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration %q", value.Value)
	}
	*d = Duration(n)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Config is the file-loadable Monitor configuration. Zero values fall back
// to package defaults when converted with Options.
type Config struct {
	// Debounce is the hold window for transient not-charging readings.
	Debounce Duration `yaml:"debounce" validate:"min=0"`

	// Retries is the provider open attempt bound.
	Retries int `yaml:"retries" validate:"min=0,max=100"`

	// RetryDelay is the fixed delay between open attempts.
	RetryDelay Duration `yaml:"retry_delay" validate:"min=0"`

	// ErrorHistory is the number of recent connection errors retained.
	ErrorHistory int `yaml:"error_history" validate:"min=0,max=1024"`
}

// DefaultConfig returns a Config populated with the package defaults.
func DefaultConfig() Config {
	return Config{
		Debounce:     Duration(DefaultDebounce),
		Retries:      DefaultRetries,
		RetryDelay:   Duration(DefaultRetryDelay),
		ErrorHistory: DefaultErrorHistory,
	}
}

// ParseConfig unmarshals and validates a YAML configuration document.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadConfig reads, unmarshals, and validates a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

// Options converts the Config into Monitor options. Zero-valued fields are
// left at their defaults.
func (c Config) Options() []Option {
	var opts []Option
	if c.Debounce > 0 {
		opts = append(opts, WithDebounce(time.Duration(c.Debounce)))
	}
	if c.Retries > 0 {
		opts = append(opts, WithRetries(c.Retries))
	}
	if c.RetryDelay > 0 {
		opts = append(opts, WithRetryDelay(time.Duration(c.RetryDelay)))
	}
	if c.ErrorHistory > 0 {
		opts = append(opts, WithErrorHistory(c.ErrorHistory))
	}
	return opts
}
