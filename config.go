package glc

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds the tunables of a Glc instance. Zero values are not defaults;
// start from DefaultConfig.
type Config struct {
	Resolution  uint32     `yaml:"resolution"`
	CubeSize    float32    `yaml:"cube_size"`
	Threshold   float32    `yaml:"threshold"`
	SampleCount uint32     `yaml:"sample_count"` // must match the render target
	ClearColor  [4]float64 `yaml:"clear_color"`
	Debug       bool       `yaml:"debug"`
	LogPrefix   string     `yaml:"log_prefix"`
}

func DefaultConfig() Config {
	return Config{
		Resolution:  32,
		CubeSize:    10,
		Threshold:   0.001,
		SampleCount: 4,
		ClearColor:  [4]float64{0.4, 0.4, 0.4, 1},
		LogPrefix:   "glc",
	}
}

func (c Config) Validate() error {
	if c.Resolution < 2 {
		return errors.Wrapf(ErrInvalidResolution, "got %d", c.Resolution)
	}
	if !(c.Threshold > 0) {
		return errors.Wrapf(ErrInvalidThreshold, "got %v", c.Threshold)
	}
	if !(c.CubeSize > 0) {
		return errors.Wrapf(ErrInvalidCubeSize, "got %v", c.CubeSize)
	}
	switch c.SampleCount {
	case 1, 4:
	default:
		return errors.Wrapf(ErrSampleCount, "must be 1 or 4, got %d", c.SampleCount)
	}
	return nil
}

// ParseConfig reads YAML over DefaultConfig, so missing keys keep their defaults.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "parse config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "read config %s", path)
	}
	return ParseConfig(data)
}
