package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIURL     = "http://localhost:5000"
	defaultConfigFile = ".deepfake-detect.yaml"
)

// Config holds client settings. Values are layered: defaults, then the YAML
// file, then DEEPFAKE_* environment variables, then command-line flags.
type Config struct {
	APIURL  string        `yaml:"api_url"`
	Timeout time.Duration `yaml:"timeout"`
	Rate    float64       `yaml:"rate"`
	Camera  CameraConfig  `yaml:"camera"`
}

// CameraConfig selects the capture device for the webcam modality
type CameraConfig struct {
	Device string `yaml:"device"`
	Format string `yaml:"format"` // ffmpeg input format: v4l2, avfoundation, dshow
}

// DefaultConfig returns the built-in settings
func DefaultConfig() *Config {
	return &Config{
		APIURL:  DefaultAPIURL,
		Timeout: DefaultTimeout,
		Rate:    DefaultCaptureRate,
		Camera: CameraConfig{
			Device: DefaultCameraDevice(),
			Format: DefaultCameraFormat(),
		},
	}
}

// DefaultConfigPath returns ~/.deepfake-detect.yaml, or "" if the home
// directory is unknown
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, defaultConfigFile)
}

// LoadConfig builds the configuration from defaults, the YAML file at path
// and the environment. A missing file is an error only when required.
func LoadConfig(path string, required bool) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, &ConfigError{Field: "file", Value: path, Err: err}
			}
			LogDebug("Loaded config from %s", path)
		case errors.Is(err, os.ErrNotExist) && !required:
			LogDebug("No config file at %s, using defaults", path)
		default:
			return nil, &ConfigError{Field: "file", Value: path, Err: err}
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.APIURL = getEnv("DEEPFAKE_API_URL", c.APIURL)
	c.Timeout = getEnvAsDuration("DEEPFAKE_TIMEOUT", c.Timeout)
	c.Rate = getEnvAsFloat("DEEPFAKE_RATE", c.Rate)
	c.Camera.Device = getEnv("DEEPFAKE_CAMERA_DEVICE", c.Camera.Device)
	c.Camera.Format = getEnv("DEEPFAKE_CAMERA_FORMAT", c.Camera.Format)
}

// Validate checks that the settings are usable
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return &ConfigError{Field: "api_url", Value: c.APIURL, Err: err}
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ConfigError{Field: "api_url", Value: c.APIURL, Err: errors.New("must be an http or https URL")}
	}
	if c.Timeout <= 0 {
		return &ConfigError{Field: "timeout", Value: c.Timeout.String(), Err: errors.New("must be positive")}
	}
	if c.Rate < MinCaptureRate || c.Rate > MaxCaptureRate {
		return &ConfigError{
			Field: "rate",
			Value: strconv.FormatFloat(c.Rate, 'f', -1, 64),
			Err:   fmt.Errorf("must be between %.1f and %.1f", MinCaptureRate, MaxCaptureRate),
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		LogWarn("Ignoring %s=%q: not a duration", key, value)
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		LogWarn("Ignoring %s=%q: not a number", key, value)
	}
	return defaultValue
}
