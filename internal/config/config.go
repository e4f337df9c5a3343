package config

import (
	_ "embed"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	FaceAPI FaceAPIConfig `yaml:"face_api"`
	Images  ImagesConfig  `yaml:"images"`
	Web     WebConfig     `yaml:"web"`
	Log     LogConfig     `yaml:"log"`
}

type FaceAPIConfig struct {
	Endpoint          string            `yaml:"endpoint"`
	Key               string            `yaml:"-"`
	MaxGroupIDs       int               `yaml:"max_group_ids"`       // grouping call limit of the service
	RequestsPerSecond float64           `yaml:"requests_per_second"` // client-side throttle, 0 disables it
	TimeoutSeconds    int               `yaml:"timeout_seconds"`
	DetectParams      map[string]string `yaml:"detect_params"` // query string sent with every detect call
}

// Timeout returns the HTTP client timeout.
func (c *FaceAPIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type ImagesConfig struct {
	BasePath          string `yaml:"-"`
	MaxPerRequest     int    `yaml:"max_per_request"`
	DetectConcurrency int    `yaml:"detect_concurrency"`
}

type WebConfig struct {
	Host      string  `yaml:"host"`
	Port      int     `yaml:"port"`
	RateLimit float64 `yaml:"rate_limit"` // requests per second per client IP, 0 disables it
	RateBurst int     `yaml:"rate_burst"`

	AllowedOrigins []string `yaml:"allowed_origins"` // CORS whitelist, localhost is always allowed
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"` // optional rotating log file, stderr only if empty
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable as a non-negative float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 {
		return f
	}
	return defaultVal
}

// envString returns the env var or the default when it is unset or empty.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// Defaults returns the built-in configuration without environment overrides.
func Defaults() *Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	return &cfg
}

func Load() *Config {
	cfg := Defaults()

	cfg.FaceAPI.Endpoint = envString("FACE_API_ENDPOINT", cfg.FaceAPI.Endpoint)
	cfg.FaceAPI.Key = os.Getenv("FACE_API_KEY")
	cfg.FaceAPI.MaxGroupIDs = envInt("FACE_API_MAX_GROUP_IDS", cfg.FaceAPI.MaxGroupIDs)
	cfg.FaceAPI.RequestsPerSecond = envFloat("FACE_API_REQUESTS_PER_SECOND", cfg.FaceAPI.RequestsPerSecond)
	cfg.FaceAPI.TimeoutSeconds = envInt("FACE_API_TIMEOUT_SECONDS", cfg.FaceAPI.TimeoutSeconds)

	cfg.Images.BasePath = os.Getenv("IMAGES_BASE_PATH")
	cfg.Images.MaxPerRequest = envInt("MAX_IMAGES_PER_REQUEST", cfg.Images.MaxPerRequest)
	cfg.Images.DetectConcurrency = envInt("DETECT_CONCURRENCY", cfg.Images.DetectConcurrency)

	cfg.Web.Host = envString("WEB_HOST", cfg.Web.Host)
	cfg.Web.Port = envInt("WEB_PORT", cfg.Web.Port)
	cfg.Web.RateLimit = envFloat("WEB_RATE_LIMIT", cfg.Web.RateLimit)
	cfg.Web.RateBurst = envInt("WEB_RATE_BURST", cfg.Web.RateBurst)
	if env := os.Getenv("WEB_ALLOWED_ORIGINS"); env != "" {
		cfg.Web.AllowedOrigins = nil
		for _, o := range strings.Split(env, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.Web.AllowedOrigins = append(cfg.Web.AllowedOrigins, o)
			}
		}
	}

	cfg.Log.Level = envString("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = os.Getenv("LOG_FILE")

	return cfg
}
