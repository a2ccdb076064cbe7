package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvAPIKey      = "APP_API_KEY"
	EnvOllamaHost  = "OLLAMA_HOST"
	EnvOllamaModel = "OLLAMA_MODEL"
	EnvAPIURL      = "API_URL"

	EnvConfigFile = "CONFIG_FILE"
	defaultFile   = "chatgw.yaml"
)

// RequiredEnv is the set of variables the gateway refuses to start without.
var RequiredEnv = []string{EnvAPIKey, EnvOllamaHost, EnvOllamaModel, EnvAPIURL}

// Config is built once at startup and passed by value to whoever needs it.
type Config struct {
	APIKey      string
	OllamaHost  string
	OllamaModel string
	APIURL      string

	Port               string
	LogDir             string
	PingTimeout        time.Duration
	ChatTimeout        time.Duration
	DefaultTemperature float64
	RateLimitRPS       float64
	RateLimitBurst     int
	CORSOrigins        []string
}

// fileConfig mirrors the optional YAML file. Only tunables live here; the
// API key and endpoints come from the environment.
type fileConfig struct {
	Port               string   `yaml:"port"`
	LogDir             string   `yaml:"log_dir"`
	DefaultTemperature *float64 `yaml:"default_temperature"`
	CORSOrigins        []string `yaml:"cors_allowed_origins"`
	Ollama             struct {
		PingTimeout string `yaml:"ping_timeout"`
		ChatTimeout string `yaml:"chat_timeout"`
	} `yaml:"ollama"`
	RateLimit struct {
		RPS   *float64 `yaml:"rps"`
		Burst *int     `yaml:"burst"`
	} `yaml:"rate_limit"`
}

func defaults() Config {
	return Config{
		Port:               "8000",
		LogDir:             "./logs",
		PingTimeout:        5 * time.Second,
		ChatTimeout:        60 * time.Second,
		DefaultTemperature: 0.2,
		RateLimitBurst:     5,
		CORSOrigins:        []string{"*"},
	}
}

// LoadConfig reads .env (if present), the optional YAML file and the
// process environment, in increasing order of precedence.
func LoadConfig() (Config, error) {
	// a missing .env is fine; variables may come from the real environment
	_ = godotenv.Load()

	path := os.Getenv(EnvConfigFile)
	explicit := path != ""
	if !explicit {
		path = defaultFile
	}
	return load(os.LookupEnv, path, explicit)
}

func load(lookup func(string) (string, bool), path string, mustExist bool) (Config, error) {
	cfg := defaults()

	if path != "" {
		if err := applyFile(&cfg, path, mustExist); err != nil {
			return Config{}, err
		}
	}

	var missing []string
	required := func(key string) string {
		v, _ := lookup(key)
		v = strings.TrimSpace(v)
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}
	cfg.APIKey = required(EnvAPIKey)
	cfg.OllamaHost = strings.TrimRight(required(EnvOllamaHost), "/")
	cfg.OllamaModel = required(EnvOllamaModel)
	cfg.APIURL = required(EnvAPIURL)
	if len(missing) > 0 {
		return Config{}, &MissingEnvError{Names: missing}
	}

	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string, mustExist bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !mustExist {
			return nil
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrInvalidValue, path, err)
	}

	if fc.Port != "" {
		cfg.Port = fc.Port
	}
	if fc.LogDir != "" {
		cfg.LogDir = fc.LogDir
	}
	if fc.DefaultTemperature != nil {
		cfg.DefaultTemperature = *fc.DefaultTemperature
	}
	if len(fc.CORSOrigins) > 0 {
		cfg.CORSOrigins = fc.CORSOrigins
	}
	if fc.Ollama.PingTimeout != "" {
		d, err := time.ParseDuration(fc.Ollama.PingTimeout)
		if err != nil {
			return newValueError("ollama.ping_timeout", fc.Ollama.PingTimeout, err)
		}
		cfg.PingTimeout = d
	}
	if fc.Ollama.ChatTimeout != "" {
		d, err := time.ParseDuration(fc.Ollama.ChatTimeout)
		if err != nil {
			return newValueError("ollama.chat_timeout", fc.Ollama.ChatTimeout, err)
		}
		cfg.ChatTimeout = d
	}
	if fc.RateLimit.RPS != nil {
		cfg.RateLimitRPS = *fc.RateLimit.RPS
	}
	if fc.RateLimit.Burst != nil {
		cfg.RateLimitBurst = *fc.RateLimit.Burst
	}
	return nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("PORT"); ok {
		cfg.Port = v
	}
	if v, ok := get("LOG_DIR"); ok {
		cfg.LogDir = v
	}
	if v, ok := get("OLLAMA_PING_TIMEOUT"); ok {
		d, err := parseDuration(v)
		if err != nil {
			return newValueError("OLLAMA_PING_TIMEOUT", v, err)
		}
		cfg.PingTimeout = d
	}
	if v, ok := get("OLLAMA_CHAT_TIMEOUT"); ok {
		d, err := parseDuration(v)
		if err != nil {
			return newValueError("OLLAMA_CHAT_TIMEOUT", v, err)
		}
		cfg.ChatTimeout = d
	}
	if v, ok := get("DEFAULT_TEMPERATURE"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return newValueError("DEFAULT_TEMPERATURE", v, err)
		}
		cfg.DefaultTemperature = f
	}
	if v, ok := get("RATE_LIMIT_RPS"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return newValueError("RATE_LIMIT_RPS", v, err)
		}
		cfg.RateLimitRPS = f
	}
	if v, ok := get("RATE_LIMIT_BURST"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return newValueError("RATE_LIMIT_BURST", v, err)
		}
		cfg.RateLimitBurst = n
	}
	if v, ok := get("CORS_ALLOWED_ORIGINS"); ok {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.CORSOrigins = origins
	}
	return nil
}

// parseDuration accepts Go durations ("90s") and bare seconds ("90").
func parseDuration(v string) (time.Duration, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(v)
}

func (c Config) validate() error {
	if !strings.HasPrefix(c.OllamaHost, "http://") && !strings.HasPrefix(c.OllamaHost, "https://") {
		return newValueError(EnvOllamaHost, c.OllamaHost, errors.New("must start with http:// or https://"))
	}
	if c.DefaultTemperature < 0 || c.DefaultTemperature > 1 {
		return newValueError("DEFAULT_TEMPERATURE", strconv.FormatFloat(c.DefaultTemperature, 'f', -1, 64),
			errors.New("must be within [0.0, 1.0]"))
	}
	if c.PingTimeout <= 0 {
		return newValueError("OLLAMA_PING_TIMEOUT", c.PingTimeout.String(), errors.New("must be positive"))
	}
	if c.ChatTimeout <= 0 {
		return newValueError("OLLAMA_CHAT_TIMEOUT", c.ChatTimeout.String(), errors.New("must be positive"))
	}
	if c.RateLimitRPS < 0 {
		return newValueError("RATE_LIMIT_RPS", strconv.FormatFloat(c.RateLimitRPS, 'f', -1, 64), errors.New("must not be negative"))
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		return newValueError("RATE_LIMIT_BURST", strconv.Itoa(c.RateLimitBurst), errors.New("must be at least 1"))
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}
