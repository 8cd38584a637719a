package config

import (
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	defaultDirName  = ".yapits"
	defaultFileName = "config.yaml"
)

type YApiConfig struct {
	BaseURL        string  `yaml:"base_url" toml:"base_url"`
	Token          string  `yaml:"token" toml:"token"`
	Cookie         string  `yaml:"cookie" toml:"cookie"`
	TimeoutSeconds int     `yaml:"timeout_seconds" toml:"timeout_seconds"`
	MaxRetries     int     `yaml:"max_retries" toml:"max_retries"`
	RatePerSecond  float64 `yaml:"rate_per_second" toml:"rate_per_second"`
}

type OutputConfig struct {
	RequestSuffix  string `yaml:"request_suffix" toml:"request_suffix"`
	ResponseSuffix string `yaml:"response_suffix" toml:"response_suffix"`
	Indent         int    `yaml:"indent" toml:"indent"`
	Concurrency    int    `yaml:"concurrency" toml:"concurrency"`
	// Dir receives one .ts file per interface; empty prints to stdout.
	Dir string `yaml:"dir" toml:"dir"`
}

type StoreConfig struct {
	Path string `yaml:"path" toml:"path"`
}

type ServerConfig struct {
	Host            string `yaml:"host" toml:"host"`
	Port            int    `yaml:"port" toml:"port"`
	CORSExtensionID string `yaml:"cors_extension_id" toml:"cors_extension_id"`
}

type LogConfig struct {
	Level string `yaml:"level" toml:"level"`
	JSON  bool   `yaml:"json" toml:"json"`
}

// FilterConfig trims category listings before synthesis.
type FilterConfig struct {
	IgnorePaths   []string `yaml:"ignore_paths" toml:"ignore_paths"`
	IgnoreMethods []string `yaml:"ignore_methods" toml:"ignore_methods"`
}

// SanitizeConfig names credentials kept out of logs and error messages.
type SanitizeConfig struct {
	QueryParams []string `yaml:"query_params" toml:"query_params"`
	Headers     []string `yaml:"headers" toml:"headers"`
	Replacement string   `yaml:"replacement" toml:"replacement"`
}

type Config struct {
	YApi     YApiConfig     `yaml:"yapi" toml:"yapi"`
	Output   OutputConfig   `yaml:"output" toml:"output"`
	Store    StoreConfig    `yaml:"store" toml:"store"`
	Server   ServerConfig   `yaml:"server" toml:"server"`
	Log      LogConfig      `yaml:"log" toml:"log"`
	Filter   FilterConfig   `yaml:"filter" toml:"filter"`
	Sanitize SanitizeConfig `yaml:"sanitize" toml:"sanitize"`
}

// DefaultPath is ~/.yapits/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "resolve home dir")
	}
	return filepath.Join(home, defaultDirName, defaultFileName), nil
}

// Load reads a YAML (or .toml) config, then applies env overrides. A
// missing file is not an error.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}
	cfg.SetDefaults()

	if configPath == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		configPath = p
	}

	if data, err := os.ReadFile(configPath); err == nil {
		if err := decode(configPath, data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", configPath)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrap(err, "read config")
	}

	applyEnvOverrides(cfg)
	cfg.Store.Path = expandHome(cfg.Store.Path)
	cfg.Output.Dir = expandHome(cfg.Output.Dir)
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return toml.Unmarshal(data, cfg)
	}
	return yaml.Unmarshal(data, cfg)
}

// Save writes cfg as YAML, creating the parent directory.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create config dir")
	}
	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		data, err = toml.Marshal(cfg)
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	return os.WriteFile(path, data, 0o600)
}

// SetDefaults fills zero fields. Load calls it before decoding, so a zero
// written in the file (max_retries: 0, rate_per_second: 0) is kept.
func (c *Config) SetDefaults() {
	if c.YApi.BaseURL == "" {
		c.YApi.BaseURL = "http://127.0.0.1:3000"
	}
	if c.YApi.TimeoutSeconds == 0 {
		c.YApi.TimeoutSeconds = 10
	}
	if c.YApi.MaxRetries == 0 {
		c.YApi.MaxRetries = 3
	}
	if c.YApi.RatePerSecond == 0 {
		c.YApi.RatePerSecond = 5
	}
	if c.Output.RequestSuffix == "" {
		c.Output.RequestSuffix = "DTO"
	}
	if c.Output.ResponseSuffix == "" {
		c.Output.ResponseSuffix = "VO"
	}
	if c.Output.Indent == 0 {
		c.Output.Indent = 2
	}
	if c.Output.Concurrency == 0 {
		c.Output.Concurrency = 4
	}
	if c.Store.Path == "" {
		c.Store.Path = filepath.Join("~", defaultDirName, "yapits.db")
	}
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 3100
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	c.Sanitize.SetDefaults()
}

// SetDefaults fills the YApi credential names when none are configured.
func (s *SanitizeConfig) SetDefaults() {
	if len(s.QueryParams) == 0 {
		s.QueryParams = []string{"token"}
	}
	if len(s.Headers) == 0 {
		s.Headers = []string{"Cookie", "Authorization"}
	}
	if s.Replacement == "" {
		s.Replacement = "***REDACTED***"
	}
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.YApi.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.Newf("yapi.base_url must be an http(s) URL, got %q", c.YApi.BaseURL)
	}
	if !isIdent(c.Output.RequestSuffix) || !isIdent(c.Output.ResponseSuffix) {
		return errors.New("output suffixes must be identifier characters")
	}
	if c.Output.RequestSuffix == c.Output.ResponseSuffix {
		return errors.New("output.request_suffix and output.response_suffix must differ")
	}
	if c.Output.Concurrency < 1 {
		return errors.New("output.concurrency must be at least 1")
	}
	if c.Output.Indent < 1 || c.Output.Indent > 8 {
		return errors.New("output.indent must be between 1 and 8")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return errors.Newf("server.port out of range: %d", c.Server.Port)
	}
	if strings.TrimSpace(c.Store.Path) == "" {
		return errors.New("store.path cannot be empty")
	}
	if c.Output.Dir != "" {
		if err := ensureWritableDir(c.Output.Dir); err != nil {
			return errors.Wrap(err, "output.dir not writable")
		}
	}
	return nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r == '_' || r == '$' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

func ensureWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".writable-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

func applyEnvOverrides(c *Config) {
	setString(&c.YApi.BaseURL, "YAPITS_YAPI_BASE_URL")
	setString(&c.YApi.Token, "YAPITS_YAPI_TOKEN")
	setString(&c.YApi.Cookie, "YAPITS_YAPI_COOKIE")
	setInt(&c.YApi.TimeoutSeconds, "YAPITS_YAPI_TIMEOUT_SECONDS")
	setInt(&c.YApi.MaxRetries, "YAPITS_YAPI_MAX_RETRIES")
	setFloat(&c.YApi.RatePerSecond, "YAPITS_YAPI_RATE_PER_SECOND")
	setInt(&c.Output.Concurrency, "YAPITS_OUTPUT_CONCURRENCY")
	setString(&c.Output.Dir, "YAPITS_OUTPUT_DIR")
	setString(&c.Store.Path, "YAPITS_STORE_PATH")
	setString(&c.Server.Host, "YAPITS_SERVER_HOST")
	setInt(&c.Server.Port, "YAPITS_SERVER_PORT")
	setString(&c.Server.CORSExtensionID, "YAPITS_SERVER_CORS_EXTENSION_ID")
	setString(&c.Log.Level, "YAPITS_LOG_LEVEL")
	setBool(&c.Log.JSON, "YAPITS_LOG_JSON")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
