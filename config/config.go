package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
	"sklandapi/core"
)

const (
	DefaultFile     = "config.yaml"
	DefaultEnvFile  = ".env"
	DefaultSchedule = "30 8 * * *"
	DefaultQLBase   = "http://localhost:5600"
)

var ErrNoConfig = errors.New("no configuration found: set SKLAND_TOKEN or create config.yaml")

type QinglongConfig struct {
	APIBase      string `yaml:"api_base"`
	Token        string `yaml:"token"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

type Config struct {
	Users      []core.Account `yaml:"users"`
	QmsgKey    string         `yaml:"qmsg_key"`
	LogLevel   string         `yaml:"log_level"`
	LogFile    string         `yaml:"log_file"`
	Proxy      string         `yaml:"proxy"`
	MaxRetries int            `yaml:"max_retries"`
	Schedule   string         `yaml:"schedule"`
	Qinglong   QinglongConfig `yaml:"qinglong"`

	// Source is "env" or the file path the accounts came from.
	Source string `yaml:"-"`
}

// Load reads the .env file if present, then takes accounts from the
// environment and falls back to the yaml file. Panel and tuning variables
// from the environment always win. When no accounts are configured anywhere
// it returns a usable default config together with ErrNoConfig.
func Load(path, envFile string) (*Config, error) {
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
		log.Debugf("loaded environment from %s", envFile)
	}

	var missing error
	cfg := FromEnv()
	if cfg == nil {
		if path == "" {
			path = DefaultFile
		}
		var err error
		cfg, err = FromFile(path)
		switch {
		case errors.Is(err, ErrNoConfig):
			cfg = &Config{Source: "defaults"}
			missing = err
		case err != nil:
			return nil, err
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return cfg, missing
}

// FromEnv returns nil when SKLAND_TOKEN is not set.
func FromEnv() *Config {
	tokens := splitList(os.Getenv("SKLAND_TOKEN"))
	if len(tokens) == 0 {
		return nil
	}
	nicknames := splitList(os.Getenv("SKLAND_NICKNAME"))

	cfg := &Config{
		QmsgKey:  os.Getenv("QMSG_KEY"),
		LogLevel: os.Getenv("LOG_LEVEL"),
		Source:   "env",
	}
	for i, token := range tokens {
		name := ""
		if i < len(nicknames) {
			name = nicknames[i]
		}
		cfg.Users = append(cfg.Users, core.Account{Name: name, Token: token})
	}
	return cfg
}

func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoConfig
		}
		return nil, fmt.Errorf("read config file error: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config yaml error: %w", err)
	}
	cfg.Source = path
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	overrides := map[string]*string{
		"QL_API_BASE":      &cfg.Qinglong.APIBase,
		"QL_NOTIFY_TOKEN":  &cfg.Qinglong.Token,
		"QL_CLIENT_ID":     &cfg.Qinglong.ClientID,
		"QL_CLIENT_SECRET": &cfg.Qinglong.ClientSecret,
		"SKLAND_PROXY":     &cfg.Proxy,
		"SKLAND_SCHEDULE":  &cfg.Schedule,
		"SKLAND_LOG_FILE":  &cfg.LogFile,
	}
	for key, dst := range overrides {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}

	if v := strings.TrimSpace(os.Getenv("SKLAND_MAX_RETRIES")); v != "" {
		n, err := cast.ToIntE(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid SKLAND_MAX_RETRIES %q", v)
		}
		cfg.MaxRetries = n
	}
	return nil
}

func (cfg *Config) setDefaults() {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = core.DefaultMaxRetries
	}
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}
	if cfg.Qinglong.APIBase == "" {
		cfg.Qinglong.APIBase = DefaultQLBase
	}
	for i := range cfg.Users {
		cfg.Users[i].Token = strings.TrimSpace(cfg.Users[i].Token)
		if strings.TrimSpace(cfg.Users[i].Name) == "" {
			cfg.Users[i].Name = fmt.Sprintf("账号%d", i+1)
		}
	}
}

// LogAccounts prints a short preview of each configured account.
func (cfg *Config) LogAccounts() {
	log.Infof("loaded %d account(s) from %s", len(cfg.Users), cfg.Source)
	for i, u := range cfg.Users {
		log.Infof("  账号%d: 昵称=%s, Token=%s", i+1, u.Name, TokenPreview(u.Token))
	}
}

func TokenPreview(token string) string {
	if token == "" {
		return "(空)"
	}
	r := []rune(token)
	if len(r) > 6 {
		r = r[:6]
	}
	return string(r) + "..."
}

func splitList(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '&' || r == '\n'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
