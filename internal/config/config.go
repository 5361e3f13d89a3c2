package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port      string `yaml:"port"`
		StaticDir string `yaml:"static_dir"`
	} `yaml:"server"`
	Telegram struct {
		Token     string `yaml:"token"`
		AdminIDs  string `yaml:"admin_ids"`
		WebAppURL string `yaml:"webapp_url"`
	} `yaml:"telegram"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Quiz struct {
		TTL string `yaml:"ttl"`
	} `yaml:"quiz"`
}

// Load reads YAML config from path (if present) and applies environment
// overrides. The environment is authoritative; the file is optional.
func Load(path string) (Config, error) {
	cfg := Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return cfg, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setIfPresent(&c.Telegram.Token, "BOT_TOKEN")
	setIfPresent(&c.Telegram.AdminIDs, "ADMIN_IDS")
	setIfPresent(&c.Telegram.WebAppURL, "WEBAPP_URL")
	setIfPresent(&c.Server.Port, "PORT")
	setIfPresent(&c.Server.StaticDir, "STATIC_DIR")
	setIfPresent(&c.Postgres.URL, "POSTGRES_URL")
	setIfPresent(&c.Redis.Addr, "REDIS_ADDR")
	setIfPresent(&c.Redis.Password, "REDIS_PASSWORD")
	setIfPresent(&c.Redis.TTL, "DRAFT_TTL")
	setIfPresent(&c.Quiz.TTL, "QUIZ_TTL")
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		if db, err := strconv.Atoi(raw); err == nil {
			c.Redis.DB = db
		}
	}
}

func setIfPresent(dst *string, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}

// Validate checks the settings the process cannot start without.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("bot token not configured (set BOT_TOKEN)")
	}
	return nil
}

// AdminIDs parses the comma-separated administrator allow-list.
// Malformed entries are skipped.
func (c *Config) AdminIDs() []int64 {
	parts := strings.Split(c.Telegram.AdminIDs, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// LaunchableWebAppURL returns the configured web view URL when it is a real
// https URL the chat platform can open, or "" when it is absent, malformed,
// or a placeholder/localhost value.
func (c *Config) LaunchableWebAppURL() string {
	raw := strings.TrimSpace(c.Telegram.WebAppURL)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return ""
	}
	host := u.Hostname()
	if host == "localhost" || !strings.Contains(host, ".") {
		return ""
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return ""
	}
	return raw
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
