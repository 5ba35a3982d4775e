// Package config carga la configuración del proceso: valores por defecto,
// archivo TOML opcional, .env y por último variables de entorno.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	Server        ServerConfig        `toml:"server"`
	Log           LogConfig           `toml:"log"`
	Storage       StorageConfig       `toml:"storage"`
	Notifications NotificationsConfig `toml:"notifications"`
	Sync          SyncConfig          `toml:"sync"`
	Analytics     AnalyticsConfig     `toml:"analytics"`
}

type ServerConfig struct {
	Addr            string   `toml:"addr"`
	ReadTimeout     Duration `toml:"read_timeout"`
	WriteTimeout    Duration `toml:"write_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `toml:"level"`  // debug|info|warn|error
	Format string `toml:"format"` // text|json
	App    string `toml:"app"`
}

// StorageConfig usa el patrón de unión etiquetada: Type decide qué campos aplican.
type StorageConfig struct {
	Type    string   `toml:"type"`           // "memory", "sqlite" o "postgres"
	Path    string   `toml:"path,omitempty"` // sqlite
	DSN     string   `toml:"dsn,omitempty"`  // postgres
	Timeout Duration `toml:"timeout"`
}

type NotificationsConfig struct {
	Type         string   `toml:"type"` // "memory", "redis" o "webhook"
	RedisURL     string   `toml:"redis_url,omitempty"`
	RedisPrefix  string   `toml:"redis_prefix,omitempty"`
	WebhookURL   string   `toml:"webhook_url,omitempty"`
	WebhookToken string   `toml:"webhook_token,omitempty"`
	Timeout      Duration `toml:"timeout"`
}

type SyncConfig struct {
	Type string `toml:"type"` // "none" o "s3"

	Bucket       string `toml:"bucket,omitempty"`
	Prefix       string `toml:"prefix,omitempty"`
	Region       string `toml:"region,omitempty"`
	Endpoint     string `toml:"endpoint,omitempty"`
	UsePathStyle bool   `toml:"use_path_style,omitempty"`

	AccessKeyID     string `toml:"access_key_id,omitempty"`
	SecretAccessKey string `toml:"secret_access_key,omitempty"`

	AgeRecipient    string `toml:"age_recipient,omitempty"`
	AgeIdentityPath string `toml:"age_identity_path,omitempty"`
}

type AnalyticsConfig struct {
	Debounce    Duration `toml:"debounce"`
	SeriesDays  int      `toml:"series_days"`
	StreakLimit int      `toml:"streak_limit"`
}

// Duration se escribe en TOML como texto ("5s", "250ms").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default devuelve la configuración para correr local sin nada más.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     Duration{5 * time.Second},
			WriteTimeout:    Duration{10 * time.Second},
			ShutdownTimeout: Duration{10 * time.Second},
		},
		Log: LogConfig{Level: "info", Format: "text", App: "pet-care-tracker"},
		Storage: StorageConfig{
			Type:    "sqlite",
			Path:    "petcare.db",
			Timeout: Duration{5 * time.Second},
		},
		Notifications: NotificationsConfig{
			Type:    "memory",
			Timeout: Duration{5 * time.Second},
		},
		Sync: SyncConfig{Type: "none"},
		Analytics: AnalyticsConfig{
			Debounce:    Duration{250 * time.Millisecond},
			SeriesDays:  30,
			StreakLimit: 3650,
		},
	}
}

// Manager lee y escribe configuración TOML.
type Manager struct{}

// Read decodifica r sobre los valores por defecto: lo que falta en el archivo queda por defecto.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	cfg := Default()
	if _, err := toml.NewDecoder(r).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// Init escribe cfg en path. Falla si el archivo ya existe.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}

// Load arma la configuración final:
// defaults -> path (si existe) -> .env (si existe) -> entorno.
// path vacío o inexistente no es error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		fromFile, err := ReadFromFile(path)
		switch {
		case err == nil:
			cfg = fromFile
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, err
		}
	}

	// .env no pisa variables ya definidas
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	dur := func(key string, dst *Duration) error {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		if err := dst.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		return nil
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	if v, ok := lookup("PORT"); ok && strings.TrimSpace(v) != "" {
		cfg.Server.Addr = ":" + strings.TrimSpace(v)
	}

	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)
	str("APP_NAME", &cfg.Log.App)

	str("STORAGE_TYPE", &cfg.Storage.Type)
	str("SQLITE_PATH", &cfg.Storage.Path)
	str("DB_DSN", &cfg.Storage.DSN)

	str("NOTIFY_TYPE", &cfg.Notifications.Type)
	str("REDIS_URL", &cfg.Notifications.RedisURL)
	str("WEBHOOK_URL", &cfg.Notifications.WebhookURL)
	str("WEBHOOK_TOKEN", &cfg.Notifications.WebhookToken)

	str("SYNC_TYPE", &cfg.Sync.Type)
	str("SYNC_BUCKET", &cfg.Sync.Bucket)
	str("SYNC_PREFIX", &cfg.Sync.Prefix)
	str("SYNC_ENDPOINT", &cfg.Sync.Endpoint)
	str("AWS_REGION", &cfg.Sync.Region)
	str("AGE_RECIPIENT", &cfg.Sync.AgeRecipient)
	str("AGE_IDENTITY_PATH", &cfg.Sync.AgeIdentityPath)

	if err := dur("STORAGE_TIMEOUT", &cfg.Storage.Timeout); err != nil {
		return err
	}
	if err := dur("ANALYTICS_DEBOUNCE", &cfg.Analytics.Debounce); err != nil {
		return err
	}
	if err := num("ANALYTICS_SERIES_DAYS", &cfg.Analytics.SeriesDays); err != nil {
		return err
	}
	return num("ANALYTICS_STREAK_LIMIT", &cfg.Analytics.StreakLimit)
}

func (c *Config) Validate() error {
	switch c.Storage.Type {
	case "memory":
	case "sqlite":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path required for sqlite storage")
		}
	case "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn required for postgres storage")
		}
	default:
		return fmt.Errorf("unknown storage type: %s", c.Storage.Type)
	}

	switch c.Notifications.Type {
	case "memory":
	case "redis":
		if c.Notifications.RedisURL == "" {
			return fmt.Errorf("notifications.redis_url required for redis notifications")
		}
	case "webhook":
		if c.Notifications.WebhookURL == "" {
			return fmt.Errorf("notifications.webhook_url required for webhook notifications")
		}
	default:
		return fmt.Errorf("unknown notifications type: %s", c.Notifications.Type)
	}

	switch c.Sync.Type {
	case "", "none":
	case "s3":
		if c.Sync.Bucket == "" {
			return fmt.Errorf("sync.bucket required for s3 sync")
		}
	default:
		return fmt.Errorf("unknown sync type: %s", c.Sync.Type)
	}

	if c.Analytics.Debounce.Duration < 0 {
		return fmt.Errorf("analytics.debounce must not be negative")
	}
	return nil
}

// SyncEnabled indica si hay un colaborador de nube configurado.
func (c *Config) SyncEnabled() bool {
	return c.Sync.Type != "" && c.Sync.Type != "none"
}
