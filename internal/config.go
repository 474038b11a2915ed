package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/RealSpaceofAce/framelord-sub002/internal/storage"
	"github.com/RealSpaceofAce/framelord-sub002/internal/trash"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App   ApplicationConfig `yaml:"app"`
	Store StoreConfig       `yaml:"store"`
	Trash TrashConfig       `yaml:"trash"`
	Auth  AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.Trash.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StoreConfig selects where the notes document lives.
//
// Driver "fs" keeps the document as <path>/<key>.json; driver "sqlite"
// keeps it in a key/value table of the database file at path.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	Key    string `yaml:"key"`
	Watch  bool   `yaml:"watch"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required, validation.In(storage.DriverFS, storage.DriverSQLite)),
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Key, validation.Required),
	); err != nil {
		return err
	}
	if !storage.ValidKey(c.Key) {
		return fmt.Errorf("store: invalid key %q", c.Key)
	}
	return nil
}

// WatchedFile returns the file whose changes trigger a reload.
func (c *StoreConfig) WatchedFile() string {
	if c.Driver == storage.DriverSQLite {
		return c.Path
	}
	return storage.DocumentPath(c.Path, c.Key)
}

// TrashConfig holds the trash retention policy.
type TrashConfig struct {
	PurgeAfterDays int           `yaml:"purge_after_days"`
	SweepInterval  time.Duration `yaml:"sweep_interval"`
}

// Validate validates the trash configuration.
func (c *TrashConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.PurgeAfterDays, validation.Required, validation.Min(1)),
		validation.Field(&c.SweepInterval, validation.Required, validation.Min(time.Minute)),
	); err != nil {
		return fmt.Errorf("trash: %w", err)
	}
	return nil
}

// Retention returns the retention window as a duration.
func (c *TrashConfig) Retention() time.Duration {
	return trash.Days(c.PurgeAfterDays)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Store: StoreConfig{
			Driver: storage.DriverFS,
			Path:   "./data",
			Key:    "notes",
			Watch:  true,
		},
		Trash: TrashConfig{
			PurgeAfterDays: 30,
			SweepInterval:  time.Hour,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
