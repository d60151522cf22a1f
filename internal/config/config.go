package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/gravitrone/mirrorctl/internal/api"
)

// DefaultPageSize is the listing page size when none is configured.
const DefaultPageSize = 15

// PathEnv overrides the config location.
const PathEnv = "MIRRORCTL_CONFIG"

const (
	fileMode = 0o600
	dirMode  = 0o700
)

// Config holds CLI configuration stored at ~/.mirrorctl/config.
type Config struct {
	APIKey   string `yaml:"api_key" validate:"required"`
	Server   string `yaml:"base_url,omitempty" validate:"omitempty,url"`
	UserID   string `yaml:"user_id,omitempty" validate:"omitempty,uuid"`
	Username string `yaml:"username,omitempty"`
	PerPage  int    `yaml:"page_size,omitempty" validate:"gte=0"`
	LogFile  string `yaml:"log_file,omitempty"`
	Debug    bool   `yaml:"debug,omitempty"`
}

var validate = newValidator()

// newValidator reports fields by their yaml key.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		return name
	})
	return v
}

// Path returns the config file path: $MIRRORCTL_CONFIG when set, otherwise
// ~/.mirrorctl/config.
func Path() string {
	if p := strings.TrimSpace(os.Getenv(PathEnv)); p != "" {
		return p
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".mirrorctl", "config")
}

// Load reads the config file. It refuses files other users can read and
// configs that fail validation. A missing file wraps os.ErrNotExist.
func Load() (*Config, error) {
	path := Path()
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("config not found: %w", err)
	}
	if perm := info.Mode().Perm(); perm != fileMode {
		return nil, fmt.Errorf("config permissions too open: %04o (want %04o)", perm, fileMode)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field formats, naming the first bad field by its yaml key.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("config missing %s", fe.Field())
	case "gte":
		return fmt.Errorf("config %s must not be negative", fe.Field())
	}
	return fmt.Errorf("config %s is not a valid %s", fe.Field(), fe.Tag())
}

// Save writes the config with owner-only permissions, creating its
// directory as needed.
func (c *Config) Save() error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), dirMode); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, fileMode); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	// WriteFile keeps the mode of an existing file.
	return os.Chmod(path, fileMode)
}

// BaseURL returns the configured API root or the default.
func (c *Config) BaseURL() string {
	if u := strings.TrimSpace(c.Server); u != "" {
		return strings.TrimRight(u, "/")
	}
	return api.DefaultBaseURL
}

// PageSize returns the configured page size or the default.
func (c *Config) PageSize() int {
	if c.PerPage > 0 {
		return c.PerPage
	}
	return DefaultPageSize
}

// Client builds an API client from the config.
func (c *Config) Client() *api.Client {
	return api.NewClient(c.BaseURL(), c.APIKey)
}
