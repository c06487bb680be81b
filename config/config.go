// Package config loads the gateway's YAML configuration.
//
// Configuration comes from a single file named by the --config flag or the
// RBACGATE_CONFIG environment variable. There is no discovery and no
// per-field environment override; the only expansion is inside
// token.secret and users[].password, which go through the secret package.
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/rbacgate/observe"
	"github.com/jonwraymond/rbacgate/policy"
	"github.com/jonwraymond/rbacgate/secret"
	"github.com/jonwraymond/rbacgate/token"
)

// EnvVar names the environment variable consulted by Load.
const EnvVar = "RBACGATE_CONFIG"

// ErrNoConfig is returned by Load when neither a path nor EnvVar is set.
var ErrNoConfig = errors.New("config: no config file; set " + EnvVar + " or pass --config")

// Config is the complete gateway configuration.
type Config struct {
	Listen    string                    `yaml:"listen"`
	Token     TokenConfig               `yaml:"token"`
	Policy    PolicyConfig              `yaml:"policy"`
	Users     []User                    `yaml:"users"`
	Observe   observe.Config            `yaml:"observe"`
	LoginRate RateConfig                `yaml:"login_rate"`
	Secrets   map[string]map[string]any `yaml:"secrets"`

	// dir is the directory of the loaded file; relative policy paths are
	// resolved against it.
	dir string
}

// TokenConfig configures the token service.
type TokenConfig struct {
	// Secret may be a literal, contain ${VAR} references, or be a
	// secretref:<provider>:<ref>.
	Secret string        `yaml:"secret"`
	TTL    time.Duration `yaml:"ttl"`
	Issuer string        `yaml:"issuer"`
}

// PolicyConfig names the policy files.
type PolicyConfig struct {
	Model    string `yaml:"model"`
	Rules    string `yaml:"rules"`
	Grouping string `yaml:"grouping"`
}

// User is one entry of the demo credential table.
type User struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// RateConfig bounds login attempts per client.
type RateConfig struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// Default returns the base configuration that a file is decoded over.
func Default() *Config {
	return &Config{
		Listen: ":8080",
		Token: TokenConfig{
			TTL:    token.DefaultTTL,
			Issuer: "rbacgate",
		},
		LoginRate: RateConfig{PerSecond: 1, Burst: 5},
		Observe: observe.Config{
			ServiceName: "rbacgate",
			Metrics:     observe.MetricsConfig{Enabled: true, Exporter: "prometheus"},
			Logging:     observe.LoggingConfig{Enabled: true, Level: "info"},
		},
	}
}

// Load reads the file at path, or the file named by RBACGATE_CONFIG when
// path is empty.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	if path == "" {
		return nil, ErrNoConfig
	}
	return LoadFile(path)
}

// LoadFile decodes path over Default and validates the result. Unknown keys
// are rejected.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer func() { _ = f.Close() }()

	cfg := Default()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	cfg.dir = filepath.Dir(path)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors and reports all of them.
func (c *Config) Validate() error {
	var errs []error

	if c.Listen == "" {
		errs = append(errs, errors.New("listen is required"))
	}
	if c.Token.Secret == "" {
		errs = append(errs, errors.New("token.secret is required"))
	}
	if c.Token.TTL <= 0 {
		errs = append(errs, errors.New("token.ttl must be positive"))
	}
	if c.Policy.Rules == "" {
		errs = append(errs, errors.New("policy.rules is required"))
	}
	if c.Policy.Grouping == "" {
		errs = append(errs, errors.New("policy.grouping is required"))
	}

	seen := make(map[string]bool, len(c.Users))
	for i, u := range c.Users {
		switch {
		case u.Username == "":
			errs = append(errs, fmt.Errorf("users[%d].username is required", i))
		case u.Password == "":
			errs = append(errs, fmt.Errorf("users[%d].password is required", i))
		case seen[u.Username]:
			errs = append(errs, fmt.Errorf("users[%d]: duplicate username %q", i, u.Username))
		}
		seen[u.Username] = true
	}

	if c.LoginRate.PerSecond <= 0 {
		errs = append(errs, errors.New("login_rate.per_second must be positive"))
	}
	if c.LoginRate.Burst < 1 {
		errs = append(errs, errors.New("login_rate.burst must be at least 1"))
	}

	if err := c.Observe.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("observe: %w", err))
	}

	return errors.Join(errs...)
}

// PolicyPaths returns the policy file paths with relative entries resolved
// against the config file's directory.
func (c *Config) PolicyPaths() policy.Paths {
	return policy.Paths{
		Model:    c.resolvePath(c.Policy.Model),
		Rules:    c.resolvePath(c.Policy.Rules),
		Grouping: c.resolvePath(c.Policy.Grouping),
	}
}

func (c *Config) resolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}

// Resolver builds a secret resolver from the default providers, configured
// by the secrets section.
func (c *Config) Resolver() (*secret.Resolver, error) {
	return secret.DefaultRegistry.NewResolver(true, c.Secrets)
}

// TokenServiceConfig resolves the signing secret and returns the token service
// configuration.
func (c *Config) TokenServiceConfig(ctx context.Context, res *secret.Resolver) (token.Config, error) {
	s, err := res.ResolveValue(ctx, c.Token.Secret)
	if err != nil {
		return token.Config{}, fmt.Errorf("config: token.secret: %w", err)
	}
	return token.Config{Secret: []byte(s), TTL: c.Token.TTL, Issuer: c.Token.Issuer}, nil
}

// ResolvedUsers returns the credential table with passwords resolved.
func (c *Config) ResolvedUsers(ctx context.Context, res *secret.Resolver) (map[string]string, error) {
	users := make(map[string]string, len(c.Users))
	for _, u := range c.Users {
		p, err := res.ResolveValue(ctx, u.Password)
		if err != nil {
			return nil, fmt.Errorf("config: users[%s].password: %w", u.Username, err)
		}
		users[u.Username] = p
	}
	return users, nil
}
