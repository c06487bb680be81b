package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonwraymond/rbacgate/secret"
)

func TestLoadFile_Valid(t *testing.T) {
	path := filepath.Join("testdata", "valid.yaml")
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Listen != "127.0.0.1:9090" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if cfg.Token.TTL != 15*time.Minute {
		t.Errorf("Token.TTL = %v, want 15m", cfg.Token.TTL)
	}
	if cfg.Token.Issuer != "rbacgate" {
		t.Errorf("Token.Issuer = %q, want default", cfg.Token.Issuer)
	}
	if cfg.LoginRate.PerSecond != 1 || cfg.LoginRate.Burst != 5 {
		t.Errorf("LoginRate = %+v, want defaults", cfg.LoginRate)
	}
	if cfg.Observe.ServiceName != "rbacgate" || cfg.Observe.Logging.Level != "debug" || !cfg.Observe.Logging.Enabled {
		t.Errorf("Observe = %+v", cfg.Observe)
	}
	if len(cfg.Users) != 2 {
		t.Errorf("len(Users) = %d, want 2", len(cfg.Users))
	}

	paths := cfg.PolicyPaths()
	if paths.Model != "" {
		t.Errorf("Model = %q, want empty", paths.Model)
	}
	if paths.Rules != filepath.Join("testdata", "policy.csv") {
		t.Errorf("Rules = %q, want relative to config dir", paths.Rules)
	}
	if paths.Grouping != "/etc/rbacgate/grouping.csv" {
		t.Errorf("Grouping = %q, want absolute path kept", paths.Grouping)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	_, err := LoadFile(filepath.Join("testdata", "invalid.yaml"))
	if err == nil {
		t.Fatal("LoadFile() should fail")
	}
	for _, want := range []string{
		"listen is required",
		"token.secret is required",
		"token.ttl must be positive",
		"policy.rules is required",
		"policy.grouping is required",
		`duplicate username "admin"`,
		"users[2].username is required",
		"login_rate.per_second",
		"login_rate.burst",
		"observe:",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q:\n%v", want, err)
		}
	}
}

func TestLoadFile_Errors(t *testing.T) {
	if _, err := LoadFile(filepath.Join("testdata", "unknown_key.yaml")); err == nil || !strings.Contains(err.Error(), "lifetime") {
		t.Errorf("unknown key error = %v", err)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v, want os.ErrNotExist", err)
	}

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(empty, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(empty); err == nil || !strings.Contains(err.Error(), "token.secret is required") {
		t.Errorf("empty file error = %v", err)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv(EnvVar, "")
	if _, err := Load(""); !errors.Is(err, ErrNoConfig) {
		t.Errorf("Load() error = %v, want ErrNoConfig", err)
	}

	t.Setenv(EnvVar, filepath.Join("testdata", "valid.yaml"))
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Listen != "127.0.0.1:9090" {
		t.Errorf("Listen = %q", cfg.Listen)
	}

	if _, err := Load(filepath.Join("testdata", "invalid.yaml")); err == nil {
		t.Error("explicit path should win over " + EnvVar)
	}
}

func TestShippedConfig(t *testing.T) {
	cfg, err := LoadFile(filepath.Join("..", "configs", "rbacgate.yaml"))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	paths := cfg.PolicyPaths()
	for _, p := range []string{paths.Model, paths.Rules, paths.Grouping} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("policy file %s: %v", p, err)
		}
	}
	if len(cfg.Users) != 3 {
		t.Errorf("len(Users) = %d, want 3", len(cfg.Users))
	}
}

func TestTokenServiceConfig(t *testing.T) {
	t.Setenv("RBACGATE_TEST_SECRET", "s3cret")
	t.Setenv("RBACGATE_TEST_VIEWER_PASSWORD", "view123")

	cfg, err := LoadFile(filepath.Join("testdata", "valid.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	res, err := cfg.Resolver()
	if err != nil {
		t.Fatalf("Resolver() error = %v", err)
	}

	tc, err := cfg.TokenServiceConfig(context.Background(), res)
	if err != nil {
		t.Fatalf("TokenServiceConfig() error = %v", err)
	}
	if string(tc.Secret) != "s3cret" || tc.TTL != 15*time.Minute || tc.Issuer != "rbacgate" {
		t.Errorf("token.Config = %+v", tc)
	}

	users, err := cfg.ResolvedUsers(context.Background(), res)
	if err != nil {
		t.Fatalf("ResolvedUsers() error = %v", err)
	}
	if users["admin"] != "admin123" || users["viewer"] != "view123" {
		t.Errorf("users = %v", users)
	}
}

func TestTokenServiceConfig_MissingSecret(t *testing.T) {
	cfg := Default()
	cfg.Token.Secret = "secretref:env:RBACGATE_TEST_UNSET_SECRET"

	res, err := cfg.Resolver()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cfg.TokenServiceConfig(context.Background(), res); !errors.Is(err, secret.ErrNotFound) {
		t.Errorf("error = %v, want secret.ErrNotFound", err)
	}

	cfg.Token.Secret = "${RBACGATE_TEST_UNSET_SECRET}"
	if _, err := cfg.TokenServiceConfig(context.Background(), res); !errors.Is(err, secret.ErrMissingEnv) {
		t.Errorf("error = %v, want secret.ErrMissingEnv", err)
	}
}
