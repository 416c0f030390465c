package config

import (
	"strings"
	"testing"
)

type envTestConfig struct {
	Port   int    `env:"CROWDFUND_TEST_PORT" envDefault:"8095"`
	DBPath string `env:"CROWDFUND_TEST_DB_PATH" envDefault:"data/crowdfund.db"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 8095 || cfg.DBPath != "data/crowdfund.db" {
		t.Fatalf("config = %+v", cfg)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("CROWDFUND_TEST_PORT", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env error, got %v", err)
	}
}

func TestParseEnvFromIgnoresProcessEnvironment(t *testing.T) {
	t.Setenv("CROWDFUND_TEST_PORT", "9999")

	var cfg envTestConfig
	if err := ParseEnvFrom(&cfg, map[string]string{"CROWDFUND_TEST_DB_PATH": "/tmp/x.db"}); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 8095 {
		t.Fatalf("port = %d, want default 8095", cfg.Port)
	}
	if cfg.DBPath != "/tmp/x.db" {
		t.Fatalf("db path = %q", cfg.DBPath)
	}
}
