package engineconfig

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.EngineTerminationTimeout != defaultTerminationTimeout {
		t.Fatalf("expected default termination timeout, got %v", cfg.EngineTerminationTimeout)
	}
	if cfg.CommonEngineParallelism <= 0 {
		t.Fatal("expected CommonEngineParallelism to default to GOMAXPROCS, got <= 0")
	}
}

func TestLoadEnvOverridesDefault(t *testing.T) {
	t.Setenv(envEntityLimit, "42")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.FactoryEntityLimit != 42 {
		t.Fatalf("expected env override 42, got %d", cfg.FactoryEntityLimit)
	}
}

func TestLoadFileOverridesEnv(t *testing.T) {
	t.Setenv(envEntityLimit, "42")

	f, err := os.CreateTemp(t.TempDir(), "jalse-*.yaml")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	if _, err := f.WriteString("factoryEntityLimit: 7\n"); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	f.Close()

	cfg, err := Load(f.Name())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.FactoryEntityLimit != 7 {
		t.Fatalf("expected file override 7, got %d", cfg.FactoryEntityLimit)
	}
}

func TestLoadOptionOverridesFile(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "jalse-*.yaml")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	if _, err := f.WriteString("factoryEntityLimit: 7\n"); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	f.Close()

	cfg, err := Load(f.Name(), WithFactoryEntityLimit(99))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.FactoryEntityLimit != 99 {
		t.Fatalf("expected option override 99, got %d", cfg.FactoryEntityLimit)
	}
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	cfg, err := Load("/nonexistent/path/jalse.yaml")
	if err != nil {
		t.Fatalf("a missing config file should not be an error, got %v", err)
	}
	if cfg.EngineTerminationTimeout != defaultTerminationTimeout {
		t.Fatal("expected defaults when the config file is absent")
	}
}

func TestWithEngineTerminationTimeout(t *testing.T) {
	cfg, err := Load("", WithEngineTerminationTimeout(5*time.Second))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.EngineTerminationTimeout != 5*time.Second {
		t.Fatalf("expected 5s, got %v", cfg.EngineTerminationTimeout)
	}
}
