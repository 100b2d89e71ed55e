// Package config provides configuration management for the leaderboard service.
package config

import (
	"os"
	"testing"
)

const (
	validConfigPath              = "testdata/valid_config.yaml"
	expansionConfigPath          = "testdata/expansion_config.yaml"
	nonexistentConfigPath        = "testdata/nonexistent_config.yaml"
	expectedNoErrorLoadingConfig = "expected no error loading config, got %v"
	expectedNoErrorMsg           = "expected no error, got %v"
	expectedNonNilConfig         = "expected non-nil config"
	leaderboardName              = "leaderboard"
	developmentEnv               = "development"
	invalidEnv                   = "invalid"
	localhostHost                = "localhost"
	postgresPort                 = 5432
	testAppName                  = "test-app"
	testDBPassword               = "TEST_DB_PASSWORD"
	expandedSecretValue          = "expanded_secret_value"
)

// TestLoadConfigSuccess tests loading a valid configuration file
func TestLoadConfigSuccess(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}

	if cfg == nil {
		t.Fatal(expectedNonNilConfig)
	}

	if cfg.App.Name != leaderboardName {
		t.Errorf("expected app name '%s', got '%s'", leaderboardName, cfg.App.Name)
	}

	if cfg.App.Environment != developmentEnv {
		t.Errorf("expected environment '%s', got '%s'", developmentEnv, cfg.App.Environment)
	}

	if cfg.Database.Host != localhostHost {
		t.Errorf("expected database host '%s', got '%s'", localhostHost, cfg.Database.Host)
	}

	if cfg.Database.Port != postgresPort {
		t.Errorf("expected database port %d, got %d", postgresPort, cfg.Database.Port)
	}

	if !cfg.Reconcile.Enabled || cfg.Reconcile.Schedule != "30 3 * * *" {
		t.Errorf("expected reconciliation enabled at '30 3 * * *', got %v %q", cfg.Reconcile.Enabled, cfg.Reconcile.Schedule)
	}
}

// TestLoadConfigFileNotFound tests handling of missing configuration file
func TestLoadConfigFileNotFound(t *testing.T) {
	_, err := Load(nonexistentConfigPath)
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

// TestLoadConfigEnvironmentVariables tests environment variable override
func TestLoadConfigEnvironmentVariables(t *testing.T) {
	os.Setenv("LEADERBOARD_APP_NAME", testAppName)
	defer os.Unsetenv("LEADERBOARD_APP_NAME")

	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}

	if cfg.App.Name != testAppName {
		t.Errorf("expected app name '%s' from environment, got '%s'", testAppName, cfg.App.Name)
	}
}

// TestLoadConfigEnvironmentVariableExpansion tests ${VAR} placeholders
func TestLoadConfigEnvironmentVariableExpansion(t *testing.T) {
	os.Setenv(testDBPassword, expandedSecretValue)
	defer os.Unsetenv(testDBPassword)

	cfg, err := Load(expansionConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}

	if cfg.Database.Password != expandedSecretValue {
		t.Errorf("expected expanded password '%s', got '%s'", expandedSecretValue, cfg.Database.Password)
	}
}

// TestLoadConfigMissingEnvironmentVariable tests unexpanded placeholder handling
func TestLoadConfigMissingEnvironmentVariable(t *testing.T) {
	os.Unsetenv(testDBPassword)

	cfg, err := Load(expansionConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}

	// os.ExpandEnv replaces undefined variables with the empty string.
	if cfg.Database.Password != "" {
		t.Errorf("expected empty password for missing variable, got '%s'", cfg.Database.Password)
	}
}

// TestLoadFillsOptionalSections tests that a file omitting optional sections
// still gets working defaults; a zero import limit would reject every upload
func TestLoadFillsOptionalSections(t *testing.T) {
	cfg, err := Load(expansionConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}

	if cfg.Import.MaxFileSizeBytes != 10<<20 {
		t.Errorf("expected default import limit %d, got %d", 10<<20, cfg.Import.MaxFileSizeBytes)
	}
	if cfg.Server.ShutdownTimeout != 15 {
		t.Errorf("expected default shutdown timeout 15, got %d", cfg.Server.ShutdownTimeout)
	}
	if cfg.Registry.CacheTTLSeconds != 300 {
		t.Errorf("expected default registry cache TTL 300, got %d", cfg.Registry.CacheTTLSeconds)
	}
}

// TestLoadWithDefaults tests that defaults fill gaps left by the file
func TestLoadWithDefaults(t *testing.T) {
	cfg, err := LoadWithDefaults(nonexistentConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}

	if cfg.Server.Port != 8090 {
		t.Errorf("expected default server port 8090, got %d", cfg.Server.Port)
	}
	if cfg.Registry.Mode != "memory" {
		t.Errorf("expected default registry mode 'memory', got '%s'", cfg.Registry.Mode)
	}
	if cfg.Import.MaxFileSizeBytes != 10<<20 {
		t.Errorf("expected default import limit %d, got %d", 10<<20, cfg.Import.MaxFileSizeBytes)
	}
}

// TestValidateSuccess tests validation of a valid configuration
func TestValidateSuccess(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	err = Validate(cfg)
	if err != nil {
		t.Fatalf("expected no validation error, got %v", err)
	}
}

// TestValidateInvalidEnvironment tests validation of invalid environment
func TestValidateInvalidEnvironment(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	cfg.App.Environment = invalidEnv
	err = Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error for invalid environment")
	}
}

// TestValidateInvalidLogLevel tests validation of invalid log level
func TestValidateInvalidLogLevel(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	cfg.App.LogLevel = "verbose"
	err = Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error for invalid log level")
	}
}

// TestValidateRemoteRegistryNeedsBaseURL tests cross-field validation
func TestValidateRemoteRegistryNeedsBaseURL(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	cfg.Registry.Mode = "remote"
	cfg.Registry.BaseURL = ""
	err = Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error for remote registry without base_url")
	}
}

// TestValidateReconcileNeedsSchedule tests cross-field validation
func TestValidateReconcileNeedsSchedule(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	cfg.Reconcile.Enabled = true
	cfg.Reconcile.Schedule = ""
	err = Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error for enabled reconciliation without schedule")
	}
}

// TestIsDevelopment tests the environment helper
func TestIsDevelopment(t *testing.T) {
	cfg := &Config{}
	cfg.App.Environment = developmentEnv
	if !cfg.IsDevelopment() {
		t.Error("expected IsDevelopment to be true")
	}
	if cfg.IsProduction() {
		t.Error("expected IsProduction to be false")
	}
}

// TestIsProduction tests the environment helper
func TestIsProduction(t *testing.T) {
	cfg := &Config{}
	cfg.App.Environment = "production"
	if !cfg.IsProduction() {
		t.Error("expected IsProduction to be true")
	}
	if cfg.IsDevelopment() {
		t.Error("expected IsDevelopment to be false")
	}
}
