package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// TestConfig is a minimal configuration used across manager tests.
type TestConfig struct {
	Name     string `mapstructure:"name"`
	Port     int    `mapstructure:"port"`
	Host     string `mapstructure:"host"`
	MaxConns int    `mapstructure:"maxConns"`
}

func (c *TestConfig) GetName() string { return "test" }

func (c *TestConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	return nil
}

// TestChangeListener records change notifications for assertions.
type TestChangeListener struct {
	mu             sync.Mutex
	ChangeCount    int32
	LastConfigName string
	LastConfig     Config
	LastOldConfig  Config
}

// OnConfigChanged implements ConfigChangeListener interface
func (l *TestChangeListener) OnConfigChanged(configName string, newConfig, oldConfig Config) error {
	atomic.AddInt32(&l.ChangeCount, 1)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.LastConfigName = configName
	l.LastConfig = newConfig
	l.LastOldConfig = oldConfig
	return nil
}

func writeConfigFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}
	return path
}

// TestLoadConfig tests basic configuration loading from YAML
func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfigFile(t, tmpDir, "server.yaml", `
name: "test-server"
port: 8080
host: "localhost"
maxConns: 100
`)

	cm := NewConfigManager()
	cm.SetBasePath(tmpDir)

	config := &TestConfig{}
	if err := cm.LoadConfig("server", config); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Name != "test-server" {
		t.Errorf("Expected name 'test-server', got '%s'", config.Name)
	}
	if config.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", config.Port)
	}

	got, err := cm.GetConfig("server")
	if err != nil {
		t.Fatalf("GetConfig failed: %v", err)
	}
	if got != config {
		t.Error("GetConfig should return the loaded instance")
	}
}

// TestLoadConfigValidation tests that invalid configuration is rejected
func TestLoadConfigValidation(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfigFile(t, tmpDir, "invalid.yaml", `
name: "bad-server"
port: -1
host: "localhost"
`)

	cm := NewConfigManager()
	cm.SetBasePath(tmpDir)

	config := &TestConfig{}
	if err := cm.LoadConfig("invalid", config); err == nil {
		t.Error("Expected validation error, got nil")
	}
}

// TestRegisteredValidatorRejects tests validator functions registered by name
func TestRegisteredValidatorRejects(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfigFile(t, tmpDir, "strict.yaml", `
name: "strict-server"
port: 8080
host: "localhost"
maxConns: 5
`)

	cm := NewConfigManager()
	cm.SetBasePath(tmpDir)
	cm.RegisterValidator("strict", func(c Config) error {
		tc := c.(*TestConfig)
		if tc.MaxConns < 10 {
			return fmt.Errorf("maxConns too small: %d", tc.MaxConns)
		}
		return nil
	})

	config := &TestConfig{}
	if err := cm.LoadConfig("strict", config); err == nil {
		t.Error("Expected registered validator error, got nil")
	}
}

// TestConfigChangeListener tests configuration change notification mechanism
func TestConfigChangeListener(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := writeConfigFile(t, tmpDir, "hook.yaml", `
name: "hook-server"
port: 8080
host: "localhost"
maxConns: 100
`)

	cm := NewConfigManager()
	cm.SetBasePath(tmpDir)

	listener := &TestChangeListener{}
	cm.AddChangeListener(listener)

	config := &TestConfig{}
	if err := cm.LoadConfig("hook", config); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	// Update configuration file to trigger config change
	if err := os.WriteFile(configFile, []byte(`
name: "hook-server-updated"
port: 9090
host: "localhost"
maxConns: 200
`), 0644); err != nil {
		t.Fatalf("Failed to update config file: %v", err)
	}

	// Wait for file change detection and config reload
	deadline := time.Now().Add(3 * time.Second)
	for atomic.LoadInt32(&listener.ChangeCount) == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}

	if atomic.LoadInt32(&listener.ChangeCount) == 0 {
		t.Fatal("Listener was not notified of config change")
	}

	listener.mu.Lock()
	defer listener.mu.Unlock()
	if listener.LastConfigName != "hook" {
		t.Errorf("Expected LastConfigName 'hook', got '%s'", listener.LastConfigName)
	}
	if listener.LastOldConfig == nil || listener.LastConfig == nil {
		t.Error("Listener did not receive config objects")
	}
	updated, ok := listener.LastConfig.(*TestConfig)
	if !ok {
		t.Fatalf("Expected *TestConfig, got %T", listener.LastConfig)
	}
	if updated.Port != 9090 {
		t.Errorf("Expected reloaded port 9090, got %d", updated.Port)
	}
}

// reentrantListener calls back into the manager from inside the change
// notification, the way the plugin registry does.
type reentrantListener struct {
	cm        ConfigManager
	notified  int32
	lookupErr atomic.Value
}

func (l *reentrantListener) OnConfigChanged(configName string, _, _ Config) error {
	if _, err := l.cm.GetConfig(configName); err != nil {
		l.lookupErr.Store(err)
	}
	atomic.AddInt32(&l.notified, 1)
	return nil
}

// TestChangeListenerReentrancy verifies a listener may call back into the
// manager during notification without deadlocking: listeners are notified
// after the reload lock is released.
func TestChangeListenerReentrancy(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := writeConfigFile(t, tmpDir, "reentrant.yaml", `
name: "reentrant-server"
port: 8080
host: "localhost"
maxConns: 100
`)

	cm := NewConfigManager()
	cm.SetBasePath(tmpDir)

	listener := &reentrantListener{cm: cm}
	cm.AddChangeListener(listener)

	config := &TestConfig{}
	if err := cm.LoadConfig("reentrant", config); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if err := os.WriteFile(configFile, []byte(`
name: "reentrant-server"
port: 9191
host: "localhost"
maxConns: 100
`), 0644); err != nil {
		t.Fatalf("Failed to update config file: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for atomic.LoadInt32(&listener.notified) == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}

	if atomic.LoadInt32(&listener.notified) == 0 {
		t.Fatal("Listener was not notified (reload deadlocked or never fired)")
	}
	if err := listener.lookupErr.Load(); err != nil {
		t.Fatalf("GetConfig inside listener failed: %v", err)
	}

	// The listener's lookup must observe the already-applied config.
	reloaded, err := cm.GetConfig("reentrant")
	if err != nil {
		t.Fatalf("GetConfig failed: %v", err)
	}
	if reloaded.(*TestConfig).Port != 9191 {
		t.Errorf("Expected reloaded port 9191, got %d", reloaded.(*TestConfig).Port)
	}
}

// TestDecode tests decoding of raw plugin payloads into typed configs
func TestDecode(t *testing.T) {
	raw := map[string]any{
		"name":     "decoded",
		"port":     1234,
		"host":     "example",
		"maxConns": 7,
	}

	config := &TestConfig{}
	if err := Decode(raw, config); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if config.Name != "decoded" || config.Port != 1234 || config.MaxConns != 7 {
		t.Errorf("Decode produced unexpected config: %+v", config)
	}
}
