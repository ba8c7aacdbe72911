// Package plugin is the process-wide component registry: factories register
// themselves by type and name during package initialization, instances are
// built from configuration with rollback on partial failure, and live
// instances are retrieved by a stable identity so every caller operates on
// the same shared component.
package plugin

import (
	"fmt"
	"strings"
	"sync"

	"github.com/lcx/emberlog/config"
	"github.com/lcx/emberlog/log"
)

// Type represents the plugin type supported by the system.
// Each type corresponds to a specific category of functionality.
type Type string

const (
	// Profiling identifies performance-profiling plugins.
	Profiling Type = "profiling"
)

const (
	DefaultInsName = "default" // DefaultInsName is the default instance name when not specified in config.
)

// PluginConfig represents the plugin configuration structure.
// Structure: map[plugin_type][factory_name] = config_items
// Example YAML:
//
//	profiling:
//	  sampling:
//	    samplerate: 0.05
//	    tag: ingest  # Instance name (optional, defaults to "default")
type PluginConfig map[string]map[string]map[string]any //nolint:revive

// GetName implements the config.Config interface.
func (c *PluginConfig) GetName() string {
	return "plugin"
}

// Validate implements the config.Config interface.
func (c *PluginConfig) Validate() error {
	if c == nil || len(*c) == 0 {
		return fmt.Errorf("plugin config is empty")
	}

	for pluginType, factories := range *c {
		if len(factories) == 0 {
			return fmt.Errorf("plugin type %s has no factory config", pluginType)
		}
		for factoryName, instances := range factories {
			if len(instances) == 0 {
				return fmt.Errorf("plugin %s_%s has no instance config", pluginType, factoryName)
			}
		}
	}

	return nil
}

// Plugin represents the plugin instance interface.
// All plugin implementations must satisfy this interface.
type Plugin interface { //nolint:revive
	FactoryName() string
}

// MetadataProvider is optionally implemented by plugins that expose
// registration metadata (e.g. {type: "profiling", sample_rate: 0.01}).
// Metadata is captured at registration time and served by GetPluginMeta.
type MetadataProvider interface {
	PluginInfo() map[string]any
}

// registry holds live plugin instances and their registration metadata.
type registry struct {
	insMap  map[string]map[string]map[string]Plugin
	metaMap map[string]map[string]any
}

var (
	_pluginLock sync.RWMutex
	_registry   = &registry{
		insMap:  make(map[string]map[string]map[string]Plugin),
		metaMap: make(map[string]map[string]any),
	}
)

// RegisterPlugin registers a plugin factory with the registry.
// This should be called during package initialization (init function).
// Thread-safe: uses global lock for concurrent registration.
func RegisterPlugin(f Factory) {
	_pluginLock.Lock()
	defer _pluginLock.Unlock()
	_factoryMap[fmt.Sprintf("%s_%s", f.Type(), f.Name())] = f
}

// InitPlugins initializes all plugins with automatic rollback on partial failure.
// Loads the "plugin" configuration from the singleton ConfigManager and
// registers the registry as a config change listener for hot reload.
// IMPORTANT: Must be called after config.GetInstance() is initialized.
func InitPlugins() error {
	cm := config.GetInstance()

	var cfg PluginConfig
	if err := cm.LoadConfig("plugin", &cfg); err != nil {
		return fmt.Errorf("load plugin config failed: %w", err)
	}

	cm.AddChangeListener(&configListener{})
	log.Info().Msg("plugin registry registered as config change listener")

	return setupFromConfig(&cfg)
}

// SetupFromConfigForTesting builds instances from an in-memory config,
// bypassing the ConfigManager singleton. Intended for tests; pair with
// ResetForTesting.
func SetupFromConfigForTesting(cfg *PluginConfig) error {
	return setupFromConfig(cfg)
}

// setupFromConfig builds instances for every configured factory, rolling
// back everything already built when any step fails.
func setupFromConfig(cfg *PluginConfig) error {
	_pluginLock.Lock()
	defer _pluginLock.Unlock()

	initialized := make([]initializedPlugin, 0)

	for ft, factories := range *cfg {
		haveDefault := false
		for k, c := range factories {
			fn := getFactoryName(k)
			f := factoryLocked(ft, fn)
			if f == nil {
				rollbackLocked(initialized)
				return fmt.Errorf("plugin factory [%s/%s] not found, available factories: %v",
					ft, fn, availableFactoriesLocked(ft))
			}

			log.Info().Str("type", string(f.Type())).Str("name", f.Name()).Msg("plugin setup begin")
			ins, err := f.Setup(c)
			if err != nil {
				rollbackLocked(initialized)
				return fmt.Errorf("plugin [%s/%s] setup failed: %w", ft, fn, err)
			}

			pn := instanceNameFromCfg(c)
			if pn == DefaultInsName {
				if haveDefault {
					rollbackLocked(initialized)
					return fmt.Errorf("plugin type [%s] default instance already exists", ft)
				}
				haveDefault = true
			}
			if err := registerInstanceLocked(ft, fn, pn, ins); err != nil {
				_ = f.Destroy(ins, nil)
				rollbackLocked(initialized)
				return err
			}

			initialized = append(initialized, initializedPlugin{ft, fn, pn, ins})
			log.Info().Str("type", string(f.Type())).Str("name", f.Name()).
				Str("instance", pn).Msg("plugin setup success")
		}
	}

	log.Info().Int("count", len(initialized)).Msg("InitPlugins success")
	return nil
}

type initializedPlugin struct {
	ft, fn, pn string
	ins        Plugin
}

// configListener applies plugin configuration changes at runtime.
type configListener struct{}

// OnConfigChanged implements the config.ConfigChangeListener interface.
// Hot reload strategy: for every configured instance that already exists,
// try the factory's lightweight Reload first; instances that refuse are
// destroyed and recreated, provided CanDelete allows it.
func (l *configListener) OnConfigChanged(configName string, newConfig, oldConfig config.Config) error {
	if configName != "plugin" {
		return nil
	}

	newCfg, ok := newConfig.(*PluginConfig)
	if !ok {
		return fmt.Errorf("invalid config type: expected *PluginConfig, got %T", newConfig)
	}
	if oldConfig == nil {
		log.Info().Msg("old config is nil, skipping hot reload")
		return nil
	}

	log.Info().Str("config", configName).Msg("plugin config changed, performing hot reload...")

	_pluginLock.Lock()
	defer _pluginLock.Unlock()

	for ft, factories := range *newCfg {
		for k, c := range factories {
			fn := getFactoryName(k)
			pn := instanceNameFromCfg(c)

			f := factoryLocked(ft, fn)
			if f == nil {
				log.Warn().Str("type", ft).Str("factory", fn).Msg("factory not found during hot reload")
				continue
			}

			ins := instanceLocked(ft, fn, pn)
			if ins == nil {
				// New instance appeared in config.
				created, err := f.Setup(c)
				if err != nil {
					log.Error().Err(err).Str("type", ft).Str("factory", fn).
						Str("instance", pn).Msg("hot reload setup failed")
					continue
				}
				if err := registerInstanceLocked(ft, fn, pn, created); err != nil {
					_ = f.Destroy(created, nil)
					log.Error().Err(err).Str("type", ft).Str("factory", fn).
						Str("instance", pn).Msg("hot reload register failed")
				}
				continue
			}

			// Existing instance: lightweight reload first.
			if err := f.Reload(ins, c); err == nil {
				refreshMetadataLocked(ft, fn, pn, ins)
				log.Info().Str("type", ft).Str("factory", fn).
					Str("instance", pn).Msg("hot reload success (lightweight)")
				continue
			}

			if !f.CanDelete(ins) {
				log.Warn().Str("type", ft).Str("factory", fn).
					Str("instance", pn).Msg("hot reload skipped: instance busy")
				continue
			}

			if err := f.Destroy(ins, nil); err != nil {
				log.Error().Err(err).Str("type", ft).Str("factory", fn).
					Str("instance", pn).Msg("destroy during hot reload failed")
				continue
			}
			removeInstanceLocked(ft, fn, pn)

			created, err := f.Setup(c)
			if err != nil {
				log.Error().Err(err).Str("type", ft).Str("factory", fn).
					Str("instance", pn).Msg("recreate during hot reload failed")
				continue
			}
			if err := registerInstanceLocked(ft, fn, pn, created); err != nil {
				_ = f.Destroy(created, nil)
				log.Error().Err(err).Str("type", ft).Str("factory", fn).
					Str("instance", pn).Msg("re-register during hot reload failed")
				continue
			}
			log.Info().Str("type", ft).Str("factory", fn).
				Str("instance", pn).Msg("hot reload success (recreated)")
		}
	}

	return nil
}

// registerInstanceLocked stores an instance and captures its metadata.
// Caller holds _pluginLock.
func registerInstanceLocked(ft, fn, pn string, ins Plugin) error {
	if _registry.insMap[ft] == nil {
		_registry.insMap[ft] = make(map[string]map[string]Plugin)
	}
	if _registry.insMap[ft][fn] == nil {
		_registry.insMap[ft][fn] = make(map[string]Plugin)
	}
	if _, exists := _registry.insMap[ft][fn][pn]; exists {
		return fmt.Errorf("plugin instance [%s/%s/%s] already registered", ft, fn, pn)
	}

	_registry.insMap[ft][fn][pn] = ins
	refreshMetadataLocked(ft, fn, pn, ins)
	return nil
}

func refreshMetadataLocked(ft, fn, pn string, ins Plugin) {
	if mp, ok := ins.(MetadataProvider); ok {
		_registry.metaMap[metaKey(ft, fn, pn)] = mp.PluginInfo()
	}
}

func removeInstanceLocked(ft, fn, pn string) {
	if m := _registry.insMap[ft]; m != nil && m[fn] != nil {
		delete(m[fn], pn)
	}
	delete(_registry.metaMap, metaKey(ft, fn, pn))
}

func metaKey(ft, fn, pn string) string {
	return fmt.Sprintf("%s/%s/%s", ft, fn, pn)
}

// factoryLocked retrieves a plugin factory. Caller holds _pluginLock (any mode).
func factoryLocked(ft string, fn string) Factory {
	return _factoryMap[fmt.Sprintf("%s_%s", ft, fn)]
}

// instanceLocked retrieves an instance or nil. Caller holds _pluginLock.
func instanceLocked(ft, fn, pn string) Plugin {
	if m := _registry.insMap[ft]; m != nil && m[fn] != nil {
		return m[fn][pn]
	}
	return nil
}

// instanceNameFromCfg extracts the tag from config key-value pairs.
func instanceNameFromCfg(c map[string]any) string {
	t, ok := c["tag"]
	if !ok {
		return DefaultInsName
	}
	tag, ok := t.(string)
	if !ok {
		return DefaultInsName
	}
	return tag
}

func getFactoryName(fn string) string {
	return strings.Split(fn, "_")[0]
}

// GetPlugin retrieves a live plugin instance (thread-safe, zero-copy).
// ft: plugin type (e.g., "profiling")
// fn: factory name (e.g., "sampling")
// pn: instance name (e.g., "ingest")
// Returns: plugin instance (requires type assertion), error.
func GetPlugin(ft, fn, pn string) (Plugin, error) {
	_pluginLock.RLock()
	defer _pluginLock.RUnlock()

	typeMap, ok := _registry.insMap[ft]
	if !ok {
		return nil, fmt.Errorf("plugin type [%s] not registered", ft)
	}

	factoryMap, ok := typeMap[fn]
	if !ok {
		return nil, fmt.Errorf("plugin factory [%s/%s] not found", ft, fn)
	}

	ins, ok := factoryMap[pn]
	if !ok {
		return nil, fmt.Errorf("plugin instance [%s/%s/%s] not found", ft, fn, pn)
	}

	return ins, nil
}

// GetDefaultPlugin retrieves the default instance (simplifies the common
// single-instance case).
func GetDefaultPlugin(ft, fn string) (Plugin, error) {
	return GetPlugin(ft, fn, DefaultInsName)
}

// MustGetPlugin retrieves a plugin and terminates on failure. Use for
// critical components during startup.
func MustGetPlugin(ft, fn, pn string) Plugin {
	ins, err := GetPlugin(ft, fn, pn)
	if err != nil {
		log.Fatal().Err(err).Str("type", ft).Str("factory", fn).
			Str("instance", pn).Msg("critical plugin not found")
	}
	return ins
}

// GetPluginMeta returns the registration metadata captured from a
// MetadataProvider instance, or nil when the instance exposes none.
func GetPluginMeta(ft, fn, pn string) map[string]any {
	_pluginLock.RLock()
	defer _pluginLock.RUnlock()
	return _registry.metaMap[metaKey(ft, fn, pn)]
}

// ListPlugins lists all registered plugins (for monitoring/debugging).
// Return format: map["profiling/sampling"] = ["default", "ingest"].
func ListPlugins() map[string][]string {
	_pluginLock.RLock()
	defer _pluginLock.RUnlock()

	result := make(map[string][]string)
	for ft, typeMap := range _registry.insMap {
		for fn, factoryMap := range typeMap {
			key := fmt.Sprintf("%s/%s", ft, fn)
			for pn := range factoryMap {
				result[key] = append(result[key], pn)
			}
		}
	}
	return result
}

// ResetForTesting clears all registered instances and metadata. Factories
// stay registered (they come from init functions). Intended for tests.
func ResetForTesting() {
	_pluginLock.Lock()
	defer _pluginLock.Unlock()
	_registry.insMap = make(map[string]map[string]map[string]Plugin)
	_registry.metaMap = make(map[string]map[string]any)
}

// rollbackLocked destroys plugins in reverse initialization order.
// Caller holds _pluginLock.
func rollbackLocked(plugins []initializedPlugin) {
	if len(plugins) == 0 {
		return
	}

	log.Warn().Int("count", len(plugins)).Msg("rolling back initialized plugins...")

	for i := len(plugins) - 1; i >= 0; i-- {
		p := plugins[i]
		factory := factoryLocked(p.ft, p.fn)
		if factory == nil {
			continue
		}

		if err := factory.Destroy(p.ins, nil); err != nil {
			log.Error().Err(err).Str("type", p.ft).Str("factory", p.fn).
				Str("instance", p.pn).Msg("rollback failed")
		}
	}

	_registry.insMap = make(map[string]map[string]map[string]Plugin)
	_registry.metaMap = make(map[string]map[string]any)

	log.Info().Msg("rollback completed")
}

// availableFactoriesLocked lists factories for error messages.
// Caller holds _pluginLock.
func availableFactoriesLocked(ft string) []string {
	var factories []string
	for key := range _factoryMap {
		if strings.HasPrefix(key, ft+"_") {
			factories = append(factories, strings.TrimPrefix(key, ft+"_"))
		}
	}
	return factories
}
