package plugin

// Factory defines the plugin factory interface.
// Each plugin type must implement this interface to support lifecycle management.
//
// Lifecycle methods:
//   - Setup: Initialize plugin instance with configuration
//   - Destroy: Clean up plugin resources
//   - Reload: Hot reload plugin with new configuration (optional, can return error if not supported)
//   - CanDelete: Check if plugin can be safely deleted
//
// Thread-safety: Factory implementations must be thread-safe for concurrent Setup/Destroy calls.
type Factory interface {
	// Type returns the plugin type (e.g., "profiling")
	Type() Type

	// Name returns the factory name (e.g., "sampling")
	Name() string

	// Setup initializes a new plugin instance with the given configuration.
	// Returns the plugin instance or error if initialization fails.
	Setup(v map[string]any) (Plugin, error)

	// Destroy cleans up plugin resources. The second parameter is reserved
	// for future use (e.g., graceful shutdown timeout).
	Destroy(Plugin, any) error

	// Reload hot reloads the plugin with new configuration.
	// Returns error if hot reload is not supported or fails.
	Reload(Plugin, map[string]any) error

	// CanDelete checks if the plugin can be safely deleted.
	// Returns false if plugin is processing critical tasks.
	CanDelete(Plugin) bool
}

var (
	// _factoryMap stores all registered plugin factories.
	// Key format: "<plugin_type>_<factory_name>" (e.g., "profiling_sampling")
	// Protected by _pluginLock in plugin.go for thread-safe access.
	_factoryMap = make(map[string]Factory)
)
