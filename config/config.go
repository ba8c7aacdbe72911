package config

import (
	"github.com/spf13/viper"
)

// Config interface defines the basic configuration contract
type Config interface {
	GetName() string
	Validate() error
}

// ConfigChangeListener receives notifications after a watched configuration
// file has been reloaded and validated. Listeners must not retain newConfig
// beyond the call if they mutate it.
type ConfigChangeListener interface { //nolint:revive
	OnConfigChanged(configName string, newConfig, oldConfig Config) error
}

// Decode unmarshals a raw configuration payload (as delivered by the plugin
// registry, map[string]any) into a typed configuration struct using the same
// mapstructure conventions as file-based loading.
func Decode(raw map[string]any, out any) error {
	v := viper.New()
	if err := v.MergeConfigMap(raw); err != nil {
		return err
	}
	return v.Unmarshal(out)
}
