package config

import (
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "BUNDLEPACK"

// Override keys. Each maps to BUNDLEPACK_<KEY> and can also be bound to a
// CLI flag on the same viper instance.
const (
	KeyAssetRoot     = "asset_root"
	KeyOutputRoot    = "output_root"
	KeyPlatform      = "platform"
	KeyHashOnlyNames = "hash_only_names"
	KeyObfuscate     = "obfuscate"
	KeyLogLevel      = "log_level"
)

var overrideKeys = []string{KeyAssetRoot, KeyOutputRoot, KeyPlatform, KeyHashOnlyNames, KeyObfuscate, KeyLogLevel}

// NewOverrides returns a viper instance reading BUNDLEPACK_* variables.
func NewOverrides() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range overrideKeys {
		_ = v.BindEnv(k)
	}
	return v
}

// ApplyOverrides copies every override that is explicitly set on v onto
// cfg.Settings. Flag defaults do not count as set.
func ApplyOverrides(cfg *Config, v *viper.Viper) {
	if v == nil {
		return
	}
	if v.IsSet(KeyAssetRoot) {
		cfg.Settings.AssetRoot = v.GetString(KeyAssetRoot)
	}
	if v.IsSet(KeyOutputRoot) {
		cfg.Settings.OutputRoot = v.GetString(KeyOutputRoot)
	}
	if v.IsSet(KeyPlatform) {
		cfg.Settings.Platform = v.GetString(KeyPlatform)
	}
	if v.IsSet(KeyHashOnlyNames) {
		b := v.GetBool(KeyHashOnlyNames)
		cfg.Settings.HashOnlyNames = &b
	}
	if v.IsSet(KeyObfuscate) {
		cfg.Settings.Obfuscate = v.GetBool(KeyObfuscate)
	}
}
