// Package config is the viper-backed configuration loader shared by
// every jinshu binary, grounded on
// orbas1-Synnergy/synnergy-network/pkg/config's Load. A field can be
// overridden by an environment variable using the double-underscore
// hierarchy JINSHU__SECTION__FIELD (e.g. JINSHU__ETCD__ENDPOINTS),
// matching a viper.SetEnvKeyReplacer(".", "__") convention over the
// "." nesting that mapstructure tags produce. Only keys that appear in
// the loaded config file are looked up in the environment; a field
// that the file does not mention keeps its Go default even when the
// matching variable is set.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix applied to every environment variable
// override.
const EnvPrefix = "JINSHU"

// Load reads configName (searched under ./config and .) plus any
// JINSHU__ environment overrides, and unmarshals the result into dst.
// configName is typically the binary name ("comet", "receiver",
// "pusher", "authorizer"); an empty configName loads the bundled
// defaults only.
func Load(configName string, dst any) error {
	v := viper.New()

	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	// viper joins prefix and key with one "_"; the extra "_" here makes
	// the separator after JINSHU a double underscore like the others.
	v.SetEnvPrefix(EnvPrefix + "_")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	v.AutomaticEnv()

	if configName != "" {
		v.SetConfigName(configName)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return fmt.Errorf("config: read %s: %w", configName, err)
			}
		}
	}

	if err := v.Unmarshal(dst); err != nil {
		return fmt.Errorf("config: unmarshal: %w", err)
	}

	return nil
}
