// Package config loads and merges reviewgate configuration from multiple
// sources with viper.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (REVIEWGATE_PROVIDER, REVIEWGATE_MAX_DIFF_BYTES,
//     REVIEWGATE_CACHE_TTL_SECONDS, ...; see [EnvName])
//  3. Config file ($XDG_CONFIG_HOME/reviewgate/config.json)
//  4. Built-in defaults
//
// Use [Load] to obtain a merged [Config], [Save] to write the config file,
// and [SetField] to update a single key.
package config
