// Package config holds the options of a jssift run: command-line settings,
// the optional .jssift YAML file with per-host request settings, and the
// XDG directories used for run history.
package config
