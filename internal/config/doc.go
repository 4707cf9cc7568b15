// Package config provides the configuration of caselift: defaults, the
// optional .caselift YAML file and validation. Values from the file are
// merged over the defaults, and CLI flags are applied last by the caller.
package config
