// Package config provides configuration loading and validation for the ROT13 echo service.
// It handles YAML-based configuration layered over built-in defaults, so the service runs
// on 0.0.0.0:10000 with no file at all.
package config
