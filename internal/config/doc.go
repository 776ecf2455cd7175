// Package config loads and validates relayd configuration.
//
// Configuration comes from three layers, later layers winning:
//   - built-in defaults (defaults.go)
//   - an optional YAML file with ${VAR} environment expansion
//   - the two optional positional arguments (bind host, port)
package config
