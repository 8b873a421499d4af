// Package config loads, normalizes, and validates the TOML configuration
// shared by the daemon and CLI. Defaults live in defaults.go, path expansion
// and trimming in normalize.go, and structural checks in validate.go. The
// embedded sample_config.toml documents every knob and is written verbatim
// by `coachcast config init`.
package config
