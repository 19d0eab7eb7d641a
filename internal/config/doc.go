// Package config loads, normalizes, and validates mvs configuration data.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// a `.env` file from the working directory, decodes TOML, and applies the
// MVS_* environment overrides. The Config type centralizes every knob the CLI,
// the watch preview, and the library server need.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, canonical log formats, and clear validation errors.
package config
