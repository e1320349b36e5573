// Package config loads, validates and persists the daemon settings shared
// by the voice-alarm binaries. Settings live in a YAML file; individual
// fields can be overridden through VOICEALARM_* environment variables.
package config
