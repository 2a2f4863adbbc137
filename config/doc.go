// SPDX-License-Identifier: EPL-2.0

// Package config holds the settings for the audmix program.
//
// Settings come from three layers, later ones winning: the built-in
// Default, an optional YAML file, and AUDMIX_* environment variables.
// A variable that does not parse is ignored.
package config
