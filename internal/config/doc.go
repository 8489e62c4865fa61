// Package config provides configuration management for the launcher.
//
// This package handles:
//   - Loading and saving settings from JSON files
//   - Default configuration values
//   - Derived cache-directory paths under the launcher root
//
// # Default Settings
//
// Use DefaultSettings() to get sensible defaults:
//
//	settings := config.DefaultSettings()
//	// Caches under ~/.synthlab-launcher
//	// Production metadata and identity endpoints
//	// 16 concurrent downloads, exponential retry
//
// # Loading from File
//
//	settings, err := config.Load("/path/to/config.json")
//	if err != nil {
//	    // Uses defaults if file doesn't exist
//	}
//
// # Endpoint Overrides
//
// Every remote endpoint (manifest, asset base, device-code, token,
// profile) is a plain settings field, so tests point them at local
// httptest servers and alternative deployments can swap providers without
// code changes.
package config
