// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config manages the chatmux configuration file.
//
// # Key Types
//
//   - Config: the complete configuration (keys, data dir, UI settings)
//   - KeysConfig: per-provider API keys
//   - Watcher: fsnotify-backed live reload of the config file
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//	if !cfg.HasAnyKey() {
//		// prompt the user to add a key
//	}
//
// Config files are created with 0600 permissions because they hold API keys.
package config
