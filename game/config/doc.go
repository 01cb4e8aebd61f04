// Package config provides configuration management for the falling-block game.
//
// The config package handles:
//   - Loading game configurations from JSON files
//   - Default configuration selection
//   - Configuration discovery and listing
//   - Saving new configurations
//
// Configuration Format:
//
// Game configurations are stored as JSON files in the configs directory.
// The file name without its extension is the config id used when creating
// a session. Each configuration defines:
//   - name and description
//   - seed for the piece randomizer (0 means seed from the clock)
//   - gravity, whether the server drops the piece on a timer
//   - layout, up to 16 bottom rows of 10 characters ('.' empty, or one of IJLOSTZ)
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameConfig, err := manager.LoadConfig("drill")
//	defaultConfig := manager.GetDefault()
//	configs, err := manager.ListConfigs()
//
// When classic.json is missing the first valid file becomes the default,
// and an empty directory falls back to a built-in empty board with gravity.
package config
