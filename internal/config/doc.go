// Package config loads, normalizes, and validates the agentlaunch TOML
// configuration.
//
// Configuration resolves from an explicit path, then
// ~/.config/agentlaunch/config.toml, then agentlaunch.toml in the working
// directory. Missing files fall back to repository defaults so the wizard
// works out of the box; only values that gate optional integrations (the
// Fal key) are allowed to stay empty.
package config
