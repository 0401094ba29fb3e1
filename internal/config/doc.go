// Package config loads, normalizes, and validates Stocksmith configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENROUTER_API_KEY. The Config type centralizes every knob the CLI needs,
// allowing data/export directories and generation credentials to be
// discovered in one pass.
//
// A missing API key is deliberately not a load failure: commands that never
// call the generation service (queue views, export, doctor) must keep working
// without credentials. The batch scheduler surfaces the missing key as
// per-item errors instead.
package config
