// Package file loads solsync configuration from a TOML file.
//
// Configuration lives at ~/.solsync/config.toml by default. The source
// list is required and validated at load time; everything else has a
// working default so a minimal config file only names its sources.
package file
