// Package config loads the nmc-mcp configuration.
//
// Settings come from, in increasing order of precedence:
//
//  1. built-in defaults (see Defaults)
//  2. an optional YAML or TOML file (--config or NMC_CONFIG) with flat
//     snake_case keys such as base_url, verify_ssl or rate_limit
//  3. a dotenv file (.env by default; a missing default file is ignored)
//  4. the process environment
//
// The legacy FILERS_API_URL, FILERS_USERNAME and FILERS_PASSWORD variables
// are accepted as fallbacks for API_BASE_URL, NMC_USERNAME and NMC_PASSWORD.
//
// Load validates the result and reports every problem at once as an
// *api.ConfigError, which the CLI maps to a dedicated exit code.
package config
