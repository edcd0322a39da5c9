// Package config loads runtime configuration for the authgate CLI.
//
// Sources, later ones win:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. AUTHGATE_SERVER_URL and AUTHGATE_REQUEST_TIMEOUT from the environment.
//  3. Optional JSON file selected with -c or -config.
//  4. Command-line flags: -a (server URL) and -t (request timeout, seconds).
//
// JSON schema:
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "request_timeout": "10s"
//	}
package config
