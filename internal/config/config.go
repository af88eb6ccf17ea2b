// Package config provides functionality for managing configuration options
// for the application using command-line flags and environment variables.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"
)

// Options holds the configuration values for the application.
type Options struct {
	// VaultURL is the base URL of the vault service to authenticate against.
	VaultURL string

	// StorePath is the path of the JSON settings file backing the
	// credential cache.
	StorePath string

	// DatabaseDSN selects the PostgreSQL settings store instead of the
	// file store when non-empty.
	DatabaseDSN string

	// Namespace scopes the device identifier to this application.
	Namespace string

	// KeyIterations is the PBKDF2 iteration count for the local
	// encryption key. Zero means the built-in default.
	KeyIterations int

	// ListenAddr is the address the development vault stub listens on.
	ListenAddr string

	// AccountsPath is the JSON file of accounts served by the
	// development vault stub.
	AccountsPath string

	// Config is the path to the Config file.
	Config string
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.VaultURL, "url", "http://localhost:8080", "vault service base URL")
	flag.StringVar(&options.StorePath, "store", "vaultfill.json", "path to local settings file")
	flag.StringVar(&options.DatabaseDSN, "d", "", "db address")
	flag.StringVar(&options.Namespace, "namespace", "com.vaultfill.cli", "application namespace for the device identifier")
	flag.IntVar(&options.KeyIterations, "iterations", 0, "PBKDF2 iteration count (0 = default)")
	flag.StringVar(&options.ListenAddr, "a", "localhost:8080", "run on ip:port server")
	flag.StringVar(&options.AccountsPath, "accounts", "accounts.json", "path to stub accounts file")
	flag.StringVar(&options.Config, "config", "", "path to config file")
	flag.StringVar(&options.Config, "c", "", "path to config file (shorthand)")
}

// Parse parses the command-line flags and environment variables to set
// configuration values. It returns a pointer to the Options struct containing
// the parsed configuration values.
func Parse() *Options {
	flag.Parse()

	// Override flags with environment variables if set
	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				log.Fatalf("error while reading config file: %v", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				log.Fatalf("error while parsing config file: %v", err)
			}
		}
	}

	if vaultURL := os.Getenv("VAULT_URL"); vaultURL != "" {
		options.VaultURL = vaultURL
	}
	if addr := os.Getenv("SERVER_ADDRESS"); addr != "" {
		options.ListenAddr = addr
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		options.DatabaseDSN = dsn
	}

	return options
}
