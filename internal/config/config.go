// Package config provides functionality for managing configuration options
// for the application using command-line flags, a JSON file, and
// environment variables (applied in that order).
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"address"`

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string `json:"database_dsn"`

	// Config is the path to the Config file.
	Config string `json:"-"`

	// JWTSecret signs bearer tokens.
	JWTSecret string `json:"jwt_secret"`
	// TokenTTL is the lifetime of issued tokens; zero means no expiry.
	TokenTTL Duration `json:"token_ttl"`

	// AdminName, AdminEmail and AdminPassword describe the account seeded
	// on first boot when no administrator exists.
	AdminName     string `json:"admin_name"`
	AdminEmail    string `json:"admin_email"`
	AdminPassword string `json:"admin_password"`

	// AllowAdminSignup honours the isAdmin flag in registration requests.
	AllowAdminSignup bool `json:"allow_admin_signup"`

	LogLevel string `json:"log_level"`

	// TLSCert and TLSKey switch the server to HTTPS when both are set.
	TLSCert string `json:"tls_cert"`
	TLSKey  string `json:"tls_key"`
}

// Duration is a time.Duration that decodes from JSON strings like "24h".
type Duration time.Duration

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// options holds the current configuration values.
var options = Default()

// Default returns the built-in configuration.
func Default() *Options {
	return &Options{
		Port:             "localhost:8080",
		Config:           "config.json",
		AdminName:        "Admin User",
		AdminEmail:       "admin@example.com",
		AdminPassword:    "Admin123!",
		AllowAdminSignup: true,
		LogLevel:         "info",
	}
}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.Port, "a", options.Port, "run on ip:port server")
	flag.StringVar(&options.DatabaseDSN, "d", "", "db address")
	flag.StringVar(&options.Config, "config", options.Config, "path to config file")
	flag.StringVar(&options.Config, "c", options.Config, "path to config file (shorthand)")
	flag.StringVar(&options.JWTSecret, "jwt-secret", "", "secret used to sign bearer tokens")
	flag.StringVar(&options.LogLevel, "log-level", options.LogLevel, "log level (debug, info, warn, error)")
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

	if err := LoadFile(options, options.Config); err != nil {
		log.Fatal(err)
	}
	if err := ApplyEnv(options, os.Getenv); err != nil {
		log.Fatal(err)
	}

	return options
}

// LoadFile merges the JSON file at path into o. A missing file is ignored.
func LoadFile(o *Options, path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error while reading config file: %w", err)
	}
	if err := json.Unmarshal(data, o); err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}
	return nil
}

// ApplyEnv overrides o with environment variables looked up by getenv.
func ApplyEnv(o *Options, getenv func(string) string) error {
	strs := map[string]*string{
		"SERVER_ADDRESS": &o.Port,
		"DATABASE_DSN":   &o.DatabaseDSN,
		"JWT_SECRET":     &o.JWTSecret,
		"ADMIN_NAME":     &o.AdminName,
		"ADMIN_EMAIL":    &o.AdminEmail,
		"ADMIN_PASSWORD": &o.AdminPassword,
		"LOG_LEVEL":      &o.LogLevel,
		"TLS_CERT":       &o.TLSCert,
		"TLS_KEY":        &o.TLSKey,
	}
	for key, dst := range strs {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	if v := getenv("TOKEN_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TOKEN_TTL: %w", err)
		}
		o.TokenTTL = Duration(ttl)
	}
	if v := getenv("ALLOW_ADMIN_SIGNUP"); v != "" {
		allow, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("ALLOW_ADMIN_SIGNUP: %w", err)
		}
		o.AllowAdminSignup = allow
	}
	return nil
}
