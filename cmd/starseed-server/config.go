package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/daniacca/starseed/internal/store"
	"github.com/daniacca/starseed/internal/worldgen"
)

// ServerConfig holds the server configuration
type ServerConfig struct {
	Addr           string
	DBPath         string
	ThemesFile     string
	MaxConcurrency int
	RateLimit      float64
	CORSOrigins    []string
	LogLevel       string
}

// configResolver defines how to resolve a single configuration value
type configResolver struct {
	flagName    string
	envVarName  string
	defaultVal  string
	description string
	setter      func(*ServerConfig, string) error
}

var resolvers = []configResolver{
	{
		flagName:    "addr",
		envVarName:  "STARSEED_ADDR",
		defaultVal:  ":62879",
		description: "HTTP listen address (e.g. :62879, 127.0.0.1:62879)",
		setter:      func(c *ServerConfig, v string) error { c.Addr = v; return nil },
	},
	{
		flagName:    "db-path",
		envVarName:  "STARSEED_DB_PATH",
		defaultVal:  "",
		description: "SQLite database for scan profiles; empty keeps profiles in memory",
		setter:      func(c *ServerConfig, v string) error { c.DBPath = v; return nil },
	},
	{
		flagName:    "themes-file",
		envVarName:  "STARSEED_THEMES_FILE",
		defaultVal:  "",
		description: "optional JSON theme catalog replacing the built-in one",
		setter:      func(c *ServerConfig, v string) error { c.ThemesFile = v; return nil },
	},
	{
		flagName:    "max-concurrency",
		envVarName:  "STARSEED_MAX_CONCURRENCY",
		defaultVal:  strconv.Itoa(runtime.NumCPU()),
		description: "upper bound on worker goroutines per scan",
		setter: func(c *ServerConfig, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				return fmt.Errorf("invalid max-concurrency %q: must be a positive integer", v)
			}
			c.MaxConcurrency = n
			return nil
		},
	},
	{
		flagName:    "rate-limit",
		envVarName:  "STARSEED_RATE_LIMIT",
		defaultVal:  "20",
		description: "WebSocket requests per second allowed on one connection; 0 disables the limit",
		setter: func(c *ServerConfig, v string) error {
			n, err := strconv.ParseFloat(v, 64)
			if err != nil || n < 0 {
				return fmt.Errorf("invalid rate-limit %q: must be a non-negative number", v)
			}
			c.RateLimit = n
			return nil
		},
	},
	{
		flagName:    "cors-origins",
		envVarName:  "STARSEED_CORS_ORIGINS",
		defaultVal:  "*",
		description: "comma separated list of allowed CORS origins",
		setter: func(c *ServerConfig, v string) error {
			c.CORSOrigins = nil
			for _, origin := range strings.Split(v, ",") {
				if origin = strings.TrimSpace(origin); origin != "" {
					c.CORSOrigins = append(c.CORSOrigins, origin)
				}
			}
			return nil
		},
	},
	{
		flagName:    "log-level",
		envVarName:  "STARSEED_LOG_LEVEL",
		defaultVal:  "info",
		description: "Log level: debug, info, warn, error",
		setter:      func(c *ServerConfig, v string) error { c.LogLevel = v; return nil },
	},
}

// loadDotEnv loads variables from a .env file in the working directory.
// A missing file is not an error.
func loadDotEnv(logger *Logger) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warnf("cannot load .env file: %v", err)
	}
}

// loadServerConfig resolves every option: flag first, then environment
// variable, then default.
func loadServerConfig(fs *flag.FlagSet, args []string) (ServerConfig, error) {
	cfg := ServerConfig{}

	flagVars := make(map[string]*string, len(resolvers))
	for _, resolver := range resolvers {
		flagVars[resolver.flagName] = fs.String(resolver.flagName, "", resolver.description)
	}
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	for _, resolver := range resolvers {
		var value string
		if *flagVars[resolver.flagName] != "" {
			value = *flagVars[resolver.flagName]
		} else if envValue := os.Getenv(resolver.envVarName); envValue != "" {
			value = envValue
		} else {
			value = resolver.defaultVal
		}
		if err := resolver.setter(&cfg, value); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// loadCatalog returns the theme catalog named by the config, or the
// built-in one.
func loadCatalog(cfg ServerConfig) (*worldgen.Catalog, error) {
	if cfg.ThemesFile == "" {
		return worldgen.DefaultCatalog(), nil
	}
	return worldgen.LoadCatalog(cfg.ThemesFile)
}

// openStore opens the SQLite profile store, or an in-memory one when no
// database path is configured.
func openStore(cfg ServerConfig) (store.Store, error) {
	if cfg.DBPath == "" {
		return store.NewMemoryStore(), nil
	}
	st, err := store.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	return st, nil
}
