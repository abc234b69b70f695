package config

import "time"

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			IP:   "0.0.0.0",
			Port: 8000,
		},
		Log: LogConfig{
			Level: "INFO",
			Dir:   "data/logs",
			File:  "server.log",
		},
		Web: WebConfig{
			StaticDir: "./web",
		},
		Database: DatabaseConfig{
			DSN: "data/catalog.db",
		},
		Auth: AuthConfig{
			TokenTTL: 30 * time.Minute,
			Store: AuthStoreConfig{
				Driver: "sqlite",
			},
		},
		Cache: CacheConfig{
			Driver:        "memory",
			DefaultTTL:    60 * time.Second,
			SweepInterval: 5 * time.Minute,
		},
		Tasks: TaskConfig{
			Workers:   4,
			QueueSize: 64,
		},
	}
}
