package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// parseEnv overlays Config fields from the process environment. A local
// .env file, when present, is loaded first without overriding variables
// already set in the environment. Variables that are unset leave the
// corresponding Config field untouched.
func parseEnv(config *Config) {
	// Missing .env is the normal case outside development.
	_ = godotenv.Load()

	if err := env.Parse(config); err != nil {
		panic(err)
	}
}
