package cli

import (
	"flag"
	"os"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/ojudge/identity/internal/flagx"
)

// Config holds the operator client's settings. Precedence is
// defaults < env vars < command-line flags.
type Config struct {
	ServerEndpointAddr string `env:"IDENTITY_CLI_SERVER"`
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://localhost:8080"
}

func parseEnv(c *Config) {
	_ = godotenv.Load()
	if err := env.Parse(c); err != nil {
		panic(err)
	}
}

func parseFlags(c *Config) {
	fs := flag.NewFlagSet("cli", flag.ContinueOnError)
	fs.StringVar(&c.ServerEndpointAddr, "a", c.ServerEndpointAddr, "server base URL")
	_ = fs.Parse(flagx.FilterArgs(os.Args[1:], []string{"-a"}))
}

func LoadConfig() *Config {
	c := &Config{}
	c.LoadDefaults()
	parseEnv(c)
	parseFlags(c)
	return c
}
