package main

import (
	"context"

	"github.com/ojudge/identity/internal/cli"
)

func main() {
	ctx := context.Background()
	cfg := cli.LoadConfig()
	app := cli.NewApp(cfg)
	app.Run(ctx)
}
