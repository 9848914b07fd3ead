package main

import (
	"context"

	"github.com/vikinglab/contentvault/internal/client/cli"
	"github.com/vikinglab/contentvault/internal/client/config"
)

func main() {

	cfg := config.LoadConfig()
	app := cli.NewApp(cfg)

	app.Run(context.Background())
}
