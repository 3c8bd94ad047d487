package main

import (
	"context"
	"os"

	"github.com/dmitrijs2005/folio/internal/cli"
	"github.com/dmitrijs2005/folio/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app := cli.NewApp(cfg, os.Stdin, os.Stdout)

	os.Exit(app.Run(ctx, cli.CommandArgs(os.Args[1:])))

}
