package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/admindata/internal/client/cli"
	"github.com/dmitrijs2005/admindata/internal/client/config"
	"github.com/dmitrijs2005/admindata/internal/flagx"
)

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	app, err := cli.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx, flagx.Positionals(os.Args[1:], nil)); err != nil {
		log.Printf("%v", err)
		stop()
		os.Exit(1)
	}

}
