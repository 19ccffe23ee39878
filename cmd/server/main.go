package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/admindata/internal/cryptox"
	"github.com/dmitrijs2005/admindata/internal/server"
	"github.com/dmitrijs2005/admindata/internal/server/auth"
	"github.com/dmitrijs2005/admindata/internal/server/config"
)

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()

	if cfg.IssueToken != "" {
		token, err := auth.GenerateToken(cfg.IssueToken, cryptox.SigningKey(cfg.SecretKey), cfg.TokenValidity)
		if err != nil {
			log.Fatalf("%v", err)
		}
		fmt.Println(token)
		return
	}

	app, err := server.NewApp(ctx, cfg, nil)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	if err := app.Run(ctx); err != nil {
		log.Printf("%v", err)
		stop()
		os.Exit(1)
	}

}
