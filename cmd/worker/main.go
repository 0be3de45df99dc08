package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/goliatone/go-auth-starter/app"
	"github.com/goliatone/go-auth-starter/config"
)

func main() {
	configPath := flag.String("config", "", "path to a config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("%v", err)
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)
	defer stop()

	a.Logger.Info("delivery worker consuming %s", a.Queue.Name())
	if err := a.Worker(nil).Run(ctx); err != nil {
		a.Logger.Error("worker stopped: %v", err)
	}
}
