package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goliatone/go-auth-starter/app"
	"github.com/goliatone/go-auth-starter/config"
)

func main() {
	configPath := flag.String("config", "", "path to a config file")
	migrate := flag.Bool("migrate", false, "apply pending migrations before serving")
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

	if *migrate {
		n, err := a.Migrate(ctx)
		if err != nil {
			a.Logger.Error("migrations failed: %v", err)
			os.Exit(1)
		}
		a.Logger.Info("applied %d migrations", n)
	}

	server := a.HTTP()

	go func() {
		a.Logger.Info("http server listening on %s", cfg.HTTP.Addr)
		if err := server.Serve(cfg.HTTP.Addr); err != nil {
			a.Logger.Error("http server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	a.Logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error("http server shutdown: %v", err)
	}
}
