// city-service 城市目录服务
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ceyewan/cityweather/internal/bootstrap"
	"github.com/ceyewan/cityweather/internal/city"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := bootstrap.NewCommand("city-service", "City catalog HTTP service", serve)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "city-service:", err)
		stop()
		os.Exit(1)
	}
}

func serve(ctx context.Context, configFile string) error {
	var cfg city.AppConfig
	loader, err := bootstrap.Load(ctx, configFile, "CITY", city.Defaults(), &cfg)
	if err != nil {
		return err
	}

	app, err := bootstrap.New(&cfg.Config)
	if err != nil {
		return err
	}
	app.WatchLogLevel(ctx, loader)

	handler, err := city.NewServer(ctx, app, &cfg)
	if err != nil {
		return err
	}
	return app.Run(ctx, handler)
}
