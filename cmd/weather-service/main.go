// weather-service 天气查询服务
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ceyewan/cityweather/internal/bootstrap"
	"github.com/ceyewan/cityweather/internal/weather"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := bootstrap.NewCommand("weather-service", "Weather lookup HTTP service", serve)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "weather-service:", err)
		stop()
		os.Exit(1)
	}
}

func serve(ctx context.Context, configFile string) error {
	var cfg weather.AppConfig
	if _, err := bootstrap.Load(ctx, configFile, "WEATHER", weather.Defaults(), &cfg); err != nil {
		return err
	}
	return weather.Run(ctx, &cfg)
}
