package main

import (
	"net/http"
	"os"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"aqiwatch/app"
	"aqiwatch/config"
	"aqiwatch/lib/monitor"
	"aqiwatch/lib/store"
	"aqiwatch/lib/telemetry"
	"aqiwatch/senders"
)

func NewLogger() (*zap.Logger, error) {
	switch os.Getenv("ENVIRONMENT") {
	default:
		return zap.NewDevelopment()

	case "production":
		logCfg := zap.NewProductionConfig()
		logCfg.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			t = t.UTC()
			zapcore.ISO8601TimeEncoder(t, enc)
		}
		return logCfg.Build()
	}
}

func main() {
	fx.New(
		fx.Provide(config.NewConfig),
		fx.Provide(NewLogger),

		fx.Provide(app.NewTransport),
		fx.Provide(app.NewDatabase),
		fx.Provide(store.NewSubscribers),
		fx.Provide(telemetry.NewClient),
		fx.Provide(func(c *telemetry.Client) monitor.ReadingSource { return c }),
		fx.Provide(senders.NewSenderRegistry),
		fx.Provide(monitor.NewMonitor),
		fx.Provide(app.NewService),
		fx.Provide(app.NewAPI),

		fx.Invoke(func(*monitor.Monitor) {}),
		fx.Invoke(func(*http.Server) {}),
	).Run()
}
