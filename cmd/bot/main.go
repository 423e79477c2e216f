package main

import (
	"log"

	"github.com/m3rciful/meetbot/bot/app"
	botconfig "github.com/m3rciful/meetbot/bot/config"
	corecmd "github.com/m3rciful/meetbot/core/cmd"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config/config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return botconfig.Load(path)
		},
		Bootstrap: func(cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			return app.New(cfg.(*botconfig.Config))
		},
	})
	if err != nil {
		log.Fatalf("bot stopped: %v", err)
	}
}
