package main

import (
	"log"

	corecmd "github.com/m3rciful/meteobot/core/cmd"
	"github.com/m3rciful/meteobot/meteo/app"
	"github.com/m3rciful/meteobot/meteo/config"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return config.Load(path)
		},
		Bootstrap: app.Bootstrap,
	})
	if err != nil {
		log.Fatalf("meteobot: %v", err)
	}
}
