package main

import (
	"context"
	"flag"
	"log"

	"reelmatch/internal/config"
	"reelmatch/internal/daemonrun"
)

func main() {
	configPath := flag.String("config", "", "Path to the configuration file")
	diagnostic := flag.Bool("diagnostic", false, "Enable diagnostic mode with DEBUG logging")
	flag.Parse()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	opts := daemonrun.Options{
		LogLevel:   cfg.Logging.Level,
		Diagnostic: *diagnostic,
	}
	if err := daemonrun.Run(context.Background(), cfg, opts); err != nil {
		log.Fatalf("run daemon: %v", err)
	}
}
