package main

import (
	"flag"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"bored/internal/bored"
)

func main() {
	var (
		configPath string
		debug      bool
		clearCache bool
	)
	flag.StringVar(&configPath, "config", getenvDefault("BORED_CONFIG", ""), "path to bored.yaml")
	flag.BoolVar(&debug, "debug", false, "log request and response traces")
	flag.BoolVar(&clearCache, "clear-cache", false, "drop the response cache before fetching")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] URL\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	rawURL := flag.Arg(0)

	cfg := bored.DefaultConfig()
	if configPath != "" {
		var err error
		cfg, err = bored.LoadConfig(configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
	}

	log.SetOutput(os.Stderr)
	if debug {
		log.SetLevel(log.DebugLevel)
	} else if level, err := log.ParseLevel(cfg.Logging.Level); err == nil {
		log.SetLevel(level)
	}

	b, err := bored.NewBrowser(cfg, clearCache)
	if err != nil {
		log.Fatalf("init browser: %v", err)
	}
	defer b.Close()

	if err := b.Load(rawURL); err != nil {
		log.Fatalf("load %s: %v", rawURL, err)
	}
}

func getenvDefault(name, def string) string {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	return v
}
