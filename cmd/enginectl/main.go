// Command enginectl exercises the control engine locally: store a capture
// from a file, prune a directory to the retention cap, rank the configured
// providers, or print the effective configuration.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"cua-server/services/control-engine/internal/config"
	"cua-server/services/control-engine/internal/engine"
	"cua-server/services/control-engine/internal/infrastructure/logger"
	_ "cua-server/services/control-engine/internal/infrastructure/metrics" // Register Prometheus metrics
	"cua-server/services/control-engine/internal/infrastructure/registry"
)

func main() {
	// Optional; a missing .env is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	lg := logger.New(cfg)
	providers := registry.LoadOrDefault(cfg.ProvidersFile, lg)
	eng := engine.New(cfg, registry.Names(providers), lg)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "store":
		err = runStore(eng, os.Args[2:])
	case "prune":
		eng.Prune()
	case "rank":
		for _, name := range eng.RankProviders(nil) {
			fmt.Println(name)
		}
	case "config":
		err = printConfig(eng)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", os.Args[1]).Msg("Command failed")
	}
}

func runStore(eng *engine.Engine, args []string) error {
	fs := flag.NewFlagSet("store", flag.ExitOnError)
	file := fs.String("file", "", "path of the image to store")
	captureContext := fs.String("context", "", "context tag for the capture")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("store: -file is required")
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		return fmt.Errorf("read capture: %w", err)
	}

	rec, err := eng.Store(context.Background(), data, *captureContext)
	if err != nil {
		return err
	}
	if rec == nil {
		fmt.Println("skipped by capture policy")
		return nil
	}
	fmt.Println(rec.Path)
	return nil
}

func printConfig(eng *engine.Engine) error {
	out, err := json.MarshalIndent(eng.Config(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: enginectl <store|prune|rank|config> [flags]")
}
