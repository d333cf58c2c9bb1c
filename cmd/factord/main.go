// Command factord runs the prime factorization daemon: a TCP server
// dispatching factorization requests to a pool of worker actors.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/primeworks/factord/bootstrap"
	"github.com/primeworks/factord/config"
)

func main() {
	configFile := flag.String("config", "", "path to the configuration file (default: search standard locations)")
	flag.Parse()

	loader := config.NewLoader()

	var (
		cfg *config.Config
		err error
	)
	if *configFile != "" {
		cfg, err = loader.LoadFromFile(*configFile)
	} else {
		cfg, err = loader.AutoLoad()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "factord: failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	app, err := bootstrap.New(cfg, *configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "factord: %v\n", err)
		os.Exit(1)
	}

	if err := app.Run(context.Background()); err != nil {
		app.Logger().Sync()
		fmt.Fprintf(os.Stderr, "factord: %v\n", err)
		os.Exit(1)
	}
}
