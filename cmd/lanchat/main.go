// Command lanchat is the process bootstrap/teardown glue spec.md §1 treats
// as an external collaborator: load config, start the coordinator, hand
// control to the interactive shell, and propagate exit codes on fatal
// bootstrap errors (§6: non-zero on bind/interface-lookup failure).
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/lanchat/lanchat/internal/api"
	"github.com/lanchat/lanchat/internal/cli"
	"github.com/lanchat/lanchat/internal/config"
	"github.com/lanchat/lanchat/internal/coordinator"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a TOML config file (optional)")
		username   = flag.String("username", "", "display name other peers see (required)")
	)
	flag.Parse()

	if *username == "" {
		fmt.Fprintln(os.Stderr, "lanchat: -username is required")
		os.Exit(1)
	}

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "lanchat: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	c, err := coordinator.Start(cfg, *username)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lanchat: bootstrap failed: %v\n", err)
		os.Exit(1)
	}

	if cfg.Diagnostics.Enabled {
		srv := api.NewServer(c)
		srv.EnableMetrics()
		go func() {
			if err := http.ListenAndServe(cfg.Diagnostics.Addr, srv.Handler()); err != nil {
				log.Printf("[lanchat] diagnostics server stopped: %v", err)
			}
		}()
	}

	shell := cli.New(c, os.Stdout)
	if err := shell.Run(os.Stdin); err != nil {
		fmt.Fprintf(os.Stderr, "lanchat: %v\n", err)
		os.Exit(1)
	}
}
