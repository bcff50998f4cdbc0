package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/sketchsync/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-e string   workspace API endpoint (e.g., "https://api.example.com/v1/")
//	-t string   workspace access token
//	-i string   target collection ID
//	-n string   target collection name (resolved via search when -i unset)
//	-d string   sketch directory to watch
//	-s string   sqlite database path
//	-k string   store backend: "sqlite" or "s3"
//	-w int      debounce interval in seconds
//	-r int      reconcile interval in minutes
//	-o          run once: reconcile, sync everything, exit
//
// Note: The function filters os.Args to only include the flags it knows
// about, using flagx.FilterArgs, to avoid interference with other
// components. Duration flags are accepted as integers and then converted to
// time.Duration values.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-e", "-t", "-i", "-n", "-d", "-s", "-k", "-w", "-r", "-o"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.Endpoint, "e", cfg.Endpoint, "workspace API endpoint")
	fs.StringVar(&cfg.Token, "t", cfg.Token, "workspace access token")
	fs.StringVar(&cfg.CollectionID, "i", cfg.CollectionID, "collection ID")
	fs.StringVar(&cfg.CollectionName, "n", cfg.CollectionName, "collection name")
	fs.StringVar(&cfg.SketchDir, "d", cfg.SketchDir, "sketch directory")
	fs.StringVar(&cfg.DatabaseDSN, "s", cfg.DatabaseDSN, "sqlite database path")
	fs.StringVar(&cfg.StoreBackend, "k", cfg.StoreBackend, "store backend (sqlite or s3)")

	debounce := fs.Int("w", int(cfg.DebounceInterval.Seconds()), "debounce interval (in seconds)")
	reconcile := fs.Int("r", int(cfg.ReconcileInterval.Minutes()), "reconcile interval (in minutes)")

	fs.BoolVar(&cfg.RunOnce, "o", cfg.RunOnce, "run once and exit")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.DebounceInterval = time.Duration(*debounce) * time.Second
	cfg.ReconcileInterval = time.Duration(*reconcile) * time.Minute
}
