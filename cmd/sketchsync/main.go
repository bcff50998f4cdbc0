package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/sketchsync/internal/agent"
	"github.com/dmitrijs2005/sketchsync/internal/buildinfo"
	"github.com/dmitrijs2005/sketchsync/internal/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := agent.NewApp(cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}
