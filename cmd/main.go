package main

import (
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/lesotho-health/cost-api/cmd/commands"
)

func main() {
	// Configure logging; commands refine it from configuration
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})

	if err := commands.Execute(); err != nil {
		log.Errorf("Error: %v", err)
		os.Exit(1)
	}
}
